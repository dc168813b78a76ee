package replay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/verte-zerg/ghosttype/internal/model"
)

// DefaultBatchSize is the number of events handed to the injector at once.
const DefaultBatchSize = 16

// ErrAlreadyStarted is returned when Run is called twice.
var ErrAlreadyStarted = errors.New("player already started")

// Clock sleeps and tells time. It is swapped out in tests.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RealClock returns the wall clock.
func RealClock() Clock {
	return realClock{}
}

// Progress is reported after events are consumed.
type Progress struct {
	Consumed int
	Total    int
	Elapsed  time.Duration
}

// Result describes how a run ended.
type Result struct {
	Status   model.RunStatus
	Consumed int
	Elapsed  time.Duration
}

// Option configures a Player.
type Option func(*Player)

// WithBatchSize sets the number of events sent per batch.
func WithBatchSize(n int) Option {
	return func(p *Player) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(p *Player) {
		p.clock = c
	}
}

// WithProgress registers a callback invoked from the Run goroutine.
func WithProgress(fn func(Progress)) Option {
	return func(p *Player) {
		p.onProgress = fn
	}
}

// WithLogger sets the logger used for run diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(p *Player) {
		p.logger = logger
	}
}

// Player drains a plan into an injector strictly in order. Pause, Resume
// and Stop may be called from any goroutine while Run is active.
type Player struct {
	plan       model.Plan
	injector   Injector
	batch      BatchInjector
	batchSize  int
	clock      Clock
	onProgress func(Progress)
	logger     *log.Logger

	mu          sync.Mutex
	started     bool
	position    int
	paused      bool
	resumeCh    chan struct{}
	stopCh      chan struct{}
	stopOnce    sync.Once
	startedAt   time.Time
	pausedAt    time.Time
	pausedTotal time.Duration
}

// NewPlayer builds a Player for plan. inj may additionally implement
// BatchInjector, in which case whole batches are handed over and the
// injector observes the delays.
func NewPlayer(plan model.Plan, inj Injector, opts ...Option) *Player {
	p := &Player{
		plan:      plan,
		injector:  inj,
		batchSize: DefaultBatchSize,
		clock:     RealClock(),
		stopCh:    make(chan struct{}),
	}
	if bi, ok := inj.(BatchInjector); ok {
		p.batch = bi
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run drains the plan. A stopped run returns RunStopped and no error; an
// injection failure returns RunFailed with the error; a cancelled context
// returns RunStopped with the context error.
func (p *Player) Run(ctx context.Context) (Result, error) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return Result{}, ErrAlreadyStarted
	}
	p.started = true
	p.startedAt = p.clock.Now()
	p.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-p.stopCh:
			cancel()
		case <-runCtx.Done():
		}
	}()

	for _, batch := range p.plan.Batches(p.batchSize) {
		if err := p.waitWhilePaused(runCtx); err != nil {
			return p.interrupted(ctx)
		}
		if p.batch != nil {
			if err := p.batch.Inject(runCtx, batch); err != nil {
				return p.failed(ctx, err)
			}
			p.advance(len(batch))
			continue
		}
		for _, ev := range batch {
			if err := p.waitWhilePaused(runCtx); err != nil {
				return p.interrupted(ctx)
			}
			if err := Apply(runCtx, p.injector, ev); err != nil {
				return p.failed(ctx, err)
			}
			p.advance(1)
			if err := p.clock.Sleep(runCtx, millis(ev.Delay())); err != nil {
				return p.interrupted(ctx)
			}
		}
	}
	return p.result(model.RunCompleted), nil
}

// Pause stops draining after the current event.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.paused {
		return
	}
	p.paused = true
	p.pausedAt = p.clock.Now()
	p.resumeCh = make(chan struct{})
}

// Resume continues draining from the preserved position.
func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.paused {
		return
	}
	p.paused = false
	p.pausedTotal += p.clock.Now().Sub(p.pausedAt)
	close(p.resumeCh)
}

// Toggle pauses a running player or resumes a paused one.
func (p *Player) Toggle() {
	if p.Paused() {
		p.Resume()
		return
	}
	p.Pause()
}

// Stop discards the rest of the plan.
func (p *Player) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})
}

// Paused reports whether the player is paused.
func (p *Player) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// Position returns the number of consumed events.
func (p *Player) Position() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position
}

// Elapsed returns the running time excluding pauses.
func (p *Player) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.elapsedLocked()
}

func (p *Player) elapsedLocked() time.Duration {
	if !p.started {
		return 0
	}
	now := p.clock.Now()
	elapsed := now.Sub(p.startedAt) - p.pausedTotal
	if p.paused {
		elapsed -= now.Sub(p.pausedAt)
	}
	return elapsed
}

func (p *Player) waitWhilePaused(ctx context.Context) error {
	for {
		if p.isStopped() {
			return context.Canceled
		}
		p.mu.Lock()
		paused, ch := p.paused, p.resumeCh
		p.mu.Unlock()
		if !paused {
			return ctx.Err()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		}
	}
}

func (p *Player) advance(n int) {
	p.mu.Lock()
	p.position += n
	progress := Progress{Consumed: p.position, Total: p.plan.Len(), Elapsed: p.elapsedLocked()}
	p.mu.Unlock()
	if p.onProgress != nil {
		p.onProgress(progress)
	}
}

func (p *Player) result(status model.RunStatus) Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Result{Status: status, Consumed: p.position, Elapsed: p.elapsedLocked()}
}

func (p *Player) interrupted(parent context.Context) (Result, error) {
	res := p.result(model.RunStopped)
	if parent.Err() != nil {
		return res, parent.Err()
	}
	p.logf("replay stopped", "consumed", res.Consumed, "total", p.plan.Len())
	return res, nil
}

func (p *Player) failed(parent context.Context, err error) (Result, error) {
	if parent.Err() != nil || p.isStopped() {
		return p.interrupted(parent)
	}
	res := p.result(model.RunFailed)
	return res, fmt.Errorf("failed to inject event %d: %w", res.Consumed, err)
}

func (p *Player) isStopped() bool {
	select {
	case <-p.stopCh:
		return true
	default:
		return false
	}
}

func (p *Player) logf(msg string, keyvals ...interface{}) {
	if p.logger != nil {
		p.logger.Info(msg, keyvals...)
	}
}

func millis(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}
