package replay

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/verte-zerg/ghosttype/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeClock advances virtual time on Sleep and never blocks.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	slept  []time.Duration
	onStep func(int)
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(0, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.slept = append(c.slept, d)
	step := len(c.slept)
	hook := c.onStep
	c.mu.Unlock()
	if hook != nil {
		hook(step)
	}
	return ctx.Err()
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func typed(text string, delay float64) []model.Event {
	events := make([]model.Event, 0, len(text))
	for _, r := range text {
		events = append(events, model.TypeEvent{Char: r, DelayMs: delay})
	}
	return events
}

func TestSimulateReplaysCorrections(t *testing.T) {
	events := []model.Event{
		model.TypeEvent{Char: 'h', DelayMs: 50},
		model.TypeEvent{Char: 'w', DelayMs: 50},
		model.DeleteEvent{DelayMs: 50},
		model.TypeEvent{Char: 'i', DelayMs: 50},
	}
	assert.Equal(t, "hi", Simulate(events))
	assert.Equal(t, "", Simulate([]model.Event{model.DeleteEvent{DelayMs: 40}}))
}

func TestCharCounts(t *testing.T) {
	events := []model.Event{
		model.TypeEvent{Char: 'a', DelayMs: 50},
		model.TypeEvent{Char: 's', DelayMs: 50},
		model.DeleteEvent{DelayMs: 50},
		model.TypeEvent{Char: 'b', DelayMs: 50},
	}
	counts := CharCounts(events)
	assert.Equal(t, []model.RunCharStats{
		{Char: "a", Typed: 1},
		{Char: "b", Typed: 1},
		{Char: "s", Typed: 1, Deleted: 1},
	}, counts)
}

func TestPlayerDrainsInOrder(t *testing.T) {
	plan := model.NewPlan(append(typed("hey", 100), model.DeleteEvent{DelayMs: 60}))
	clock := newFakeClock()
	buf := NewBuffer()
	var progress []int
	player := NewPlayer(plan, buf,
		WithClock(clock),
		WithBatchSize(2),
		WithProgress(func(p Progress) { progress = append(progress, p.Consumed) }),
	)

	res, err := player.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.RunCompleted, res.Status)
	assert.Equal(t, 4, res.Consumed)
	assert.Equal(t, "he", buf.String())
	assert.Equal(t, []int{1, 2, 3, 4}, progress)
	assert.Equal(t, 360*time.Millisecond, res.Elapsed)

	_, err = player.Run(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestPlayerBatchSizeDoesNotChangeOutput(t *testing.T) {
	events := append(typed("abc", 40), model.DeleteEvent{DelayMs: 40})
	events = append(events, typed("d", 40)...)
	plan := model.NewPlan(events)
	for _, size := range []int{1, 2, 3, 16} {
		buf := NewBuffer()
		_, err := NewPlayer(plan, buf, WithClock(newFakeClock()), WithBatchSize(size)).Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "abd", buf.String(), "batch size %d", size)
	}
}

func TestPlayerStop(t *testing.T) {
	plan := model.NewPlan(typed("abcdef", 100))
	clock := newFakeClock()
	buf := NewBuffer()
	player := NewPlayer(plan, buf, WithClock(clock))
	clock.onStep = func(step int) {
		if step == 2 {
			player.Stop()
		}
	}

	res, err := player.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.RunStopped, res.Status)
	assert.Equal(t, "ab", buf.String())
	assert.Equal(t, 2, res.Consumed)
}

func TestPlayerContextCancel(t *testing.T) {
	plan := model.NewPlan(typed("abc", 100))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := NewPlayer(plan, NewBuffer(), WithClock(newFakeClock())).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, model.RunStopped, res.Status)
	assert.Zero(t, res.Consumed)
}

func TestPlayerPauseExcludedFromElapsed(t *testing.T) {
	plan := model.NewPlan(typed("abc", 100))
	clock := newFakeClock()
	buf := NewBuffer()
	player := NewPlayer(plan, buf, WithClock(clock))

	resumed := make(chan struct{})
	clock.onStep = func(step int) {
		if step != 1 {
			return
		}
		player.Pause()
		assert.True(t, player.Paused())
		go func() {
			clock.advance(5 * time.Second)
			player.Resume()
			close(resumed)
		}()
	}

	res, err := player.Run(context.Background())
	require.NoError(t, err)
	<-resumed
	assert.Equal(t, model.RunCompleted, res.Status)
	assert.Equal(t, "abc", buf.String())
	assert.Equal(t, 300*time.Millisecond, res.Elapsed)
	assert.Equal(t, 3, player.Position())
}

type failingInjector struct {
	*Buffer
	failAt int
	calls  int
}

func (f *failingInjector) TypeRune(ctx context.Context, r rune) error {
	f.calls++
	if f.calls == f.failAt {
		return errors.New("permission denied")
	}
	return f.Buffer.TypeRune(ctx, r)
}

func TestPlayerReportsInjectionFailure(t *testing.T) {
	plan := model.NewPlan(typed("abc", 50))
	inj := &failingInjector{Buffer: NewBuffer(), failAt: 2}
	res, err := NewPlayer(plan, inj, WithClock(newFakeClock())).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
	assert.Equal(t, model.RunFailed, res.Status)
	assert.Equal(t, 1, res.Consumed)
	assert.Len(t, plan.Events, 3, "plan is left intact")
}

type recordingBatcher struct {
	*Buffer
	batches [][]model.Event
}

func (r *recordingBatcher) Inject(ctx context.Context, batch []model.Event) error {
	r.batches = append(r.batches, batch)
	for _, ev := range batch {
		if err := Apply(ctx, r.Buffer, ev); err != nil {
			return err
		}
	}
	return nil
}

func TestPlayerHandsBatchesToBatchInjector(t *testing.T) {
	plan := model.NewPlan(typed("abcde", 30))
	inj := &recordingBatcher{Buffer: NewBuffer()}
	clock := newFakeClock()
	res, err := NewPlayer(plan, inj, WithClock(clock), WithBatchSize(2)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, res.Consumed)
	assert.Len(t, inj.batches, 3)
	assert.Equal(t, "abcde", inj.String())
	assert.Empty(t, clock.slept, "batch injector observes delays itself")
}
