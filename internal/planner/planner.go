// Package planner turns text into a timed keystroke plan.
package planner

import (
	"math"

	"github.com/charmbracelet/log"

	"github.com/verte-zerg/ghosttype/internal/behavior"
	"github.com/verte-zerg/ghosttype/internal/mistake"
	"github.com/verte-zerg/ghosttype/internal/model"
	"github.com/verte-zerg/ghosttype/internal/random"
	"github.com/verte-zerg/ghosttype/internal/timing"
)

// Planner walks a text once and emits its keystroke plan. A Planner holds
// a random source and is not safe for concurrent use; independent Planners
// may run in parallel.
type Planner struct {
	src    random.Source
	logger *log.Logger
}

// Option configures a Planner.
type Option func(*Planner)

// WithLogger reports mistakes, bursts and pauses at debug level.
func WithLogger(logger *log.Logger) Option {
	return func(p *Planner) {
		p.logger = logger
	}
}

// New returns a Planner drawing from src.
func New(src random.Source, opts ...Option) *Planner {
	p := &Planner{src: src}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Generate plans text with a Planner seeded by seed.
func Generate(text string, settings model.Settings, seed int64) model.Plan {
	return New(random.New(seed)).Plan(text, settings)
}

// state is the cross-character burst bookkeeping of one planning pass.
type state struct {
	burstRemaining  int
	burstMultiplier float64
}

// Plan produces the event list for text. Settings must already be
// validated. Empty text yields an empty plan.
func (p *Planner) Plan(text string, settings model.Settings) model.Plan {
	runes := []rune(text)
	events := make([]model.Event, 0, len(runes)+len(runes)/8)
	mistakes := mistake.New(settings, p.src)
	st := state{burstMultiplier: 1}

	for i := 0; i < len(runes); {
		if pause := behavior.ThinkingPause(p.src, settings, runes, i); pause > 0 && len(events) > 0 {
			last := len(events) - 1
			events[last] = model.AddDelay(events[last], pause)
			p.debug("thinking pause", "index", i, "ms", int(pause), "word", behavior.WordAt(runes, i))
		}

		if seq, ok := mistakes.Attempt(runes, i); ok {
			events = append(events, seq.Events...)
			p.debug("mistake", "index", i, "transposed", seq.Transposed, "events", len(seq.Events),
				"difficulty", behavior.WordDifficulty(behavior.WordAt(runes, i)))
			i = seq.ResumeIndex + 1
			continue
		}

		delay := timing.CharDelay(p.src, runes, i, settings)
		delay = p.applyBurst(&st, settings, delay, i)
		if settings.TimeBasedSpeed {
			delay *= behavior.SpeedCurve(behavior.Progress(i, len(runes)))
		}
		delay += behavior.MicroPause(p.src, settings, runes, i)

		events = append(events, model.TypeEvent{Char: runes[i], DelayMs: math.Max(timing.MinEventDelay, delay)})
		i++
	}
	return model.NewPlan(events)
}

// applyBurst discounts delay while a burst is running, adds the settling
// delay when one ends and otherwise rolls for a new burst that starts with
// the next character.
func (p *Planner) applyBurst(st *state, settings model.Settings, delay float64, i int) float64 {
	if st.burstRemaining > 0 {
		delay *= st.burstMultiplier
		st.burstRemaining--
		if st.burstRemaining == 0 {
			delay += behavior.BurstSettleDelay
			st.burstMultiplier = 1
		}
		return delay
	}
	if n, mult, ok := behavior.StartBurst(p.src, settings); ok {
		st.burstRemaining = n
		st.burstMultiplier = mult
		p.debug("burst", "index", i, "length", n, "multiplier", mult)
	}
	return delay
}

func (p *Planner) debug(msg string, keyvals ...interface{}) {
	if p.logger != nil {
		p.logger.Debug(msg, keyvals...)
	}
}
