package model

import (
	"fmt"
	"math"
)

// Event is one keystroke action of a plan. It is implemented only by
// TypeEvent and DeleteEvent; consumers switch on the concrete type.
type Event interface {
	// Delay is the pause in milliseconds observed after the action.
	Delay() float64
	// WithDelay returns a copy of the event carrying ms as its delay.
	WithDelay(ms float64) Event
	isEvent()
}

// TypeEvent types a single character.
type TypeEvent struct {
	Char    rune
	DelayMs float64
}

// DeleteEvent removes the character before the cursor.
type DeleteEvent struct {
	DelayMs float64
}

func (e TypeEvent) Delay() float64   { return e.DelayMs }
func (e DeleteEvent) Delay() float64 { return e.DelayMs }

func (e TypeEvent) WithDelay(ms float64) Event {
	e.DelayMs = ms
	return e
}

func (e DeleteEvent) WithDelay(ms float64) Event {
	e.DelayMs = ms
	return e
}

func (TypeEvent) isEvent()   {}
func (DeleteEvent) isEvent() {}

func (e TypeEvent) String() string {
	return fmt.Sprintf("type(%q, %.1fms)", e.Char, e.DelayMs)
}

func (e DeleteEvent) String() string {
	return fmt.Sprintf("delete(%.1fms)", e.DelayMs)
}

// AddDelay returns ev with extra milliseconds added to its delay.
func AddDelay(ev Event, extra float64) Event {
	return ev.WithDelay(ev.Delay() + extra)
}

// Plan is the ordered event list for one text.
type Plan struct {
	Events      []Event
	TotalTimeMs float64
}

// NewPlan builds a plan and computes its total duration.
func NewPlan(events []Event) Plan {
	total := 0.0
	for _, ev := range events {
		total += ev.Delay()
	}
	return Plan{Events: events, TotalTimeMs: total}
}

// Len returns the number of events.
func (p Plan) Len() int {
	return len(p.Events)
}

// Counts returns the number of type and delete events.
func (p Plan) Counts() (types, deletes int) {
	for _, ev := range p.Events {
		switch ev.(type) {
		case TypeEvent:
			types++
		case DeleteEvent:
			deletes++
		}
	}
	return types, deletes
}

// Duration returns the total duration rounded to whole milliseconds.
func (p Plan) Duration() int64 {
	return int64(math.Round(p.TotalTimeMs))
}

// RemainingMs returns the planned time left after the first consumed events.
func (p Plan) RemainingMs(consumed int) float64 {
	if consumed <= 0 {
		return p.TotalTimeMs
	}
	rest := 0.0
	for i := consumed; i < len(p.Events); i++ {
		rest += p.Events[i].Delay()
	}
	return rest
}

// Batches splits the events into slices of at most size events.
func (p Plan) Batches(size int) [][]Event {
	if len(p.Events) == 0 {
		return nil
	}
	if size <= 0 {
		size = len(p.Events)
	}
	out := make([][]Event, 0, (len(p.Events)+size-1)/size)
	for start := 0; start < len(p.Events); start += size {
		end := start + size
		if end > len(p.Events) {
			end = len(p.Events)
		}
		out = append(out, p.Events[start:end])
	}
	return out
}
