package model

import (
	"fmt"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	wireTypeChar   = "type"
	wireTypeDelete = "delete"
)

// WireEvent is the JSON form of an Event.
type WireEvent struct {
	Type    string  `json:"type"`
	Char    string  `json:"char,omitempty"`
	DelayMs float64 `json:"delay_ms"`
}

// WirePlan is the JSON form of a Plan.
type WirePlan struct {
	Events      []WireEvent `json:"events"`
	TotalTimeMs float64     `json:"total_time_ms"`
}

// ToWire converts a single event to its JSON form.
func ToWire(ev Event) WireEvent {
	switch e := ev.(type) {
	case TypeEvent:
		return WireEvent{Type: wireTypeChar, Char: string(e.Char), DelayMs: e.DelayMs}
	case DeleteEvent:
		return WireEvent{Type: wireTypeDelete, DelayMs: e.DelayMs}
	default:
		panic(fmt.Sprintf("model: unhandled event %T", ev))
	}
}

// FromWire converts a JSON event back to an Event.
func FromWire(w WireEvent) (Event, error) {
	switch w.Type {
	case wireTypeChar:
		r, size := utf8.DecodeRuneInString(w.Char)
		if size == 0 || size != len(w.Char) || r == utf8.RuneError {
			return nil, fmt.Errorf("type event must carry exactly one character, got %q", w.Char)
		}
		return TypeEvent{Char: r, DelayMs: w.DelayMs}, nil
	case wireTypeDelete:
		return DeleteEvent{DelayMs: w.DelayMs}, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", w.Type)
	}
}

// EventsToWire converts a batch of events.
func EventsToWire(events []Event) []WireEvent {
	out := make([]WireEvent, len(events))
	for i, ev := range events {
		out[i] = ToWire(ev)
	}
	return out
}

// EventsFromWire converts a batch of JSON events.
func EventsFromWire(wire []WireEvent) ([]Event, error) {
	out := make([]Event, len(wire))
	for i, w := range wire {
		ev, err := FromWire(w)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		out[i] = ev
	}
	return out, nil
}

// MarshalJSON encodes the plan in its wire form.
func (p Plan) MarshalJSON() ([]byte, error) {
	return json.Marshal(WirePlan{Events: EventsToWire(p.Events), TotalTimeMs: p.TotalTimeMs})
}

// UnmarshalJSON decodes a plan from its wire form. The total is recomputed
// from the decoded delays.
func (p *Plan) UnmarshalJSON(data []byte) error {
	var wire WirePlan
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	events, err := EventsFromWire(wire.Events)
	if err != nil {
		return err
	}
	*p = NewPlan(events)
	return nil
}
