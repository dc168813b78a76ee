package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPlanSumsDelays(t *testing.T) {
	plan := NewPlan([]Event{
		TypeEvent{Char: 'a', DelayMs: 100.5},
		DeleteEvent{DelayMs: 60},
		TypeEvent{Char: 'b', DelayMs: 39.5},
	})
	assert.InDelta(t, 200.0, plan.TotalTimeMs, 1e-9)
	types, deletes := plan.Counts()
	assert.Equal(t, 2, types)
	assert.Equal(t, 1, deletes)
	assert.InDelta(t, 99.5, plan.RemainingMs(1), 1e-9)
}

func TestBatchesPreserveOrder(t *testing.T) {
	events := make([]Event, 0, 7)
	for _, r := range "abcdefg" {
		events = append(events, TypeEvent{Char: r, DelayMs: 50})
	}
	plan := NewPlan(events)
	batches := plan.Batches(3)
	require.Len(t, batches, 3)
	assert.Len(t, batches[2], 1)

	var flat []Event
	for _, b := range batches {
		flat = append(flat, b...)
	}
	assert.Equal(t, events, flat)
	assert.Len(t, plan.Batches(0), 1)
	assert.Nil(t, NewPlan(nil).Batches(4))
}

func TestPlanJSONWireForm(t *testing.T) {
	plan := NewPlan([]Event{
		TypeEvent{Char: 'é', DelayMs: 120},
		DeleteEvent{DelayMs: 45},
	})
	data, err := plan.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"events":[{"type":"type","char":"é","delay_ms":120},{"type":"delete","delay_ms":45}],"total_time_ms":165}`, string(data))

	var decoded Plan
	require.NoError(t, decoded.UnmarshalJSON(data))
	assert.Equal(t, plan, decoded)
}

func TestFromWireRejectsBadEvents(t *testing.T) {
	_, err := FromWire(WireEvent{Type: "type", Char: "ab"})
	assert.Error(t, err)
	_, err = FromWire(WireEvent{Type: "type"})
	assert.Error(t, err)
	_, err = FromWire(WireEvent{Type: "noop"})
	assert.Error(t, err)
}

func TestParseRandomness(t *testing.T) {
	for in, want := range map[string]Randomness{
		"smooth": RandomnessSmooth,
		"0":      RandomnessSmooth,
		"Normal": RandomnessNormal,
		"":       RandomnessNormal,
		"high":   RandomnessHigh,
		"2":      RandomnessHigh,
	} {
		got, err := ParseRandomness(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	got, err := ParseRandomness("wild")
	assert.Error(t, err)
	assert.Equal(t, RandomnessNormal, got)
}
