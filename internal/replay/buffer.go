// Package replay executes keystroke plans against an injector.
package replay

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/verte-zerg/ghosttype/internal/model"
)

// Injector performs single keystrokes. Implementations bind to the OS, a
// remote agent or an in-memory buffer.
type Injector interface {
	TypeRune(ctx context.Context, r rune) error
	Backspace(ctx context.Context) error
}

// BatchInjector accepts whole batches and observes each event's delay on
// its side.
type BatchInjector interface {
	Inject(ctx context.Context, batch []model.Event) error
}

// Apply performs one event against inj without waiting.
func Apply(ctx context.Context, inj Injector, ev model.Event) error {
	switch e := ev.(type) {
	case model.TypeEvent:
		return inj.TypeRune(ctx, e.Char)
	case model.DeleteEvent:
		return inj.Backspace(ctx)
	default:
		return fmt.Errorf("unhandled event %T", ev)
	}
}

// Buffer is an Injector that edits an in-memory text with the cursor
// always at the end.
type Buffer struct {
	mu    sync.Mutex
	runes []rune
}

// NewBuffer returns an empty Buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// TypeRune appends r.
func (b *Buffer) TypeRune(_ context.Context, r rune) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.runes = append(b.runes, r)
	return nil
}

// Backspace removes the last rune. Deleting from an empty buffer is a no-op.
func (b *Buffer) Backspace(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.runes) > 0 {
		b.runes = b.runes[:len(b.runes)-1]
	}
	return nil
}

// String returns the current text.
func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.runes)
}

// Runes returns a copy of the current text.
func (b *Buffer) Runes() []rune {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]rune, len(b.runes))
	copy(out, b.runes)
	return out
}

// Len returns the number of runes in the buffer.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.runes)
}

// Simulate replays events without delays and returns the resulting text.
func Simulate(events []model.Event) string {
	buf := NewBuffer()
	for _, ev := range events {
		// Buffer never fails.
		_ = Apply(context.Background(), buf, ev)
	}
	return buf.String()
}

// CharCounts tallies typed and deleted characters for events.
func CharCounts(events []model.Event) []model.RunCharStats {
	counts := map[rune]*model.RunCharStats{}
	entry := func(r rune) *model.RunCharStats {
		e, ok := counts[r]
		if !ok {
			e = &model.RunCharStats{Char: string(r)}
			counts[r] = e
		}
		return e
	}
	var stack []rune
	for _, ev := range events {
		switch e := ev.(type) {
		case model.TypeEvent:
			entry(e.Char).Typed++
			stack = append(stack, e.Char)
		case model.DeleteEvent:
			if len(stack) == 0 {
				continue
			}
			r := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			entry(r).Deleted++
		}
	}
	out := make([]model.RunCharStats, 0, len(counts))
	for _, c := range counts {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Char < out[j].Char
	})
	return out
}
