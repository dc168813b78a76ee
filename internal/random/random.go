// Package random provides the injectable random source used for planning.
package random

import (
	"math/rand"
	"time"
)

// Source is the minimal random interface the planning models draw from.
// *rand.Rand satisfies it.
type Source interface {
	// Float64 returns a value in [0,1).
	Float64() float64
	// Intn returns a value in [0,n). n must be > 0.
	Intn(n int) int
}

// New returns a Source seeded with seed.
func New(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// NewTimeSeeded returns a Source seeded with the current time along with
// the seed used, so a run can be reproduced later.
func NewTimeSeeded() (*rand.Rand, int64) {
	seed := time.Now().UnixNano()
	return New(seed), seed
}

// Uniform returns a value uniformly distributed in [lo,hi).
func Uniform(src Source, lo, hi float64) float64 {
	return lo + src.Float64()*(hi-lo)
}

// IntRange returns an integer uniformly distributed in [lo,hi].
func IntRange(src Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + src.Intn(hi-lo+1)
}

// Chance performs a single Bernoulli draw with probability p.
func Chance(src Source, p float64) bool {
	if p <= 0 {
		return false
	}
	return src.Float64() < p
}

// Pick returns a uniformly chosen rune from choices.
func Pick(src Source, choices []rune) rune {
	return choices[src.Intn(len(choices))]
}

// Fixed is a deterministic Source for tests. Float64 returns F and Intn
// returns I clamped into range.
type Fixed struct {
	F float64
	I int
}

func (f Fixed) Float64() float64 { return f.F }

func (f Fixed) Intn(n int) int {
	if f.I < 0 {
		return 0
	}
	if f.I >= n {
		return n - 1
	}
	return f.I
}

// Sequence replays a fixed list of floats, then repeats the last one.
// Intn is derived from the next float.
type Sequence struct {
	Values []float64
	pos    int
}

func (s *Sequence) Float64() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	if s.pos >= len(s.Values) {
		return s.Values[len(s.Values)-1]
	}
	v := s.Values[s.pos]
	s.pos++
	return v
}

func (s *Sequence) Intn(n int) int {
	v := int(s.Float64() * float64(n))
	if v >= n {
		v = n - 1
	}
	if v < 0 {
		v = 0
	}
	return v
}
