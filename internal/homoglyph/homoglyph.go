// Package homoglyph replaces ASCII letters and digits with visually
// confusable code points from other scripts.
//
// Every mapped rune is replaced independently by a uniformly drawn
// alternative; unmapped runes pass through. The output always has the same
// rune count as the input. Applying Transform to its own output usually
// changes little, since the substituted runes are not keys of the table.
package homoglyph

import (
	"math/rand"
	"strings"
	"sync"
	"time"
)

// Substitutor performs confusable substitution with its own random source.
// It is safe for concurrent use.
type Substitutor struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a Substitutor drawing from src. A nil src is seeded from the clock.
func New(src rand.Source) *Substitutor {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Substitutor{rng: rand.New(src)}
}

// Transform returns text with every mapped rune replaced by one of its
// confusables.
func (s *Substitutor) Transform(text string) string {
	var b strings.Builder
	b.Grow(len(text) * 2)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range text {
		alts, ok := confusables[r]
		if !ok {
			b.WriteRune(r)
			continue
		}
		b.WriteRune(alts[s.rng.Intn(len(alts))])
	}
	return b.String()
}

var (
	defaultOnce sync.Once
	defaultSub  *Substitutor
)

// Transform substitutes text using a process-wide, clock-seeded Substitutor.
func Transform(text string) string {
	defaultOnce.Do(func() { defaultSub = New(nil) })
	return defaultSub.Transform(text)
}

// Confusables returns a copy of the alternatives for r, or nil if r is not mapped.
func Confusables(r rune) []rune {
	alts, ok := confusables[r]
	if !ok {
		return nil
	}
	out := make([]rune, len(alts))
	copy(out, alts)
	return out
}

// Keys returns every rune the table maps.
func Keys() []rune {
	out := make([]rune, 0, len(confusables))
	for r := range confusables {
		out = append(out, r)
	}
	return out
}
