// SPDX-License-Identifier: MIT
package analysis

import "math/rand/v2"

// Smoother turns per-frame classifications into a stable displayed vowel.
//
// A change of vowel is only shown once two consecutive frames agree on it,
// and frames quieter than the confidence threshold never change what is
// shown. Until a vowel has been established the output is a random vowel,
// so the animation always has something to display.
type Smoother struct {
	raw       *History[Vowel]
	smoothed  *History[Vowel]
	threshold float64
	rng       *rand.Rand
}

// NewSmoother returns a Smoother whose histories hold size entries, all
// initially NoVowel. rng drives the start-up fallback and must not be nil.
func NewSmoother(size int, confidenceThreshold float64, rng *rand.Rand) *Smoother {
	fill := make([]Vowel, size)
	for i := range fill {
		fill[i] = NoVowel
	}
	return &Smoother{
		raw:       NewHistory(size, fill...),
		smoothed:  NewHistory(size, fill...),
		threshold: confidenceThreshold,
		rng:       rng,
	}
}

// Update feeds the current raw classification and loudness confidence and
// returns the vowel to display. Both values are recorded in the histories.
func (s *Smoother) Update(current Vowel, amount float64) Vowel {
	out := s.decide(current, amount)
	s.raw.Push(current)
	s.smoothed.Push(out)
	return out
}

func (s *Smoother) decide(current Vowel, amount float64) Vowel {
	previous := s.Previous()

	if previous.Valid() && amount < s.threshold {
		return previous
	}

	if s.raw.Len() >= s.raw.Cap() {
		last, _ := s.raw.Front()
		if current == last && current.Valid() {
			return current
		}
		if previous.Valid() {
			return previous
		}
	}

	return Vowels[s.rng.IntN(NumVowels)]
}

// Previous returns the most recent displayed vowel, or NoVowel.
func (s *Smoother) Previous() Vowel {
	if v, ok := s.smoothed.Front(); ok {
		return v
	}
	return NoVowel
}
