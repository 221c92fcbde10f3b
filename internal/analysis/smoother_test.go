// SPDX-License-Identifier: MIT
package analysis

import (
	"math/rand/v2"
	"testing"
)

func newTestSmoother() *Smoother {
	return NewSmoother(3, 0.5, rand.New(rand.NewPCG(1, 2)))
}

func TestSmootherConfirmsRepeatedVowel(t *testing.T) {
	s := newTestSmoother()
	for range 3 {
		s.raw.Push(VowelA)
	}
	if s.Previous().Valid() {
		t.Fatal("fresh smoother has a previous vowel")
	}

	for _, amount := range []float64{0.9, 0.2} {
		if got := s.Update(VowelA, amount); got != VowelA {
			t.Errorf("Update(A, %.1f) = %s, want A", amount, got)
		}
	}
}

func TestSmootherHoldsOnLowConfidence(t *testing.T) {
	for _, current := range []Vowel{VowelA, VowelE, VowelU, NoVowel} {
		s := newTestSmoother()
		s.smoothed.Push(VowelE)
		s.raw.Push(current)

		if got := s.Update(current, 0.2); got != VowelE {
			t.Errorf("Update(%s, 0.2) = %s, want previous E", current, got)
		}
	}
}

func TestSmootherSuppressesUnconfirmedChange(t *testing.T) {
	s := newTestSmoother()
	s.smoothed.Push(VowelE)
	s.raw.Push(VowelE)

	if got := s.Update(VowelI, 0.9); got != VowelE {
		t.Fatalf("first I = %s, want E held", got)
	}
	if got := s.Update(VowelI, 0.9); got != VowelI {
		t.Errorf("second I = %s, want I confirmed", got)
	}
}

func TestSmootherHoldsThroughAmbiguousFrames(t *testing.T) {
	s := newTestSmoother()
	s.smoothed.Push(VowelO)

	for range 4 {
		if got := s.Update(NoVowel, 0.9); got != VowelO {
			t.Errorf("Update(NoVowel) = %s, want O held", got)
		}
	}
}

func TestSmootherColdStartIsSeeded(t *testing.T) {
	a, b := newTestSmoother(), newTestSmoother()

	for i := range 10 {
		va := a.Update(NoVowel, 0.9)
		vb := b.Update(NoVowel, 0.9)
		if !va.Valid() {
			t.Fatalf("frame %d: cold start output %s is not a vowel", i, va)
		}
		if va != vb {
			t.Fatalf("frame %d: same seed produced %s and %s", i, va, vb)
		}
	}
}

func TestSmootherBootstrapThenConfirm(t *testing.T) {
	s := newTestSmoother()

	first := s.Update(VowelU, 0.9)
	if !first.Valid() {
		t.Fatalf("bootstrap output %s is not a vowel", first)
	}
	if got := s.Update(VowelU, 0.9); got != VowelU {
		t.Errorf("second U = %s, want U", got)
	}
	if s.raw.Len() != 3 || s.smoothed.Len() != 3 {
		t.Errorf("history lengths = %d/%d, want 3/3", s.raw.Len(), s.smoothed.Len())
	}
}

func TestSmootherOutputsStayValid(t *testing.T) {
	s := newTestSmoother()
	rng := rand.New(rand.NewPCG(7, 7))

	for range 1000 {
		current := Vowel(rng.IntN(NumVowels+1) - 1)
		if got := s.Update(current, rng.Float64()); !got.Valid() {
			t.Fatalf("Update(%s) = %s, want a vowel", current, got)
		}
	}
}
