// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"math"
	"testing"
)

func TestDistance(t *testing.T) {
	observed := []Peak{{20, 1}, {40, 0.5}, {80, 0.5}}
	tmpl := Template{{18, 1}, {41, 0.9}, {85, 0.75}}

	want := 8.0/255 + 0.4 + 0.25
	if got := Distance(observed, tmpl); math.Abs(got-want) > 1e-12 {
		t.Errorf("Distance() = %f, want %f", got, want)
	}
}

func TestDistanceIsSymmetricInAmplitude(t *testing.T) {
	above := Distance([]Peak{{10, 1.2}}, Template{{10, 1}})
	below := Distance([]Peak{{10, 0.8}}, Template{{10, 1}})
	if math.Abs(above-below) > 1e-12 {
		t.Errorf("over- and undershoot differ: %f vs %f", above, below)
	}
}

func TestClassifyIdenticalTemplate(t *testing.T) {
	c := NewClassifier(nil)
	set := DefaultTemplates()

	for _, arity := range []int{3, 4} {
		for _, v := range Vowels {
			tmpl, _ := set.Lookup(arity, v)
			dist, ok := c.Distances([]Peak(tmpl))
			if !ok {
				t.Fatalf("arity %d rejected", arity)
			}
			if dist[v] != 0 {
				t.Errorf("%d-peak %s: self distance = %f, want 0", arity, v, dist[v])
			}
			for _, other := range Vowels {
				if other != v && dist[other] <= 0 {
					t.Errorf("%d-peak %s: distance to %s = %f, want > 0", arity, v, other, dist[other])
				}
			}

			got, d, ok := c.Classify([]Peak(tmpl))
			if !ok || got != v || d != 0 {
				t.Errorf("Classify(%d-peak %s) = %s, %f, %v", arity, v, got, d, ok)
			}
		}
	}
}

func TestClassifyRejectsOtherArities(t *testing.T) {
	c := NewClassifier(nil)
	for _, n := range []int{0, 1, 2, 5} {
		peaks := make([]Peak, n)
		if v, _, ok := c.Classify(peaks); ok || v != NoVowel {
			t.Errorf("Classify(%d peaks) = %s, %v; want NoVowel, false", n, v, ok)
		}
	}
}

func TestClassifyTieGoesToFirstVowel(t *testing.T) {
	same3 := Template{{10, 1}, {20, 1}, {30, 1}}
	same4 := Template{{10, 1}, {20, 1}, {30, 1}, {40, 1}}
	p3 := map[Vowel]Template{}
	p4 := map[Vowel]Template{}
	for _, v := range Vowels {
		p3[v], p4[v] = same3, same4
	}
	set, err := NewTemplateSet(p3, p4)
	if err != nil {
		t.Fatalf("NewTemplateSet: %v", err)
	}

	got, _, _ := NewClassifier(set).Classify([]Peak{{11, 1}, {22, 0.8}, {33, 0.5}})
	if got != VowelA {
		t.Errorf("tie resolved to %s, want A", got)
	}
}

func TestNewTemplateSetValidates(t *testing.T) {
	full3 := map[Vowel]Template{}
	full4 := map[Vowel]Template{}
	for _, v := range Vowels {
		full3[v] = Template{{1, 1}, {2, 1}, {3, 1}}
		full4[v] = Template{{1, 1}, {2, 1}, {3, 1}, {4, 1}}
	}

	missing := map[Vowel]Template{VowelA: full3[VowelA]}
	if _, err := NewTemplateSet(missing, full4); err == nil {
		t.Error("missing vowels accepted")
	}

	wrong := map[Vowel]Template{}
	for v, tmpl := range full4 {
		wrong[v] = tmpl
	}
	wrong[VowelO] = Template{{1, 1}}
	if _, err := NewTemplateSet(full3, wrong); err == nil {
		t.Error("1-peak template accepted in the 4-peak table")
	}

	if _, err := NewTemplateSet(full3, full4); err != nil {
		t.Errorf("complete tables rejected: %v", err)
	}
}

func TestTemplateLookup(t *testing.T) {
	set := DefaultTemplates()
	if _, ok := set.Lookup(3, NoVowel); ok {
		t.Error("Lookup(NoVowel) succeeded")
	}
	if _, ok := set.Lookup(2, VowelA); ok {
		t.Error("Lookup(arity 2) succeeded")
	}
	a4, ok := set.Lookup(4, VowelA)
	if !ok || len(a4) != 4 || a4[2].Bin != 68 {
		t.Errorf("Lookup(4, A) = %v, %v", a4, ok)
	}
}

func TestVowelStringAndParse(t *testing.T) {
	names := []string{"A", "E", "I", "O", "U"}
	for i, v := range Vowels {
		if v.String() != names[i] {
			t.Errorf("Vowels[%d].String() = %q, want %q", i, v.String(), names[i])
		}
		parsed, err := ParseVowel(names[i])
		if err != nil || parsed != v {
			t.Errorf("ParseVowel(%q) = %s, %v", names[i], parsed, err)
		}
	}
	if NoVowel.String() != "-" || NoVowel.Valid() {
		t.Errorf("NoVowel = %q valid=%v", NoVowel.String(), NoVowel.Valid())
	}
	if _, err := ParseVowel("y"); err == nil {
		t.Error("ParseVowel(y) succeeded")
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"FFT not power of two", func(c *Config) { c.FFTSamples = 1000 }},
		{"FFT too small", func(c *Config) { c.FFTSamples = 4 }},
		{"Zero dynamic range", func(c *Config) { c.DynamicRange = 0 }},
		{"Gate inverted", func(c *Config) { c.GateLow, c.GateHigh = 50, 40 }},
		{"Gate beyond half spectrum", func(c *Config) { c.GateHigh = 600 }},
		{"Lifter too large", func(c *Config) { c.LifterCutoff = 300 }},
		{"Peak threshold", func(c *Config) { c.PeakThreshold = 1 }},
		{"Confidence threshold", func(c *Config) { c.ConfidenceThreshold = -0.1 }},
		{"Empty history", func(c *Config) { c.HistorySize = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}
