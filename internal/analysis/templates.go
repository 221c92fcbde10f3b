// SPDX-License-Identifier: MIT
package analysis

import "fmt"

// Peak is a local maximum of a spectral envelope frame. Bin is fractional
// once several frames have been averaged.
type Peak struct {
	Bin       float64 `json:"bin" yaml:"bin"`
	Amplitude float64 `json:"amplitude" yaml:"amplitude"`
}

// Template is the canonical formant layout of one vowel: three or four
// peaks ordered by bin.
type Template []Peak

// TemplateSet maps every vowel to its 3-peak and 4-peak template. It is
// read-only once built and may be shared freely.
type TemplateSet struct {
	peak3 [NumVowels]Template
	peak4 [NumVowels]Template
}

// NewTemplateSet builds a TemplateSet, checking that every vowel has a
// template of the right arity in both tables.
func NewTemplateSet(peak3, peak4 map[Vowel]Template) (*TemplateSet, error) {
	s := &TemplateSet{}
	for _, v := range Vowels {
		t3, ok := peak3[v]
		if !ok || len(t3) != 3 {
			return nil, fmt.Errorf("vowel %s: 3-peak template missing or malformed", v)
		}
		t4, ok := peak4[v]
		if !ok || len(t4) != 4 {
			return nil, fmt.Errorf("vowel %s: 4-peak template missing or malformed", v)
		}
		s.peak3[v] = append(Template(nil), t3...)
		s.peak4[v] = append(Template(nil), t4...)
	}
	return s, nil
}

// Lookup returns the template for vowel v with the given number of peaks.
// Only arities 3 and 4 exist.
func (s *TemplateSet) Lookup(arity int, v Vowel) (Template, bool) {
	if !v.Valid() {
		return nil, false
	}
	switch arity {
	case 3:
		return s.peak3[v], true
	case 4:
		return s.peak4[v], true
	default:
		return nil, false
	}
}

// DefaultTemplates returns the built-in formant database, tuned against
// 1024-sample frames and the 257-bin envelope the pipeline produces.
func DefaultTemplates() *TemplateSet {
	s, err := NewTemplateSet(
		map[Vowel]Template{
			VowelA: {{18, 1.0}, {41, 0.9}, {85, 0.75}},
			VowelE: {{21, 1.0}, {60, 0.75}, {84, 0.65}},
			VowelI: {{21, 1.0}, {42, 1.1}, {84, 1.0}},
			VowelO: {{20, 1.0}, {63, 0.9}, {85, 0.8}},
			VowelU: {{19, 1.0}, {47, 0.65}, {84, 0.7}},
		},
		map[Vowel]Template{
			VowelA: {{18, 1.0}, {41, 0.9}, {68, 0.7}, {85, 0.55}},
			VowelE: {{22, 1.0}, {43, 0.9}, {66, 0.7}, {84, 0.65}},
			VowelI: {{21, 1.0}, {42, 1.1}, {60, 1.0}, {84, 1.1}},
			VowelO: {{20, 1.0}, {39, 0.9}, {63, 0.75}, {85, 0.8}},
			VowelU: {{20, 1.0}, {39, 0.7}, {65, 0.6}, {84, 0.75}},
		},
	)
	if err != nil {
		panic(err) // the literal tables above are complete
	}
	return s
}
