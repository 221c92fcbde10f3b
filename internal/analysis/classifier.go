// SPDX-License-Identifier: MIT
package analysis

import "math"

// binWeight scales bin differences so that position only nudges the
// distance while amplitude dominates it.
const binWeight = 1.0 / 255.0

// Distance sums, peak by peak, the weighted bin difference and the absolute
// amplitude difference between observed peaks and a template of the same
// length.
func Distance(observed []Peak, t Template) float64 {
	var d float64
	for i, p := range observed {
		d += math.Abs(t[i].Bin-p.Bin)*binWeight + math.Abs(t[i].Amplitude-p.Amplitude)
	}
	return d
}

// Classifier scores peak vectors against a TemplateSet.
type Classifier struct {
	templates *TemplateSet
}

// NewClassifier returns a Classifier over templates. A nil set selects
// DefaultTemplates.
func NewClassifier(templates *TemplateSet) *Classifier {
	if templates == nil {
		templates = DefaultTemplates()
	}
	return &Classifier{templates: templates}
}

// Distances returns the distance from peaks to every vowel's template of
// matching arity, indexed by Vowel. It reports false for arities other than
// 3 or 4.
func (c *Classifier) Distances(peaks []Peak) ([NumVowels]float64, bool) {
	var out [NumVowels]float64
	for _, v := range Vowels {
		t, ok := c.templates.Lookup(len(peaks), v)
		if !ok {
			return out, false
		}
		out[v] = Distance(peaks, t)
	}
	return out, true
}

// Classify returns the vowel whose template is nearest to peaks and its
// distance. Ties go to the vowel earliest in Vowels.
func (c *Classifier) Classify(peaks []Peak) (Vowel, float64, bool) {
	dist, ok := c.Distances(peaks)
	if !ok {
		return NoVowel, 0, false
	}
	best := Vowels[0]
	for _, v := range Vowels[1:] {
		if dist[v] < dist[best] {
			best = v
		}
	}
	return best, dist[best], true
}
