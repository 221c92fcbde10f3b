// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"strings"
)

// Vowel identifies one of the five supported vowel visemes. NoVowel marks
// a frame whose articulation could not be classified.
type Vowel int8

const NoVowel Vowel = -1

const (
	VowelA Vowel = iota
	VowelE
	VowelI
	VowelO
	VowelU
)

// NumVowels is the number of classifiable vowels.
const NumVowels = 5

// Vowels lists every classifiable vowel in scan order. Classification ties
// resolve to the vowel that appears first.
var Vowels = [NumVowels]Vowel{VowelA, VowelE, VowelI, VowelO, VowelU}

var vowelNames = [NumVowels]string{"A", "E", "I", "O", "U"}

// Valid reports whether v is one of the five classifiable vowels.
func (v Vowel) Valid() bool {
	return v >= VowelA && v <= VowelU
}

func (v Vowel) String() string {
	if !v.Valid() {
		return "-"
	}
	return vowelNames[v]
}

// ParseVowel converts a vowel letter (case-insensitive) to a Vowel.
func ParseVowel(s string) (Vowel, error) {
	for i, name := range vowelNames {
		if strings.EqualFold(s, name) {
			return Vowel(i), nil
		}
	}
	return NoVowel, fmt.Errorf("unknown vowel %q", s)
}
