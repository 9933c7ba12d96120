// Package morse holds the character-to-representation alphabet: the
// standard ITU Morse set, a handful of procedural signs, and the
// ISO-8859 accented extensions, plus the lookup helpers the generator
// and receiver packages build on.
package morse

import (
	"strings"
	"unicode"

	"github.com/n1cw/gocw/cwerrors"
)

// MaxRepresentationLength bounds a single character's dot/dash string,
// matching the receiver's representation buffer capacity.
const MaxRepresentationLength = 256

type entry struct {
	char           rune
	representation string
}

// table is deliberately a flat slice, not a map, so the order mirrors
// the teacher's MORSE table and a linear scan is good enough: alphabet
// lookups happen per keystroke, not per sample.
var table = []entry{
	{'A', ".-"}, {'B', "-..."}, {'C', "-.-."}, {'D', "-.."}, {'E', "."},
	{'F', "..-."}, {'G', "--."}, {'H', "...."}, {'I', ".."}, {'J', ".---"},
	{'K', "-.-"}, {'L', ".-.."}, {'M', "--"}, {'N', "-."}, {'O', "---"},
	{'P', ".--."}, {'Q', "--.-"}, {'R', ".-."}, {'S', "..."}, {'T', "-"},
	{'U', "..-"}, {'V', "...-"}, {'W', ".--"}, {'X', "-..-"}, {'Y', "-.--"},
	{'Z', "--.."},

	{'0', "-----"}, {'1', ".----"}, {'2', "..---"}, {'3', "...--"}, {'4', "....-"},
	{'5', "....."}, {'6', "-...."}, {'7', "--..."}, {'8', "---.."}, {'9', "----."},

	{'.', ".-.-.-"}, {',', "--..--"}, {'?', "..--.."}, {'/', "-..-."},
	{'=', "-...-"}, {'-', "-....-"}, {')', "-.--.-"}, {'(', "-.--."},
	{':', "---..."}, {';', "-.-.-."}, {'"', ".-..-."}, {'\'', ".----."},
	{'$', "...-..-"}, {'+', ".-.-."}, {'_', "..--.-"}, {'@', ".--.-."},

	// Procedural signs, per the spec's glossary.
	{'<', "...-.-"}, // VA / SK
	{'>', "-...-.-"}, // BK
	{'!', "...-."},  // SN
	{'&', ".-..."},  // AS
	{'^', "-.-.-"},  // KA
	{'~', ".-...-"}, // AL

	// ISO-8859-1 accented extensions recognised by the original
	// implementation's data tables.
	{'À', ".--.-"}, {'Å', ".--.-"}, {'Ä', ".-.-"}, {'Æ', ".-.-"},
	{'È', ".-..-"}, {'É', "..-.."}, {'Ñ', "--.--"}, {'Ö', "---."},
	{'Ü', "..--"}, {'Ø', "---."}, {'Ç', "-.-.."},
}

// CharacterToRepresentation returns the dot/dash string for c. Lower-case
// letters are folded to upper case first. Returns ErrNotFound if c has
// no entry; generator.EnqueueCharacter passes that error back to its
// caller.
func CharacterToRepresentation(c rune) (string, error) {
	if unicode.IsLower(c) {
		c = unicode.ToUpper(c)
	}
	for _, e := range table {
		if e.char == c {
			return e.representation, nil
		}
	}
	return "", cwerrors.ErrNotFound
}

// RepresentationToCharacter reverse-looks-up a dot/dash string. Returns
// ErrNotFound if no character in the alphabet carries that exact
// representation.
func RepresentationToCharacter(representation string) (rune, error) {
	for _, e := range table {
		if e.representation == representation {
			return e.char, nil
		}
	}
	return 0, cwerrors.ErrNotFound
}

// ValidRepresentation reports whether s is non-empty, within
// MaxRepresentationLength, and contains only '.' and '-'.
func ValidRepresentation(s string) bool {
	if len(s) == 0 || len(s) > MaxRepresentationLength {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool { return r != '.' && r != '-' }) == -1
}
