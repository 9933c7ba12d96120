package morse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/n1cw/gocw/cwerrors"
)

func Test_CharacterToRepresentation_KnownLetters(t *testing.T) {
	rep, err := CharacterToRepresentation('S')
	require.NoError(t, err)
	assert.Equal(t, "...", rep)

	rep, err = CharacterToRepresentation('o')
	require.NoError(t, err)
	assert.Equal(t, "---", rep)
}

func Test_CharacterToRepresentation_Unknown_NotFound(t *testing.T) {
	_, err := CharacterToRepresentation('{')
	assert.ErrorIs(t, err, cwerrors.ErrNotFound)
}

func Test_RepresentationToCharacter_RoundTrip(t *testing.T) {
	// A handful of ISO-8859 accented extensions legitimately share a
	// representation with another accented letter (À/Å both ".--.-",
	// Ö/Ø both "---."), so the reverse lookup only round-trips for the
	// first character in the table to claim each representation.
	seen := make(map[string]bool)
	for _, e := range table {
		if seen[e.representation] {
			continue
		}
		seen[e.representation] = true

		got, err := RepresentationToCharacter(e.representation)
		require.NoError(t, err)
		assert.Equal(t, e.char, got)
	}
}

func Test_RepresentationToCharacter_Unknown_NotFound(t *testing.T) {
	_, err := RepresentationToCharacter("......................")
	assert.ErrorIs(t, err, cwerrors.ErrNotFound)
}

func Test_ValidRepresentation(t *testing.T) {
	assert.True(t, ValidRepresentation(".-"))
	assert.False(t, ValidRepresentation(""))
	assert.False(t, ValidRepresentation(".x-"))
}

// Property: for every character that is the first in the table to
// claim its representation, representation_to_character(
// character_to_representation(c)) == c. A handful of accented letters
// intentionally alias another letter's representation (see
// Test_RepresentationToCharacter_RoundTrip) and are excluded here for
// the same reason.
func Test_Property_RoundTripPreservesCharacter(t *testing.T) {
	seen := make(map[string]bool)
	var unambiguous []entry
	for _, e := range table {
		if seen[e.representation] {
			continue
		}
		seen[e.representation] = true
		unambiguous = append(unambiguous, e)
	}

	rapid.Check(t, func(t *rapid.T) {
		e := rapid.SampledFrom(unambiguous).Draw(t, "entry")
		rep, err := CharacterToRepresentation(e.char)
		require.NoError(t, err)
		got, err := RepresentationToCharacter(rep)
		require.NoError(t, err)
		assert.Equal(t, e.char, got)
	})
}
