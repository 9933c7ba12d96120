package sink

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Null_OpenWrite(t *testing.T) {
	n := NewNull()
	period, err := n.Open("default", 8000)
	require.NoError(t, err)
	assert.Equal(t, 256, period)

	require.NoError(t, n.Write(make([]int16, period)))
	require.NoError(t, n.Close())
}

func Test_Console_BellsOnAudibleBuffer(t *testing.T) {
	rang := 0
	c := NewConsole(func() { rang++ })
	_, err := c.Open("default", 8000)
	require.NoError(t, err)

	require.NoError(t, c.Write(make([]int16, 256))) // all-silence
	assert.Equal(t, 0, rang)

	buf := make([]int16, 256)
	buf[10] = 12345
	require.NoError(t, c.Write(buf))
	assert.Equal(t, 1, rang)
}

type fakeSink struct {
	acceptRate int
	opened     bool
}

func (f *fakeSink) Open(_ string, rate int) (int, error) {
	if rate != f.acceptRate {
		return 0, errors.New("fake: rate rejected")
	}
	f.opened = true
	return 128, nil
}
func (f *fakeSink) Write([]int16) error { return nil }
func (f *fakeSink) Close() error        { return nil }

func Test_OpenFirstAcceptedRate_PicksFirstMatch(t *testing.T) {
	f := &fakeSink{acceptRate: 32000}
	rate, period, err := OpenFirstAcceptedRate(f, "default")
	require.NoError(t, err)
	assert.Equal(t, 32000, rate)
	assert.Equal(t, 128, period)
	assert.True(t, f.opened)
}

func Test_OpenFirstAcceptedRate_NoneAccepted(t *testing.T) {
	f := &fakeSink{acceptRate: 99999}
	_, _, err := OpenFirstAcceptedRate(f, "default")
	assert.Error(t, err)
}
