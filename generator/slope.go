package generator

import (
	"math"

	"github.com/n1cw/gocw/tone"
)

// slopeTable holds precomputed rising-slope amplitudes. The same table
// doubles for the falling slope by indexing it in reverse, exactly as
// the teacher's amplitude lookup does: cw_gen_calculate_amplitude_internal
// reads amplitudes[i] on the way up and amplitudes[n-iterator-1] on the
// way down.
type slopeTable struct {
	shape      tone.SlopeShape
	nSamples   int
	amplitudes []int
}

// recalculate rebuilds the table for nSamples points at full-scale
// amplitude volumeAbs. Call whenever volume, sample rate, or slope
// length changes; a rectangular shape is represented by a zero-length
// table since it has no ramp to render.
func (s *slopeTable) recalculate(shape tone.SlopeShape, nSamples, volumeAbs int) {
	s.shape = shape
	if shape == tone.SlopeRectangular {
		nSamples = 0
	}
	s.nSamples = nSamples
	s.amplitudes = make([]int, nSamples)

	for i := 0; i < nSamples; i++ {
		switch shape {
		case tone.SlopeLinear:
			s.amplitudes[i] = volumeAbs * i / nSamples
		case tone.SlopeSine:
			radian := float64(i) * (math.Pi / 2.0) / float64(nSamples)
			s.amplitudes[i] = int(math.Sin(radian) * float64(volumeAbs))
		case tone.SlopeRaisedCosine:
			radian := float64(i) * math.Pi / float64(nSamples)
			s.amplitudes[i] = int((1 - (1+math.Cos(radian))/2) * float64(volumeAbs))
		}
	}
}

// risingAt and fallingAt return the precomputed amplitude for index i
// within the slope, reading the table forwards for the rising slope and
// backwards (n-i-1) for the falling slope, the way the original looks
// up the same table for both edges.
func (s *slopeTable) risingAt(i int) int {
	if i < 0 || i >= len(s.amplitudes) {
		return 0
	}
	return s.amplitudes[i]
}

func (s *slopeTable) fallingAt(i int) int {
	j := s.nSamples - i - 1
	if j < 0 || j >= len(s.amplitudes) {
		return 0
	}
	return s.amplitudes[j]
}

// slopeSamples derives a tone's rising/falling sample counts from its
// Mode and the generator's slope length, the way cw_gen_new_tone_sets_slopes
// applies the slope length only to the edges a Mode actually requests.
func slopeSamples(mode tone.Mode, nSamples, slopeLenSamples int) (rising, falling int) {
	switch mode {
	case tone.ModeNoSlopes:
		return 0, 0
	case tone.ModeRisingOnly:
		rising = slopeLenSamples
	case tone.ModeFallingOnly:
		falling = slopeLenSamples
	case tone.ModeStandard:
		rising = slopeLenSamples
		falling = slopeLenSamples
	}
	if rising+falling > nSamples {
		// A plateau-less tone: split the available samples evenly,
		// mirroring the teacher's clamp against tones shorter than
		// their own slopes.
		rising = nSamples / 2
		falling = nSamples - rising
	}
	return rising, falling
}
