// Package tone defines the Tone value type shared by the tonequeue and
// generator packages: a single gated-sine segment with a shaped envelope,
// described in microseconds and rendered to samples only once it reaches
// the generator.
package tone

// SlopeShape selects how a Tone's amplitude ramps up and down at its
// edges, to suppress the clicks a hard-edged gate would produce.
type SlopeShape int

const (
	// SlopeLinear ramps amplitude linearly: i/n * V.
	SlopeLinear SlopeShape = iota
	// SlopeSine ramps with a quarter sine: sin(i*pi/2n) * V.
	SlopeSine
	// SlopeRaisedCosine ramps with a raised cosine: (1 - (1+cos(i*pi/n))/2) * V.
	SlopeRaisedCosine
	// SlopeRectangular forces slope length to zero: a hard gate.
	SlopeRectangular
)

// Mode selects which edges of a Tone get a slope.
type Mode int

const (
	// ModeNoSlopes renders a rectangular gate on both edges.
	ModeNoSlopes Mode = iota
	// ModeRisingOnly applies a slope only at the start of the tone.
	ModeRisingOnly
	// ModeFallingOnly applies a slope only at the end of the tone.
	ModeFallingOnly
	// ModeStandard applies a slope at both edges.
	ModeStandard
)

// Tone is a single segment of the audio stream: a frequency held for a
// duration, with a slope mode describing its edges. Zero frequency means
// silence. Tone is copied by value into and out of the tone queue.
type Tone struct {
	FrequencyHz int     // 0 means silence.
	DurationUs  int64   // microseconds.
	Slope       Mode    // which edges are shaped.
	IsForever   bool    // redelivered on every dequeue until a successor arrives.
	IsFirst     bool    // first mark of a character; used by Backspace.

	// Derived fields, populated by the generator on its own copy of the
	// tone immediately before rendering (SampleIterator is left at 0).
	// They are meaningless until then.
	NSamples       int
	RisingSamples  int
	FallingSamples int
	SampleIterator int
}

// IsSilence reports whether the tone carries no carrier.
func (t Tone) IsSilence() bool {
	return t.FrequencyHz == 0
}

// Rectangular reports whether t renders with zero slope length, i.e. a
// hard gate: either its Slope mode is ModeNoSlopes, or its derived slope
// lengths are both zero.
func (t Tone) Rectangular() bool {
	return t.Slope == ModeNoSlopes || (t.RisingSamples == 0 && t.FallingSamples == 0)
}

// New builds a Tone with the given carrier, duration, and edge shaping.
func New(frequencyHz int, durationUs int64, slope Mode) Tone {
	return Tone{FrequencyHz: frequencyHz, DurationUs: durationUs, Slope: slope}
}

// Forever returns a silent tone flagged to be redelivered by the queue on
// every dequeue until a successor tone is enqueued behind it. The
// generator sets FrequencyHz on it to hold a sounding key down while a
// straight key remains closed.
func Forever(durationUs int64) Tone {
	return Tone{FrequencyHz: 0, DurationUs: durationUs, Slope: ModeNoSlopes, IsForever: true}
}
