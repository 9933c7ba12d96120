package generator

import (
	"fmt"
	"sync"

	"github.com/n1cw/gocw/cwerrors"
	"github.com/n1cw/gocw/tone"
)

// Numeric bounds and initial values, ported from the original
// implementation's CW_{SPEED,FREQUENCY,VOLUME,GAP,WEIGHTING}_{MIN,MAX,INITIAL}
// constants.
const (
	SpeedMinWPM = 4
	SpeedMaxWPM = 60
	SpeedInitWPM = 12

	FrequencyMinHz = 0
	FrequencyMaxHz = 4000
	FrequencyInitHz = 800

	VolumeMin  = 0
	VolumeMax  = 100
	VolumeInit = 70

	GapMin  = 0
	GapMax  = 60
	GapInit = 0

	WeightingMin  = 20
	WeightingMax  = 80
	WeightingInit = 50

	// DotCalibrationUs is the PARIS calibration constant: at 1 WPM a
	// "unit" (dot) is this many microseconds long.
	DotCalibrationUs = 1_200_000

	// DefaultToneSlopeLenUs is the slope length used unless overridden
	// by SetToneSlope.
	DefaultToneSlopeLenUs = 2000
)

// params holds the generator's speed/frequency/volume/gap/weighting
// knobs plus the values derived from them (unit/dot/dash/space
// lengths). It is synchronized the way the teacher's generator
// synchronizes its own timing block: any setter clears inSync, and
// sync() lazily recomputes everything the first time a derived value
// is needed afterwards.
type params struct {
	mu sync.Mutex

	speedWPM      int
	frequencyHz   int
	volumePercent int
	gapWPM        int
	weighting     int

	slopeShape    tone.SlopeShape
	toneSlopeLenUs int64

	inSync bool

	// Derived, PARIS-calibrated lengths, all in microseconds.
	unitLenUs       int64
	dotLenUs        int64
	dashLenUs       int64
	endOfMarkLenUs  int64
	endOfCharLenUs  int64
	endOfWordLenUs  int64
	additionalLenUs int64
	adjustmentLenUs int64

	volumeAbs int
}

func newParams() *params {
	p := &params{
		speedWPM:       SpeedInitWPM,
		frequencyHz:    FrequencyInitHz,
		volumePercent:  VolumeInit,
		gapWPM:         GapInit,
		weighting:      WeightingInit,
		slopeShape:     tone.SlopeRaisedCosine,
		toneSlopeLenUs: DefaultToneSlopeLenUs,
	}
	p.recalcVolumeAbs()
	return p
}

func (p *params) recalcVolumeAbs() {
	const audioVolumeRange = 32767
	p.volumeAbs = (p.volumePercent * audioVolumeRange) / 100
}

// sync recomputes the derived timing block if a setter invalidated it
// since the last call. Mirrors cw_gen_sync_parameters_internal's PARIS
// derivation exactly, including the "eoc/eow are additional, not full,
// totals" arithmetic documented there.
func (p *params) sync() {
	if p.inSync {
		return
	}

	unit := int64(DotCalibrationUs / p.speedWPM)
	weightingShift := (2 * int64(p.weighting-50) * unit) / 100

	p.unitLenUs = unit
	p.dotLenUs = unit + weightingShift
	p.dashLenUs = 3 * p.dotLenUs

	p.endOfMarkLenUs = unit - (28*weightingShift)/22
	p.endOfCharLenUs = 3*unit - p.endOfMarkLenUs
	p.endOfWordLenUs = 7*unit - p.endOfCharLenUs
	p.additionalLenUs = int64(p.gapWPM) * unit
	p.adjustmentLenUs = (7 * p.additionalLenUs) / 3

	p.inSync = true
}

func (p *params) SetSpeed(wpm int) error {
	if wpm < SpeedMinWPM || wpm > SpeedMaxWPM {
		return fmt.Errorf("generator: speed %d wpm out of range [%d,%d]: %w", wpm, SpeedMinWPM, SpeedMaxWPM, cwerrors.ErrInvalidArgument)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.speedWPM = wpm
	p.inSync = false
	return nil
}

func (p *params) SetFrequency(hz int) error {
	if hz < FrequencyMinHz || hz > FrequencyMaxHz {
		return fmt.Errorf("generator: frequency %dHz out of range [%d,%d]: %w", hz, FrequencyMinHz, FrequencyMaxHz, cwerrors.ErrInvalidArgument)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frequencyHz = hz
	return nil
}

func (p *params) SetVolume(percent int) error {
	if percent < VolumeMin || percent > VolumeMax {
		return fmt.Errorf("generator: volume %d%% out of range [%d,%d]: %w", percent, VolumeMin, VolumeMax, cwerrors.ErrInvalidArgument)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volumePercent = percent
	p.recalcVolumeAbs()
	return nil
}

func (p *params) SetGap(wpm int) error {
	if wpm < GapMin || wpm > GapMax {
		return fmt.Errorf("generator: gap %d out of range [%d,%d]: %w", wpm, GapMin, GapMax, cwerrors.ErrInvalidArgument)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gapWPM = wpm
	p.inSync = false
	return nil
}

func (p *params) SetWeighting(weighting int) error {
	if weighting < WeightingMin || weighting > WeightingMax {
		return fmt.Errorf("generator: weighting %d out of range [%d,%d]: %w", weighting, WeightingMin, WeightingMax, cwerrors.ErrInvalidArgument)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.weighting = weighting
	p.inSync = false
	return nil
}

// SetToneSlope sets the slope shape and/or length. Passing a negative
// length leaves the length unchanged, matching the teacher's
// cw_gen_set_tone_slope(-1, -1) convention for "don't change this one".
func (p *params) SetToneSlope(shape tone.SlopeShape, lenUs int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.slopeShape = shape
	if lenUs >= 0 {
		p.toneSlopeLenUs = lenUs
	}
}

func (p *params) snapshot() params {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sync()
	return *p
}

func (p *params) Speed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.speedWPM
}

func (p *params) Frequency() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frequencyHz
}

func (p *params) Volume() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volumePercent
}

func (p *params) Gap() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gapWPM
}

func (p *params) Weighting() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.weighting
}

func (p *params) ToneSlopeLenUs() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.toneSlopeLenUs
}
