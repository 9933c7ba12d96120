// Package receiver classifies timestamped key-on/key-off events into
// Dots, Dashes, inter-character spaces, and inter-word spaces, and maps
// the resulting representation to a character. It is modeled on the
// generator package's params.go pattern for its own timing block — a
// mutex-guarded struct of tunables plus derived length windows behind a
// parameters-in-sync flag — generalized from "render a tone" to
// "classify an observed mark length against a tolerance window".
package receiver

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/n1cw/gocw/cwerrors"
)

// State is the receiver's position in its mark/space state machine.
type State int

const (
	// Idle means no mark is in progress and no gap is being timed.
	Idle State = iota
	// Mark means a key-down event has been seen but not yet its matching key-up.
	Mark
	// InterMarkSpace means a mark just ended and the gap since it has
	// not yet been classified as an end-of-character gap.
	InterMarkSpace
	// EOCGap means the gap since the last mark has been classified as
	// an inter-character space.
	EOCGap
	// EOWGap means the gap since the last mark has grown into an
	// inter-word space.
	EOWGap
	// EOCGapErr mirrors EOCGap with a sticky classification error.
	EOCGapErr
	// EOWGapErr mirrors EOWGap with a sticky classification error.
	EOWGapErr
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Mark:
		return "MARK"
	case InterMarkSpace:
		return "IMARK_SPACE"
	case EOCGap:
		return "EOC_GAP"
	case EOWGap:
		return "EOW_GAP"
	case EOCGapErr:
		return "EOC_GAP_ERR"
	case EOWGapErr:
		return "EOW_GAP_ERR"
	default:
		return "UNKNOWN"
	}
}

// StatKind classifies a single entry in the statistics ring.
type StatKind int

const (
	// StatNone marks an unused ring slot.
	StatNone StatKind = iota
	StatDot
	StatDash
	StatInterMarkSpace
	StatInterCharSpace
)

// Numeric bounds and initial values, ported from the original
// implementation's CW_{SPEED,TOLERANCE,GAP}_{MIN,MAX,INITIAL} constants.
const (
	SpeedMinWPM  = 4
	SpeedMaxWPM  = 60
	SpeedInitWPM = 12

	ToleranceMinPercent  = 0
	ToleranceMaxPercent  = 90
	ToleranceInitPercent = 50

	GapMin  = 0
	GapMax  = 60
	GapInit = 0

	// DotCalibrationUs is the PARIS calibration constant shared with
	// package generator: at 1 WPM a unit (dot) is this many microseconds.
	DotCalibrationUs = 1_200_000

	// DefaultNoiseThresholdUs rejects any mark this short or shorter as
	// a contact bounce / line glitch rather than a Dot.
	DefaultNoiseThresholdUs = 10_000

	// MaxRepresentationLength bounds the dot/dash buffer for a single
	// character; the 257th mark in one character overflows it.
	MaxRepresentationLength = 256

	// StatisticsRingSize bounds the moving history of classified
	// marks/spaces kept for standard-deviation reporting.
	StatisticsRingSize = 256

	// AveragingWindow is the number of samples each adaptive moving
	// average keeps.
	AveragingWindow = 4
)

type statEntry struct {
	kind    StatKind
	deltaUs int64
}

// movingAverage is a fixed 4-sample circular average, used by adaptive
// mode to track the dot and dash lengths actually being sent.
type movingAverage struct {
	samples [AveragingWindow]int64
	next    int
	count   int
}

func (m *movingAverage) reset() {
	m.next = 0
	m.count = 0
}

func (m *movingAverage) add(v int64) int64 {
	m.samples[m.next%AveragingWindow] = v
	m.next++
	if m.count < AveragingWindow {
		m.count++
	}
	return m.average()
}

func (m *movingAverage) average() int64 {
	if m.count == 0 {
		return 0
	}
	var sum int64
	for i := 0; i < m.count; i++ {
		sum += m.samples[i]
	}
	return sum / int64(m.count)
}

// Receiver converts mark-begin/mark-end timestamps into a dot/dash
// representation and, on poll, a character. It is safe for concurrent
// use by one key-notifying goroutine and one polling goroutine, the
// same two-goroutine steady state the generator and tone queue assume.
type Receiver struct {
	mu sync.Mutex

	state State

	speedWPM         float64
	tolerancePercent int
	gapWPM           int
	noiseThresholdUs int64
	adaptive         bool

	inSync bool

	dotMinUs, dotIdealUs, dotMaxUs    int64
	dashMinUs, dashIdealUs, dashMaxUs int64
	eocMinUs, eocMaxUs                int64
	additionalUs, adjustmentUs        int64
	adaptiveSpeedThresholdUs          int64

	markStartTs time.Time
	markEndTs   time.Time

	representation    [MaxRepresentationLength]byte
	representationLen int

	lastChar     rune
	haveLastChar bool

	pendingInterWordSpace bool
	errFlag               bool

	statRing [StatisticsRingSize]statEntry
	statHead int
	statLen  int

	dotAvg  movingAverage
	dashAvg movingAverage
}

// New constructs a Receiver at the documented initial speed, tolerance,
// and gap, with adaptive mode off and the default noise threshold.
func New() *Receiver {
	r := &Receiver{
		speedWPM:         SpeedInitWPM,
		tolerancePercent: ToleranceInitPercent,
		gapWPM:           GapInit,
		noiseThresholdUs: DefaultNoiseThresholdUs,
	}
	return r
}

// syncLocked recomputes the derived dot/dash/gap windows if a setter
// invalidated them since the last call. Mirrors generator/params.go's
// sync(): any setter clears inSync, and the first classification or
// poll afterwards pays for the recomputation.
func (r *Receiver) syncLocked() {
	if r.inSync {
		return
	}

	dotIdeal := int64(DotCalibrationUs/r.speedWPM + 0.5)
	dashIdeal := 3 * dotIdeal
	r.dotIdealUs = dotIdeal
	r.dashIdealUs = dashIdeal

	additional := int64(r.gapWPM) * dotIdeal
	r.additionalUs = additional
	r.adjustmentUs = 7 * additional / 3

	if r.adaptive {
		r.dotMinUs = 0
		r.dotMaxUs = 2 * dotIdeal
		r.dashMinUs = r.dotMaxUs
		r.dashMaxUs = math.MaxInt64
		r.eocMinUs = r.dotMaxUs
		r.eocMaxUs = 5 * dotIdeal
	} else {
		tol := float64(r.tolerancePercent) / 100
		dotTol := int64(float64(dotIdeal) * tol)
		dashTol := int64(float64(dashIdeal) * tol)
		r.dotMinUs = dotIdeal - dotTol
		r.dotMaxUs = dotIdeal + dotTol
		r.dashMinUs = dashIdeal - dashTol
		r.dashMaxUs = dashIdeal + dashTol
		r.eocMinUs = r.dashMinUs
		r.eocMaxUs = r.dashMaxUs + additional + r.adjustmentUs
	}
	// Always two ideal dot lengths, independent of fixed/adaptive mode.
	r.adaptiveSpeedThresholdUs = 2 * dotIdeal

	r.inSync = true
}

// Setters. Each validates against the documented range and, on
// success, invalidates the derived timing block.

func (r *Receiver) SetSpeed(wpm float64) error {
	if wpm < SpeedMinWPM || wpm > SpeedMaxWPM {
		return fmt.Errorf("receiver: speed %v wpm out of range [%d,%d]: %w", wpm, SpeedMinWPM, SpeedMaxWPM, cwerrors.ErrInvalidArgument)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.speedWPM = wpm
	r.inSync = false
	return nil
}

func (r *Receiver) SetTolerance(percent int) error {
	if percent < ToleranceMinPercent || percent > ToleranceMaxPercent {
		return fmt.Errorf("receiver: tolerance %d%% out of range [%d,%d]: %w", percent, ToleranceMinPercent, ToleranceMaxPercent, cwerrors.ErrInvalidArgument)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tolerancePercent = percent
	r.inSync = false
	return nil
}

func (r *Receiver) SetGap(wpm int) error {
	if wpm < GapMin || wpm > GapMax {
		return fmt.Errorf("receiver: gap %d out of range [%d,%d]: %w", wpm, GapMin, GapMax, cwerrors.ErrInvalidArgument)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gapWPM = wpm
	r.inSync = false
	return nil
}

func (r *Receiver) SetNoiseThreshold(us int64) error {
	if us < 0 {
		return fmt.Errorf("receiver: noise threshold %d must be non-negative: %w", us, cwerrors.ErrInvalidArgument)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.noiseThresholdUs = us
	return nil
}

// EnableAdaptiveMode switches the classification windows from
// fixed-tolerance to the wide adaptive windows, and clears both moving
// averages so speed tracking starts from the marks actually observed
// under adaptive mode rather than from whatever fixed speed was
// configured before it.
func (r *Receiver) EnableAdaptiveMode() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adaptive = true
	r.inSync = false
	r.dotAvg.reset()
	r.dashAvg.reset()
}

// DisableAdaptiveMode reverts to fixed-tolerance classification.
func (r *Receiver) DisableAdaptiveMode() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adaptive = false
	r.inSync = false
}

func (r *Receiver) AdaptiveMode() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.adaptive
}

func (r *Receiver) Speed() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.speedWPM
}

func (r *Receiver) Tolerance() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tolerancePercent
}

func (r *Receiver) Gap() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gapWPM
}

func (r *Receiver) NoiseThreshold() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.noiseThresholdUs
}

func (r *Receiver) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// ResetParameters restores speed, tolerance, gap, and noise threshold
// to their documented initial values and disables adaptive mode. Per
// §9's resolved open question, gap is reset along with everything else
// — the original's reset_parameters leaving gap untouched was flagged
// as likely an oversight, not a documented behavior to preserve.
func (r *Receiver) ResetParameters() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.speedWPM = SpeedInitWPM
	r.tolerancePercent = ToleranceInitPercent
	r.gapWPM = GapInit
	r.noiseThresholdUs = DefaultNoiseThresholdUs
	r.adaptive = false
	r.inSync = false
}

// ResetState clears the mark/space state machine and representation
// buffer without touching speed/tolerance/gap or the statistics ring.
func (r *Receiver) ResetState() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetStateLocked()
}

func (r *Receiver) resetStateLocked() {
	r.state = Idle
	r.representationLen = 0
	r.pendingInterWordSpace = false
	r.errFlag = false
	r.markStartTs = time.Time{}
	r.markEndTs = time.Time{}
	r.haveLastChar = false
}

// ResetStatistics clears the statistics ring and both adaptive moving
// averages.
func (r *Receiver) ResetStatistics() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statHead = 0
	r.statLen = 0
	r.dotAvg.reset()
	r.dashAvg.reset()
}
