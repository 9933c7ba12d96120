package receiver

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/lestrrat-go/strftime"
)

// recordStatLocked appends one entry to the statistics ring,
// overwriting the oldest entry once the ring is full.
func (r *Receiver) recordStatLocked(kind StatKind, deltaUs int64) {
	r.statRing[r.statHead] = statEntry{kind: kind, deltaUs: deltaUs}
	r.statHead = (r.statHead + 1) % StatisticsRingSize
	if r.statLen < StatisticsRingSize {
		r.statLen++
	}
}

// updateAdaptiveLocked folds a newly classified mark into the
// appropriate moving average, re-derives the adaptive threshold and
// speed from both averages, and resynchronizes the timing windows if
// the recomputed speed moved.
func (r *Receiver) updateAdaptiveLocked(kind StatKind, elapsedUs int64) {
	switch kind {
	case StatDot:
		r.dotAvg.add(elapsedUs)
	case StatDash:
		r.dashAvg.add(elapsedUs)
	default:
		return
	}

	dotAvg := r.dotAvg.average()
	dashAvg := r.dashAvg.average()
	if dotAvg == 0 || dashAvg == 0 {
		// Only one of the two marks has been seen so far; wait for at
		// least one of each before re-deriving speed.
		return
	}

	threshold := (dashAvg + dotAvg) / 2
	if threshold <= 0 {
		return
	}

	newSpeed := float64(DotCalibrationUs) / (float64(threshold) / 2)
	if newSpeed < SpeedMinWPM {
		newSpeed = SpeedMinWPM
	}
	if newSpeed > SpeedMaxWPM {
		newSpeed = SpeedMaxWPM
	}

	r.speedWPM = newSpeed
	r.inSync = false
	r.syncLocked()
}

// StandardDeviation computes the standard deviation, in microseconds,
// of the observed-minus-ideal deltas recorded for kind. Returns 0 if no
// samples of that kind have been recorded.
func (r *Receiver) StandardDeviation(kind StatKind) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.standardDeviationLocked(kind)
}

func (r *Receiver) standardDeviationLocked(kind StatKind) float64 {
	var sum, sumSq float64
	var n int
	for i := 0; i < r.statLen; i++ {
		e := r.statRing[i]
		if e.kind != kind {
			continue
		}
		d := float64(e.deltaUs)
		sum += d
		sumSq += d * d
		n++
	}
	if n == 0 {
		return 0
	}
	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

// StatisticsReport renders a one-line summary of the current per-kind
// standard deviations, prefixed with the current time formatted per
// the strftime-style format string. Intended for a caller embedding the
// library in a logger or status line, so it doesn't need to hand-roll
// time formatting of its own.
func (r *Receiver) StatisticsReport(format string) (string, error) {
	formatted, err := strftime.Format(format, time.Now())
	if err != nil {
		return "", fmt.Errorf("receiver: statistics report: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(formatted)
	fmt.Fprintf(&sb, " dot_sd=%.1fus dash_sd=%.1fus ims_sd=%.1fus ics_sd=%.1fus",
		r.StandardDeviation(StatDot),
		r.StandardDeviation(StatDash),
		r.StandardDeviation(StatInterMarkSpace),
		r.StandardDeviation(StatInterCharSpace))
	return sb.String(), nil
}
