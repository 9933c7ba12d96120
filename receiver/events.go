package receiver

import (
	"fmt"
	"time"

	"github.com/n1cw/gocw/cwerrors"
)

// MarkBegin records the start of a mark. It satisfies the key.Receiver
// capability interface so a straight key or iambic keyer can drive a
// Receiver the same way it drives a generator.
//
// Leaving a finished-character gap state (EOCGap/EOCGapErr/EOWGap/
// EOWGapErr) clears the representation buffer first: a new mark in one
// of those states means a new character is starting, and the previous
// one's marks were either already delivered by a poll or are being
// abandoned unread. Leaving InterMarkSpace does not clear anything —
// that transition means another mark is still being added to the
// character already in progress.
func (r *Receiver) MarkBegin(ts time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.syncLocked()

	switch r.state {
	case InterMarkSpace:
		elapsed := ts.Sub(r.markEndTs).Microseconds()
		r.recordStatLocked(StatInterMarkSpace, elapsed-r.dotIdealUs)
	case EOCGap, EOCGapErr, EOWGap, EOWGapErr:
		r.representationLen = 0
		r.errFlag = false
		r.haveLastChar = false
	}
	r.pendingInterWordSpace = false
	r.markStartTs = ts
	r.state = Mark
}

// MarkEnd records the end of a mark, classifies its length against the
// current dot/dash windows, and appends the result to the
// representation buffer. It satisfies key.Receiver and returns nothing:
// a noise spike is dropped without any record, while an unclassifiable
// length or a buffer overflow sets an error flag on the receiver that
// the next poll reports.
func (r *Receiver) MarkEnd(ts time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Mark {
		return
	}
	r.syncLocked()

	r.markEndTs = ts
	elapsed := ts.Sub(r.markStartTs).Microseconds()

	if elapsed <= r.noiseThresholdUs {
		if r.representationLen > 0 {
			r.state = InterMarkSpace
		} else {
			r.state = Idle
		}
		return
	}

	switch {
	case elapsed >= r.dotMinUs && elapsed <= r.dotMaxUs:
		r.appendMarkLocked('.', StatDot, elapsed, r.dotIdealUs)
	case elapsed >= r.dashMinUs && elapsed <= r.dashMaxUs:
		r.appendMarkLocked('-', StatDash, elapsed, r.dashIdealUs)
	default:
		r.recordStatLocked(StatNone, 0)
		r.errFlag = true
		r.state = EOCGapErr
	}
}

// appendMarkLocked records a classified mark, failing into EOCGapErr if
// the representation buffer is already full (more than
// MaxRepresentationLength marks in one character).
func (r *Receiver) appendMarkLocked(mark byte, kind StatKind, elapsedUs, idealUs int64) {
	if r.representationLen >= len(r.representation) {
		r.errFlag = true
		r.state = EOCGapErr
		return
	}
	r.representation[r.representationLen] = mark
	r.representationLen++
	r.recordStatLocked(kind, elapsedUs-idealUs)

	if r.adaptive {
		r.updateAdaptiveLocked(kind, elapsedUs)
	}
	r.state = InterMarkSpace
}

// AddMark is the non-event-driven counterpart to MarkBegin/MarkEnd: it
// lets a caller that already knows a mark's kind (e.g. a replayed log,
// or a keyboard-simulated sender) inject a classified Dot or Dash
// directly at its ideal length, starting at ts, without timing two
// separate real transitions. mark must be '.' or '-'.
func (r *Receiver) AddMark(ts time.Time, mark byte) error {
	if mark != '.' && mark != '-' {
		return fmt.Errorf("receiver: add mark %q must be '.' or '-': %w", mark, cwerrors.ErrInvalidArgument)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.syncLocked()

	if r.state != Mark {
		r.markStartTs = ts
		r.state = Mark
	}

	kind := StatDot
	idealUs := r.dotIdealUs
	if mark == '-' {
		kind = StatDash
		idealUs = r.dashIdealUs
	}
	r.markEndTs = ts.Add(time.Duration(idealUs) * time.Microsecond)
	r.appendMarkLocked(mark, kind, idealUs, idealUs)
	return nil
}
