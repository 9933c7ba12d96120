package receiver

import (
	"fmt"
	"time"

	"github.com/n1cw/gocw/cwerrors"
	"github.com/n1cw/gocw/morse"
)

// PollRepresentation returns the dot/dash string accumulated for the
// in-progress or just-finished character, advancing the state machine
// from InterMarkSpace into EOCGap or EOWGap as the elapsed gap since
// the last mark grows. It fails with ErrWouldBlock while still inside
// an inter-mark space (the gap hasn't yet grown into a character gap),
// and with ErrInvalidState if called while idle or mid-mark.
func (r *Receiver) PollRepresentation(now time.Time) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.syncLocked()
	return r.pollRepresentationLocked(now)
}

func (r *Receiver) pollRepresentationLocked(now time.Time) (string, bool, error) {
	switch r.state {
	case Idle, Mark:
		return "", false, fmt.Errorf("receiver: poll representation in state %s: %w", r.state, cwerrors.ErrInvalidState)

	case InterMarkSpace:
		elapsed := now.Sub(r.markEndTs).Microseconds()
		if elapsed < r.eocMinUs {
			return "", false, fmt.Errorf("receiver: poll representation: %w", cwerrors.ErrWouldBlock)
		}
		if elapsed > r.eocMaxUs {
			r.state = EOWGap
			if r.errFlag {
				r.state = EOWGapErr
			}
			return r.repString(), true, r.pollErrLocked()
		}
		r.state = EOCGap
		if r.errFlag {
			r.state = EOCGapErr
		}
		r.recordStatLocked(StatInterCharSpace, elapsed-r.eocMinUs)
		return r.repString(), false, r.pollErrLocked()

	case EOCGap, EOCGapErr:
		elapsed := now.Sub(r.markEndTs).Microseconds()
		if elapsed > r.eocMaxUs {
			if r.state == EOCGapErr {
				r.state = EOWGapErr
			} else {
				r.state = EOWGap
			}
			return r.repString(), true, r.pollErrLocked()
		}
		return r.repString(), false, r.pollErrLocked()

	case EOWGap, EOWGapErr:
		return r.repString(), true, r.pollErrLocked()

	default:
		return "", false, fmt.Errorf("receiver: poll representation: unknown state %v: %w", r.state, cwerrors.ErrInvalidState)
	}
}

func (r *Receiver) pollErrLocked() error {
	if r.errFlag {
		return fmt.Errorf("receiver: representation buffer overflowed: %w", cwerrors.ErrBufferFull)
	}
	return nil
}

func (r *Receiver) repString() string {
	return string(r.representation[:r.representationLen])
}

// PollCharacter composes PollRepresentation with a table lookup. On a
// successful lookup it consumes the representation buffer (so the next
// mark starts a fresh character) and arms pendingInterWordSpace, so
// that if the very next event is another poll rather than a new mark,
// a later growth from EOCGap into EOWGap is still visible to the
// caller as an upgrade on the same character rather than lost.
func (r *Receiver) PollCharacter(now time.Time) (rune, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.syncLocked()

	rep, eow, err := r.pollRepresentationLocked(now)
	if err != nil {
		if rep == "" {
			return 0, false, err
		}
		// BufferFull: still try to resolve whatever was collected so
		// the caller can recover the partial character, but propagate
		// the error alongside it.
	}

	if rep == "" {
		if r.haveLastChar && r.pendingInterWordSpace {
			return r.lastChar, eow, err
		}
		return 0, false, fmt.Errorf("receiver: poll character: %w", cwerrors.ErrNotFound)
	}

	c, lookupErr := morse.RepresentationToCharacter(rep)
	if lookupErr != nil {
		if err == nil {
			err = fmt.Errorf("receiver: representation %q: %w", rep, lookupErr)
		}
		return 0, eow, err
	}

	r.representationLen = 0
	r.lastChar = c
	r.haveLastChar = true
	r.pendingInterWordSpace = true
	return c, eow, err
}
