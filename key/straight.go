package key

import "fmt"

// StraightKey models a manual straight key: the operator directly
// reports OPEN/CLOSED transitions via NotifyEvent, and the key drives
// the generator to sound (or silence) a tone for as long as it stays
// CLOSED.
//
// Grounded on cw_key_sk_set_value_internal: a closed key enqueues a
// rising-slope mark followed by a forever plateau at the same frequency so the tone
// persists until the key opens, at which point a falling-slope tone is
// enqueued to close it out.
type StraightKey struct {
	core
}

// NewStraightKey constructs an idle (OPEN) straight key.
func NewStraightKey() *StraightKey {
	return &StraightKey{}
}

// NotifyEvent reports a new electrical state of the key. A repeated
// report of the current state is a silent no-op — this is expected
// when the hardware's forever-tone redelivery races with polling, not
// an error.
func (k *StraightKey) NotifyEvent(value Value) error {
	if !k.setValue(value, true) {
		return nil
	}

	k.mu.Lock()
	gen := k.gen
	k.mu.Unlock()
	if gen == nil {
		return nil
	}

	if value == Closed {
		if err := gen.EnqueueBeginMark(); err != nil {
			return fmt.Errorf("key: straight key begin mark: %w", err)
		}
		return nil
	}
	if err := gen.EnqueueBeginSpace(); err != nil {
		return fmt.Errorf("key: straight key begin space: %w", err)
	}
	return nil
}

// SetValueFromTone satisfies generator.KeyObserver for symmetry with
// the other key variants, but a straight key's value is driven by its
// own hardware, not by the generator's synthesis loop, so this is a
// no-op.
func (k *StraightKey) SetValueFromTone(bool) {}

// UpdateGraphState is a no-op: a straight key has no iambic graph.
func (k *StraightKey) UpdateGraphState() {}
