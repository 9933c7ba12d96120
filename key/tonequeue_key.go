package key

// ToneQueueKey tracks the generator's own tone stream as if it were a
// key: it has no paddles or hardware, and never enqueues anything back
// into the generator. It exists so that sending text still produces
// mark-begin/mark-end events for an attached receiver — useful for
// local echo/training setups where the generator is its own timer.
//
// Grounded on cw_key_tk_set_value_internal, the third key variant in
// the original alongside the straight key and iambic keyer.
type ToneQueueKey struct {
	core
}

// NewToneQueueKey constructs an idle tone-queue key.
func NewToneQueueKey() *ToneQueueKey {
	return &ToneQueueKey{}
}

// SetValueFromTone is called by the generator after each tone
// completes; closed reports whether that tone carried a frequency.
func (k *ToneQueueKey) SetValueFromTone(closed bool) {
	value := Open
	if closed {
		value = Closed
	}
	k.setValue(value, true)
}

// UpdateGraphState is a no-op: a tone-queue key has no iambic graph.
func (k *ToneQueueKey) UpdateGraphState() {}
