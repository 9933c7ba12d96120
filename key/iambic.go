package key

import (
	"sync"
)

// GraphState is one of the iambic keyer's nine states.
type GraphState int

const (
	StateIdle GraphState = iota
	StateInDotA
	StateInDotB
	StateAfterDotA
	StateAfterDotB
	StateInDashA
	StateInDashB
	StateAfterDashA
	StateAfterDashB
)

func (s GraphState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateInDotA:
		return "IN_DOT_A"
	case StateInDotB:
		return "IN_DOT_B"
	case StateAfterDotA:
		return "AFTER_DOT_A"
	case StateAfterDotB:
		return "AFTER_DOT_B"
	case StateInDashA:
		return "IN_DASH_A"
	case StateInDashB:
		return "IN_DASH_B"
	case StateAfterDashA:
		return "AFTER_DASH_A"
	case StateAfterDashB:
		return "AFTER_DASH_B"
	default:
		return "UNKNOWN"
	}
}

// IambicKeyer implements the nine-state iambic keyer graph described in
// section 4.4 of the specification, clocked by a generator that calls
// UpdateGraphState after every enqueued symbol's tone completes.
//
// Grounded on cw_key_ik_update_graph_state_internal and
// cw_key_ik_notify_paddle_event: the _A/_B state pairs track Curtis
// mode B's "send one extra opposite element if both paddles let go
// during the last element" latch.
type IambicKeyer struct {
	core

	stateMu sync.Mutex
	stateCond *sync.Cond

	graphState GraphState
	lock       bool

	dotPaddle  bool
	dashPaddle bool
	dotLatch   bool
	dashLatch  bool

	curtisModeB  bool
	curtisBLatch bool
}

// NewIambicKeyer constructs an idle iambic keyer.
func NewIambicKeyer() *IambicKeyer {
	k := &IambicKeyer{}
	k.stateCond = sync.NewCond(&k.stateMu)
	return k
}

// EnableCurtisModeB and DisableCurtisModeB toggle the Curtis 8044-style
// timing variant that sends one extra opposite element when both
// paddles are released during the last element of a squeeze.
func (k *IambicKeyer) EnableCurtisModeB()  { k.setCurtisModeB(true) }
func (k *IambicKeyer) DisableCurtisModeB() { k.setCurtisModeB(false) }

func (k *IambicKeyer) setCurtisModeB(on bool) {
	k.stateMu.Lock()
	k.curtisModeB = on
	k.stateMu.Unlock()
}

// CurtisModeB reports whether Curtis mode B is enabled.
func (k *IambicKeyer) CurtisModeB() bool {
	k.stateMu.Lock()
	defer k.stateMu.Unlock()
	return k.curtisModeB
}

// GraphState returns the keyer's current state.
func (k *IambicKeyer) GraphState() GraphState {
	k.stateMu.Lock()
	defer k.stateMu.Unlock()
	return k.graphState
}

// setState changes the graph state and wakes any WaitForElement/
// WaitForKeyer waiters.
func (k *IambicKeyer) setState(s GraphState) {
	k.graphState = s
	k.stateCond.Broadcast()
}

// keyDown transitions the key to CLOSED and enqueues symbol as a
// partial mark (no trailing space — the generator times the element
// itself and calls back into UpdateGraphState when it completes).
func (k *IambicKeyer) keyDown(symbol byte) {
	k.setValue(Closed, true)
	k.mu.Lock()
	gen := k.gen
	k.mu.Unlock()
	if gen != nil {
		_ = gen.EnqueuePartialSymbol(symbol)
	}
}

// keyUp transitions the key to OPEN and enqueues the inter-element
// space that follows a mark.
func (k *IambicKeyer) keyUp() {
	k.setValue(Open, true)
	k.mu.Lock()
	gen := k.gen
	k.mu.Unlock()
	if gen != nil {
		_ = gen.EnqueueEndOfMarkSpace()
	}
}

// NotifyPaddleEvent records new paddle states, latching any open-to-
// closed transition, and kicks the graph machine from IDLE if needed.
func (k *IambicKeyer) NotifyPaddleEvent(dot, dash bool) {
	k.stateMu.Lock()
	k.dotPaddle = dot
	k.dashPaddle = dash
	if dot {
		k.dotLatch = true
	}
	if dash {
		k.dashLatch = true
	}
	if k.curtisModeB && dot && dash {
		k.curtisBLatch = true
	}
	idle := k.graphState == StateIdle
	k.stateMu.Unlock()

	if idle && (dot || dash) {
		k.updateStateInitial()
	}
}

// NotifyDotPaddleEvent changes only the dot paddle's state.
func (k *IambicKeyer) NotifyDotPaddleEvent(dot bool) {
	k.stateMu.Lock()
	dash := k.dashPaddle
	k.stateMu.Unlock()
	k.NotifyPaddleEvent(dot, dash)
}

// NotifyDashPaddleEvent changes only the dash paddle's state.
func (k *IambicKeyer) NotifyDashPaddleEvent(dash bool) {
	k.stateMu.Lock()
	dot := k.dotPaddle
	k.stateMu.Unlock()
	k.NotifyPaddleEvent(dot, dash)
}

// updateStateInitial pushes the graph out of IDLE by pretending to be
// in the after-state of the opposite element, so UpdateGraphState's
// AFTER_* branch makes the correct first transition.
func (k *IambicKeyer) updateStateInitial() {
	k.stateMu.Lock()
	if k.dotPaddle {
		if k.curtisBLatch {
			k.graphState = StateAfterDashB
		} else {
			k.graphState = StateAfterDashA
		}
	} else if k.dashPaddle {
		if k.curtisBLatch {
			k.graphState = StateAfterDotB
		} else {
			k.graphState = StateAfterDotA
		}
	} else {
		k.stateMu.Unlock()
		return
	}
	k.stateMu.Unlock()

	k.UpdateGraphState()
}

// UpdateGraphState is the graph-update hook the generator calls after
// every tone completes. It is re-entrancy-guarded: a concurrent call
// (e.g. from a paddle-event goroutine racing the synthesis goroutine)
// returns immediately without effect, matching the original's "lock in
// thread" bailout.
func (k *IambicKeyer) UpdateGraphState() {
	k.stateMu.Lock()
	if k.lock {
		k.stateMu.Unlock()
		return
	}
	k.lock = true
	defer func() {
		k.stateMu.Lock()
		k.lock = false
		k.stateMu.Unlock()
	}()

	state := k.graphState
	k.stateMu.Unlock()

	switch state {
	case StateIdle:
		return

	case StateInDotA, StateInDotB:
		k.keyUp()
		k.stateMu.Lock()
		if state == StateInDotA {
			k.setState(StateAfterDotA)
		} else {
			k.setState(StateAfterDotB)
		}
		k.stateMu.Unlock()

	case StateInDashA, StateInDashB:
		k.keyUp()
		k.stateMu.Lock()
		if state == StateInDashA {
			k.setState(StateAfterDashA)
		} else {
			k.setState(StateAfterDashB)
		}
		k.stateMu.Unlock()

	case StateAfterDotA, StateAfterDotB:
		k.stateMu.Lock()
		if !k.dotPaddle {
			k.dotLatch = false
		}
		switch {
		case state == StateAfterDotB:
			k.stateMu.Unlock()
			k.keyDown('-')
			k.stateMu.Lock()
			k.setState(StateInDashA)
		case k.dashLatch:
			k.stateMu.Unlock()
			k.keyDown('-')
			k.stateMu.Lock()
			if k.curtisBLatch {
				k.curtisBLatch = false
				k.setState(StateInDashB)
			} else {
				k.setState(StateInDashA)
			}
		case k.dotLatch:
			k.stateMu.Unlock()
			k.keyDown('.')
			k.stateMu.Lock()
			k.setState(StateInDotA)
		default:
			k.setState(StateIdle)
		}
		k.stateMu.Unlock()

	case StateAfterDashA, StateAfterDashB:
		k.stateMu.Lock()
		if !k.dashPaddle {
			k.dashLatch = false
		}
		switch {
		case state == StateAfterDashB:
			k.stateMu.Unlock()
			k.keyDown('.')
			k.stateMu.Lock()
			k.setState(StateInDotA)
		case k.dotLatch:
			k.stateMu.Unlock()
			k.keyDown('.')
			k.stateMu.Lock()
			if k.curtisBLatch {
				k.curtisBLatch = false
				k.setState(StateInDotB)
			} else {
				k.setState(StateInDotA)
			}
		case k.dashLatch:
			k.stateMu.Unlock()
			k.keyDown('-')
			k.stateMu.Lock()
			k.setState(StateInDashA)
		default:
			k.setState(StateIdle)
		}
		k.stateMu.Unlock()
	}
}

// SetValueFromTone is unused for the iambic keyer: its value transitions
// happen synchronously inside keyDown/keyUp, driven by its own graph
// logic rather than by the generator observing tone frequency.
func (k *IambicKeyer) SetValueFromTone(bool) {}

// WaitForElement blocks until the end of the current element (dot or
// dash): first until the graph reaches IDLE or an AFTER_* state, then
// until it reaches IDLE or an IN_* state, at which point the element in
// progress when this was called has finished.
func (k *IambicKeyer) WaitForElement() {
	k.stateMu.Lock()
	for !isIdleOrAfter(k.graphState) {
		k.stateCond.Wait()
	}
	for !isIdleOrIn(k.graphState) {
		k.stateCond.Wait()
	}
	k.stateMu.Unlock()
}

// WaitForKeyer blocks until the keyer's current cycle completes (graph
// reaches IDLE). It returns immediately with ok=false if either paddle
// is currently closed, since the cycle would otherwise never end.
func (k *IambicKeyer) WaitForKeyer() (ok bool) {
	k.stateMu.Lock()
	if k.dotPaddle || k.dashPaddle {
		k.stateMu.Unlock()
		return false
	}
	for k.graphState != StateIdle {
		k.stateCond.Wait()
	}
	k.stateMu.Unlock()
	return true
}

func isIdleOrAfter(s GraphState) bool {
	switch s {
	case StateIdle, StateAfterDotA, StateAfterDotB, StateAfterDashA, StateAfterDashB:
		return true
	}
	return false
}

func isIdleOrIn(s GraphState) bool {
	switch s {
	case StateIdle, StateInDotA, StateInDotB, StateInDashA, StateInDashB:
		return true
	}
	return false
}
