//go:build linux

// Package gpiokey drives a key package state machine from Linux GPIO
// character-device lines, for a straight key or iambic paddles wired to
// a Raspberry Pi (or similar) GPIO header.
//
// The teacher declares github.com/warthog618/go-gpiocdev in its go.mod
// but never imports it — its own GPIO support goes through direct
// /sys/class/gpio file writes (see beacon.go's PTT path). This package
// is the first concrete user of that dependency in this module, wired
// to the domain's paddle/straight-key input rather than PTT output.
package gpiokey

import (
	"fmt"

	"github.com/n1cw/gocw/key"
	"github.com/warthog618/go-gpiocdev"
)

// straightNotifier is the bool-based shape this package drives a
// straight key through. *key.StraightKey takes a key.Value instead of a
// bool, so AdaptStraightKey below bridges the two.
type straightNotifier interface {
	NotifyEvent(closed bool) error
}

// paddleNotifier matches *key.IambicKeyer's paddle-event methods
// directly: no adapter is needed to satisfy it.
type paddleNotifier interface {
	NotifyDotPaddleEvent(closed bool)
	NotifyDashPaddleEvent(closed bool)
}

// AdaptStraightKey wraps sk so its NotifyEvent(key.Value) method can be
// driven by this package's bool-based line handlers.
func AdaptStraightKey(sk *key.StraightKey) straightNotifier {
	return straightAdapter{notify: func(closed bool) error {
		if closed {
			return sk.NotifyEvent(key.Closed)
		}
		return sk.NotifyEvent(key.Open)
	}}
}

// ActiveLevel selects whether a closed contact pulls the GPIO line low
// (the common wiring, using the SoC's internal pull-up) or high.
type ActiveLevel int

const (
	ActiveLow ActiveLevel = iota
	ActiveHigh
)

// StraightKeyLine monitors one GPIO line as a straight key contact.
type StraightKeyLine struct {
	line   *gpiocdev.Line
	active ActiveLevel
	notify func(closed bool) error
}

// straightAdapter adapts key.StraightKey.NotifyEvent(key.Value) to the
// bool-based straightNotifier this package uses internally.
type straightAdapter struct {
	notify func(closed bool) error
}

func (a straightAdapter) NotifyEvent(closed bool) error { return a.notify(closed) }

// NewStraightKeyLine opens offset on chip (e.g. "gpiochip0") as an input
// line with both-edge detection and attaches it to sk, a *key.StraightKey
// (or anything exposing NotifyEvent(key.Value) error — pass it wrapped
// via AdaptStraightKey).
func NewStraightKeyLine(chip string, offset int, active ActiveLevel, sk straightNotifier) (*StraightKeyLine, error) {
	s := &StraightKeyLine{active: active, notify: sk.NotifyEvent}

	opts := []gpiocdev.LineReqOption{gpiocdev.AsInput, gpiocdev.WithBothEdges}
	if active == ActiveLow {
		opts = append(opts, gpiocdev.WithPullUp)
	} else {
		opts = append(opts, gpiocdev.WithPullDown)
	}
	opts = append(opts, gpiocdev.WithEventHandler(s.handleEvent))

	line, err := gpiocdev.RequestLine(chip, offset, opts...)
	if err != nil {
		return nil, fmt.Errorf("gpiokey: request line %s:%d: %w", chip, offset, err)
	}
	s.line = line
	return s, nil
}

func (s *StraightKeyLine) handleEvent(evt gpiocdev.LineEvent) {
	_ = s.notify(closedForEdge(evt.Type, s.active))
}

// closedForEdge maps a line edge to a contact state given the wiring's
// active level: active-low wiring (internal pull-up, contact shorts to
// ground) reads closed on the falling edge; active-high reads closed on
// the rising edge.
func closedForEdge(t gpiocdev.LineEventType, active ActiveLevel) bool {
	if active == ActiveHigh {
		return t == gpiocdev.LineEventRisingEdge
	}
	return t == gpiocdev.LineEventFallingEdge
}

// Close releases the underlying GPIO line request.
func (s *StraightKeyLine) Close() error {
	if s.line == nil {
		return nil
	}
	return s.line.Close()
}

// PaddleLines monitors two GPIO lines (dot and dash) as iambic paddle
// contacts and forwards transitions to an attached *key.IambicKeyer.
type PaddleLines struct {
	dotLine  *gpiocdev.Line
	dashLine *gpiocdev.Line
	active   ActiveLevel
	notify   paddleNotifier
}

// NewPaddleLines opens dotOffset and dashOffset on chip as paddle input
// lines and attaches them to ik.
func NewPaddleLines(chip string, dotOffset, dashOffset int, active ActiveLevel, ik paddleNotifier) (*PaddleLines, error) {
	p := &PaddleLines{active: active, notify: ik}

	pullOpt := gpiocdev.WithPullUp
	if active == ActiveHigh {
		pullOpt = gpiocdev.WithPullDown
	}

	dotLine, err := gpiocdev.RequestLine(chip, dotOffset,
		gpiocdev.AsInput, gpiocdev.WithBothEdges, pullOpt,
		gpiocdev.WithEventHandler(p.handleDot))
	if err != nil {
		return nil, fmt.Errorf("gpiokey: request dot line %s:%d: %w", chip, dotOffset, err)
	}

	dashLine, err := gpiocdev.RequestLine(chip, dashOffset,
		gpiocdev.AsInput, gpiocdev.WithBothEdges, pullOpt,
		gpiocdev.WithEventHandler(p.handleDash))
	if err != nil {
		dotLine.Close()
		return nil, fmt.Errorf("gpiokey: request dash line %s:%d: %w", chip, dashOffset, err)
	}

	p.dotLine = dotLine
	p.dashLine = dashLine
	return p, nil
}

func (p *PaddleLines) handleDot(evt gpiocdev.LineEvent) {
	p.notify.NotifyDotPaddleEvent(closedForEdge(evt.Type, p.active))
}

func (p *PaddleLines) handleDash(evt gpiocdev.LineEvent) {
	p.notify.NotifyDashPaddleEvent(closedForEdge(evt.Type, p.active))
}

// Close releases both GPIO line requests.
func (p *PaddleLines) Close() error {
	var firstErr error
	if p.dotLine != nil {
		if err := p.dotLine.Close(); err != nil {
			firstErr = err
		}
	}
	if p.dashLine != nil {
		if err := p.dashLine.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
