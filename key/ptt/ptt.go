// Package ptt keys a transceiver's push-to-talk line through Hamlib's
// rig control API so a physical radio keys up for exactly as long as a
// mark is sounding, mirroring the teacher's own PTT feature (see
// ptt.go) but driven through the Go rig-control binding instead of the
// teacher's direct "#include <hamlib/rig.h>" cgo path.
//
// The teacher declares github.com/xylo04/goHamlib in its go.mod but
// never imports it from Go — its Hamlib support goes through cgo
// directly against the C rig.h header (see ptt.go: "Hamlib support
// currently disabled due to mid-stage porting complexity"). This
// package is the first user of the Go binding in this module.
package ptt

import (
	"fmt"
	"time"

	"github.com/xylo04/goHamlib"
)

// Rig is the small slice of Hamlib rig control this package needs: key
// the PTT line on or off for the rig's current VFO.
type Rig interface {
	SetPTT(vfo goHamlib.VFO, on bool) error
	Close()
}

// hamlibRig adapts a goHamlib.Rig to Rig.
type hamlibRig struct {
	rig *goHamlib.Rig
}

// Open initializes a Hamlib rig of model on port at baud and opens it
// for PTT control. model is a Hamlib rig model number (see "rigctl
// --list"); port is the CAT control serial device.
func Open(model int, port string, baud int) (Rig, error) {
	rig := goHamlib.NewRig(model)
	if rig == nil {
		return nil, fmt.Errorf("ptt: unknown hamlib rig model %d", model)
	}

	rig.SetConf("rig_pathname", port)
	if baud > 0 {
		rig.SetConf("serial_speed", fmt.Sprintf("%d", baud))
	}

	if err := rig.Open(); err != nil {
		return nil, fmt.Errorf("ptt: open rig model %d on %s: %w", model, port, err)
	}

	return &hamlibRig{rig: rig}, nil
}

func (h *hamlibRig) SetPTT(vfo goHamlib.VFO, on bool) error {
	state := goHamlib.RigPttOff
	if on {
		state = goHamlib.RigPttOn
	}
	return h.rig.SetPTT(vfo, state)
}

func (h *hamlibRig) Close() { h.rig.Close() }

// Controller is a Rig-backed key.Receiver: attach it to a key via
// RegisterReceiver and it keys the rig's PTT line for the duration of
// every mark.
type Controller struct {
	rig Rig
	vfo goHamlib.VFO
	log func(format string, args ...any)
}

// NewController wraps rig (usually the result of Open) as a
// key.Receiver keying vfo.
func NewController(rig Rig, vfo goHamlib.VFO) *Controller {
	return &Controller{rig: rig, vfo: vfo, log: func(string, ...any) {}}
}

// SetLogFunc installs a printf-style function called on every PTT
// control error; by default errors are swallowed, matching the
// teacher's own tolerant PTT failure handling.
func (c *Controller) SetLogFunc(fn func(format string, args ...any)) {
	if fn == nil {
		fn = func(string, ...any) {}
	}
	c.log = fn
}

// MarkBegin satisfies key.Receiver: it keys PTT on.
func (c *Controller) MarkBegin(_ time.Time) {
	if err := c.rig.SetPTT(c.vfo, true); err != nil {
		c.log("ptt: key on: %v", err)
	}
}

// MarkEnd satisfies key.Receiver: it keys PTT off.
func (c *Controller) MarkEnd(_ time.Time) {
	if err := c.rig.SetPTT(c.vfo, false); err != nil {
		c.log("ptt: key off: %v", err)
	}
}

// Close releases the underlying rig connection.
func (c *Controller) Close() { c.rig.Close() }
