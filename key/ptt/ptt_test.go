package ptt

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/xylo04/goHamlib"
)

type fakeRig struct {
	ptt      []bool
	vfo      goHamlib.VFO
	failNext bool
	closed   bool
}

func (f *fakeRig) SetPTT(vfo goHamlib.VFO, on bool) error {
	f.vfo = vfo
	if f.failNext {
		f.failNext = false
		return errors.New("rig busy")
	}
	f.ptt = append(f.ptt, on)
	return nil
}

func (f *fakeRig) Close() { f.closed = true }

func Test_Controller_MarkBegin_KeysPTTOn(t *testing.T) {
	rig := &fakeRig{}
	c := NewController(rig, goHamlib.VFOCurrent)

	c.MarkBegin(time.Now())

	assert.Equal(t, []bool{true}, rig.ptt)
	assert.Equal(t, goHamlib.VFOCurrent, rig.vfo)
}

func Test_Controller_MarkEnd_KeysPTTOff(t *testing.T) {
	rig := &fakeRig{}
	c := NewController(rig, goHamlib.VFOCurrent)

	c.MarkBegin(time.Now())
	c.MarkEnd(time.Now())

	assert.Equal(t, []bool{true, false}, rig.ptt)
}

func Test_Controller_SetPTTError_RoutedToLogFunc_NotPanicked(t *testing.T) {
	rig := &fakeRig{failNext: true}
	c := NewController(rig, goHamlib.VFOCurrent)

	var loggedFormat string
	c.SetLogFunc(func(format string, args ...any) { loggedFormat = format })

	assert.NotPanics(t, func() { c.MarkBegin(time.Now()) })
	assert.Contains(t, loggedFormat, "ptt")
}

func Test_Controller_Close_ClosesRig(t *testing.T) {
	rig := &fakeRig{}
	c := NewController(rig, goHamlib.VFOCurrent)

	c.Close()

	assert.True(t, rig.closed)
}
