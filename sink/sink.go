// Package sink defines the small capability interface the generator
// package consumes to push rendered PCM samples to an audio device, and
// provides the Null and Console implementations used in headless tests
// and minimal environments. Soundcard-backed implementations live in
// sibling files behind build tags, the way the teacher repo selects
// OSS/ALSA/PulseAudio at build time rather than with dlsym.
package sink

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnderrun is returned by Write when the sink's buffer ran dry. It is
// recoverable: the generator logs it as a warning and keeps writing.
var ErrUnderrun = errors.New("sink: underrun")

// CandidateSampleRates is the ordered list of sample rates the generator
// tries against a sink's Open, in the order specified for this library:
// the first one Open accepts is used for the lifetime of the sink.
var CandidateSampleRates = []int{44100, 48000, 32000, 22050, 16000, 11025, 8000}

// Sink is the capability every audio backend exposes to the generator.
// Sample format is always signed 16-bit native-endian, mono.
type Sink interface {
	// Open opens device at sampleRateHz. It returns the actual period
	// size (in frames) the generator should use as its buffer size.
	Open(device string, sampleRateHz int) (periodFrames int, err error)
	// Write blocks until buf has been accepted by the device. It may
	// return ErrUnderrun for a recoverable condition. On any other error
	// the generator drops the rest of the tone being rendered, logs the
	// error and goes on with the next tone; the synthesis loop does not
	// exit.
	Write(buf []int16) error
	// Close releases the device.
	Close() error
}

// OpenFirstAcceptedRate tries each of CandidateSampleRates against s.Open
// in order and returns the first that succeeds, along with the period
// size it reported. This is the generator's startup negotiation, pulled
// out here so every backend (including test fakes) shares it.
func OpenFirstAcceptedRate(s Sink, device string) (sampleRateHz, periodFrames int, err error) {
	var lastErr error
	for _, rate := range CandidateSampleRates {
		periodFrames, err = s.Open(device, rate)
		if err == nil {
			return rate, periodFrames, nil
		}
		lastErr = err
	}
	return 0, 0, fmt.Errorf("sink: no candidate sample rate accepted by device %q: %w", device, lastErr)
}

// Null is a Sink that does no I/O: it sleeps for the wall-clock duration
// the buffer represents, so timing-sensitive tests can run without a
// sound device. It never returns ErrUnderrun.
type Null struct {
	sampleRateHz int
}

// NewNull constructs a Null sink.
func NewNull() *Null { return &Null{} }

func (n *Null) Open(_ string, sampleRateHz int) (int, error) {
	n.sampleRateHz = sampleRateHz
	return 256, nil
}

func (n *Null) Write(buf []int16) error {
	if n.sampleRateHz == 0 {
		return fmt.Errorf("sink: null sink written before Open")
	}
	time.Sleep(time.Duration(len(buf)) * time.Second / time.Duration(n.sampleRateHz))
	return nil
}

func (n *Null) Close() error { return nil }

// Console is a best-effort Sink for environments with no sound device: it
// cannot render a precise waveform, so on each buffer containing any
// non-silent sample it emits a terminal bell. It is a poor substitute for
// real audio and exists only so a trainer always has something to open.
type Console struct {
	bell         func()
	sampleRateHz int
}

// NewConsole constructs a Console sink. bell is called at most once per
// Write call that contains audible samples; if nil, a no-op is used
// (tests should supply a counting stub).
func NewConsole(bell func()) *Console {
	if bell == nil {
		bell = func() {}
	}
	return &Console{bell: bell}
}

func (c *Console) Open(_ string, sampleRateHz int) (int, error) {
	c.sampleRateHz = sampleRateHz
	return 256, nil
}

func (c *Console) Write(buf []int16) error {
	for _, s := range buf {
		if s != 0 {
			c.bell()
			break
		}
	}
	if c.sampleRateHz > 0 {
		time.Sleep(time.Duration(len(buf)) * time.Second / time.Duration(c.sampleRateHz))
	}
	return nil
}

func (c *Console) Close() error { return nil }
