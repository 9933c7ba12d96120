//go:build portaudio

// Package sink's PortAudio backend. It is built only when the
// "portaudio" build tag is set, and requires the PortAudio C library to
// be installed, exactly like the teacher repo gates its OSS/ALSA support
// behind preprocessor symbols resolved at build time rather than a
// dlsym'd shared object.
//
// This single cross-platform backend stands in for the original three
// OS-specific soundcard backends (OSS/ALSA/PulseAudio) — see DESIGN.md
// for the rationale.
package sink

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// PortAudio is a Sink backed by github.com/gordonklaus/portaudio.
type PortAudio struct {
	stream *portaudio.Stream
	buf    []int16
}

// NewPortAudio constructs a PortAudio sink. It calls portaudio.Initialize
// on every call; Close stops and closes this sink's own stream and does
// not call portaudio.Terminate.
func NewPortAudio() (*PortAudio, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("sink: portaudio init: %w", err)
	}
	return &PortAudio{}, nil
}

func (p *PortAudio) Open(device string, sampleRateHz int) (int, error) {
	dev, err := resolveOutputDevice(device)
	if err != nil {
		return 0, err
	}

	const framesPerBuffer = 256
	p.buf = make([]int16, framesPerBuffer)

	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: 1,
			Latency:  dev.DefaultLowOutputLatency,
		},
		SampleRate:      float64(sampleRateHz),
		FramesPerBuffer: framesPerBuffer,
	}

	stream, err := portaudio.OpenStream(params, &p.buf)
	if err != nil {
		return 0, fmt.Errorf("sink: portaudio open stream at %dHz: %w", sampleRateHz, err)
	}
	if err := stream.Start(); err != nil {
		return 0, fmt.Errorf("sink: portaudio start stream: %w", err)
	}
	p.stream = stream
	return framesPerBuffer, nil
}

func (p *PortAudio) Write(buf []int16) error {
	if len(buf) != len(p.buf) {
		return fmt.Errorf("sink: portaudio write size %d != period %d", len(buf), len(p.buf))
	}
	copy(p.buf, buf)
	if err := p.stream.Write(); err != nil {
		if err == portaudio.OutputUnderflowed {
			return ErrUnderrun
		}
		return fmt.Errorf("sink: portaudio write: %w", err)
	}
	return nil
}

func (p *PortAudio) Close() error {
	if p.stream == nil {
		return nil
	}
	if err := p.stream.Stop(); err != nil {
		return fmt.Errorf("sink: portaudio stop: %w", err)
	}
	return p.stream.Close()
}

func resolveOutputDevice(name string) (*portaudio.DeviceInfo, error) {
	if name == "" || name == "default" {
		dev, err := portaudio.DefaultOutputDevice()
		if err != nil {
			return nil, fmt.Errorf("sink: default output device: %w", err)
		}
		return dev, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("sink: enumerate devices: %w", err)
	}
	for _, d := range devices {
		if d.Name == name && d.MaxOutputChannels > 0 {
			return d, nil
		}
	}
	return nil, fmt.Errorf("sink: no output device named %q", name)
}
