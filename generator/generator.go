// Package generator turns enqueued characters into PCM tones and pushes
// them to an audio sink on a dedicated synthesis goroutine. It is
// modeled on the teacher repo's gen_tone.go sample-by-sample synthesis
// loop and tq.go-style mutex/condition-variable suspension, generalized
// from "generate an APRS/AX.25 tone burst" to "synthesize a queued
// stream of Morse marks and spaces with shaped envelopes".
package generator

import (
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/n1cw/gocw/cwerrors"
	"github.com/n1cw/gocw/morse"
	"github.com/n1cw/gocw/sink"
	"github.com/n1cw/gocw/tone"
	"github.com/n1cw/gocw/tonequeue"
)

// KeyObserver is the hook a generator calls after every tone it writes
// to the sink finishes rendering. SetValueFromTone tells the observer
// whether the tone that just completed carried a frequency (key down)
// or was silence (key up); UpdateGraphState lets an iambic keyer decide
// whether to enqueue its next element. Both must be safe to call from
// the synthesis goroutine and must return promptly — the teacher's
// warning against taking queue locks from within a low-water callback
// applies here too.
type KeyObserver interface {
	SetValueFromTone(closed bool)
	UpdateGraphState()
}

// LowWaterFunc re-exports tonequeue's callback type so callers of this
// package never need to import tonequeue directly.
type LowWaterFunc = tonequeue.LowWaterFunc

// Generator synthesizes tones from its tone queue and writes them to a
// Sink on a single background goroutine.
type Generator struct {
	params *params
	tq     *tonequeue.Queue
	snk    sink.Sink
	device string
	log    *log.Logger

	sampleRateHz int
	periodFrames int

	slopes      slopeTable
	phaseOffset float64

	keyMu sync.Mutex
	key   KeyObserver

	runMu   sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// New opens snk against device (trying sink.CandidateSampleRates in
// order) and constructs a Generator ready to Start. logger may be nil,
// in which case a discard logger is used.
func New(snk sink.Sink, device string, logger *log.Logger) (*Generator, error) {
	rate, period, err := sink.OpenFirstAcceptedRate(snk, device)
	if err != nil {
		return nil, fmt.Errorf("generator: open sink: %w: %v", cwerrors.ErrSinkFailure, err)
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Generator{
		params:       newParams(),
		tq:           tonequeue.New(),
		snk:          snk,
		device:       device,
		log:          logger,
		sampleRateHz: rate,
		periodFrames: period,
	}, nil
}

// AttachKey registers the observer notified after every tone
// completes. Pass nil to detach.
func (g *Generator) AttachKey(k KeyObserver) {
	g.keyMu.Lock()
	g.key = k
	g.keyMu.Unlock()
}

// Start spawns the synthesis goroutine. Calling Start on an
// already-running generator is an error.
func (g *Generator) Start() error {
	g.runMu.Lock()
	defer g.runMu.Unlock()
	if g.running {
		return fmt.Errorf("generator: already started: %w", cwerrors.ErrInvalidState)
	}
	g.running = true
	g.stopCh = make(chan struct{})
	g.wg.Add(1)
	go g.synthesize()
	return nil
}

// Stop signals the synthesis goroutine to exit and waits for it to do
// so. It is idempotent: stopping a generator that was never started,
// or stopping twice, is a no-op.
func (g *Generator) Stop() {
	g.runMu.Lock()
	if !g.running {
		g.runMu.Unlock()
		return
	}
	g.running = false
	close(g.stopCh)
	g.runMu.Unlock()

	g.tq.WakeDequeueWaiter()
	g.wg.Wait()
}

// Close releases the underlying sink. Call after Stop.
func (g *Generator) Close() error {
	return g.snk.Close()
}

func (g *Generator) isRunning() bool {
	g.runMu.Lock()
	defer g.runMu.Unlock()
	return g.running
}

// FlushQueue discards every queued tone.
func (g *Generator) FlushQueue() { g.tq.Flush() }

// WaitForTone blocks until one tone has been dequeued.
func (g *Generator) WaitForTone() { g.tq.WaitForTone() }

// WaitForQueueLevel blocks until the queue length is at most n.
func (g *Generator) WaitForQueueLevel(n int) { g.tq.WaitForLevel(n) }

// RegisterLowWaterCallback installs fn to fire when a dequeue crosses
// the queue length down through level.
func (g *Generator) RegisterLowWaterCallback(fn LowWaterFunc, arg any, level int) error {
	return g.tq.RegisterLowWaterCallback(fn, arg, level)
}

// QueueLength and QueueFull expose the tone queue's occupancy.
func (g *Generator) QueueLength() int { return g.tq.Length() }
func (g *Generator) QueueFull() bool  { return g.tq.IsFull() }

// Parameter getters/setters. Setters validate against the documented
// ranges and return ErrInvalidArgument on failure.
func (g *Generator) SetSpeed(wpm int) error         { return g.params.SetSpeed(wpm) }
func (g *Generator) SetFrequency(hz int) error      { return g.params.SetFrequency(hz) }
func (g *Generator) SetVolume(percent int) error    { return g.params.SetVolume(percent) }
func (g *Generator) SetGap(wpm int) error           { return g.params.SetGap(wpm) }
func (g *Generator) SetWeighting(w int) error       { return g.params.SetWeighting(w) }
func (g *Generator) SetToneSlope(shape tone.SlopeShape, lenUs int64) {
	g.params.SetToneSlope(shape, lenUs)
}

func (g *Generator) Speed() int           { return g.params.Speed() }
func (g *Generator) Frequency() int       { return g.params.Frequency() }
func (g *Generator) Volume() int          { return g.params.Volume() }
func (g *Generator) Gap() int             { return g.params.Gap() }
func (g *Generator) Weighting() int       { return g.params.Weighting() }
func (g *Generator) SampleRateHz() int    { return g.sampleRateHz }
func (g *Generator) ToneSlopeLenUs() int64 { return g.params.ToneSlopeLenUs() }

// EnqueueBeginMark enqueues a rising-slope mark followed by a forever
// plateau at the same frequency, for a straight key that has just
// closed: the mark sounds until the key opens again.
func (g *Generator) EnqueueBeginMark() error {
	p := g.params.snapshot()
	rising := tone.New(p.frequencyHz, p.toneSlopeLenUs, tone.ModeRisingOnly)
	if err := g.tq.Enqueue(rising); err != nil {
		return err
	}
	plateau := tone.Forever(p.toneSlopeLenUs)
	plateau.FrequencyHz = p.frequencyHz
	return g.tq.Enqueue(plateau)
}

// EnqueueBeginSpace enqueues a falling-slope tone for a straight key
// that has just opened.
func (g *Generator) EnqueueBeginSpace() error {
	p := g.params.snapshot()
	falling := tone.New(p.frequencyHz, p.toneSlopeLenUs, tone.ModeFallingOnly)
	return g.tq.Enqueue(falling)
}

// EnqueuePartialSymbol enqueues a single dot or dash mark (standard
// slopes, no trailing space) for the iambic keyer, which uses the
// generator purely as a timer for its own state machine.
func (g *Generator) EnqueuePartialSymbol(symbol byte) error {
	p := g.params.snapshot()
	var durationUs int64
	switch symbol {
	case '.':
		durationUs = p.dotLenUs
	case '-':
		durationUs = p.dashLenUs
	default:
		return fmt.Errorf("generator: symbol %q is not '.' or '-': %w", symbol, cwerrors.ErrInvalidArgument)
	}
	return g.tq.Enqueue(tone.New(p.frequencyHz, durationUs, tone.ModeStandard))
}

// EnqueueEndOfMarkSpace enqueues the silent space an iambic keyer emits
// between elements, e.g. after EnqueuePartialSymbol's mark ends.
func (g *Generator) EnqueueEndOfMarkSpace() error {
	p := g.params.snapshot()
	return g.tq.Enqueue(tone.New(0, p.endOfMarkLenUs, tone.ModeNoSlopes))
}

// EnqueueCharacter validates c, looks up its representation, and
// enqueues the tones that sound it, per the teacher's
// enqueue_valid_character pipeline. Regular space and backspace are
// special-cased as the original does.
func (g *Generator) EnqueueCharacter(c rune) error {
	if c == ' ' {
		return g.enqueueEndOfWordSpace()
	}
	if c == '\b' {
		g.tq.Backspace()
		return nil
	}

	representation, err := morse.CharacterToRepresentation(c)
	if err != nil {
		return fmt.Errorf("generator: character %q: %w", c, err)
	}
	if err := g.enqueueRepresentationPartial(representation); err != nil {
		return err
	}
	return g.enqueueEndOfCharSpace()
}

// EnqueueString enqueues each character of s in turn via EnqueueCharacter.
func (g *Generator) EnqueueString(s string) error {
	for _, c := range s {
		if err := g.EnqueueCharacter(c); err != nil {
			return err
		}
	}
	return nil
}

// EnqueueRepresentation enqueues a raw dot/dash string followed by the
// standard end-of-character space, without going through the character
// alphabet.
func (g *Generator) EnqueueRepresentation(representation string) error {
	if !morse.ValidRepresentation(representation) {
		return fmt.Errorf("generator: representation %q: %w", representation, cwerrors.ErrInvalidArgument)
	}
	if err := g.enqueueRepresentationPartial(representation); err != nil {
		return err
	}
	return g.enqueueEndOfCharSpace()
}

// enqueueRepresentationPartial enqueues every mark of representation,
// each followed by its inter-mark space, without the trailing
// end-of-character space.
func (g *Generator) enqueueRepresentationPartial(representation string) error {
	if g.tq.Length()+2*len(representation) > g.tq.HighWaterMark() {
		// Checked once here, before the first mark of the
		// representation goes in (each mark is one tone plus its
		// inter-mark space), so EnqueueCharacter and
		// EnqueueRepresentation share the same guard and neither can
		// leave a representation half-enqueued when the queue fills
		// partway through the loop below.
		return fmt.Errorf("generator: enqueue representation %q: %w", representation, cwerrors.ErrWouldBlock)
	}

	p := g.params.snapshot()
	for i := 0; i < len(representation); i++ {
		var durationUs int64
		switch representation[i] {
		case '.':
			durationUs = p.dotLenUs
		case '-':
			durationUs = p.dashLenUs
		default:
			return fmt.Errorf("generator: invalid mark %q in representation %q: %w", representation[i], representation, cwerrors.ErrInvalidArgument)
		}
		mark := tone.New(p.frequencyHz, durationUs, tone.ModeStandard)
		mark.IsFirst = i == 0
		if err := g.tq.Enqueue(mark); err != nil {
			return err
		}
		if err := g.tq.Enqueue(tone.New(0, p.endOfMarkLenUs, tone.ModeNoSlopes)); err != nil {
			return err
		}
	}
	return nil
}

// enqueueEndOfCharSpace enqueues the *additional* silence (on top of
// the inter-mark space already enqueued after the last symbol) needed
// to complete a full 3-unit end-of-character gap.
func (g *Generator) enqueueEndOfCharSpace() error {
	p := g.params.snapshot()
	return g.tq.Enqueue(tone.New(0, p.endOfCharLenUs+p.additionalLenUs, tone.ModeNoSlopes))
}

// enqueueEndOfWordSpace enqueues a regular ' ' character: the
// end-of-word silence split into two equal tones plus the adjustment
// tone. The split is load-bearing — see tonequeue's low-water-mark
// documentation — so a client with a low-water mark of 1 observes a
// 2-to-1 transition even for a lone space.
func (g *Generator) enqueueEndOfWordSpace() error {
	p := g.params.snapshot()
	half := tone.New(0, p.endOfWordLenUs/2, tone.ModeNoSlopes)
	if err := g.tq.Enqueue(half); err != nil {
		return err
	}
	if err := g.tq.Enqueue(half); err != nil {
		return err
	}
	return g.tq.Enqueue(tone.New(0, p.adjustmentLenUs, tone.ModeNoSlopes))
}

// synthesize is the background goroutine: dequeue a tone (or invent a
// silent padding tone when the queue is empty but was not idle last
// iteration), render it to the sink in period-sized chunks with a
// continuously accumulating phase, then notify the attached key.
func (g *Generator) synthesize() {
	defer g.wg.Done()

	dequeuedPrev := false
	for {
		select {
		case <-g.stopCh:
			return
		default:
		}

		t, ok := g.tq.Dequeue()
		if !ok {
			if !dequeuedPrev {
				g.tq.WaitForDequeueSignal()
				if !g.isRunning() {
					return
				}
				continue
			}
			// Queue just went empty: pad with one period of
			// silence so the stream doesn't click to a stop.
			t = tone.New(0, int64(g.periodFrames)*1_000_000/int64(g.sampleRateHz), tone.ModeNoSlopes)
		}
		dequeuedPrev = ok

		if err := g.render(t); err != nil {
			g.log.Warn("generator: sink write failed", "error", err)
		}

		closed := t.FrequencyHz > 0
		g.keyMu.Lock()
		k := g.key
		g.keyMu.Unlock()
		if k != nil {
			k.SetValueFromTone(closed)
			k.UpdateGraphState()
		}
	}
}

// render synthesizes tone t's full duration and writes it to the sink
// in period-sized chunks, maintaining g.phaseOffset across both chunk
// and tone boundaries so the carrier phase never jumps.
func (g *Generator) render(t tone.Tone) error {
	p := g.params.snapshot()

	nSamples := int(int64(g.sampleRateHz) * t.DurationUs / 1_000_000)
	slopeLenSamples := int(int64(g.sampleRateHz) * p.toneSlopeLenUs / 1_000_000)
	if p.slopeShape == tone.SlopeRectangular {
		slopeLenSamples = 0
	}
	rising, falling := slopeSamples(t.Slope, nSamples, slopeLenSamples)
	t.NSamples, t.RisingSamples, t.FallingSamples = nSamples, rising, falling

	if g.slopes.shape != p.slopeShape || g.slopes.nSamples != max(rising, falling) {
		g.slopes.recalculate(p.slopeShape, max(rising, falling), p.volumeAbs)
	}

	buf := make([]int16, 0, g.periodFrames)
	twoPiF := 2 * math.Pi * float64(t.FrequencyHz)

	for i := 0; i < nSamples; i++ {
		var amplitude int
		switch {
		case t.IsSilence():
			amplitude = 0
		case i < rising:
			amplitude = g.slopes.risingAt(i)
		case i >= nSamples-falling:
			amplitude = g.slopes.fallingAt(i - (nSamples - falling))
		default:
			amplitude = p.volumeAbs
		}

		phase := twoPiF*float64(i)/float64(g.sampleRateHz) + g.phaseOffset
		buf = append(buf, int16(float64(amplitude)*math.Sin(phase)))

		if len(buf) == g.periodFrames {
			if err := g.snk.Write(buf); err == sink.ErrUnderrun {
				g.log.Warn("generator: sink underrun")
			} else if err != nil {
				return err
			}
			buf = buf[:0]
		}
	}

	if len(buf) > 0 {
		if err := g.snk.Write(buf); err == sink.ErrUnderrun {
			g.log.Warn("generator: sink underrun")
		} else if err != nil {
			return err
		}
	}

	// Normalize the phase offset for the next tone, exactly as the
	// teacher reduces it modulo 2*pi to avoid precision loss.
	phase := twoPiF*float64(nSamples)/float64(g.sampleRateHz) + g.phaseOffset
	periods := math.Floor(phase / (2 * math.Pi))
	g.phaseOffset = phase - periods*2*math.Pi

	return nil
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
