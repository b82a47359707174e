// Package render runs the sequencer offline and writes the result as a
// Standard MIDI File.
package render

import (
	"fmt"
	"io"
	"math"
	"os"

	"gitlab.com/gomidi/midi/v2/smf"

	"go-stepseq/debug"
	"go-stepseq/midi"
	"go-stepseq/sequencer"
)

// Defaults
const (
	DefaultSampleRate = 44100
	DefaultBlockSize  = 512
	DefaultPPQ        = 960
)

// Options controls an offline render.
type Options struct {
	SampleRate float64
	BlockSize  int
	BPM        float64
	Loops      int // passes of numSteps steps
	TimeSig    [2]int
	PPQ        uint16
}

func (o Options) withDefaults() Options {
	if o.SampleRate <= 0 {
		o.SampleRate = DefaultSampleRate
	}
	if o.BlockSize <= 0 {
		o.BlockSize = DefaultBlockSize
	}
	if o.BPM <= 0 {
		o.BPM = sequencer.DefaultBPM
	}
	if o.Loops <= 0 {
		o.Loops = 1
	}
	if o.TimeSig[0] <= 0 || o.TimeSig[1] <= 0 {
		o.TimeSig = [2]int{4, 4}
	}
	if o.PPQ == 0 {
		o.PPQ = DefaultPPQ
	}
	return o
}

// Event is an engine event at an absolute sample position.
type Event struct {
	At int64
	midi.Event
}

// Render plays store from a stopped transport for opts.Loops passes and
// then stops, returning every event emitted including the final
// all-notes-off.
func Render(store *sequencer.Store, opts Options) []Event {
	opts = opts.withDefaults()

	e := sequencer.NewEngine(store, nil)
	e.Prepare(opts.SampleRate)

	steps := opts.Loops * store.Params().NumSteps()
	sps := sequencer.SamplesPerStep(opts.SampleRate, opts.BPM, store.Params().Rate())
	total := int64(math.Ceil(float64(steps) * sps))

	tr := sequencer.Transport{
		Playing:            true,
		BPM:                opts.BPM,
		TimeSigNumerator:   opts.TimeSig[0],
		TimeSigDenominator: opts.TimeSig[1],
	}
	buf := midi.NewBuffer(midi.DefaultBufferSize)

	var events []Event
	collect := func(base int64) {
		for _, ev := range buf.Events() {
			events = append(events, Event{At: base + int64(ev.Offset), Event: ev})
		}
	}

	var pos int64
	for pos < total {
		n := int(min(int64(opts.BlockSize), total-pos))
		buf.Reset()
		e.Process(tr, n, buf)
		collect(pos)
		pos += int64(n)
	}

	tr.Playing = false
	buf.Reset()
	e.Process(tr, 1, buf)
	collect(pos)

	if d := buf.Dropped(); d > 0 {
		debug.Log("render", "dropped %d events", d)
	}
	debug.Log("render", "%d loops, %d samples, %d events", opts.Loops, total, len(events))
	return events
}

// WriteSMF writes events as a two-track SMF: a tempo/meter track and a
// note track.
func WriteSMF(w io.Writer, events []Event, opts Options) error {
	opts = opts.withDefaults()

	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(opts.PPQ)

	var meta smf.Track
	meta.Add(0, smf.MetaMeter(uint8(opts.TimeSig[0]), uint8(opts.TimeSig[1])))
	meta.Add(0, smf.MetaTempo(opts.BPM))
	meta.Close(0)
	if err := sm.Add(meta); err != nil {
		return fmt.Errorf("adding tempo track: %w", err)
	}

	samplesPerTick := opts.SampleRate * 60 / opts.BPM / float64(opts.PPQ)
	var notes smf.Track
	var last uint32
	for _, ev := range events {
		msg := ev.Message()
		if msg == nil {
			continue
		}
		tick := uint32(math.Round(float64(ev.At) / samplesPerTick))
		notes.Add(tick-last, msg)
		last = tick
	}
	notes.Close(0)
	if err := sm.Add(notes); err != nil {
		return fmt.Errorf("adding note track: %w", err)
	}

	if _, err := sm.WriteTo(w); err != nil {
		return fmt.Errorf("writing smf: %w", err)
	}
	return nil
}

// WriteFile renders store and writes the SMF to path.
func WriteFile(path string, store *sequencer.Store, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := WriteSMF(f, Render(store, opts), opts); err != nil {
		return err
	}
	return f.Close()
}
