// Package host drives the engine outside a plugin host: it owns the
// transport, clocks Engine.Process from an audio callback or a ticker, and
// forwards the resulting events to a MIDI sink at their scheduled time.
package host

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"go-stepseq/debug"
	"go-stepseq/midi"
	"go-stepseq/sequencer"
)

// Tempo bounds for the standalone transport.
const (
	MinTempo = 20
	MaxTempo = 300
)

// frameBytes is one stereo float32 frame.
const frameBytes = 8

// DefaultQueueSize bounds the audio-to-dispatcher event queue.
const DefaultQueueSize = 1024

// Options configures a Host.
type Options struct {
	SampleRate int
	BlockSize  int
	QueueSize  int
	Latency    time.Duration // added to every scheduled send
}

type scheduled struct {
	at int64 // absolute sample position
	ev midi.Event
}

// Host presents a transport to the engine and runs it in real time.
type Host struct {
	engine *sequencer.Engine
	opts   Options

	playing atomic.Bool
	bpm     atomic.Uint64 // float64 bits
	sigNum  atomic.Int32
	sigDen  atomic.Int32

	// audio thread only
	buf   *midi.Buffer
	clock int64

	started atomic.Int64 // wall-clock nanos at sample 0, 0 until first block
	queue   chan scheduled
	dropped atomic.Uint64
}

// New wraps engine. Zero options take defaults.
func New(engine *sequencer.Engine, opts Options) *Host {
	if opts.SampleRate <= 0 {
		opts.SampleRate = int(sequencer.DefaultSampleRate)
	}
	if opts.BlockSize <= 0 {
		opts.BlockSize = 512
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	h := &Host{
		engine: engine,
		opts:   opts,
		buf:    midi.NewBuffer(midi.DefaultBufferSize),
		queue:  make(chan scheduled, opts.QueueSize),
	}
	h.SetTempo(sequencer.DefaultBPM)
	h.SetTimeSignature(4, 4)
	engine.Prepare(float64(opts.SampleRate))
	return h
}

// Play starts the transport
func (h *Host) Play() {
	if !h.playing.Swap(true) {
		debug.Log("host", "play")
	}
}

// Stop stops the transport; the engine sends all-notes-off on its next block.
func (h *Host) Stop() {
	if h.playing.Swap(false) {
		debug.Log("host", "stop")
	}
}

// Toggle flips between playing and stopped.
func (h *Host) Toggle() {
	if h.Playing() {
		h.Stop()
	} else {
		h.Play()
	}
}

func (h *Host) Playing() bool {
	return h.playing.Load()
}

// SetTempo sets the BPM, clamped to [MinTempo, MaxTempo].
func (h *Host) SetTempo(bpm float64) {
	if math.IsNaN(bpm) {
		return
	}
	bpm = min(max(bpm, MinTempo), MaxTempo)
	h.bpm.Store(math.Float64bits(bpm))
}

func (h *Host) Tempo() float64 {
	return math.Float64frombits(h.bpm.Load())
}

func (h *Host) SetTimeSignature(num, den int) {
	if num <= 0 || den <= 0 {
		return
	}
	h.sigNum.Store(int32(num))
	h.sigDen.Store(int32(den))
}

func (h *Host) TimeSignature() (num, den int) {
	return int(h.sigNum.Load()), int(h.sigDen.Load())
}

// Dropped returns how many events were lost because the queue or the
// block buffer was full.
func (h *Host) Dropped() uint64 {
	return h.dropped.Load()
}

func (h *Host) transport() sequencer.Transport {
	num, den := h.TimeSignature()
	return sequencer.Transport{
		Playing:            h.Playing(),
		BPM:                h.Tempo(),
		TimeSigNumerator:   num,
		TimeSigDenominator: den,
	}
}

// render advances the engine by frames samples in block-sized chunks and
// queues what it emits. It never blocks.
func (h *Host) render(frames int) {
	if h.started.Load() == 0 {
		h.started.Store(time.Now().UnixNano())
	}
	for frames > 0 {
		n := min(frames, h.opts.BlockSize)
		h.buf.Reset()
		before := h.buf.Dropped()
		h.engine.Process(h.transport(), n, h.buf)
		if d := h.buf.Dropped() - before; d > 0 {
			h.dropped.Add(uint64(d))
		}
		for _, ev := range h.buf.Events() {
			select {
			case h.queue <- scheduled{at: h.clock + int64(ev.Offset), ev: ev}:
			default:
				h.dropped.Add(1)
			}
		}
		h.clock += int64(n)
		frames -= n
	}
}

// Read fills p with silent stereo float32 frames, running the engine for
// the same number of samples. It is the audio callback.
func (h *Host) Read(p []byte) (int, error) {
	frames := len(p) / frameBytes
	clear(p[:frames*frameBytes])
	h.render(frames)
	return frames * frameBytes, nil
}

// RunTicker clocks the engine from a wall-clock ticker, one block per tick,
// until ctx is cancelled. It is the fallback when no audio device is used.
func (h *Host) RunTicker(ctx context.Context) {
	period := time.Duration(float64(h.opts.BlockSize) / float64(h.opts.SampleRate) * float64(time.Second))
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	debug.Log("host", "ticker clock, block=%d period=%s", h.opts.BlockSize, period)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.render(h.opts.BlockSize)
		}
	}
}

// Dispatch sends queued events to sink at their scheduled wall time until
// ctx is cancelled. Late events go out immediately.
func (h *Host) Dispatch(ctx context.Context, sink midi.Sink) {
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-h.queue:
			if wait := time.Until(h.deadline(s.at)); wait > 0 {
				timer := time.NewTimer(wait)
				select {
				case <-ctx.Done():
					timer.Stop()
					return
				case <-timer.C:
				}
			}
			if err := sink.Send(s.ev); err != nil {
				debug.LogEvery(100, "host", "send failed: %v", err)
			}
		}
	}
}

func (h *Host) deadline(at int64) time.Time {
	offset := time.Duration(float64(at) / float64(h.opts.SampleRate) * float64(time.Second))
	return time.Unix(0, h.started.Load()).Add(offset + h.opts.Latency)
}
