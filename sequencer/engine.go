package sequencer

import (
	"math"
	"sync/atomic"

	"go-stepseq/midi"
	"go-stepseq/theory"
)

// DefaultSampleRate is used until Prepare is called.
const DefaultSampleRate = 44100.0

// DefaultBPM is the tempo assumed before the host reports a valid one.
const DefaultBPM = 120.0

// Transport is what the host reports at the start of every block.
type Transport struct {
	Playing            bool
	BPM                float64
	TimeSigNumerator   int
	TimeSigDenominator int
}

// Playhead is the engine position as seen from other goroutines.
type Playhead struct {
	Track   int
	Step    int
	Playing bool
}

// Engine turns elapsed samples into step triggers for the store's current
// track. Process runs on the audio thread: it never locks, logs or
// allocates. Everything else may be called from any goroutine.
type Engine struct {
	store   *Store
	params  *Params
	rng     Random
	channel uint8

	sampleRate float64
	bpm        float64
	timeSig    [2]int

	// scheduling state, owned by Process
	playing  bool
	downbeat bool
	restart  bool
	track    int
	step     int
	bars     int
	acc      float64
	swingDue int
	gateLeft int
	sounding int // -1 when silent
	release  bool

	switches uint64
	restores uint64

	posTrack   atomic.Int32
	posStep    atomic.Int32
	posPlaying atomic.Bool
}

// NewEngine creates an engine that plays store on MIDI channel 1. A nil
// rng uses the store's source.
func NewEngine(store *Store, rng Random) *Engine {
	if rng == nil {
		rng = store.rng
	}
	e := &Engine{
		store:      store,
		params:     store.params,
		rng:        rng,
		channel:    1,
		sampleRate: DefaultSampleRate,
		bpm:        DefaultBPM,
		timeSig:    [2]int{4, 4},
		sounding:   -1,
	}
	e.switches = store.switches.Load()
	e.restores = store.restores.Load()
	return e
}

// SetChannel selects the 1-based MIDI channel events are emitted on.
// Call it while the engine is not processing.
func (e *Engine) SetChannel(ch uint8) {
	e.channel = uint8(clampInt(int(ch), 1, 16))
}

// Channel returns the 1-based MIDI channel events are emitted on.
func (e *Engine) Channel() uint8 {
	return e.channel
}

// Prepare sets the sample rate and resets all timing state. Call it
// before the first block and whenever the sample rate changes. A note
// still sounding is released at offset 0 of the next block.
func (e *Engine) Prepare(sampleRate float64) {
	if sampleRate > 0 {
		e.sampleRate = sampleRate
	}
	e.playing = false
	e.release = e.sounding >= 0
	e.reset()
	e.publish()
}

// SampleRate returns the rate set by the last Prepare.
func (e *Engine) SampleRate() float64 {
	return e.sampleRate
}

// TimeSignature returns the last signature reported by the host.
func (e *Engine) TimeSignature() (num, den int) {
	return e.timeSig[0], e.timeSig[1]
}

// Playhead returns the position published at the end of the last block.
func (e *Engine) Playhead() Playhead {
	return Playhead{
		Track:   int(e.posTrack.Load()),
		Step:    int(e.posStep.Load()),
		Playing: e.posPlaying.Load(),
	}
}

func (e *Engine) reset() {
	e.downbeat = false
	e.restart = false
	e.step = 0
	e.bars = 0
	e.acc = 0
	e.swingDue = 0
	e.gateLeft = 0
}

func (e *Engine) publish() {
	e.posTrack.Store(int32(e.track))
	e.posStep.Store(int32(e.step))
	e.posPlaying.Store(e.playing)
}

// Process schedules one block of numSamples samples, appending events to
// out with offsets relative to the block start.
func (e *Engine) Process(tr Transport, numSamples int, out *midi.Buffer) {
	if tr.BPM > 0 && !math.IsInf(tr.BPM, 0) {
		e.bpm = tr.BPM
	}
	if tr.TimeSigNumerator > 0 && tr.TimeSigDenominator > 0 {
		e.timeSig = [2]int{tr.TimeSigNumerator, tr.TimeSigDenominator}
	}

	pat := e.store.pattern.Load()

	if r := e.store.restores.Load(); r != e.restores {
		e.restores = r
		e.switches = e.store.switches.Load()
		e.track = e.store.Current()
		if e.sounding >= 0 {
			e.noteOff(out, 0)
		}
		e.reset()
		e.downbeat = e.playing
	}

	if e.release {
		e.release = false
		if e.sounding >= 0 {
			e.noteOff(out, 0)
		}
	}

	if !tr.Playing {
		if e.playing {
			out.Add(midi.AllNotesOff(0, e.channel))
			e.playing = false
			e.sounding = -1
			e.reset()
			e.publish()
		}
		return
	}

	if !e.playing {
		e.playing = true
		e.reset()
		e.sounding = -1
		e.downbeat = true
		e.track = e.store.Current()
		e.switches = e.store.switches.Load()
	}

	if sw := e.store.switches.Load(); sw != e.switches {
		e.switches = sw
		e.track = e.store.Current()
		e.step = 0
		e.bars = 0
		e.swingDue = 0
		e.restart = !e.downbeat
	}
	if e.track < 0 || e.track >= len(pat.Tracks) {
		e.track = clampInt(e.store.Current(), 0, len(pat.Tracks)-1)
	}

	numSteps := e.params.NumSteps()
	octave := e.params.Octave()
	sps := SamplesPerStep(e.sampleRate, e.bpm, e.params.Rate())
	swing := SwingDelay(sps, e.params.Swing())

	for s := 0; s < numSamples; s++ {
		if e.gateLeft > 0 {
			e.gateLeft--
			if e.gateLeft == 0 && e.sounding >= 0 {
				e.noteOff(out, s)
			}
		}

		if e.swingDue > 0 {
			e.swingDue--
			if e.swingDue == 0 {
				e.advance(pat, numSteps)
				e.trigger(pat, numSteps, octave, sps, out, s)
			}
		}

		if e.downbeat {
			e.downbeat = false
			e.step = 0
			e.trigger(pat, numSteps, octave, sps, out, s)
			continue
		}

		e.acc++
		if e.acc < sps {
			continue
		}
		e.acc -= sps

		if e.swingDue > 0 {
			// tempo jumped while a swung step was pending
			e.swingDue = 0
			e.advance(pat, numSteps)
			e.trigger(pat, numSteps, octave, sps, out, s)
		}
		if swing > 0 && e.nextStep(numSteps)%2 == 1 {
			e.swingDue = swing
			continue
		}
		e.advance(pat, numSteps)
		e.trigger(pat, numSteps, octave, sps, out, s)
	}

	e.publish()
}

// nextStep is the index the next advance will land on.
func (e *Engine) nextStep(numSteps int) int {
	if e.restart || e.step >= numSteps-1 {
		return 0
	}
	return e.step + 1
}

func (e *Engine) advance(pat *Pattern, numSteps int) {
	if e.restart {
		e.restart = false
		e.step = 0
		return
	}
	if e.step < numSteps-1 {
		e.step++
		return
	}

	e.step = 0
	e.bars++
	if e.bars < max(pat.Tracks[e.track].Repeat, MinRepeat) {
		return
	}
	e.bars = 0

	n := len(pat.Tracks)
	for i := 1; i < n; i++ {
		next := (e.track + i) % n
		if !pat.Tracks[next].Enabled {
			continue
		}
		if e.store.advanceTrack(e.track, next) {
			e.track = next
		}
		return
	}
}

func (e *Engine) trigger(pat *Pattern, numSteps, octave int, sps float64, out *midi.Buffer, offset int) {
	steps := pat.Tracks[e.track].Steps
	if e.step >= numSteps || e.step >= len(steps) {
		return
	}
	st := steps[e.step]
	if !st.Active || st.Tied {
		return
	}
	if e.rng.Float64() > st.Probability {
		return
	}

	if e.sounding >= 0 {
		e.noteOff(out, offset)
	}
	pitch := theory.ClampNote(st.Note + octave*12)
	out.Add(midi.Event{
		Offset:   offset,
		Type:     midi.NoteOn,
		Channel:  e.channel,
		Note:     uint8(pitch),
		Velocity: uint8(clampInt(st.Velocity, 1, 127)),
	})
	e.sounding = pitch
	e.gateLeft = max(1, int(math.Floor(sps*st.Gate)))
}

func (e *Engine) noteOff(out *midi.Buffer, offset int) {
	out.Add(midi.Event{
		Offset:  offset,
		Type:    midi.NoteOff,
		Channel: e.channel,
		Note:    uint8(e.sounding),
	})
	e.sounding = -1
	e.gateLeft = 0
}
