package sequencer

import (
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-stepseq/midi"
)

var playing120 = Transport{Playing: true, BPM: 120, TimeSigNumerator: 4, TimeSigDenominator: 4}

// newTestEngine runs at 8 kHz so a 1/16 step at 120 BPM is 1000 samples.
func newTestEngine(s *Store) *Engine {
	e := NewEngine(s, nil)
	e.Prepare(8000)
	return e
}

func notes(events []timedEvent) []int {
	var out []int
	for _, ev := range filter(events, midi.NoteOn) {
		out = append(out, int(ev.Note))
	}
	return out
}

func positions(events []timedEvent) []int {
	var out []int
	for _, ev := range events {
		out = append(out, ev.At)
	}
	return out
}

func TestDriftFreeAccumulation(t *testing.T) {
	s := newTestStore()
	activateAll(s, 16)
	e := NewEngine(s, nil)
	e.Prepare(44100)

	on := filter(runEngine(e, playing120, 0, 882000+512, 512), midi.NoteOn)
	require.GreaterOrEqual(t, len(on), 161)

	for j := 0; j <= 160; j++ {
		want := int(math.Ceil(float64(j) * 5512.5))
		require.Equal(t, want, on[j].At, "step %d", j)
	}
	assert.Equal(t, 88200, on[16].At, "one loop is two seconds")
	assert.InDelta(t, 882000, on[160].At, 1, "ten loops")
}

func TestRepeatAndRoundRobin(t *testing.T) {
	s := newTestStore()
	s.Params().SetNumSteps(4)
	s.AddTrack()
	s.AddTrack()
	s.ApplyNote(60, 0, 1, 2, 3)
	s.SwitchToTrack(1)
	s.ApplyNote(66, 0, 1, 2, 3)
	s.SwitchToTrack(2)
	s.ApplyNote(72, 0, 1, 2, 3)
	s.SwitchToTrack(0)
	s.SetTrackRepeat(0, 2)
	s.SetTrackEnabled(1, false)

	e := newTestEngine(s)
	got := notes(runEngine(e, playing120, 0, 16000, 256))

	want := []int{
		60, 60, 60, 60, 60, 60, 60, 60, // track 0, two passes
		72, 72, 72, 72, // track 1 disabled, track 2 once
		60, 60, 60, 60, // wraps back to track 0
	}
	assert.Equal(t, want, got)
	assert.Equal(t, 0, s.Current())
}

func TestEngineSwitchUpdatesStore(t *testing.T) {
	s := newTestStore()
	s.Params().SetNumSteps(4)
	s.AddTrack()
	e := newTestEngine(s)

	runEngine(e, playing120, 0, 4500, 100)
	assert.Equal(t, 1, s.Current())
	ph := e.Playhead()
	assert.Equal(t, 1, ph.Track)
	assert.Equal(t, 0, ph.Step)
	assert.True(t, ph.Playing)
}

func TestNoEnabledTracksKeepsPlaying(t *testing.T) {
	s := newTestStore()
	s.Params().SetNumSteps(4)
	s.AddTrack()
	s.SetTrackEnabled(0, false)
	s.SetTrackEnabled(1, false)
	activateAll(s, 4)

	e := newTestEngine(s)
	on := filter(runEngine(e, playing120, 0, 8500, 500), midi.NoteOn)
	assert.Len(t, on, 9)
	assert.Equal(t, 0, s.Current())
}

func TestTiedGateSpansSteps(t *testing.T) {
	s := newTestStore()
	s.SetStep(0, Step{Active: true, Note: 60, Velocity: 100, Gate: 2.0, Probability: 1})
	s.SetStep(1, Step{Active: true, Tied: true, Note: 62, Velocity: 100, Gate: 0.5, Probability: 1})

	e := newTestEngine(s)
	events := runEngine(e, playing120, 0, 4000, 128)

	require.Len(t, events, 2)
	assert.Equal(t, midi.NoteOn, events[0].Type)
	assert.Equal(t, 0, events[0].At)
	assert.Equal(t, midi.NoteOff, events[1].Type)
	assert.Equal(t, uint8(60), events[1].Note)
	assert.Equal(t, 2000, events[1].At)
}

func TestStopSendsSingleAllNotesOff(t *testing.T) {
	s := newTestStore()
	activateAll(s, 16)
	e := newTestEngine(s)
	buf := midi.NewBuffer(64)

	e.Process(playing120, 200, buf)
	require.Equal(t, 1, buf.Len(), "note is sounding")

	stopped := playing120
	stopped.Playing = false

	buf.Reset()
	e.Process(stopped, 200, buf)
	require.Equal(t, 1, buf.Len())
	ev := buf.Events()[0]
	assert.True(t, ev.IsAllNotesOff())
	assert.Equal(t, uint8(1), ev.Channel)
	assert.Equal(t, 0, ev.Offset)

	for i := 0; i < 20; i++ {
		buf.Reset()
		e.Process(stopped, 512, buf)
		assert.Zero(t, buf.Len())
	}
	assert.False(t, e.Playhead().Playing)

	buf.Reset()
	e.Process(playing120, 64, buf)
	require.Equal(t, 1, buf.Len())
	assert.Equal(t, midi.NoteOn, buf.Events()[0].Type)
	assert.Equal(t, 0, buf.Events()[0].Offset, "restart plays step 0 immediately")
}

func TestStoppedDoesNothing(t *testing.T) {
	s := newTestStore()
	activateAll(s, 16)
	e := newTestEngine(s)
	events := runEngine(e, Transport{BPM: 120}, 0, 10000, 512)
	assert.Empty(t, events)
}

func TestGateLength(t *testing.T) {
	s := newTestStore()
	s.SetStep(0, Step{Active: true, Note: 60, Velocity: 90, Gate: 0.25, Probability: 1})
	e := newTestEngine(s)

	events := runEngine(e, playing120, 0, 1000, 64)
	require.Len(t, events, 2)
	assert.Equal(t, []int{0, 250}, positions(events))
	assert.Equal(t, uint8(90), events[0].Velocity)
}

func TestMonophonicVoiceStealing(t *testing.T) {
	s := newTestStore()
	s.SetStep(0, Step{Active: true, Note: 60, Velocity: 100, Gate: 1.5, Probability: 1})
	s.SetStep(1, Step{Active: true, Note: 64, Velocity: 100, Gate: 0.5, Probability: 1})
	e := newTestEngine(s)

	events := runEngine(e, playing120, 0, 2000, 300)
	require.Len(t, events, 4)
	assert.Equal(t, []int{0, 1000, 1000, 1500}, positions(events))
	assert.Equal(t, midi.NoteOff, events[1].Type)
	assert.Equal(t, uint8(60), events[1].Note)
	assert.Equal(t, midi.NoteOn, events[2].Type)
	assert.Equal(t, uint8(64), events[2].Note)
}

func TestProbabilityGate(t *testing.T) {
	s := NewStore(NewParams(), stubRandom{f: 0.6})
	s.SetStep(0, Step{Active: true, Note: 60, Velocity: 100, Gate: 0.5, Probability: 0.5})
	s.SetStep(1, Step{Active: true, Note: 62, Velocity: 100, Gate: 0.5, Probability: 0.6})
	e := newTestEngine(s)

	assert.Equal(t, []int{62}, notes(runEngine(e, playing120, 0, 2000, 512)))
}

func TestOctaveShiftClamps(t *testing.T) {
	s := newTestStore()
	s.Params().SetOctave(3)
	s.SetStep(0, Step{Active: true, Note: 100, Velocity: 100, Gate: 0.5, Probability: 1})
	s.SetStep(1, Step{Active: true, Note: 60, Velocity: 100, Gate: 0.5, Probability: 1})
	e := newTestEngine(s)

	assert.Equal(t, []int{127, 96}, notes(runEngine(e, playing120, 0, 2000, 512)))
}

func TestSwingDelaysOddSteps(t *testing.T) {
	s := newTestStore()
	s.Params().SetNumSteps(4)
	s.Params().SetSwing(50)
	activateAll(s, 4)
	e := newTestEngine(s)

	on := filter(runEngine(e, playing120, 0, 4100, 128), midi.NoteOn)
	assert.Equal(t, []int{0, 1250, 2000, 3250, 4000}, positions(on))
}

func TestUISwitchRestartsAtStepZero(t *testing.T) {
	s := newTestStore()
	s.Params().SetNumSteps(8)
	s.ApplyNote(60, 0, 1, 2, 3, 4, 5, 6, 7)
	s.AddTrack()
	s.SwitchToTrack(1)
	s.ApplyNote(72, 0)
	s.SwitchToTrack(0)

	e := newTestEngine(s)
	first := runEngine(e, playing120, 0, 1500, 500)
	assert.Equal(t, []int{60, 60}, notes(first))

	s.SwitchToTrack(1)
	second := runEngine(e, playing120, 1500, 1500, 500)
	on := filter(second, midi.NoteOn)
	require.Len(t, on, 1)
	assert.Equal(t, uint8(72), on[0].Note)
	assert.Equal(t, 2000, on[0].At)
	assert.Equal(t, 0, e.Playhead().Step)
}

func TestRestoreResetsTiming(t *testing.T) {
	s := newTestStore()
	activateAll(s, 16)
	e := newTestEngine(s)
	runEngine(e, playing120, 0, 1500, 500)

	st := s.Snapshot()
	st.Tracks[0].Steps[0].Note = 50
	s.Restore(st)

	buf := midi.NewBuffer(16)
	e.Process(playing120, 100, buf)
	require.Equal(t, 2, buf.Len())
	assert.Equal(t, midi.NoteOff, buf.Events()[0].Type)
	assert.Equal(t, midi.NoteOn, buf.Events()[1].Type)
	assert.Equal(t, uint8(50), buf.Events()[1].Note)
	assert.Equal(t, 0, buf.Events()[1].Offset)
}

func TestInvalidTempoHoldsLastGood(t *testing.T) {
	s := newTestStore()
	activateAll(s, 16)
	e := newTestEngine(s)

	runEngine(e, playing120, 0, 500, 500)
	bad := playing120
	bad.BPM = 0
	on := filter(runEngine(e, bad, 500, 1600, 400), midi.NoteOn)
	assert.Equal(t, []int{1000, 2000}, positions(on))

	bad.BPM = math.NaN()
	on = filter(runEngine(e, bad, 2100, 1000, 500), midi.NoteOn)
	assert.Equal(t, []int{3000}, positions(on))
}

func TestTimeSignatureRecorded(t *testing.T) {
	e := newTestEngine(newTestStore())
	buf := midi.NewBuffer(8)
	e.Process(Transport{BPM: 90, TimeSigNumerator: 7, TimeSigDenominator: 8}, 16, buf)
	num, den := e.TimeSignature()
	assert.Equal(t, 7, num)
	assert.Equal(t, 8, den)
}

func TestChannel(t *testing.T) {
	s := newTestStore()
	activateAll(s, 1)
	e := newTestEngine(s)
	e.SetChannel(10)

	events := runEngine(e, playing120, 0, 100, 100)
	require.Len(t, events, 1)
	assert.Equal(t, uint8(10), events[0].Channel)

	e.SetChannel(0)
	assert.Equal(t, uint8(1), e.Channel())
}

func TestProcessDoesNotAllocate(t *testing.T) {
	s := newTestStore()
	s.Params().SetNumSteps(4)
	s.AddTrack()
	activateAll(s, 4)
	e := newTestEngine(s)
	buf := midi.NewBuffer(256)

	allocs := testing.AllocsPerRun(200, func() {
		buf.Reset()
		e.Process(playing120, 512, buf)
	})
	assert.Zero(t, allocs)
}

func TestTrackEditsWhilePlaying(t *testing.T) {
	s := newTestStore()
	s.Params().SetNumSteps(4)
	s.Params().SetRate(RateThirtySecond)
	activateAll(s, 4)
	s.AddTrack()
	s.AddTrack()

	e := NewEngine(s, nil)
	e.Prepare(3200) // 80 samples per step at 300 BPM
	fast := Transport{Playing: true, BPM: 300, TimeSigNumerator: 4, TimeSigDenominator: 4}

	var done atomic.Bool
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		buf := midi.NewBuffer(midi.DefaultBufferSize)
		for !done.Load() {
			buf.Reset()
			e.Process(fast, 64, buf)
		}
	}()

	for i := 0; i < 2000; i++ {
		switch i % 4 {
		case 0, 1:
			s.AddTrack()
		case 2:
			s.RemoveTrack()
			s.RemoveTrack()
		case 3:
			s.DuplicateTrack(s.Current())
			s.RemoveTrack()
		}
	}
	done.Store(true)
	wg.Wait()

	require.GreaterOrEqual(t, s.NumTracks(), 2)
	assert.Less(t, s.Current(), s.NumTracks())
	assert.GreaterOrEqual(t, s.Current(), 0)

	// round-robin still moves on afterwards
	before := s.Current()
	runEngine(e, fast, 0, 320*s.NumTracks()+64, 64)
	assert.NotEqual(t, before, s.Current())
}

func TestPrepareReleasesSoundingNote(t *testing.T) {
	s := newTestStore()
	s.ApplyNote(64, 0)
	e := newTestEngine(s)

	runEngine(e, playing120, 0, 100, 100)
	e.Prepare(16000)

	buf := midi.NewBuffer(16)
	e.Process(playing120, 10, buf)
	ev := buf.Events()
	require.GreaterOrEqual(t, len(ev), 1)
	assert.Equal(t, midi.NoteOff, ev[0].Type)
	assert.Equal(t, uint8(64), ev[0].Note)
	assert.Equal(t, 0, ev[0].Offset)
	assert.Equal(t, 16000.0, e.SampleRate())
}
