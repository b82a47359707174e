package host

import (
	"context"
	"encoding/binary"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-stepseq/midi"
	"go-stepseq/sequencer"
)

type recordingSink struct {
	mu     sync.Mutex
	events []midi.Event
}

func (r *recordingSink) Send(e midi.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingSink) snapshot() []midi.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]midi.Event(nil), r.events...)
}

func newTestHost(t *testing.T) (*Host, *sequencer.Store) {
	t.Helper()
	s := sequencer.NewStore(nil, nil)
	s.SetStep(0, sequencer.Step{Active: true, Note: 60, Velocity: 100, Gate: 0.5, Probability: 1})
	h := New(sequencer.NewEngine(s, nil), Options{SampleRate: 8000, BlockSize: 256})
	return h, s
}

func TestReadProducesSilence(t *testing.T) {
	h, _ := newTestHost(t)
	p := make([]byte, 1000*frameBytes+3)
	for i := range p {
		p[i] = 0xff
	}
	n, err := h.Read(p)
	require.NoError(t, err)
	assert.Equal(t, 1000*frameBytes, n)
	for i := 0; i < n; i += 4 {
		assert.Equal(t, float32(0), math.Float32frombits(binary.LittleEndian.Uint32(p[i:])))
	}
}

func TestReadQueuesEventsWithAbsolutePositions(t *testing.T) {
	h, _ := newTestHost(t)
	h.Play()
	h.Read(make([]byte, 700*frameBytes))

	require.Len(t, h.queue, 2)
	on := <-h.queue
	off := <-h.queue
	assert.Equal(t, midi.NoteOn, on.ev.Type)
	assert.Equal(t, int64(0), on.at)
	assert.Equal(t, midi.NoteOff, off.ev.Type)
	assert.Equal(t, int64(500), off.at)
}

func TestStopQueuesAllNotesOff(t *testing.T) {
	h, _ := newTestHost(t)
	h.Play()
	h.Read(make([]byte, 100*frameBytes))
	<-h.queue

	h.Stop()
	h.Read(make([]byte, 100*frameBytes))
	require.Len(t, h.queue, 1)
	s := <-h.queue
	assert.True(t, s.ev.IsAllNotesOff())
	assert.Equal(t, int64(100), s.at)
}

func TestQueueOverflowIsCounted(t *testing.T) {
	s := sequencer.NewStore(nil, nil)
	for i := 0; i < 16; i++ {
		s.ToggleStep(i)
	}
	h := New(sequencer.NewEngine(s, nil), Options{SampleRate: 8000, BlockSize: 256, QueueSize: 2})
	h.Play()
	h.Read(make([]byte, 8000*frameBytes))
	assert.Len(t, h.queue, 2)
	assert.Greater(t, h.Dropped(), uint64(0))
}

func TestDispatchDelivers(t *testing.T) {
	h, _ := newTestHost(t)
	sink := &recordingSink{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Dispatch(ctx, sink)

	h.Play()
	h.Read(make([]byte, 100*frameBytes))

	assert.Eventually(t, func() bool {
		return len(sink.snapshot()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, uint8(60), sink.snapshot()[0].Note)
}

func TestRunTicker(t *testing.T) {
	h, _ := newTestHost(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.RunTicker(ctx)

	h.Play()
	assert.Eventually(t, func() bool {
		return len(h.queue) > 0
	}, time.Second, 5*time.Millisecond)
}

func TestTransportControls(t *testing.T) {
	h, _ := newTestHost(t)
	assert.Equal(t, 120.0, h.Tempo())

	h.SetTempo(500)
	assert.Equal(t, float64(MaxTempo), h.Tempo())
	h.SetTempo(1)
	assert.Equal(t, float64(MinTempo), h.Tempo())
	h.SetTempo(math.NaN())
	assert.Equal(t, float64(MinTempo), h.Tempo())

	h.Toggle()
	assert.True(t, h.Playing())
	h.Toggle()
	assert.False(t, h.Playing())

	h.SetTimeSignature(3, 4)
	h.SetTimeSignature(0, 4)
	num, den := h.TimeSignature()
	assert.Equal(t, 3, num)
	assert.Equal(t, 4, den)
}
