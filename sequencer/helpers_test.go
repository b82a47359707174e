package sequencer

import (
	"math/rand/v2"

	"go-stepseq/midi"
)

func seeded() Random {
	return rand.New(rand.NewPCG(7, 11))
}

// stubRandom returns fixed values.
type stubRandom struct {
	f float64
	n int
}

func (r stubRandom) Float64() float64 { return r.f }

func (r stubRandom) IntN(n int) int {
	if r.n >= n {
		return n - 1
	}
	return r.n
}

type timedEvent struct {
	At int
	midi.Event
}

// runEngine processes total samples in fixed blocks and returns events
// with absolute sample positions starting at start.
func runEngine(e *Engine, tr Transport, start, total, block int) []timedEvent {
	buf := midi.NewBuffer(1024)
	var out []timedEvent
	for pos := 0; pos < total; pos += block {
		n := min(block, total-pos)
		buf.Reset()
		e.Process(tr, n, buf)
		for _, ev := range buf.Events() {
			out = append(out, timedEvent{At: start + pos + ev.Offset, Event: ev})
		}
	}
	return out
}

func filter(events []timedEvent, typ uint8) []timedEvent {
	var out []timedEvent
	for _, ev := range events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

func activateAll(s *Store, n int) {
	for i := 0; i < n; i++ {
		s.UpdateStep(i, func(st Step) Step {
			st.Active = true
			return st
		})
	}
}
