package sequencer

import (
	"sync"
	"sync/atomic"

	"go-stepseq/debug"
)

// Store owns the pattern. Every edit copies what it changes and publishes
// a new *Pattern atomically, so the audio thread reads without locking.
// The mutex only serializes writers.
type Store struct {
	mu      sync.Mutex
	pattern atomic.Pointer[Pattern]
	current atomic.Int32

	// switches counts track selections the engine did not make itself;
	// restores counts whole-pattern loads.
	switches atomic.Uint64
	restores atomic.Uint64

	params *Params
	rng    Random

	updates chan struct{}
}

// NewStore creates a store holding one default track. A nil rng uses
// DefaultRandom.
func NewStore(params *Params, rng Random) *Store {
	if params == nil {
		params = NewParams()
	}
	if rng == nil {
		rng = DefaultRandom
	}
	s := &Store{
		params:  params,
		rng:     rng,
		updates: make(chan struct{}, 1),
	}
	s.pattern.Store(newPattern())
	return s
}

// Params returns the settings the store's generators read.
func (s *Store) Params() *Params {
	return s.params
}

// Pattern returns the current published snapshot. Callers must not modify it.
func (s *Store) Pattern() *Pattern {
	return s.pattern.Load()
}

// Current returns the index of the track being played and edited.
func (s *Store) Current() int {
	return int(s.current.Load())
}

func (s *Store) NumTracks() int {
	return len(s.pattern.Load().Tracks)
}

// Track returns a copy of track i, or false if i is out of range.
func (s *Store) Track(i int) (Track, bool) {
	p := s.pattern.Load()
	if i < 0 || i >= len(p.Tracks) {
		return Track{}, false
	}
	return p.Tracks[i].Clone(), true
}

// CurrentTrack returns a copy of the current track.
func (s *Store) CurrentTrack() Track {
	t, _ := s.Track(s.Current())
	return t
}

// Updates delivers a signal whenever the pattern changes. Signals coalesce.
func (s *Store) Updates() <-chan struct{} {
	return s.updates
}

func (s *Store) notify() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}

// edit runs fn on a private copy of the pattern and publishes it if fn
// reports a change. Must not be called with s.mu held.
func (s *Store) edit(fn func(p *Pattern) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.pattern.Load().shallowCopy()
	if !fn(next) {
		return false
	}
	s.pattern.Store(next)
	s.notify()
	return true
}

// editCurrent runs fn on a private copy of the current track.
func (s *Store) editCurrent(fn func(t *Track) bool) bool {
	return s.edit(func(p *Pattern) bool {
		i := s.Current()
		if i < 0 || i >= len(p.Tracks) {
			return false
		}
		return fn(p.mutableTrack(i))
	})
}

// selectTrack publishes i as the current track on behalf of the UI. Caller
// holds s.mu.
func (s *Store) selectTrack(i int) {
	s.current.Store(int32(i))
	s.switches.Add(1)
}

// advanceTrack is the engine's round-robin switch. It loses to any
// concurrent selection made through the store, and to a removal that
// shrinks the pattern below to.
func (s *Store) advanceTrack(from, to int) bool {
	if to < 0 || to >= s.NumTracks() {
		return false
	}
	if !s.current.CompareAndSwap(int32(from), int32(to)) {
		return false
	}
	// a removal may have published between the check and the swap
	if to >= s.NumTracks() {
		s.clampCurrent()
		return false
	}
	s.notify()
	return true
}

// clampCurrent pulls the current index back inside the published pattern.
// A change counts as a store selection so the engine resyncs.
func (s *Store) clampCurrent() {
	for {
		cur := s.current.Load()
		last := int32(s.NumTracks() - 1)
		if cur <= last {
			return
		}
		if s.current.CompareAndSwap(cur, last) {
			s.switches.Add(1)
			return
		}
	}
}

// AddTrack appends a default track.
func (s *Store) AddTrack() {
	s.edit(func(p *Pattern) bool {
		p.Tracks = append(p.Tracks, NewTrack())
		debug.Log("store", "add track -> %d tracks", len(p.Tracks))
		return true
	})
}

// RemoveTrack drops the last track. At least one track always remains.
func (s *Store) RemoveTrack() {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.pattern.Load().shallowCopy()
	if len(next.Tracks) <= 1 {
		return
	}
	next.Tracks = next.Tracks[:len(next.Tracks)-1]
	s.pattern.Store(next)
	// the engine may advance concurrently, so fix the index after publishing
	s.clampCurrent()
	debug.Log("store", "remove track -> %d tracks", len(next.Tracks))
	s.notify()
}

// DuplicateTrack appends a deep copy of track i and makes it current.
func (s *Store) DuplicateTrack(i int) {
	s.edit(func(p *Pattern) bool {
		if i < 0 || i >= len(p.Tracks) {
			return false
		}
		p.Tracks = append(p.Tracks, p.Tracks[i].Clone())
		debug.Log("store", "duplicate track %d -> %d", i, len(p.Tracks)-1)
		s.selectTrack(len(p.Tracks) - 1)
		return true
	})
}

// SwitchToTrack makes track i current. Out-of-range or already current
// indices are ignored. The engine restarts the track from step 0.
func (s *Store) SwitchToTrack(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= len(s.pattern.Load().Tracks) || i == s.Current() {
		return
	}
	s.selectTrack(i)
	s.notify()
}

// ClearPattern resets every step of the current track to the default.
func (s *Store) ClearPattern() {
	s.editCurrent(func(t *Track) bool {
		for i := range t.Steps {
			t.Steps[i] = DefaultStep()
		}
		return true
	})
}

// InvertPattern flips the active flag of every step of the current track.
func (s *Store) InvertPattern() {
	s.editCurrent(func(t *Track) bool {
		for i := range t.Steps {
			t.Steps[i].Active = !t.Steps[i].Active
		}
		return true
	})
}

// ReversePattern reverses the first numSteps steps of the current track.
func (s *Store) ReversePattern() {
	n := s.params.NumSteps()
	s.editCurrent(func(t *Track) bool {
		n := min(n, len(t.Steps))
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			t.Steps[i], t.Steps[j] = t.Steps[j], t.Steps[i]
		}
		return n > 1
	})
}

// SetStep replaces step i of the current track, clamping its attributes.
func (s *Store) SetStep(i int, step Step) {
	s.UpdateStep(i, func(Step) Step { return step })
}

// UpdateStep replaces step i of the current track with fn's result.
func (s *Store) UpdateStep(i int, fn func(Step) Step) {
	s.editCurrent(func(t *Track) bool {
		if i < 0 || i >= len(t.Steps) {
			return false
		}
		t.Steps[i] = fn(t.Steps[i]).Clamped()
		return true
	})
}

// ToggleStep flips step i on or off.
func (s *Store) ToggleStep(i int) {
	s.UpdateStep(i, func(st Step) Step {
		st.Active = !st.Active
		return st
	})
}

// ApplyNote sets the note of each listed step and switches it on.
func (s *Store) ApplyNote(note int, indices ...int) {
	s.editCurrent(func(t *Track) bool {
		changed := false
		for _, i := range indices {
			if i < 0 || i >= len(t.Steps) {
				continue
			}
			t.Steps[i].Note = clampInt(note, 0, 127)
			t.Steps[i].Active = true
			changed = true
		}
		return changed
	})
}

// ToggleTie ties step i to the note before it, or unties it. The step that
// starts the tied run gets its gate stretched (or shrunk) to cover the run.
func (s *Store) ToggleTie(i int) {
	s.editCurrent(func(t *Track) bool {
		if i <= 0 || i >= len(t.Steps) {
			return false
		}
		t.Steps[i].Tied = !t.Steps[i].Tied
		if t.Steps[i].Tied {
			t.Steps[i].Active = true
		}
		fitTieGate(t.Steps, i)
		return true
	})
}

// fitTieGate finds the note that starts the run containing i and sizes its
// gate to the run's length.
func fitTieGate(steps []Step, i int) {
	origin := i
	if !steps[i].Tied {
		origin = i - 1
	}
	for origin > 0 && steps[origin].Tied {
		origin--
	}
	if steps[origin].Tied || !steps[origin].Active {
		return
	}
	end := origin
	for end+1 < len(steps) && steps[end+1].Tied {
		end++
	}
	if span := end - origin + 1; span > 1 {
		steps[origin].Gate = float64(span)
	} else if steps[origin].Gate > 1 {
		steps[origin].Gate = 1
	}
}

// SetTrackRepeat sets how many passes track i plays before the engine
// moves on, clamped to [1, 16].
func (s *Store) SetTrackRepeat(i, repeat int) {
	s.edit(func(p *Pattern) bool {
		if i < 0 || i >= len(p.Tracks) {
			return false
		}
		p.Tracks[i].Repeat = clampInt(repeat, MinRepeat, MaxRepeat)
		return true
	})
}

// SetTrackEnabled includes or excludes track i from round-robin playback.
func (s *Store) SetTrackEnabled(i int, enabled bool) {
	s.edit(func(p *Pattern) bool {
		if i < 0 || i >= len(p.Tracks) {
			return false
		}
		p.Tracks[i].Enabled = enabled
		return true
	})
}
