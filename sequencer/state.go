package sequencer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"go-stepseq/debug"
)

// StateVersion is written into every saved state.
const StateVersion = 1

// State is the persisted form of the pattern and the global parameters.
// Every step is stored, active or not.
type State struct {
	Version int          `json:"version" yaml:"version"`
	Params  ParamsState  `json:"params" yaml:"params"`
	Tracks  []TrackState `json:"tracks" yaml:"tracks"`
}

// TrackState holds one track
type TrackState struct {
	Repeat  int         `json:"repeat" yaml:"repeat"`
	Enabled bool        `json:"enabled" yaml:"enabled"`
	Steps   []StepState `json:"steps" yaml:"steps"`
}

// StepState holds a single step
type StepState struct {
	Index       int     `json:"i" yaml:"i"`
	Note        int     `json:"n" yaml:"n"`
	Velocity    int     `json:"v" yaml:"v"`
	Gate        float64 `json:"g" yaml:"g"`
	Probability float64 `json:"p" yaml:"p"`
	Active      bool    `json:"a" yaml:"a"`
	Tied        bool    `json:"t" yaml:"t"`
}

// Snapshot captures the pattern and parameters.
func (s *Store) Snapshot() State {
	p := s.pattern.Load()
	st := State{
		Version: StateVersion,
		Params:  s.params.Snapshot(),
		Tracks:  make([]TrackState, len(p.Tracks)),
	}
	for ti, t := range p.Tracks {
		ts := TrackState{
			Repeat:  t.Repeat,
			Enabled: t.Enabled,
			Steps:   make([]StepState, len(t.Steps)),
		}
		for i, step := range t.Steps {
			ts.Steps[i] = StepState{
				Index:       i,
				Note:        step.Note,
				Velocity:    step.Velocity,
				Gate:        step.Gate,
				Probability: step.Probability,
				Active:      step.Active,
				Tied:        step.Tied,
			}
		}
		st.Tracks[ti] = ts
	}
	return st
}

// Restore replaces the pattern and parameters with st. Tracks are rebuilt
// at full capacity with default steps, then the stored steps are placed by
// index; out-of-range indices are skipped. The first track becomes current
// and the engine restarts its timing.
func (s *Store) Restore(st State) {
	tracks := make([]Track, 0, len(st.Tracks))
	for _, ts := range st.Tracks {
		t := NewTrack()
		t.Repeat = clampInt(ts.Repeat, MinRepeat, MaxRepeat)
		t.Enabled = ts.Enabled
		for _, ss := range ts.Steps {
			if ss.Index < 0 || ss.Index >= len(t.Steps) {
				continue
			}
			t.Steps[ss.Index] = Step{
				Active:      ss.Active,
				Tied:        ss.Tied,
				Note:        ss.Note,
				Velocity:    ss.Velocity,
				Gate:        ss.Gate,
				Probability: ss.Probability,
			}.Clamped()
		}
		tracks = append(tracks, t)
	}
	if len(tracks) == 0 {
		tracks = append(tracks, NewTrack())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if st.Params.NumSteps != 0 {
		s.params.Apply(st.Params)
	}
	s.pattern.Store(&Pattern{Tracks: tracks})
	s.current.Store(0)
	s.restores.Add(1)
	s.notify()
	debug.Log("store", "restored %d tracks", len(tracks))
}

// Format is a state encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatFor picks the encoding from a file extension; anything that is not
// .yaml or .yml is JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Marshal encodes st.
func (st State) Marshal(f Format) ([]byte, error) {
	if f == FormatYAML {
		return yaml.Marshal(st)
	}
	return json.MarshalIndent(st, "", "  ")
}

// UnmarshalState decodes data written by State.Marshal.
func UnmarshalState(data []byte, f Format) (State, error) {
	var st State
	var err error
	if f == FormatYAML {
		err = yaml.Unmarshal(data, &st)
	} else {
		err = json.Unmarshal(data, &st)
	}
	if err != nil {
		return State{}, fmt.Errorf("decoding state: %w", err)
	}
	if st.Version > StateVersion {
		return State{}, fmt.Errorf("decoding state: unsupported version %d", st.Version)
	}
	return st, nil
}

// SaveFile writes the store's state to path, encoded by its extension.
func (s *Store) SaveFile(path string) error {
	data, err := s.Snapshot().Marshal(FormatFor(path))
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// LoadFile restores the store from a file written by SaveFile.
func (s *Store) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	st, err := UnmarshalState(data, FormatFor(path))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	s.Restore(st)
	return nil
}
