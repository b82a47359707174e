package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"go-stepseq/debug"
	"go-stepseq/sequencer"
	"go-stepseq/theme"
	"go-stepseq/theory"
)

// Transport is the play/stop and tempo surface the editor drives.
type Transport interface {
	Play()
	Stop()
	Toggle()
	Playing() bool
	Tempo() float64
	SetTempo(bpm float64)
}

// Edit amounts
const (
	velocityStep    = 8
	gateStep        = 0.125
	probabilityStep = 0.1
	swingStep       = 5
	tempoStep       = 5
	amountStep      = 0.1
	frameRate       = 30
)

type Model struct {
	Store     *sequencer.Store
	Engine    *sequencer.Engine
	Transport Transport
	Projects  *sequencer.Projects
	Project   string
	Theme     *theme.Theme

	cursor   int
	hits     int
	amount   float64
	showHelp bool
	status   string
	quitting bool
}

type UpdateMsg struct{}

type frameMsg time.Time

func NewModel(store *sequencer.Store, engine *sequencer.Engine, tr Transport, th *theme.Theme) Model {
	if th == nil {
		th = theme.New(nil)
	}
	return Model{
		Store:     store,
		Engine:    engine,
		Transport: tr,
		Theme:     th,
		Project:   "untitled",
		hits:      4,
		amount:    0.5,
	}
}

// ListenForUpdates waits for the next pattern change.
func ListenForUpdates(store *sequencer.Store) tea.Cmd {
	return func() tea.Msg {
		<-store.Updates()
		return UpdateMsg{}
	}
}

func frame() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(ListenForUpdates(m.Store), frame())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg.String())

	case UpdateMsg:
		return m, ListenForUpdates(m.Store)

	case frameMsg:
		return m, frame()
	}
	return m, nil
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	s := m.Store
	p := s.Params()
	m.status = ""

	switch key {
	case "q", "ctrl+c":
		m.quitting = true
		if m.Transport != nil {
			m.Transport.Stop()
		}
		return m, tea.Quit

	// transport
	case "p":
		if m.Transport != nil {
			m.Transport.Toggle()
		}
	case "+", "=":
		if m.Transport != nil {
			m.Transport.SetTempo(m.Transport.Tempo() + tempoStep)
		}
	case "-", "_":
		if m.Transport != nil {
			m.Transport.SetTempo(m.Transport.Tempo() - tempoStep)
		}

	// cursor and steps
	case "h", "left":
		if m.cursor > 0 {
			m.cursor--
		}
	case "l", "right":
		if m.cursor < p.NumSteps()-1 {
			m.cursor++
		}
	case " ", "space":
		s.ToggleStep(m.cursor)
	case "t":
		s.ToggleTie(m.cursor)
	case "j", "down":
		m.nudge(func(st sequencer.Step) sequencer.Step { st.Note--; return st })
	case "k", "up":
		m.nudge(func(st sequencer.Step) sequencer.Step { st.Note++; return st })
	case "J":
		m.nudge(func(st sequencer.Step) sequencer.Step { st.Note -= 12; return st })
	case "K":
		m.nudge(func(st sequencer.Step) sequencer.Step { st.Note += 12; return st })
	case "v":
		m.nudge(func(st sequencer.Step) sequencer.Step { st.Velocity -= velocityStep; return st })
	case "V":
		m.nudge(func(st sequencer.Step) sequencer.Step { st.Velocity += velocityStep; return st })
	case "g":
		m.nudge(func(st sequencer.Step) sequencer.Step { st.Gate -= gateStep; return st })
	case "G":
		m.nudge(func(st sequencer.Step) sequencer.Step { st.Gate += gateStep; return st })
	case "b":
		m.nudge(func(st sequencer.Step) sequencer.Step { st.Probability -= probabilityStep; return st })
	case "B":
		m.nudge(func(st sequencer.Step) sequencer.Step { st.Probability += probabilityStep; return st })
	case "enter":
		// spread the cursor's note to every active step
		cur := s.CurrentTrack()
		var idx []int
		for i := 0; i < p.NumSteps() && i < len(cur.Steps); i++ {
			if cur.Steps[i].Active {
				idx = append(idx, i)
			}
		}
		if m.cursor < len(cur.Steps) {
			s.ApplyNote(cur.Steps[m.cursor].Note, idx...)
		}

	// pattern transforms and generators
	case "c":
		s.ClearPattern()
	case "i":
		s.InvertPattern()
	case "r":
		s.ReversePattern()
	case "[":
		m.hits = max(m.hits-1, 1)
	case "]":
		m.hits = min(m.hits+1, p.NumSteps())
	case "e":
		s.EuclideanPattern(min(m.hits, p.NumSteps()), p.NumSteps())
	case "z":
		s.RandomizePattern(m.amount)
	case "m":
		s.MutatePattern(m.amount)
	case ",":
		m.amount = max(m.amount-amountStep, amountStep)
	case ".":
		m.amount = min(m.amount+amountStep, 1)

	// tracks
	case "a":
		s.AddTrack()
	case "x":
		s.RemoveTrack()
	case "d":
		s.DuplicateTrack(s.Current())
	case "n", "tab":
		s.SwitchToTrack((s.Current() + 1) % s.NumTracks())
	case "N", "shift+tab":
		s.SwitchToTrack((s.Current() + s.NumTracks() - 1) % s.NumTracks())
	case "R":
		t := s.CurrentTrack()
		next := t.Repeat + 1
		if next > sequencer.MaxRepeat {
			next = sequencer.MinRepeat
		}
		s.SetTrackRepeat(s.Current(), next)
	case "E":
		s.SetTrackEnabled(s.Current(), !s.CurrentTrack().Enabled)

	// global parameters
	case "s":
		p.SetNumSteps(p.NumSteps() - sequencer.StepQuantum)
	case "S":
		p.SetNumSteps(p.NumSteps() + sequencer.StepQuantum)
	case "w":
		p.SetRate((p.Rate() + 1) % sequencer.NumRates)
	case "W":
		next := p.Swing() + swingStep
		if next > sequencer.MaxSwing {
			next = 0
		}
		p.SetSwing(next)
	case "y":
		p.SetKey((p.Key() + 1) % 12)
	case "u":
		p.SetScale((p.Scale() + 1) % theory.NumScales)
	case "o":
		p.SetOctave(p.Octave() - 1)
	case "O":
		p.SetOctave(p.Octave() + 1)

	// files
	case "ctrl+s":
		m.save()
	case "ctrl+o":
		m.load()

	case "?":
		m.showHelp = !m.showHelp
	}

	if m.cursor >= p.NumSteps() {
		m.cursor = p.NumSteps() - 1
	}
	return m, nil
}

func (m *Model) nudge(fn func(sequencer.Step) sequencer.Step) {
	m.Store.UpdateStep(m.cursor, fn)
}

func (m *Model) save() {
	if m.Projects == nil {
		m.status = "no project folder"
		return
	}
	name, err := m.Projects.Save(m.Store, m.Project, "")
	if err != nil {
		m.status = fmt.Sprintf("save failed: %v", err)
		debug.Log("tui", "save failed: %v", err)
		return
	}
	m.status = "saved " + name
}

func (m *Model) load() {
	if m.Projects == nil {
		m.status = "no project folder"
		return
	}
	if err := m.Projects.Load(m.Store, m.Project, ""); err != nil {
		m.status = fmt.Sprintf("load failed: %v", err)
		debug.Log("tui", "load failed: %v", err)
		return
	}
	m.cursor = 0
	m.status = "loaded " + m.Project
}
