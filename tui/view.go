package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-stepseq/sequencer"
	"go-stepseq/theory"
	"go-stepseq/widgets"
)

var keySections = []widgets.KeySection{
	{Title: "Steps", Keys: []widgets.KeyBinding{
		{Key: "h / l", Desc: "move cursor"},
		{Key: "space", Desc: "toggle step"},
		{Key: "t", Desc: "tie to previous"},
		{Key: "j / k", Desc: "note -/+ (J/K octave)"},
		{Key: "v / V", Desc: "velocity -/+"},
		{Key: "g / G", Desc: "gate -/+"},
		{Key: "b / B", Desc: "probability -/+"},
		{Key: "enter", Desc: "note to active steps"},
	}},
	{Title: "Pattern", Keys: []widgets.KeyBinding{
		{Key: "c", Desc: "clear"},
		{Key: "i", Desc: "invert"},
		{Key: "r", Desc: "reverse"},
		{Key: "e [ ]", Desc: "euclid, hits -/+"},
		{Key: "z", Desc: "randomize"},
		{Key: "m", Desc: "mutate"},
		{Key: ", .", Desc: "amount -/+"},
	}},
	{Title: "Tracks", Keys: []widgets.KeyBinding{
		{Key: "a / x", Desc: "add / remove"},
		{Key: "d", Desc: "duplicate"},
		{Key: "n / N", Desc: "next / previous"},
		{Key: "R", Desc: "repeat count"},
		{Key: "E", Desc: "enable"},
	}},
	{Title: "Global", Keys: []widgets.KeyBinding{
		{Key: "p", Desc: "play / stop"},
		{Key: "+ / -", Desc: "tempo"},
		{Key: "s / S", Desc: "steps -/+"},
		{Key: "w / W", Desc: "rate, swing"},
		{Key: "y / u", Desc: "key, scale"},
		{Key: "o / O", Desc: "octave -/+"},
		{Key: "^s / ^o", Desc: "save / load"},
		{Key: "q", Desc: "quit"},
	}},
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	th := m.Theme
	headerStyle := lipgloss.NewStyle().Foreground(th.Accent()).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(th.Muted())
	fgStyle := lipgloss.NewStyle().Foreground(th.FG())
	statusStyle := lipgloss.NewStyle().Foreground(th.Warning())

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(headerStyle.Render(m.header()))
	out.WriteString("\n\n")
	out.WriteString(m.tracksLine())
	out.WriteString("\n\n")
	out.WriteString(m.grid())
	out.WriteString("\n\n")
	out.WriteString(fgStyle.Render(m.inspector()))
	out.WriteString("\n")
	out.WriteString(dimStyle.Render(m.paramsLine()))
	out.WriteString("\n")

	if m.status != "" {
		out.WriteString(statusStyle.Render(m.status))
		out.WriteString("\n")
	}

	out.WriteString("\n")
	if m.showHelp {
		out.WriteString(dimStyle.Render(widgets.RenderKeyColumns(keySections, 3)))
	} else {
		out.WriteString(dimStyle.Render("space:toggle  hjkl:edit  e:euclid  z:random  m:mutate  p:play  ?:help  q:quit"))
	}
	return out.String()
}

func (m Model) playhead() sequencer.Playhead {
	if m.Engine == nil {
		return sequencer.Playhead{Track: -1, Step: -1}
	}
	return m.Engine.Playhead()
}

func (m Model) header() string {
	state := "STOP"
	tempo := sequencer.DefaultBPM
	if m.Transport != nil {
		if m.Transport.Playing() {
			state = "PLAY"
		}
		tempo = m.Transport.Tempo()
	}
	ph := m.playhead()
	return fmt.Sprintf("go-stepseq  %s  %3.0fbpm  step:%02d  %s", state, tempo, ph.Step+1, m.Project)
}

func (m Model) tracksLine() string {
	th := m.Theme
	pat := m.Store.Pattern()
	cur := m.Store.Current()
	ph := m.playhead()

	var parts []string
	for i, t := range pat.Tracks {
		label := fmt.Sprintf(" %d×%d ", i+1, t.Repeat)
		style := lipgloss.NewStyle().Foreground(th.FG())
		switch {
		case i == cur:
			style = style.Background(th.Cursor()).Foreground(th.Color(0))
		case !t.Enabled:
			style = style.Foreground(th.Muted()).Strikethrough(true)
		}
		if ph.Playing && i == ph.Track && i != cur {
			style = style.Underline(true)
		}
		parts = append(parts, style.Render(label))
	}
	return strings.Join(parts, " ")
}

func (m Model) grid() string {
	th := m.Theme
	sym := th.Symbols
	t := m.Store.CurrentTrack()
	n := m.Store.Params().NumSteps()
	ph := m.playhead()
	playingHere := ph.Playing && ph.Track == m.Store.Current()

	var cells strings.Builder
	levels := make([]float64, len(t.Steps))
	for i, st := range t.Steps {
		if i > 0 && i%4 == 0 {
			cells.WriteString(" ")
		}
		isCursor := i == m.cursor

		var char rune
		color := th.Muted()
		switch {
		case i >= n:
			char = sym.StepBeyond
		case playingHere && i == ph.Step && !isCursor:
			char = sym.StepPlayhead
			color = th.Success()
		case st.Tied:
			char = sym.StepTied
			if isCursor {
				char = sym.CursorTied
			}
			color = th.Active()
		case st.Active:
			char = sym.StepActive
			if isCursor {
				char = sym.CursorActive
			}
			color = th.Velocity(st.Velocity)
		default:
			char = sym.StepEmpty
			if isCursor {
				char = sym.CursorEmpty
			}
		}
		if isCursor {
			color = th.Cursor()
		}
		cells.WriteString(lipgloss.NewStyle().Foreground(color).Render(string(char)))

		if i < n && st.Active && !st.Tied {
			levels[i] = float64(st.Velocity) / 127 * st.Probability
		}
	}

	var groups []string
	for g := 0; g < len(levels); g += 4 {
		end := min(g+4, len(levels))
		groups = append(groups, widgets.RenderMeterRow(levels[g:end], func(i int) lipgloss.Color {
			return th.Velocity(t.Steps[g+i].Velocity)
		}))
	}
	return cells.String() + "\n" + strings.Join(groups, " ")
}

func (m Model) inspector() string {
	t := m.Store.CurrentTrack()
	if m.cursor < 0 || m.cursor >= len(t.Steps) {
		return ""
	}
	st := t.Steps[m.cursor]
	flags := ""
	if st.Tied {
		flags = "  tied"
	} else if !st.Active {
		flags = "  off"
	}
	return fmt.Sprintf("step %02d  %-4s vel %3d %s  gate %.2f  prob %3.0f%%%s",
		m.cursor+1, theory.NoteName(st.Note), st.Velocity,
		widgets.RenderBar(float64(st.Velocity)/127, 8), st.Gate, st.Probability*100, flags)
}

func (m Model) paramsLine() string {
	p := m.Store.Params()
	t := m.Store.CurrentTrack()
	enabled := "on"
	if !t.Enabled {
		enabled = "off"
	}
	return fmt.Sprintf("steps %d  rate %s  swing %.0f%%  key %s %s  oct %+d  |  track %d/%d %s  |  euclid %d  amount %.1f",
		p.NumSteps(), p.Rate(), p.Swing(), theory.KeyName(p.Key()), p.Scale(), p.Octave(),
		m.Store.Current()+1, m.Store.NumTracks(), enabled, m.hits, m.amount)
}
