package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	StepEmpty    rune // · inactive step
	StepActive   rune // ● will trigger
	StepTied     rune // ─ continues the previous note
	StepPlayhead rune // ▶ current playing
	StepBeyond   rune // - past numSteps

	CursorEmpty  rune // ○ cursor on empty
	CursorActive rune // ◉ cursor on active
	CursorTied   rune // ═ cursor on tie
}

func New(palette *Palette) *Theme {
	if palette == nil {
		palette = Plasma()
	}
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			StepEmpty:    '·',
			StepActive:   '●',
			StepTied:     '─',
			StepPlayhead: '▶',
			StepBeyond:   '-',

			CursorEmpty:  '○',
			CursorActive: '◉',
			CursorTied:   '═',
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleMuted   = 0.15
	RoleFG      = 0.45
	RoleAccent  = 0.55
	RoleCursor  = 0.65
	RoleActive  = 0.75
	RoleWarning = 0.85
	RoleSuccess = 1.0
)

func (t *Theme) FG() lipgloss.Color      { return t.Color(RoleFG) }
func (t *Theme) Accent() lipgloss.Color  { return t.Color(RoleAccent) }
func (t *Theme) Muted() lipgloss.Color   { return t.Color(RoleMuted) }
func (t *Theme) Active() lipgloss.Color  { return t.Color(RoleActive) }
func (t *Theme) Cursor() lipgloss.Color  { return t.Color(RoleCursor) }
func (t *Theme) Warning() lipgloss.Color { return t.Color(RoleWarning) }
func (t *Theme) Success() lipgloss.Color { return t.Color(RoleSuccess) }

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return Hex(t.Palette.Lookup(norm))
}

// Velocity colors a MIDI velocity along the palette.
func (t *Theme) Velocity(v int) lipgloss.Color {
	return t.Color(0.3 + 0.7*float64(v)/127)
}

// Hex formats c as a lipgloss color.
func Hex(c RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}
