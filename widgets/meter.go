package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var meterBlocks = []rune(" ▁▂▃▄▅▆▇█")

// MeterRune maps norm (0-1) to a vertical eighth-block glyph.
func MeterRune(norm float64) rune {
	norm = min(max(norm, 0), 1)
	return meterBlocks[int(norm*float64(len(meterBlocks)-1)+0.5)]
}

// RenderMeterRow renders one block glyph per value, colored by color.
func RenderMeterRow(values []float64, color func(i int) lipgloss.Color) string {
	var out strings.Builder
	for i, v := range values {
		style := lipgloss.NewStyle().Foreground(color(i))
		out.WriteString(style.Render(string(MeterRune(v))))
	}
	return out.String()
}

// RenderBar draws a horizontal bar of width cells filled to norm.
func RenderBar(norm float64, width int) string {
	norm = min(max(norm, 0), 1)
	filled := int(norm*float64(width) + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
