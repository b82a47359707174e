package widgets

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestRenderKeyHelp(t *testing.T) {
	out := RenderKeyHelp([]KeySection{{
		Title: "Steps",
		Keys:  []KeyBinding{{"space", "toggle"}, {"t", "tie"}},
	}})
	assert.Equal(t, "Steps\n  space        toggle\n  t            tie", out)
}

func TestRenderKeyColumns(t *testing.T) {
	out := RenderKeyColumns([]KeySection{
		{Title: "A", Keys: []KeyBinding{{"x", "one"}}},
		{Title: "B", Keys: []KeyBinding{{"y", "two"}, {"z", "three"}}},
	}, 2)
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "A"))
	assert.Contains(t, lines[0], "B")
	assert.Contains(t, lines[2], "three")
}

func TestMeter(t *testing.T) {
	assert.Equal(t, ' ', MeterRune(0))
	assert.Equal(t, '█', MeterRune(1))
	assert.Equal(t, '█', MeterRune(3))
	assert.Equal(t, "██░░", RenderBar(0.5, 4))
	assert.Equal(t, "░░░░", RenderBar(-1, 4))

	row := RenderMeterRow([]float64{0, 1}, func(int) lipgloss.Color { return lipgloss.Color("#ffffff") })
	assert.Contains(t, row, "█")
}
