package widgets

import (
	"fmt"
	"strings"
)

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// RenderKeyColumns lays sections out side by side, each as its own column.
func RenderKeyColumns(sections []KeySection, gap int) string {
	cols := make([][]string, len(sections))
	widths := make([]int, len(sections))
	height := 0
	for i, sec := range sections {
		cols[i] = strings.Split(RenderKeyHelp([]KeySection{sec}), "\n")
		for _, l := range cols[i] {
			widths[i] = max(widths[i], len([]rune(l)))
		}
		height = max(height, len(cols[i]))
	}

	var out []string
	for row := 0; row < height; row++ {
		var line strings.Builder
		for i, col := range cols {
			cell := ""
			if row < len(col) {
				cell = col[row]
			}
			if i < len(cols)-1 {
				cell += strings.Repeat(" ", widths[i]-len([]rune(cell))+gap)
			}
			line.WriteString(cell)
		}
		out = append(out, strings.TrimRight(line.String(), " "))
	}
	return strings.Join(out, "\n")
}
