// Package skeleton renders gray placeholder blocks shown while a view is
// waiting for its first response.
package skeleton

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailboard/internal/theme"
)

const block = "░"

var barStyle = lipgloss.NewStyle().Foreground(theme.ColorSubtle)

// bar returns a placeholder line of the given width.
func bar(width int) string {
	if width <= 0 {
		return ""
	}
	return barStyle.Render(strings.Repeat(block, width))
}

// widths varies line lengths so placeholders do not look like a grid.
var widths = []int{100, 80, 92, 64, 88, 72}

func fraction(total, percent int) int {
	return max(1, total*percent/100)
}

// List renders count placeholder rows of one line each.
func List(width, count int) string {
	lines := make([]string, 0, count)
	for i := 0; i < count; i++ {
		lines = append(lines, bar(fraction(width, widths[i%len(widths)])))
	}
	return strings.Join(lines, "\n")
}

// Table renders a header bar followed by rows split into cols cells.
func Table(width, rows, cols int) string {
	if cols <= 0 {
		cols = 1
	}
	cell := max(1, (width-(cols-1))/cols)

	var b strings.Builder
	header := make([]string, cols)
	for c := range header {
		header[c] = lipgloss.NewStyle().Bold(true).Render(bar(fraction(cell, 60)) + strings.Repeat(" ", cell-fraction(cell, 60)))
	}
	b.WriteString(strings.Join(header, " "))

	for r := 0; r < rows; r++ {
		b.WriteString("\n")
		row := make([]string, cols)
		for c := range row {
			w := fraction(cell, widths[(r+c)%len(widths)])
			row[c] = bar(w) + strings.Repeat(" ", cell-w)
		}
		b.WriteString(strings.Join(row, " "))
	}
	return b.String()
}

// Card renders a bordered placeholder with a title line and body lines.
func Card(width, lines int) string {
	inner := max(1, width-4)
	body := []string{bar(fraction(inner, 40)), ""}
	for i := 0; i < lines; i++ {
		body = append(body, bar(fraction(inner, widths[(i+1)%len(widths)])))
	}
	return theme.BorderStyle.Width(inner).Padding(0, 1).Render(strings.Join(body, "\n"))
}

// Stats renders count small stat cards side by side.
func Stats(width, count int) string {
	if count <= 0 {
		return ""
	}
	cardWidth := max(8, width/count-1)

	cards := make([]string, count)
	for i := range cards {
		cards[i] = theme.BorderStyle.Width(cardWidth - 2).Render(
			bar(fraction(cardWidth-2, 50)) + "\n" + bar(fraction(cardWidth-2, 30)),
		)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}
