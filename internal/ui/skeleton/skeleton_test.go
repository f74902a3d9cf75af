package skeleton

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestList(t *testing.T) {
	out := List(50, 4)

	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 4)
	for _, line := range lines {
		assert.LessOrEqual(t, lipgloss.Width(line), 50)
		assert.Contains(t, line, block)
	}
}

func TestTable(t *testing.T) {
	out := Table(60, 5, 4)

	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 6, "header plus rows")
	for _, line := range lines {
		assert.LessOrEqual(t, lipgloss.Width(line), 60)
	}
}

func TestCardAndStats(t *testing.T) {
	assert.Contains(t, Card(30, 3), block)
	assert.Contains(t, Stats(80, 4), block)
	assert.Empty(t, Stats(80, 0))
}

func TestZeroWidth(t *testing.T) {
	assert.NotPanics(t, func() {
		List(0, 2)
		Table(0, 2, 0)
		Card(0, 1)
	})
}
