package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatsCountsLines(t *testing.T) {
	added, deleted := Stats("a\nb\nc\n", "a\nB\nc\nd\n")
	assert.Greater(t, added, 0)
	assert.Greater(t, deleted, 0)

	added, deleted = Stats("same\n", "same\n")
	assert.Zero(t, added)
	assert.Zero(t, deleted)
}

func TestFormatStats(t *testing.T) {
	assert.Equal(t, "No changes", FormatStats(0, 0))
	assert.Equal(t, "+3 lines", FormatStats(3, 0))
	assert.Equal(t, "-2 lines", FormatStats(0, 2))
	assert.Equal(t, "+1 lines, -2 lines", FormatStats(1, 2))
}

func TestRenderPlain(t *testing.T) {
	lines := Compute("x\ny", "x\nz\nw")
	out := NewRenderer(false).Render(lines, "main.py")

	assert.Equal(t,
		"--- a/main.py\n"+
			"+++ b/main.py\n"+
			" x\n"+
			"-y\n"+
			"+z\n"+
			"+w\n",
		out)
}
