package diff

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Renderer turns a staged change into terminal output.
type Renderer struct {
	colorEnabled bool
}

// NewRenderer creates a renderer; pass false to get plain text.
func NewRenderer(colorEnabled bool) *Renderer {
	return &Renderer{colorEnabled: colorEnabled}
}

// Stats summarizes a change as added/deleted line counts, computed with a
// semantic diff rather than the positional preview so the numbers stay
// meaningful when lines shift.
func Stats(original, proposed string) (added, deleted int) {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(original, proposed, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added += strings.Count(d.Text, "\n")
			if !strings.HasSuffix(d.Text, "\n") {
				added++
			}
		case diffmatchpatch.DiffDelete:
			deleted += strings.Count(d.Text, "\n")
			if !strings.HasSuffix(d.Text, "\n") {
				deleted++
			}
		}
	}
	return
}

// FormatStats returns a human-readable change summary.
func FormatStats(added, deleted int) string {
	if added == 0 && deleted == 0 {
		return "No changes"
	}
	parts := []string{}
	if added > 0 {
		parts = append(parts, fmt.Sprintf("+%d lines", added))
	}
	if deleted > 0 {
		parts = append(parts, fmt.Sprintf("-%d lines", deleted))
	}
	return strings.Join(parts, ", ")
}

// Render prints the positional comparison in unified style: one marker
// column, removed/changed originals first, added/changed proposals second.
func (r *Renderer) Render(lines []Line, name string) string {
	var b strings.Builder

	b.WriteString(r.colorize("--- a/"+name+"\n", color.FgRed))
	b.WriteString(r.colorize("+++ b/"+name+"\n", color.FgGreen))

	for _, line := range lines {
		switch line.Type {
		case Equal:
			b.WriteString(fmt.Sprintf(" %s\n", line.Original))
		case Removed:
			b.WriteString(r.colorize(fmt.Sprintf("-%s\n", line.Original), color.FgRed))
		case Added:
			b.WriteString(r.colorize(fmt.Sprintf("+%s\n", line.Modified), color.FgGreen))
		case Changed:
			b.WriteString(r.colorize(fmt.Sprintf("-%s\n", line.Original), color.FgRed))
			b.WriteString(r.colorize(fmt.Sprintf("+%s\n", line.Modified), color.FgGreen))
		}
	}

	return b.String()
}

func (r *Renderer) colorize(text string, attr color.Attribute) string {
	if !r.colorEnabled {
		return text
	}
	return color.New(attr).Sprint(text)
}
