// Package diff provides the positional line comparison used to preview a
// task's proposed change, plus terminal rendering helpers.
package diff

import "strings"

// LineType classifies one position of a line diff.
type LineType string

const (
	Equal   LineType = "equal"
	Added   LineType = "added"
	Removed LineType = "removed"
	Changed LineType = "changed"
)

// Line is one position of the comparison. Number is 1-based.
type Line struct {
	Type     LineType
	Original string
	Modified string
	Number   int
}

// Compute walks both texts line by line and classifies each position
// independently: equal when the lines match, removed when only the
// original has a line at that index, added when only the modified does,
// changed otherwise.
//
// This is a positional approximation, not an edit-distance diff: an
// inserted line shifts everything below it into "changed". That is good
// enough for a side-by-side preview and is the documented behavior.
func Compute(original, modified string) []Line {
	originalLines := strings.Split(original, "\n")
	modifiedLines := strings.Split(modified, "\n")

	count := len(originalLines)
	if len(modifiedLines) > count {
		count = len(modifiedLines)
	}

	result := make([]Line, 0, count)
	for i := 0; i < count; i++ {
		line := Line{Number: i + 1}

		hasOriginal := i < len(originalLines)
		hasModified := i < len(modifiedLines)

		switch {
		case hasOriginal && hasModified && originalLines[i] == modifiedLines[i]:
			line.Type = Equal
			line.Original = originalLines[i]
			line.Modified = modifiedLines[i]
		case hasOriginal && !hasModified:
			line.Type = Removed
			line.Original = originalLines[i]
		case !hasOriginal && hasModified:
			line.Type = Added
			line.Modified = modifiedLines[i]
		default:
			line.Type = Changed
			line.Original = originalLines[i]
			line.Modified = modifiedLines[i]
		}

		result = append(result, line)
	}

	return result
}

// HasChanges reports whether any position differs.
func HasChanges(lines []Line) bool {
	for _, line := range lines {
		if line.Type != Equal {
			return true
		}
	}
	return false
}
