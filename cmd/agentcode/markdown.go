package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// markdownRenderer renders the agent's explanations in the terminal.
type markdownRenderer struct {
	renderer *glamour.TermRenderer
}

func newMarkdownRenderer() (*markdownRenderer, error) {
	// Get terminal width for dynamic word wrapping
	termWidth := 80
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		termWidth = width - 4
		if termWidth > 120 {
			termWidth = 120
		}
	}

	style := glamour.WithStandardStyle("dark")
	if !isTTY() {
		style = glamour.WithStandardStyle("notty")
	}

	renderer, err := glamour.NewTermRenderer(
		style,
		glamour.WithWordWrap(termWidth),
		glamour.WithEmoji(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}

	return &markdownRenderer{renderer: renderer}, nil
}

// render returns the styled text, falling back to the raw content when
// rendering fails.
func (mr *markdownRenderer) render(content string) string {
	if content == "" {
		return ""
	}
	rendered, err := mr.renderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}
