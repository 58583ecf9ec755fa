package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

var (
	blue   = color.New(color.FgBlue).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func errorStyle(msg string) string {
	return red("error: " + msg)
}

func infoStyle(msg string) string {
	return blue(msg)
}

func successStyle(msg string) string {
	return green(msg)
}

// isTTY checks if the current environment has a TTY available.
func isTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// progressPrinter renders task progress. On a TTY it rewrites a single
// status line; otherwise it prints one line per distinct label.
type progressPrinter struct {
	tty       bool
	lastLabel string
	lastWidth int
}

func newProgressPrinter() *progressPrinter {
	return &progressPrinter{tty: isTTY()}
}

func (p *progressPrinter) update(percent float64, label string) {
	if !p.tty {
		if label != p.lastLabel {
			fmt.Printf("[%3.0f%%] %s\n", percent, label)
			p.lastLabel = label
		}
		return
	}

	line := fmt.Sprintf("%s %s", yellow(fmt.Sprintf("[%3.0f%%]", percent)), label)
	padding := ""
	if w := visibleWidth(line); w < p.lastWidth {
		padding = strings.Repeat(" ", p.lastWidth-w)
	}
	fmt.Printf("\r%s%s", line, padding)
	p.lastWidth = visibleWidth(line)
	p.lastLabel = label
}

func (p *progressPrinter) finish() {
	if p.tty && p.lastWidth > 0 {
		fmt.Println()
		p.lastWidth = 0
	}
}

// visibleWidth approximates printed width by ignoring ANSI escape
// sequences.
func visibleWidth(s string) int {
	width := 0
	inEscape := false
	for _, r := range s {
		switch {
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		case r == '\x1b':
			inEscape = true
		default:
			width++
		}
	}
	return width
}
