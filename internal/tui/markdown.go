// Package tui holds terminal presentation helpers for the CLI.
package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// MarkdownRenderer converts markdown replies to styled terminal output.
// A nil renderer degrades to plain text, so callers never have to branch
// on initialization failure.
type MarkdownRenderer struct {
	renderer *glamour.TermRenderer
}

// NewMarkdownRenderer creates a renderer with terminal-appropriate
// styling. Initialization failure yields a renderer that passes text
// through unchanged.
func NewMarkdownRenderer(width int) *MarkdownRenderer {
	if width <= 0 {
		width = 80
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return &MarkdownRenderer{}
	}
	return &MarkdownRenderer{renderer: r}
}

// Render converts markdown to styled terminal output, returning the
// original text when rendering is unavailable or fails.
func (m *MarkdownRenderer) Render(markdown string) string {
	if m == nil || m.renderer == nil {
		return markdown
	}

	rendered, err := m.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimSuffix(rendered, "\n")
}
