package tui

import (
	"github.com/charmbracelet/glamour"
)

// Render turns markdown into terminal output.
type Render func(markdown string) (string, error)

// NewRenderer returns a glamour renderer. An empty style detects a light or
// dark background; width <= 0 keeps glamour's default wrapping.
func NewRenderer(style string, width int) (Render, error) {
	opts := []glamour.TermRendererOption{glamour.WithEmoji()}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, err
	}
	return r.Render, nil
}

// Plain returns markdown untouched, for pipes and files.
func Plain(markdown string) (string, error) {
	return markdown, nil
}
