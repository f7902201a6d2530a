package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the SkillFlow banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"   ____  _    _ _ _ _____ _", "#34d399"},
		{"  / ___|| | _(_) | |  ___| | _____      __", "#2dd4bf"},
		{"  \\___ \\| |/ / | | | |_  | |/ _ \\ \\ /\\ / /", "#22d3ee"},
		{"   ___) |   <| | | |  _| | | (_) \\ V  V /", "#38bdf8"},
		{"  |____/|_|\\_\\_|_|_|_|   |_|\\___/ \\_/\\_/", "#60a5fa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
