package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the tonnetz ASCII art banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	// Cool-to-warm gradient matching the lattice palettes
	lines := []struct {
		text  string
		color string
	}{
		{" _____                       _       ", "#3498DB"},
		{"|_   _|___  _ __  _ __   ___| |_ ____", "#2ECC71"},
		{"  | | / _ \\| '_ \\| '_ \\ / _ \\ __|_  /", "#B3B6B7"},
		{"  | || (_) | | | | | | |  __/ |_ / / ", "#F2A65A"},
		{"  |_| \\___/|_| |_|_| |_|\\___|\\__/___|", "#FF5733"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
