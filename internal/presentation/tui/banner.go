package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the dealreg ASCII banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"      _            _                 ", "#818cf8"},
		{"   __| | ___  __ _| |_ __ ___  __ _  ", "#a78bfa"},
		{"  / _` |/ _ \\/ _` | | '__/ _ \\/ _` | ", "#c084fc"},
		{" | (_| |  __/ (_| | | | |  __/ (_| | ", "#e879f9"},
		{"  \\__,_|\\___|\\__,_|_|_|  \\___|\\__, | ", "#f472b6"},
		{"                              |___/  ", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
