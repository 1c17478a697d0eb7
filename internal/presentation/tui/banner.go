package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{`    _   _       _ _          `, "#fbbf24"},
	{`   /_\ | |_ ___| (_)___ _ _  `, "#fb923c"},
	{`  / _ \|  _/ -_) | / -_) '_| `, "#f87171"},
	{` /_/ \_\\__\___|_|_\___|_|   `, "#f472b6"},
}

// PrintBanner writes the atelier banner to w, colored when w supports it.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)

	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}
