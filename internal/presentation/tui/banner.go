package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	"  ___  ___ _ __(_) |__   ___ ",
	" / __|/ __| '__| | '_ \\ / _ \\",
	" \\__ \\ (__| |  | | |_) |  __/",
	" |___/\\___|_|  |_|_.__/ \\___|",
}

var bannerColors = []string{"#34d399", "#2dd4bf", "#22d3ee", "#38bdf8"}

// PrintBanner writes the scribe banner with the version underneath.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, out.String(line).Foreground(out.Color(bannerColors[i%len(bannerColors)])))
	}
	if v := strings.TrimSpace(version); v != "" {
		fmt.Fprintln(w, out.String("  v"+strings.TrimPrefix(v, "v")).Faint())
	}
	fmt.Fprintln(w)
}

// SystemStyle dims meta messages so they stand apart from replies.
func SystemStyle(w io.Writer) func(string) string {
	out := termenv.NewOutput(w)
	return func(s string) string {
		return out.String(s).Faint().String()
	}
}
