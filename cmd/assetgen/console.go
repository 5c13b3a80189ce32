package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"assetgen/internal/preflight"
)

var (
	passColors    = text.Colors{text.FgGreen}
	failColors    = text.Colors{text.FgRed, text.Bold}
	headingColors = text.Colors{text.FgCyan, text.Bold}
)

// renderCheck formats one preflight result, padding the name to width so a
// block of checks lines up.
func renderCheck(r preflight.Result, width int, colorize bool) string {
	verdict, colors := "PASS", passColors
	if !r.Passed {
		verdict, colors = "FAIL", failColors
	}
	line := fmt.Sprintf("  %-*s [%s]", width, r.Name, verdict)
	if r.Detail != "" {
		line += " " + r.Detail
	}
	if colorize {
		return colors.Sprint(line)
	}
	return line
}

// renderChecks writes title, an underline, and one line per result. It
// returns the number of failed checks.
func renderChecks(w io.Writer, title string, results []preflight.Result) int {
	colorize := shouldColorize(w)
	heading := title
	if colorize {
		heading = headingColors.Sprint(title)
	}
	fmt.Fprintln(w, heading)
	fmt.Fprintln(w, strings.Repeat("─", utf8.RuneCountInString(title)))

	width := 0
	for _, r := range results {
		width = max(width, utf8.RuneCountInString(r.Name))
	}
	failed := 0
	for _, r := range results {
		if !r.Passed {
			failed++
		}
		fmt.Fprintln(w, renderCheck(r, width, colorize))
	}
	return failed
}

// shouldColorize reports whether w is a terminal and NO_COLOR is unset.
func shouldColorize(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
