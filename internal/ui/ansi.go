package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

var (
	reset = "\033[0m"
	bold  = "\033[1m"
	dim   = "\033[2m"

	fgGray   = "\033[90m"
	fgGreen  = "\033[32m"
	fgYellow = "\033[33m"
	fgBlue   = "\033[34m"
	fgRed    = "\033[31m"

	symCheck = "✔"
	symCross = "✖"
)

// ColorMode mirrors the view.color setting.
type ColorMode int

const (
	ColorAuto ColorMode = iota
	ColorAlways
	ColorNever
)

// ParseColorMode accepts auto, always or never.
func ParseColorMode(s string) ColorMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "always":
		return ColorAlways
	case "never":
		return ColorNever
	default:
		return ColorAuto
	}
}

var colorMode = ColorAuto

func SetColorMode(m ColorMode) { colorMode = m }

func isTTY() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// C wraps s in color when the terminal (or the user) wants it.
func C(color, s string) string {
	if color == "" {
		return s
	}
	switch colorMode {
	case ColorNever:
		return s
	case ColorAlways:
		return color + s + reset
	}
	if isTTY() {
		return color + s + reset
	}
	return s
}

func OK(w io.Writer, msg string)   { fmt.Fprintln(w, C(current.Success, symCheck+" "+msg)) }
func Fail(w io.Writer, msg string) { fmt.Fprintln(w, C(current.Error, symCross+" "+msg)) }

// Hint prints a dimmed follow-up line under a failure.
func Hint(w io.Writer, msg string) { fmt.Fprintln(w, C(current.Muted, "Hint: "+msg)) }
