package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// NewConsoleDebug returns a config.Debug-shaped func(string) that
// writes to stdout, dimming the whole line with ANSI codes when stdout
// is a real terminal (go-isatty) and using a Windows-ANSI-aware writer
// either way (go-colorable), matching how a CLI in this dependency
// stack would present debug output.
func NewConsoleDebug() func(string) {
	out := colorable.NewColorableStdout()
	colorize := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	return func(msg string) {
		writeLine(out, msg, colorize)
	}
}

func writeLine(out io.Writer, msg string, colorize bool) {
	if !colorize {
		fmt.Fprintln(out, msg)
		return
	}
	const (
		dim   = "\x1b[2m"
		reset = "\x1b[0m"
	)
	fmt.Fprintf(out, "%s%s%s\n", dim, msg, reset)
}
