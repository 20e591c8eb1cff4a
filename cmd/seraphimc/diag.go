package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"seraphim/internal/diagnostics"
)

// colorForSeverity returns the ANSI color code for a diagnostic
// severity, or "" when output isn't a TTY — grounded on the teacher's
// terminal-aware tooling posture (§1-AMBIENT: "go-isatty to decide
// whether the CLI renders ANSI-colored diagnostics or plain text").
func colorForSeverity(w io.Writer, sev diagnostics.Severity) (code, reset string) {
	f, ok := w.(*os.File)
	if !ok || !isatty.IsTerminal(f.Fd()) {
		return "", ""
	}
	switch sev {
	case diagnostics.Error:
		return "\x1b[31m", "\x1b[0m"
	case diagnostics.Warning:
		return "\x1b[33m", "\x1b[0m"
	default:
		return "\x1b[36m", "\x1b[0m"
	}
}

// printDiagnostics writes every item in bag to w, one per line, colored
// when w is a terminal (§7: "(severity, source_loc, message)").
func printDiagnostics(w io.Writer, bag *diagnostics.Bag) {
	for _, d := range bag.Items() {
		code, reset := colorForSeverity(w, d.Severity)
		fmt.Fprintf(w, "%s%s: %s: %s%s\n", code, d.Severity, d.Loc, d.Message, reset)
	}
}
