package report

import (
	"fmt"
	"io"

	"github.com/ppiankov/sitewatch/internal/store"
)

// TerminalFormatter prints an update digest grouped by status.
type TerminalFormatter struct {
	color bool
}

// NewTerminal creates a terminal formatter. Set color=true for ANSI colors.
func NewTerminal(color bool) *TerminalFormatter {
	return &TerminalFormatter{color: color}
}

// Format writes new updates first, then limited and failed sources.
func (f *TerminalFormatter) Format(w io.Writer, input Input) error {
	updates, limited, failed, quiet := groupByStatus(input.Sources)

	header := fmt.Sprintf("sitewatch: %d sources", len(input.Sources))
	if input.Checked > 0 {
		header += fmt.Sprintf(", %d checked", input.Checked)
	}
	fmt.Fprintln(w, f.bold(header))
	fmt.Fprintln(w)

	if len(input.Sources) == 0 {
		fmt.Fprintln(w, "No sources. Add one with: sitewatch add <url>")
		return nil
	}

	if len(updates) > 0 {
		fmt.Fprintln(w, f.green(f.bold(fmt.Sprintf("--- New updates (%d) ---", len(updates)))))
		fmt.Fprintln(w)
		for _, src := range updates {
			f.writeUpdate(w, src)
		}
	}

	if len(limited) > 0 {
		fmt.Fprintln(w, f.yellow(f.bold(fmt.Sprintf("--- Limited (%d) ---", len(limited)))))
		fmt.Fprintln(w)
		for _, src := range limited {
			fmt.Fprintf(w, "  %s %s\n", f.bold(src.Name), f.dim("("+src.Category+")"))
			fmt.Fprintf(w, "      %s\n", src.ErrorMessage)
			fmt.Fprintf(w, "      %s\n", f.dim(src.URL))
		}
		fmt.Fprintln(w)
	}

	if len(failed) > 0 {
		fmt.Fprintln(w, f.red(f.bold(fmt.Sprintf("--- Errors (%d) ---", len(failed)))))
		fmt.Fprintln(w)
		for _, src := range failed {
			fmt.Fprintf(w, "  %s [%s] %s\n", f.bold(src.Name), src.ErrorKind, src.ErrorMessage)
			fmt.Fprintf(w, "      %s\n", f.dim(src.URL))
		}
		fmt.Fprintln(w)
	}

	if quiet > 0 {
		fmt.Fprintln(w, f.dim(fmt.Sprintf("No updates: %d sources", quiet)))
	}

	return nil
}

func (f *TerminalFormatter) writeUpdate(w io.Writer, src store.Source) {
	fmt.Fprintf(w, "  %s %s\n", f.bold(src.Name), f.dim("("+src.Category+")"))
	if src.LastSummary != "" {
		fmt.Fprintf(w, "      %s\n", src.LastSummary)
	}
	if src.LastUpdateURL != "" {
		fmt.Fprintf(w, "      %s\n", f.dim(src.LastUpdateURL))
	}
	fmt.Fprintf(w, "      %s\n", f.dim("detected "+formatTime(src.LastUpdateAt)))
	fmt.Fprintln(w)
}

// ANSI helpers, no-op when color=false.

func (f *TerminalFormatter) bold(s string) string {
	return f.wrap("\033[1m", s)
}

func (f *TerminalFormatter) green(s string) string {
	return f.wrap("\033[32m", s)
}

func (f *TerminalFormatter) yellow(s string) string {
	return f.wrap("\033[33m", s)
}

func (f *TerminalFormatter) red(s string) string {
	return f.wrap("\033[31m", s)
}

func (f *TerminalFormatter) dim(s string) string {
	return f.wrap("\033[2m", s)
}

func (f *TerminalFormatter) wrap(code, s string) string {
	if !f.color {
		return s
	}
	return code + s + "\033[0m"
}
