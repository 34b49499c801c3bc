// Package report renders stored source state for the terminal and for scripts.
package report

import (
	"io"
	"time"

	"github.com/ppiankov/sitewatch/internal/store"
)

// Input is what every formatter renders.
type Input struct {
	Sources []store.Source
	// Checked is the number of sources checked in this run; zero for a plain listing.
	Checked int
}

// Formatter writes a formatted report to w.
type Formatter interface {
	Format(w io.Writer, input Input) error
}

// New returns the formatter for name: "table", "json" or "terminal".
func New(name string, color bool) (Formatter, bool) {
	switch name {
	case "table", "":
		return NewTable(), true
	case "json":
		return NewJSON(), true
	case "terminal":
		return NewTerminal(color), true
	}
	return nil, false
}

func groupByStatus(sources []store.Source) (updates, limited, failed []store.Source, quiet int) {
	for _, src := range sources {
		switch src.Status {
		case store.StatusNewUpdate:
			updates = append(updates, src)
		case store.StatusLimited:
			limited = append(limited, src)
		case store.StatusError:
			failed = append(failed, src)
		default:
			quiet++
		}
	}
	return
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.UTC().Format("2006-01-02 15:04")
}
