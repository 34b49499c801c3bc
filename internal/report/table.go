package report

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ppiankov/sitewatch/internal/store"
)

const maxCellLen = 60

// TableFormatter lists sources as a bordered table.
type TableFormatter struct{}

func NewTable() *TableFormatter {
	return &TableFormatter{}
}

func (f *TableFormatter) Format(w io.Writer, input Input) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Name", "Category", "Status", "Last Checked", "Latest"})

	for _, src := range input.Sources {
		latest := src.LastUpdateURL
		if src.Status == store.StatusError && src.ErrorMessage != "" {
			latest = src.ErrorKind + ": " + src.ErrorMessage
		}
		t.AppendRow(table.Row{
			src.ID,
			text.Trim(src.Name, maxCellLen),
			src.Category,
			src.Status,
			formatTime(src.LastChecked),
			text.Trim(latest, maxCellLen),
		})
	}

	t.AppendFooter(table.Row{"", "", "", "", "Total", len(input.Sources)})
	t.Render()
	return nil
}
