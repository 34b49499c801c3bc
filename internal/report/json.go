package report

import (
	"encoding/json"
	"io"
	"time"
)

type jsonReport struct {
	Meta    jsonMeta     `json:"meta"`
	Sources []jsonSource `json:"sources"`
}

type jsonMeta struct {
	Total   int            `json:"total"`
	Checked int            `json:"checked,omitempty"`
	Status  map[string]int `json:"status"`
}

type jsonSource struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Category      string `json:"category"`
	URL           string `json:"url"`
	Status        string `json:"status"`
	LastChecked   string `json:"last_checked,omitempty"`
	LastUpdateURL string `json:"last_update_url,omitempty"`
	LastUpdateAt  string `json:"last_update_at,omitempty"`
	LastSummary   string `json:"last_summary,omitempty"`
	ErrorKind     string `json:"error_kind,omitempty"`
	ErrorMessage  string `json:"error_message,omitempty"`
}

// JSONFormatter formats sources as JSON.
type JSONFormatter struct{}

// NewJSON creates a JSON formatter.
func NewJSON() *JSONFormatter {
	return &JSONFormatter{}
}

// Format writes the sources as JSON to w.
func (f *JSONFormatter) Format(w io.Writer, input Input) error {
	out := jsonReport{
		Meta: jsonMeta{
			Total:   len(input.Sources),
			Checked: input.Checked,
			Status:  make(map[string]int),
		},
		Sources: make([]jsonSource, 0, len(input.Sources)),
	}

	for _, src := range input.Sources {
		out.Meta.Status[src.Status]++
		out.Sources = append(out.Sources, jsonSource{
			ID:            src.ID,
			Name:          src.Name,
			Category:      src.Category,
			URL:           src.URL,
			Status:        src.Status,
			LastChecked:   jsonTime(src.LastChecked),
			LastUpdateURL: src.LastUpdateURL,
			LastUpdateAt:  jsonTime(src.LastUpdateAt),
			LastSummary:   src.LastSummary,
			ErrorKind:     src.ErrorKind,
			ErrorMessage:  src.ErrorMessage,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func jsonTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

var _ Formatter = (*JSONFormatter)(nil)
var _ Formatter = (*TableFormatter)(nil)
var _ Formatter = (*TerminalFormatter)(nil)

