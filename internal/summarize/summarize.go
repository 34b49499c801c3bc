// Package summarize reduces extracted page or feed text to a short display summary.
package summarize

// Summarizer produces a display summary from extracted text.
type Summarizer interface {
	Summarize(text string) string
}
