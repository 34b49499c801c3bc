package summarize

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/sitewatch/internal/extract"
)

// Placeholder is returned when text is too short or has no usable sentences.
const Placeholder = "Update detected, but content could not be summarized."

const (
	minTextLen     = 20
	minSentenceLen = 20
	maxSentenceLen = 200
	maxSentences   = 2
	maxSummaryLen  = 200
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	sentenceEnd  = regexp.MustCompile(`[.!?]+`)
)

// Extractive summarizes by picking the first usable sentences of the text.
type Extractive struct{}

// Summarize implements Summarizer.
func (Extractive) Summarize(text string) string {
	return Summarize(text)
}

// Summarize joins the first two sentences that are longer than 20 and shorter
// than 200 characters. The result never exceeds 200 characters.
func Summarize(text string) string {
	if utf8.RuneCountInString(text) < minTextLen {
		return Placeholder
	}

	sentences := candidateSentences(text)
	if len(sentences) == 0 {
		return Placeholder
	}
	if len(sentences) > maxSentences {
		sentences = sentences[:maxSentences]
	}

	summary := strings.Join(sentences, ". ")
	if utf8.RuneCountInString(summary) > maxSummaryLen {
		return extract.Truncate(summary, maxSummaryLen-3) + "..."
	}
	return summary + "."
}

// candidateSentences splits collapsed text on terminal punctuation and keeps
// the pieces within the sentence length window.
func candidateSentences(text string) []string {
	collapsed := whitespaceRe.ReplaceAllString(text, " ")

	var out []string
	for _, part := range sentenceEnd.Split(collapsed, -1) {
		s := strings.TrimSpace(part)
		n := utf8.RuneCountInString(s)
		if n > minSentenceLen && n < maxSentenceLen {
			out = append(out, s)
		}
	}
	return out
}
