package privacy

import (
	"fmt"
	"regexp"
)

const redactedPlaceholder = "[REDACTED]"

// Compile compiles a list of regex pattern strings into compiled regexps.
// Returns an error if any pattern is invalid.
func Compile(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile redact pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// Apply replaces all matches of the compiled patterns in text with [REDACTED].
func Apply(text string, patterns []*regexp.Regexp) string {
	for _, re := range patterns {
		text = re.ReplaceAllString(text, redactedPlaceholder)
	}
	return text
}

// Policy decides what scraped text is persisted for a source.
// A nil Policy keeps everything unchanged.
type Policy struct {
	storeFullText bool
	patterns      []*regexp.Regexp
}

// NewPolicy compiles the redaction patterns. Patterns are only used when
// redact is true.
func NewPolicy(storeFullText, redact bool, patterns []string) (*Policy, error) {
	p := &Policy{storeFullText: storeFullText}
	if !redact {
		return p, nil
	}
	compiled, err := Compile(patterns)
	if err != nil {
		return nil, err
	}
	p.patterns = compiled
	return p, nil
}

// Content returns the extracted text to store, or "" when full text
// storage is off.
func (p *Policy) Content(text string) string {
	if p == nil {
		return text
	}
	if !p.storeFullText {
		return ""
	}
	return Apply(text, p.patterns)
}

// Summary returns the redacted summary.
func (p *Policy) Summary(summary string) string {
	if p == nil {
		return summary
	}
	return Apply(summary, p.patterns)
}
