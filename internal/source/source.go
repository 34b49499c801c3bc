// Package source checks a monitored web resource for new content. A check is
// a pure function of (url, previous identity): nothing is remembered between
// calls and every failure is reported inside the returned Outcome.
package source

// ErrorKind classifies degraded or failed checks.
type ErrorKind string

const (
	ErrorNone               ErrorKind = ""
	ErrorNetwork            ErrorKind = "network"
	ErrorPlatformLimitation ErrorKind = "platform_limitation"
	ErrorContentNotFound    ErrorKind = "content_not_found"
	ErrorParseFailure       ErrorKind = "parse_failure"
)

// Hard reports whether the kind is a real error rather than an informational
// limitation.
func (k ErrorKind) Hard() bool {
	switch k {
	case ErrorNetwork, ErrorContentNotFound, ErrorParseFailure:
		return true
	default:
		return false
	}
}

// Outcome is the normalized result of one check. Empty strings stand for
// absent values.
type Outcome struct {
	HasNewContent   bool      `json:"has_new_content"`
	ContentIdentity string    `json:"content_identity,omitempty"` // URL of the latest item; next call's previous identity
	ContentText     string    `json:"content_text,omitempty"`
	Summary         string    `json:"summary,omitempty"`
	ErrorKind       ErrorKind `json:"error_kind,omitempty"`
	Message         string    `json:"message,omitempty"`
}

// failure builds an outcome that makes no content claims.
func failure(kind ErrorKind, err error) Outcome {
	return Outcome{ErrorKind: kind, Message: err.Error()}
}

// isNew is the only change signal: the resolved identity differs verbatim
// from the previous one. No normalization is applied.
func isNew(identity, previous string) bool {
	return identity != "" && identity != previous
}
