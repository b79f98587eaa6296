package analysis

import "fmt"

type ErrorKind string

const (
	// KindUpstream marks a non-success status from the text-generation API.
	KindUpstream ErrorKind = "upstream"
	// KindTransport marks a failed outbound call.
	KindTransport ErrorKind = "transport"
	// KindParse marks an unreadable response envelope.
	KindParse ErrorKind = "parse"
	// KindEmpty marks a success envelope with no generated text.
	KindEmpty ErrorKind = "empty"
)

// Error is a tagged analysis failure. Callers can branch on Kind instead of
// pattern-matching error strings.
type Error struct {
	Kind   ErrorKind
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("analysis %s error: %s", e.Kind, e.Detail)
}

func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
