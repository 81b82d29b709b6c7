package llm

import "fmt"

// Error codes for completion failures.
const (
	CodeUnavailable = "UNAVAILABLE"
	CodeTimeout     = "TIMEOUT"
	CodeEmpty       = "EMPTY_RESPONSE"
	CodeRateLimited = "RATE_LIMITED"
	CodeServer      = "SERVER_ERROR"
	CodeRequest     = "BAD_REQUEST"
)

// Error is a structured completion failure.
type Error struct {
	Code      string
	Message   string
	Retryable bool
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("llm %s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("llm %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
