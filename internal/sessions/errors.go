package sessions

import "errors"

var (
	// ErrNotFound means no session record exists for the given id.
	ErrNotFound = errors.New("session not found")
	// ErrInvalidState is returned when an operation does not match the
	// session's current stage. A FAILED session is terminal; retry means
	// starting a new session.
	ErrInvalidState = errors.New("invalid session state")
	// ErrAnswersIncomplete is returned when report generation is requested
	// before every generated question has an answer.
	ErrAnswersIncomplete = errors.New("answers incomplete")
)
