package assistant

import "errors"

var (
	// ErrEmptyInput is returned for a turn whose text is empty after trimming
	ErrEmptyInput = errors.New("message text is empty")
	// ErrTurnInProgress is returned when a session is still handling the previous turn
	ErrTurnInProgress = errors.New("a turn is already in progress for this session")
	// ErrSessionNotFound is returned when a session does not exist or belongs to another user
	ErrSessionNotFound = errors.New("chat session not found")
)
