package live

import "errors"

var (
	// ErrPermissionDenied means camera/microphone acquisition failed; session start is aborted.
	ErrPermissionDenied = errors.New("camera or microphone unavailable")
	// ErrInvalidSource means the selected source kind requires a payload that was not given.
	ErrInvalidSource = errors.New("missing source data for selected source kind")
	// ErrPollAlreadyActive means a poll launch was rejected; the existing poll is untouched.
	ErrPollAlreadyActive = errors.New("a poll is already active")
	// ErrSessionNotFound means the session id is not in the live registry.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionEnded means the operation arrived after the session was closed.
	ErrSessionEnded = errors.New("session has ended")
)
