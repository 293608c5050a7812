package session

import "errors"

var (
	ErrLocked           = errors.New("session is read-only")
	ErrNotStarted       = errors.New("exam has not been started")
	ErrSubmitInFlight   = errors.New("submission already in progress")
	ErrAlreadySubmitted = errors.New("attempt already submitted")
	ErrTimerRunning     = errors.New("exam timer is running")
	ErrNotSubmitted     = errors.New("attempt has not been submitted")
	ErrDraftOpen        = errors.New("submit the current attempt first")
)
