package joblist

import "errors"

var (
	ErrJobNotFound      = errors.New("job not found")
	ErrAlreadyCompleted = errors.New("job already completed")
	ErrClosed           = errors.New("job list is closed")
)

// ActionError is a failed user action. Message is what the alert shows.
type ActionError struct {
	Message string
	Err     error
}

func (e *ActionError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ActionError) Unwrap() error {
	return e.Err
}
