package catalog

import (
	"errors"
)

var (
	// ErrInvalidInput is matched by every *InputError.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when a specifically addressed entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrStorage wraps backend I/O and integrity faults.
	ErrStorage = errors.New("storage error")
	// ErrExternalLookupFailed wraps any metadata service failure.
	ErrExternalLookupFailed = errors.New("external lookup failed")
	// ErrInvalidStatus is returned when a status string is outside the closed set.
	ErrInvalidStatus = errors.New("invalid status")
)

// Reasons reported through InputError.
const (
	ReasonPagesTooLow     = "pages < 1"
	ReasonNoAuthor        = "no author"
	ReasonMissingSelector = "missing selector"
	ReasonBookNotFound    = "book not found"
	ReasonPageTooHigh     = "page too high"
	ReasonPageTooLow      = "page too low"
)

// InputError is a caller-facing validation failure.
type InputError struct {
	Reason string
}

func invalidInput(reason string) error {
	return &InputError{Reason: reason}
}

func (e *InputError) Error() string {
	return "invalid input: " + e.Reason
}

func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Reason returns the InputError reason carried by err, if any.
func Reason(err error) (string, bool) {
	var ie *InputError
	if errors.As(err, &ie) {
		return ie.Reason, true
	}
	return "", false
}
