package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrItemNotFound   = errors.New("item not found")
	ErrEmptySelection = errors.New("no item selected")
	ErrMalformedRow   = errors.New("invalid format")
	ErrParse          = errors.New("invalid number or date")
	ErrFileIO         = errors.New("file access failed")
)

// LineError reports a CSV line that was skipped during import.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("%s at line %d", e.Err.Error(), e.Line)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// NewLineError wraps err with its 1-based line number.
func NewLineError(line int, err error) *LineError {
	return &LineError{Line: line, Err: err}
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrItemNotFound)
}

// IsValidationError covers user input problems, including per-line CSV failures
// and an empty selection.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrParse) ||
		errors.Is(err, ErrMalformedRow) ||
		errors.Is(err, ErrEmptySelection)
}

func IsFileError(err error) bool {
	return errors.Is(err, ErrFileIO)
}
