package apperrors

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrEmptyStageName = errors.New("stage name is required")
	ErrNoValidInputs  = errors.New("stage has no valid inputs")
)
