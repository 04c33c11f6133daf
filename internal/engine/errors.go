package engine

import "errors"

var (
	// ErrDuplicateAlert is returned when an alert id is already in the active set
	ErrDuplicateAlert = errors.New("duplicate alert")

	// ErrInvalidSeverity is returned when an external signal carries an unknown severity
	ErrInvalidSeverity = errors.New("invalid alert severity")

	// ErrMissingType is returned when an external signal carries no alert type
	ErrMissingType = errors.New("missing alert type")
)
