package rules

import "errors"

var (
	// ErrInvalidValue is returned when a vital reading is negative, NaN or infinite
	ErrInvalidValue = errors.New("invalid vital value")

	// ErrInvalidAge is returned when a patient age is negative, NaN or infinite
	ErrInvalidAge = errors.New("invalid patient age")

	// ErrUnknownAgeUnit is returned when an age unit is not days, weeks, months or years
	ErrUnknownAgeUnit = errors.New("unknown age unit")

	// ErrUnknownVital is returned when an observation names an untracked vital
	ErrUnknownVital = errors.New("unknown vital kind")
)
