package rules

import (
	"fmt"
	"math"

	"github.com/luhit123/neolink123-sub008/internal/model"
)

// Approximate day counts for age conversion. Clinical banding tolerates
// the imprecision, so no calendar arithmetic is done.
const (
	daysPerWeek  = 7
	daysPerMonth = 30
	daysPerYear  = 365
)

// Band cutoffs in days.
const (
	newbornMaxDays = 28
	infantMaxDays  = 365
	toddlerMaxDays = 1095
)

// ClassifyAge maps a patient's reported (age, unit) onto an age band.
//
// The preterm band is only reached on a negative day count, which a
// validated observation cannot produce; selecting it requires a real
// corrected-gestational-age input that this classifier does not take.
func ClassifyAge(age float64, unit model.AgeUnit) (model.AgeBand, error) {
	if math.IsNaN(age) || math.IsInf(age, 0) || age < 0 {
		return "", fmt.Errorf("%w: %v", ErrInvalidAge, age)
	}

	days, err := AgeInDays(age, unit)
	if err != nil {
		return "", err
	}

	switch {
	case days < 0:
		return model.AgeBandPreterm, nil
	case days <= newbornMaxDays:
		return model.AgeBandNewborn, nil
	case days <= infantMaxDays:
		return model.AgeBandInfant, nil
	case days <= toddlerMaxDays:
		return model.AgeBandToddler, nil
	default:
		return model.AgeBandChild, nil
	}
}

// AgeInDays converts an (age, unit) pair into approximate days.
func AgeInDays(age float64, unit model.AgeUnit) (float64, error) {
	switch unit {
	case model.AgeUnitDays:
		return age, nil
	case model.AgeUnitWeeks:
		return age * daysPerWeek, nil
	case model.AgeUnitMonths:
		return age * daysPerMonth, nil
	case model.AgeUnitYears:
		return age * daysPerYear, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownAgeUnit, unit)
	}
}
