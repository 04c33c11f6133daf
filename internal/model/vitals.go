package model

import "time"

// VitalKind identifies a tracked vital sign
type VitalKind string

const (
	VitalHeartRate        VitalKind = "heart_rate"
	VitalRespiratoryRate  VitalKind = "respiratory_rate"
	VitalOxygenSaturation VitalKind = "oxygen_saturation"
	VitalTemperature      VitalKind = "temperature"
	VitalSystolicBP       VitalKind = "systolic_bp"
	VitalCapillaryRefill  VitalKind = "capillary_refill"
)

// VitalKinds lists every tracked vital sign.
var VitalKinds = []VitalKind{
	VitalHeartRate,
	VitalRespiratoryRate,
	VitalOxygenSaturation,
	VitalTemperature,
	VitalSystolicBP,
	VitalCapillaryRefill,
}

// ValidVital reports whether v is a tracked vital sign.
func ValidVital(v VitalKind) bool {
	for _, k := range VitalKinds {
		if k == v {
			return true
		}
	}
	return false
}

// AgeUnit is the unit of a patient's reported age
type AgeUnit string

const (
	AgeUnitDays   AgeUnit = "days"
	AgeUnitWeeks  AgeUnit = "weeks"
	AgeUnitMonths AgeUnit = "months"
	AgeUnitYears  AgeUnit = "years"
)

// AgeBand is one of the five clinical age classifications used to select
// vital-sign reference ranges
type AgeBand string

const (
	AgeBandPreterm AgeBand = "preterm"
	AgeBandNewborn AgeBand = "newborn"
	AgeBandInfant  AgeBand = "infant"
	AgeBandToddler AgeBand = "toddler"
	AgeBandChild   AgeBand = "child"
)

// ThresholdRow holds the normal and critical envelope for one vital at one
// age band. Bounds are optional; the critical bounds, when present, always
// lie outside the normal ones.
type ThresholdRow struct {
	NormalMin   *float64 `json:"normal_min,omitempty" mapstructure:"normal_min"`
	NormalMax   *float64 `json:"normal_max,omitempty" mapstructure:"normal_max"`
	CriticalMin *float64 `json:"critical_min,omitempty" mapstructure:"critical_min"`
	CriticalMax *float64 `json:"critical_max,omitempty" mapstructure:"critical_max"`
}

// Valid reports whether the row satisfies the envelope invariant: at least
// one normal bound present, criticalMin <= normalMin and
// criticalMax >= normalMax when the respective bounds exist.
func (r ThresholdRow) Valid() bool {
	if r.NormalMin == nil && r.NormalMax == nil {
		return false
	}
	if r.CriticalMin != nil && (r.NormalMin == nil || *r.CriticalMin > *r.NormalMin) {
		return false
	}
	if r.CriticalMax != nil && (r.NormalMax == nil || *r.CriticalMax < *r.NormalMax) {
		return false
	}
	return true
}

// VitalObservation is a single vital-sign reading supplied by the clinical
// workflow. It is consumed once by the rule evaluator.
type VitalObservation struct {
	PatientID     string    `json:"patient_id,omitempty"`
	PatientName   string    `json:"patient_name,omitempty"`
	InstitutionID string    `json:"institution_id,omitempty"`
	Vital         VitalKind `json:"vital"`
	Value         float64   `json:"value"`
	Age           float64   `json:"age"`
	AgeUnit       AgeUnit   `json:"age_unit"`
	Timestamp     time.Time `json:"timestamp"`
}
