package rules

import "github.com/luhit123/neolink123-sub008/internal/model"

func bound(v float64) *float64 { return &v }

// defaultThresholds is the built-in reference table: per age band, per
// vital, the normal range and the outer critical envelope. Loaded once,
// never mutated; institution overrides are layered on top by the
// evaluator, not written into this table.
//
// Oxygen saturation carries only lower bounds, capillary refill only
// upper bounds, and systolic blood pressure has no rows for the preterm
// and newborn bands. A missing row means "cannot evaluate", not "normal".
var defaultThresholds = map[model.AgeBand]map[model.VitalKind]model.ThresholdRow{
	model.AgeBandPreterm: {
		model.VitalHeartRate: {
			NormalMin: bound(120), NormalMax: bound(170),
			CriticalMin: bound(90), CriticalMax: bound(220),
		},
		model.VitalRespiratoryRate: {
			NormalMin: bound(40), NormalMax: bound(70),
			CriticalMin: bound(20), CriticalMax: bound(90),
		},
		model.VitalOxygenSaturation: {
			NormalMin:   bound(90),
			CriticalMin: bound(85),
		},
		model.VitalTemperature: {
			NormalMin: bound(36.3), NormalMax: bound(37.5),
			CriticalMin: bound(35.0), CriticalMax: bound(39.0),
		},
		model.VitalCapillaryRefill: {
			NormalMax:   bound(3),
			CriticalMax: bound(5),
		},
	},
	model.AgeBandNewborn: {
		model.VitalHeartRate: {
			NormalMin: bound(100), NormalMax: bound(180),
			CriticalMin: bound(80), CriticalMax: bound(200),
		},
		model.VitalRespiratoryRate: {
			NormalMin: bound(30), NormalMax: bound(60),
			CriticalMin: bound(15), CriticalMax: bound(80),
		},
		model.VitalOxygenSaturation: {
			NormalMin:   bound(93),
			CriticalMin: bound(88),
		},
		model.VitalTemperature: {
			NormalMin: bound(36.5), NormalMax: bound(37.8),
			CriticalMin: bound(35.5), CriticalMax: bound(39.0),
		},
		model.VitalCapillaryRefill: {
			NormalMax:   bound(3),
			CriticalMax: bound(5),
		},
	},
	model.AgeBandInfant: {
		model.VitalHeartRate: {
			NormalMin: bound(90), NormalMax: bound(160),
			CriticalMin: bound(70), CriticalMax: bound(190),
		},
		model.VitalRespiratoryRate: {
			NormalMin: bound(25), NormalMax: bound(50),
			CriticalMin: bound(12), CriticalMax: bound(70),
		},
		model.VitalOxygenSaturation: {
			NormalMin:   bound(94),
			CriticalMin: bound(90),
		},
		model.VitalTemperature: {
			NormalMin: bound(36.5), NormalMax: bound(37.5),
			CriticalMin: bound(35.0), CriticalMax: bound(39.5),
		},
		model.VitalSystolicBP: {
			NormalMin: bound(70), NormalMax: bound(100),
			CriticalMin: bound(50), CriticalMax: bound(120),
		},
		model.VitalCapillaryRefill: {
			NormalMax:   bound(2),
			CriticalMax: bound(4),
		},
	},
	model.AgeBandToddler: {
		model.VitalHeartRate: {
			NormalMin: bound(80), NormalMax: bound(140),
			CriticalMin: bound(60), CriticalMax: bound(180),
		},
		model.VitalRespiratoryRate: {
			NormalMin: bound(20), NormalMax: bound(40),
			CriticalMin: bound(10), CriticalMax: bound(60),
		},
		model.VitalOxygenSaturation: {
			NormalMin:   bound(94),
			CriticalMin: bound(90),
		},
		model.VitalTemperature: {
			NormalMin: bound(36.5), NormalMax: bound(37.5),
			CriticalMin: bound(35.0), CriticalMax: bound(39.5),
		},
		model.VitalSystolicBP: {
			NormalMin: bound(80), NormalMax: bound(110),
			CriticalMin: bound(60), CriticalMax: bound(130),
		},
		model.VitalCapillaryRefill: {
			NormalMax:   bound(2),
			CriticalMax: bound(4),
		},
	},
	model.AgeBandChild: {
		model.VitalHeartRate: {
			NormalMin: bound(70), NormalMax: bound(120),
			CriticalMin: bound(50), CriticalMax: bound(160),
		},
		model.VitalRespiratoryRate: {
			NormalMin: bound(15), NormalMax: bound(30),
			CriticalMin: bound(8), CriticalMax: bound(50),
		},
		model.VitalOxygenSaturation: {
			NormalMin:   bound(95),
			CriticalMin: bound(90),
		},
		model.VitalTemperature: {
			NormalMin: bound(36.5), NormalMax: bound(37.5),
			CriticalMin: bound(35.0), CriticalMax: bound(39.5),
		},
		model.VitalSystolicBP: {
			NormalMin: bound(90), NormalMax: bound(120),
			CriticalMin: bound(70), CriticalMax: bound(140),
		},
		model.VitalCapillaryRefill: {
			NormalMax:   bound(2),
			CriticalMax: bound(4),
		},
	},
}

// LookupThreshold returns the default threshold row for the given
// (band, vital) pair. The second return value is false when the vital is
// not tracked at that band; callers must treat that as "no verdict
// possible", never as "normal".
func LookupThreshold(band model.AgeBand, vital model.VitalKind) (model.ThresholdRow, bool) {
	rows, ok := defaultThresholds[band]
	if !ok {
		return model.ThresholdRow{}, false
	}
	row, ok := rows[vital]
	return row, ok
}
