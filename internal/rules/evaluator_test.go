package rules

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/luhit123/neolink123-sub008/internal/model"
)

func observation(vital model.VitalKind, value, age float64, unit model.AgeUnit) model.VitalObservation {
	return model.VitalObservation{
		PatientID: "p1",
		Vital:     vital,
		Value:     value,
		Age:       age,
		AgeUnit:   unit,
		Timestamp: time.Now(),
	}
}

func TestEvaluate_NewbornTachycardia(t *testing.T) {
	// Newborn heart rate 210 exceeds the critical ceiling of 200.
	e := NewEvaluator(zap.NewNop())

	verdict, err := e.Evaluate(observation(model.VitalHeartRate, 210, 5, model.AgeUnitDays), nil)
	require.NoError(t, err)
	require.NotNil(t, verdict)
	require.Equal(t, model.AlertSeverityCritical, verdict.Severity)
	require.Equal(t, model.AgeBandNewborn, verdict.Band)
	require.False(t, verdict.Override)
}

func TestEvaluate_InfantLowSpO2(t *testing.T) {
	// Infant SpO2 of 91 is below normal (94) but not below critical (90).
	e := NewEvaluator(zap.NewNop())

	verdict, err := e.Evaluate(observation(model.VitalOxygenSaturation, 91, 6, model.AgeUnitMonths), nil)
	require.NoError(t, err)
	require.NotNil(t, verdict)
	require.Equal(t, model.AlertSeverityWarning, verdict.Severity)
	require.Equal(t, model.AgeBandInfant, verdict.Band)
}

func TestEvaluate_ToddlerFever(t *testing.T) {
	// Toddler temperature 38.2 is above normal (37.5) but below critical (39.5).
	e := NewEvaluator(zap.NewNop())

	verdict, err := e.Evaluate(observation(model.VitalTemperature, 38.2, 2, model.AgeUnitYears), nil)
	require.NoError(t, err)
	require.NotNil(t, verdict)
	require.Equal(t, model.AlertSeverityWarning, verdict.Severity)
	require.Equal(t, model.AgeBandToddler, verdict.Band)
}

func TestEvaluate_VerdictPartition(t *testing.T) {
	// No value may produce both a warning and a critical verdict: the
	// ladder reports exactly one severity, most severe first.
	e := NewEvaluator(zap.NewNop())

	cases := []struct {
		name  string
		value float64
		want  model.AlertSeverity
	}{
		{"below critical floor", 70, model.AlertSeverityCritical},
		{"between critical and normal floor", 90, model.AlertSeverityWarning},
		{"normal low edge", 100, ""},
		{"mid normal", 140, ""},
		{"normal high edge", 180, ""},
		{"between normal and critical ceiling", 190, model.AlertSeverityWarning},
		{"above critical ceiling", 210, model.AlertSeverityCritical},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			verdict, err := e.Evaluate(observation(model.VitalHeartRate, tc.value, 10, model.AgeUnitDays), nil)
			require.NoError(t, err)
			if tc.want == "" {
				require.Nil(t, verdict)
				return
			}
			require.NotNil(t, verdict)
			require.Equal(t, tc.want, verdict.Severity)
		})
	}
}

func TestEvaluate_OverrideReplacesDefaultRow(t *testing.T) {
	e := NewEvaluator(zap.NewNop())

	// Override with a lower-bound-only row: the default row's upper
	// bounds must not leak in, so a high reading yields no verdict.
	cfg := &model.AlertConfiguration{
		InstitutionID: "nicu-main",
		CustomThresholds: []model.CustomThreshold{
			{
				Band:  model.AgeBandNewborn,
				Vital: model.VitalHeartRate,
				Row: model.ThresholdRow{
					NormalMin:   bound(110),
					CriticalMin: bound(85),
				},
			},
		},
	}

	verdict, err := e.Evaluate(observation(model.VitalHeartRate, 250, 5, model.AgeUnitDays), cfg)
	require.NoError(t, err)
	require.Nil(t, verdict)

	verdict, err = e.Evaluate(observation(model.VitalHeartRate, 105, 5, model.AgeUnitDays), cfg)
	require.NoError(t, err)
	require.NotNil(t, verdict)
	require.Equal(t, model.AlertSeverityWarning, verdict.Severity)
	require.True(t, verdict.Override)

	// Other bands keep using the default table.
	verdict, err = e.Evaluate(observation(model.VitalHeartRate, 250, 2, model.AgeUnitYears), cfg)
	require.NoError(t, err)
	require.NotNil(t, verdict)
	require.Equal(t, model.AlertSeverityCritical, verdict.Severity)
	require.False(t, verdict.Override)
}

func TestEvaluate_NoRowMeansNoVerdict(t *testing.T) {
	e := NewEvaluator(zap.NewNop())

	// Blood pressure is untracked for newborns; 40 would be alarming
	// anywhere else, but without a row there is no verdict.
	verdict, err := e.Evaluate(observation(model.VitalSystolicBP, 40, 5, model.AgeUnitDays), nil)
	require.NoError(t, err)
	require.Nil(t, verdict)
}

func TestEvaluate_InvalidInput(t *testing.T) {
	e := NewEvaluator(zap.NewNop())

	_, err := e.Evaluate(observation(model.VitalHeartRate, math.NaN(), 5, model.AgeUnitDays), nil)
	require.ErrorIs(t, err, ErrInvalidValue)

	_, err = e.Evaluate(observation(model.VitalHeartRate, -10, 5, model.AgeUnitDays), nil)
	require.ErrorIs(t, err, ErrInvalidValue)

	_, err = e.Evaluate(observation(model.VitalHeartRate, 120, -5, model.AgeUnitDays), nil)
	require.ErrorIs(t, err, ErrInvalidAge)

	_, err = e.Evaluate(observation(model.VitalKind("lactate"), 2, 5, model.AgeUnitDays), nil)
	require.ErrorIs(t, err, ErrUnknownVital)
}
