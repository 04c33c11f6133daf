package rules

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/luhit123/neolink123-sub008/internal/model"
)

// Verdict is the outcome of evaluating one observation against its
// threshold row.
type Verdict struct {
	Severity model.AlertSeverity
	Band     model.AgeBand
	Row      model.ThresholdRow
	Override bool
}

// Evaluator classifies vital-sign observations against age-banded
// threshold rows.
type Evaluator struct {
	logger *zap.Logger
}

// NewEvaluator creates a new evaluator
func NewEvaluator(logger *zap.Logger) *Evaluator {
	return &Evaluator{logger: logger.Named("evaluator")}
}

// Evaluate returns a verdict for the observation, or nil when the reading
// is inside its normal range or no threshold row exists for the
// classified band. Institution overrides, when present for the
// (band, vital) pair, replace the default row entirely.
//
// The bound checks run most severe first, so a value outside both the
// normal and critical envelope yields a single critical verdict.
func (e *Evaluator) Evaluate(obs model.VitalObservation, cfg *model.AlertConfiguration) (*Verdict, error) {
	if !model.ValidVital(obs.Vital) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVital, obs.Vital)
	}
	if math.IsNaN(obs.Value) || math.IsInf(obs.Value, 0) || obs.Value < 0 {
		return nil, fmt.Errorf("%w: %v for %s", ErrInvalidValue, obs.Value, obs.Vital)
	}

	band, err := ClassifyAge(obs.Age, obs.AgeUnit)
	if err != nil {
		return nil, err
	}

	row, override := cfg.ThresholdOverride(band, obs.Vital)
	if !override {
		var ok bool
		row, ok = LookupThreshold(band, obs.Vital)
		if !ok {
			e.logger.Debug("No threshold row for vital at band",
				zap.String("vital", string(obs.Vital)),
				zap.String("band", string(band)))
			return nil, nil
		}
	}

	severity := verdictSeverity(row, obs.Value)
	if severity == "" {
		return nil, nil
	}

	return &Verdict{
		Severity: severity,
		Band:     band,
		Row:      row,
		Override: override,
	}, nil
}

// verdictSeverity applies the bound ladder: critical bounds first, then
// normal bounds, first match wins. Missing bounds are skipped.
func verdictSeverity(row model.ThresholdRow, value float64) model.AlertSeverity {
	switch {
	case row.CriticalMin != nil && value < *row.CriticalMin:
		return model.AlertSeverityCritical
	case row.CriticalMax != nil && value > *row.CriticalMax:
		return model.AlertSeverityCritical
	case row.NormalMin != nil && value < *row.NormalMin:
		return model.AlertSeverityWarning
	case row.NormalMax != nil && value > *row.NormalMax:
		return model.AlertSeverityWarning
	default:
		return ""
	}
}
