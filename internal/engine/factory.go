package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/luhit123/neolink123-sub008/internal/model"
	"github.com/luhit123/neolink123-sub008/internal/rules"
)

var vitalLabels = map[model.VitalKind]string{
	model.VitalHeartRate:        "heart rate",
	model.VitalRespiratoryRate:  "respiratory rate",
	model.VitalOxygenSaturation: "oxygen saturation",
	model.VitalTemperature:      "temperature",
	model.VitalSystolicBP:       "systolic blood pressure",
	model.VitalCapillaryRefill:  "capillary refill time",
}

// ExternalSignal is a non-vital clinical signal handed to the factory:
// drug interactions, AI findings, protocol deviations and the like.
type ExternalSignal struct {
	Type           model.AlertType     `json:"type"`
	Severity       model.AlertSeverity `json:"severity"`
	Title          string              `json:"title"`
	Message        string              `json:"message"`
	Recommendation string              `json:"recommendation,omitempty"`

	PatientID     string `json:"patient_id,omitempty"`
	PatientName   string `json:"patient_name,omitempty"`
	InstitutionID string `json:"institution_id,omitempty"`

	RelatedMedications []string `json:"related_medications,omitempty"`
	AIGenerated        bool     `json:"ai_generated,omitempty"`
	AIConfidence       *float64 `json:"ai_confidence,omitempty"`
	AIModel            string   `json:"ai_model,omitempty"`
}

// Factory turns evaluator verdicts and external clinical signals into
// fully-formed alerts. New alerts enter the store before the bus hears
// about them, so a subscriber that queries the store from its callback
// always finds the alert it was told about.
type Factory struct {
	logger *zap.Logger
	store  *Store
	bus    *Bus
}

// NewFactory creates a new alert factory
func NewFactory(store *Store, bus *Bus, logger *zap.Logger) *Factory {
	return &Factory{
		logger: logger.Named("factory"),
		store:  store,
		bus:    bus,
	}
}

// FromVitalVerdict creates an alert for an out-of-range vital reading.
func (f *Factory) FromVitalVerdict(obs model.VitalObservation, verdict *rules.Verdict) (*model.Alert, error) {
	value := obs.Value
	row := verdict.Row
	label := vitalLabels[obs.Vital]
	if label == "" {
		label = string(obs.Vital)
	}

	alert := &model.Alert{
		ID:             uuid.New().String(),
		Type:           model.AlertTypeVitalAbnormal,
		Severity:       verdict.Severity,
		Title:          fmt.Sprintf("%s %s", severityHeadline(verdict.Severity), label),
		Message:        fmt.Sprintf("%s reading %g is outside the expected range (%s) for a %s patient", label, value, formatRange(row), verdict.Band),
		Recommendation: vitalRecommendation(verdict.Severity, label),
		TriggerVital:   obs.Vital,
		TriggerValue:   &value,
		ExpectedRange:  &row,
		PatientID:      obs.PatientID,
		PatientName:    obs.PatientName,
		InstitutionID:  obs.InstitutionID,
		CreatedAt:      time.Now(),
	}

	return f.raise(alert)
}

// FromExternalSignal creates an alert from a non-vital clinical signal.
func (f *Factory) FromExternalSignal(sig ExternalSignal) (*model.Alert, error) {
	if sig.Type == "" {
		return nil, ErrMissingType
	}
	if !model.ValidSeverity(sig.Severity) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSeverity, sig.Severity)
	}

	alert := &model.Alert{
		ID:                 uuid.New().String(),
		Type:               sig.Type,
		Severity:           sig.Severity,
		Title:              sig.Title,
		Message:            sig.Message,
		Recommendation:     sig.Recommendation,
		PatientID:          sig.PatientID,
		PatientName:        sig.PatientName,
		InstitutionID:      sig.InstitutionID,
		RelatedMedications: sig.RelatedMedications,
		AIGenerated:        sig.AIGenerated,
		AIConfidence:       sig.AIConfidence,
		AIModel:            sig.AIModel,
		CreatedAt:          time.Now(),
	}

	return f.raise(alert)
}

// raise stores the alert, then announces it. A store rejection aborts
// the publish so subscribers never hear about an alert that is not
// queryable.
func (f *Factory) raise(alert *model.Alert) (*model.Alert, error) {
	if err := f.store.Add(alert); err != nil {
		return nil, err
	}

	f.bus.Publish(Event{Type: EventAlertCreated, Alert: alert.Clone()})

	f.logger.Info("Alert created",
		zap.String("id", alert.ID),
		zap.String("type", string(alert.Type)),
		zap.String("severity", string(alert.Severity)),
		zap.String("patient_id", alert.PatientID))

	return alert, nil
}

func severityHeadline(s model.AlertSeverity) string {
	switch s {
	case model.AlertSeverityEmergency:
		return "Emergency"
	case model.AlertSeverityCritical:
		return "Critical"
	case model.AlertSeverityWarning:
		return "Abnormal"
	default:
		return "Observed"
	}
}

func vitalRecommendation(s model.AlertSeverity, label string) string {
	switch s {
	case model.AlertSeverityCritical, model.AlertSeverityEmergency:
		return fmt.Sprintf("Assess the patient immediately and notify the attending physician; recheck %s after intervention", label)
	case model.AlertSeverityWarning:
		return fmt.Sprintf("Recheck %s and monitor for further deviation", label)
	default:
		return ""
	}
}

func formatRange(row model.ThresholdRow) string {
	switch {
	case row.NormalMin != nil && row.NormalMax != nil:
		return fmt.Sprintf("%g-%g", *row.NormalMin, *row.NormalMax)
	case row.NormalMin != nil:
		return fmt.Sprintf(">= %g", *row.NormalMin)
	case row.NormalMax != nil:
		return fmt.Sprintf("<= %g", *row.NormalMax)
	default:
		return "n/a"
	}
}
