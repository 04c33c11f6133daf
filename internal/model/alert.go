package model

import "time"

// AlertSeverity represents the severity level of an alert
type AlertSeverity string

const (
	AlertSeverityInfo      AlertSeverity = "info"
	AlertSeverityWarning   AlertSeverity = "warning"
	AlertSeverityCritical  AlertSeverity = "critical"
	AlertSeverityEmergency AlertSeverity = "emergency"
)

// severityRank is the canonical severity order. Every "highest severity"
// decision in the engine goes through CompareSeverity rather than
// re-deriving its own ordering.
var severityRank = map[AlertSeverity]int{
	AlertSeverityInfo:      0,
	AlertSeverityWarning:   1,
	AlertSeverityCritical:  2,
	AlertSeverityEmergency: 3,
}

// CompareSeverity returns a negative value if a is less severe than b,
// zero if equal, and a positive value if a is more severe than b.
// Unknown severities rank below info.
func CompareSeverity(a, b AlertSeverity) int {
	ra, ok := severityRank[a]
	if !ok {
		ra = -1
	}
	rb, ok := severityRank[b]
	if !ok {
		rb = -1
	}
	return ra - rb
}

// ValidSeverity reports whether s is one of the defined severity levels.
func ValidSeverity(s AlertSeverity) bool {
	_, ok := severityRank[s]
	return ok
}

// AlertType represents the type of alert
type AlertType string

const (
	AlertTypeVitalAbnormal       AlertType = "vital_abnormal"
	AlertTypeDrugInteraction     AlertType = "drug_interaction"
	AlertTypeDeterioration       AlertType = "deterioration"
	AlertTypeDosingError         AlertType = "dosing_error"
	AlertTypeMissingFollowup     AlertType = "missing_followup"
	AlertTypeProtocolDeviation   AlertType = "protocol_deviation"
	AlertTypeCriticalFinding     AlertType = "critical_finding"
	AlertTypeSepsisRisk          AlertType = "sepsis_risk"
	AlertTypeRespiratoryDistress AlertType = "respiratory_distress"
)

// Alert represents a clinical alert. Identity, classification, content and
// provenance are fixed at creation; only the lifecycle fields mutate.
type Alert struct {
	ID       string        `json:"id"`
	Type     AlertType     `json:"type"`
	Severity AlertSeverity `json:"severity"`

	Title          string `json:"title"`
	Message        string `json:"message"`
	Recommendation string `json:"recommendation,omitempty"`

	// Provenance for vital-triggered alerts
	TriggerVital  VitalKind     `json:"trigger_vital,omitempty"`
	TriggerValue  *float64      `json:"trigger_value,omitempty"`
	ExpectedRange *ThresholdRow `json:"expected_range,omitempty"`

	// Provenance for medication and AI-originated alerts
	RelatedMedications []string `json:"related_medications,omitempty"`
	AIGenerated        bool     `json:"ai_generated,omitempty"`
	AIConfidence       *float64 `json:"ai_confidence,omitempty"`
	AIModel            string   `json:"ai_model,omitempty"`

	// Context; an empty PatientID means a system-wide alert
	PatientID     string `json:"patient_id,omitempty"`
	PatientName   string `json:"patient_name,omitempty"`
	InstitutionID string `json:"institution_id,omitempty"`

	// Lifecycle fields
	Acknowledged       bool       `json:"acknowledged"`
	AcknowledgedBy     string     `json:"acknowledged_by,omitempty"`
	AcknowledgedByName string     `json:"acknowledged_by_name,omitempty"`
	AcknowledgedAt     *time.Time `json:"acknowledged_at,omitempty"`
	Dismissed          bool       `json:"dismissed"`
	DismissedAt        *time.Time `json:"dismissed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Clone returns a copy of the alert so store snapshots cannot be mutated
// by callers.
func (a *Alert) Clone() *Alert {
	if a == nil {
		return nil
	}
	c := *a
	if a.TriggerValue != nil {
		v := *a.TriggerValue
		c.TriggerValue = &v
	}
	if a.ExpectedRange != nil {
		r := *a.ExpectedRange
		c.ExpectedRange = &r
	}
	if a.AIConfidence != nil {
		v := *a.AIConfidence
		c.AIConfidence = &v
	}
	if a.AcknowledgedAt != nil {
		t := *a.AcknowledgedAt
		c.AcknowledgedAt = &t
	}
	if a.DismissedAt != nil {
		t := *a.DismissedAt
		c.DismissedAt = &t
	}
	if a.RelatedMedications != nil {
		c.RelatedMedications = append([]string(nil), a.RelatedMedications...)
	}
	return &c
}
