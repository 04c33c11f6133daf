package model

// NotifyMethod selects how an escalation is delivered
type NotifyMethod string

const (
	NotifyEmail NotifyMethod = "email"
	NotifySMS   NotifyMethod = "sms"
	NotifyInApp NotifyMethod = "in_app"
)

// EscalationRule triggers a one-time secondary notification when an alert
// stays unacknowledged past the configured delay.
type EscalationRule struct {
	AfterMinutes int          `json:"after_minutes" mapstructure:"after_minutes"`
	EscalateTo   string       `json:"escalate_to" mapstructure:"escalate_to"`
	NotifyMethod NotifyMethod `json:"notify_method" mapstructure:"notify_method"`
}

// CustomThreshold overrides the default threshold row for one
// (age band, vital) pair. An override replaces the default row entirely;
// the two are never merged.
type CustomThreshold struct {
	Band  AgeBand      `json:"band" mapstructure:"band"`
	Vital VitalKind    `json:"vital" mapstructure:"vital"`
	Row   ThresholdRow `json:"row" mapstructure:"row"`
}

// AlertConfiguration is the per-institution alerting configuration supplied
// by the settings module.
type AlertConfiguration struct {
	InstitutionID    string            `json:"institution_id" mapstructure:"institution_id"`
	EscalationRules  []EscalationRule  `json:"escalation_rules,omitempty" mapstructure:"escalation_rules"`
	CustomThresholds []CustomThreshold `json:"custom_thresholds,omitempty" mapstructure:"custom_thresholds"`
	NotifyEmail      string            `json:"notify_email,omitempty" mapstructure:"notify_email"`
	NotifySMS        string            `json:"notify_sms,omitempty" mapstructure:"notify_sms"`

	// AutoAckMinutes, when positive, acknowledges alerts on behalf of the
	// system after the given delay. Zero disables the behavior.
	AutoAckMinutes int `json:"auto_ack_minutes,omitempty" mapstructure:"auto_ack_minutes"`
}

// ThresholdOverride returns the institution's override row for the given
// (band, vital) pair, if one is configured.
func (c *AlertConfiguration) ThresholdOverride(band AgeBand, vital VitalKind) (ThresholdRow, bool) {
	if c == nil {
		return ThresholdRow{}, false
	}
	for _, t := range c.CustomThresholds {
		if t.Band == band && t.Vital == vital {
			return t.Row, true
		}
	}
	return ThresholdRow{}, false
}
