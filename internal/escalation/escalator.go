package escalation

import (
	"context"

	"github.com/luhit123/neolink123-sub008/internal/model"
)

// Escalator delivers a one-time secondary notification for an alert that
// stayed unacknowledged past its configured delay. Implementations should
// respect context cancellation; delivery retries are their concern, not
// the scheduler's.
type Escalator interface {
	Escalate(ctx context.Context, alert *model.Alert, rule model.EscalationRule) error

	// Name returns the escalator type for logging
	Name() string
}

// ConfigProvider resolves the alerting configuration for an institution.
// A nil result means default thresholds and no escalation.
type ConfigProvider interface {
	ConfigFor(institutionID string) *model.AlertConfiguration
}
