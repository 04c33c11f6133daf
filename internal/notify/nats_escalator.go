package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/luhit123/neolink123-sub008/internal/model"
)

// EscalationEnvelope is the wire form of a fired escalation, consumed by
// the external notification collaborator (in-app delivery, SMS gateway).
type EscalationEnvelope struct {
	Alert      *model.Alert         `json:"alert"`
	Rule       model.EscalationRule `json:"rule"`
	OccurredAt time.Time            `json:"occurred_at"`
}

// NATSEscalator hands fired escalations to JetStream for downstream
// delivery. It serves the in-app and SMS notify methods, both of which
// are delivered by a collaborator outside this process.
type NATSEscalator struct {
	logger *zap.Logger
	js     nats.JetStreamContext
}

// NewNATSEscalator creates a new NATS escalator
func NewNATSEscalator(js nats.JetStreamContext, logger *zap.Logger) *NATSEscalator {
	return &NATSEscalator{
		logger: logger.Named("nats-escalator"),
		js:     js,
	}
}

// Name implements escalation.Escalator
func (n *NATSEscalator) Name() string { return "nats" }

// Escalate implements escalation.Escalator
func (n *NATSEscalator) Escalate(ctx context.Context, alert *model.Alert, rule model.EscalationRule) error {
	data, err := json.Marshal(EscalationEnvelope{
		Alert:      alert,
		Rule:       rule,
		OccurredAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal escalation: %w", err)
	}

	if _, err := n.js.Publish(escalationSubject, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("failed to publish escalation: %w", err)
	}

	n.logger.Info("Escalation published",
		zap.String("alert_id", alert.ID),
		zap.String("escalate_to", rule.EscalateTo))
	return nil
}
