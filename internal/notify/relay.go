package notify

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/luhit123/neolink123-sub008/internal/engine"
)

// Relay forwards alert lifecycle events from the in-process bus onto
// JetStream, one subject per alert type, so UI gateways and other
// collaborators outside the process can follow the active set. Publish
// failures are logged and dropped: the bus delivery already happened and
// in-memory state stays authoritative.
type Relay struct {
	logger *zap.Logger
	js     nats.JetStreamContext
	unsub  func()
}

// NewRelay creates a new alert relay
func NewRelay(js nats.JetStreamContext, logger *zap.Logger) *Relay {
	return &Relay{
		logger: logger.Named("relay"),
		js:     js,
	}
}

// Start ensures the alert stream exists and attaches the relay to the bus.
func (r *Relay) Start(bus *engine.Bus) error {
	if err := EnsureAlertStream(r.js); err != nil {
		return err
	}

	r.unsub = bus.Subscribe(r.handle)
	r.logger.Info("Alert relay attached")
	return nil
}

// Stop detaches the relay from the bus.
func (r *Relay) Stop() {
	if r.unsub != nil {
		r.unsub()
		r.unsub = nil
	}
}

func (r *Relay) handle(evt engine.Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		r.logger.Error("Failed to marshal alert event", zap.Error(err))
		return
	}

	subject := alertSubjectPrefix + string(evt.Alert.Type)
	if _, err := r.js.Publish(subject, data); err != nil {
		r.logger.Error("Failed to publish alert event",
			zap.String("subject", subject),
			zap.String("alert_id", evt.Alert.ID),
			zap.Error(err))
		return
	}

	r.logger.Debug("Alert event relayed",
		zap.String("subject", subject),
		zap.String("event", string(evt.Type)),
		zap.String("alert_id", evt.Alert.ID))
}

// EnsureAlertStream creates the alert stream if it does not exist yet.
func EnsureAlertStream(js nats.JetStreamContext) error {
	_, err := js.AddStream(&nats.StreamConfig{
		Name:     alertStreamName,
		Subjects: []string{alertSubjectPrefix + ">"},
		Storage:  nats.FileStorage,
		MaxAge:   alertStreamMaxAge,
		MaxMsgs:  alertStreamMaxMsgs,
	})
	if err != nil && err != nats.ErrStreamNameAlreadyInUse {
		return fmt.Errorf("failed to create alert stream: %w", err)
	}
	return nil
}
