package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/luhit123/neolink123-sub008/internal/engine"
	"github.com/luhit123/neolink123-sub008/internal/model"
	"github.com/luhit123/neolink123-sub008/internal/rules"
)

const (
	vitalsStreamName   = "VITALS"
	observationSubject = "vitals.observation.*"
	findingsStreamName = "FINDINGS"
	findingSubject     = "finding.ai.*"

	streamMaxAge  = 24 * time.Hour
	streamMaxMsgs = -1
)

// ConfigProvider resolves the alerting configuration for an institution.
type ConfigProvider interface {
	ConfigFor(institutionID string) *model.AlertConfiguration
}

// Consumer ingests the vital-sign observation feed and the AI-finding
// feed from JetStream. Observations run through the rule evaluator;
// findings go straight to the alert factory as external signals.
type Consumer struct {
	logger    *zap.Logger
	js        nats.JetStreamContext
	evaluator *rules.Evaluator
	factory   *engine.Factory
	configs   ConfigProvider
	subs      []*nats.Subscription
}

// NewConsumer creates a new feed consumer
func NewConsumer(js nats.JetStreamContext, evaluator *rules.Evaluator, factory *engine.Factory, configs ConfigProvider, logger *zap.Logger) *Consumer {
	return &Consumer{
		logger:    logger.Named("ingest"),
		js:        js,
		evaluator: evaluator,
		factory:   factory,
		configs:   configs,
	}
}

// Start ensures the feed streams exist and subscribes to both feeds with
// durable consumers.
func (c *Consumer) Start() error {
	if err := c.ensureStream(vitalsStreamName, "vitals.>"); err != nil {
		return err
	}
	if err := c.ensureStream(findingsStreamName, "finding.>"); err != nil {
		return err
	}

	sub, err := c.js.Subscribe(observationSubject, c.handleObservation,
		nats.Durable("vitals-observation-consumer"))
	if err != nil {
		return fmt.Errorf("failed to subscribe to observations: %w", err)
	}
	c.subs = append(c.subs, sub)

	sub, err = c.js.Subscribe(findingSubject, c.handleFinding,
		nats.Durable("ai-finding-consumer"))
	if err != nil {
		return fmt.Errorf("failed to subscribe to findings: %w", err)
	}
	c.subs = append(c.subs, sub)

	c.logger.Info("Feed consumers started")
	return nil
}

// Stop unsubscribes from both feeds.
func (c *Consumer) Stop() {
	for _, sub := range c.subs {
		sub.Unsubscribe()
	}
	c.subs = nil
}

func (c *Consumer) ensureStream(name, subjects string) error {
	_, err := c.js.AddStream(&nats.StreamConfig{
		Name:     name,
		Subjects: []string{subjects},
		Storage:  nats.FileStorage,
		MaxAge:   streamMaxAge,
		MaxMsgs:  streamMaxMsgs,
	})
	if err != nil && err != nats.ErrStreamNameAlreadyInUse {
		return fmt.Errorf("failed to create stream %s: %w", name, err)
	}
	return nil
}

// handleObservation evaluates a single vital reading. Malformed or
// invalid observations are logged and dropped; the producing module owns
// the decision to re-prompt.
func (c *Consumer) handleObservation(msg *nats.Msg) {
	var obs model.VitalObservation
	if err := json.Unmarshal(msg.Data, &obs); err != nil {
		c.logger.Error("Failed to unmarshal observation", zap.Error(err))
		return
	}

	verdict, err := c.evaluator.Evaluate(obs, c.configs.ConfigFor(obs.InstitutionID))
	if err != nil {
		c.logger.Warn("Dropped invalid observation",
			zap.String("patient_id", obs.PatientID),
			zap.String("vital", string(obs.Vital)),
			zap.Error(err))
		msg.Ack()
		return
	}

	if verdict == nil {
		msg.Ack()
		return
	}

	if _, err := c.factory.FromVitalVerdict(obs, verdict); err != nil {
		if errors.Is(err, engine.ErrDuplicateAlert) {
			c.logger.Debug("Duplicate alert suppressed", zap.Error(err))
		} else {
			c.logger.Error("Failed to create vital alert", zap.Error(err))
		}
	}
	msg.Ack()
}

// handleFinding turns an AI finding into an alert.
func (c *Consumer) handleFinding(msg *nats.Msg) {
	var sig engine.ExternalSignal
	if err := json.Unmarshal(msg.Data, &sig); err != nil {
		c.logger.Error("Failed to unmarshal AI finding", zap.Error(err))
		return
	}

	if _, err := c.factory.FromExternalSignal(sig); err != nil {
		c.logger.Warn("Dropped invalid AI finding",
			zap.String("type", string(sig.Type)),
			zap.Error(err))
	}
	msg.Ack()
}
