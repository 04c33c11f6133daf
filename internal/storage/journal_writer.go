package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/luhit123/neolink123-sub008/internal/engine"
	"github.com/luhit123/neolink123-sub008/internal/escalation"
	"github.com/luhit123/neolink123-sub008/internal/model"
)

const recordTimeout = 5 * time.Second

// AttachJournal subscribes the journal to the bus so every lifecycle
// event leaves an audit record. Write failures are logged and dropped:
// the journal must never corrupt or block in-memory alert state. Returns
// the unsubscribe function.
func AttachJournal(bus *engine.Bus, journal AlertJournal, logger *zap.Logger) func() {
	log := logger.Named("journal-writer")

	return bus.Subscribe(func(evt engine.Event) {
		entry := entryFromEvent(evt)

		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()

		if err := journal.Record(ctx, entry); err != nil {
			log.Error("Failed to record lifecycle event",
				zap.String("alert_id", entry.AlertID),
				zap.String("event", string(entry.Event)),
				zap.Error(err))
		}
	})
}

func entryFromEvent(evt engine.Event) *JournalEntry {
	alert := evt.Alert

	var event JournalEvent
	var actor string
	occurredAt := alert.CreatedAt
	switch evt.Type {
	case engine.EventAlertAcknowledged:
		event = JournalAcknowledged
		actor = alert.AcknowledgedBy
		if alert.AcknowledgedAt != nil {
			occurredAt = *alert.AcknowledgedAt
		}
	case engine.EventAlertDismissed:
		event = JournalDismissed
		if alert.DismissedAt != nil {
			occurredAt = *alert.DismissedAt
		}
	default:
		event = JournalCreated
	}

	payload, _ := json.Marshal(alert)

	return &JournalEntry{
		ID:            uuid.New().String(),
		AlertID:       alert.ID,
		Event:         event,
		Type:          alert.Type,
		Severity:      alert.Severity,
		PatientID:     alert.PatientID,
		InstitutionID: alert.InstitutionID,
		Actor:         actor,
		Payload:       payload,
		OccurredAt:    occurredAt,
	}
}

// JournalingEscalator records each fired escalation before delegating
// delivery. A failed journal write does not block the notification.
type JournalingEscalator struct {
	logger  *zap.Logger
	journal AlertJournal
	next    escalation.Escalator
}

// NewJournalingEscalator wraps next with escalation audit records.
func NewJournalingEscalator(journal AlertJournal, next escalation.Escalator, logger *zap.Logger) *JournalingEscalator {
	return &JournalingEscalator{
		logger:  logger.Named("journaling-escalator"),
		journal: journal,
		next:    next,
	}
}

// Name implements escalation.Escalator
func (e *JournalingEscalator) Name() string { return e.next.Name() }

// Escalate implements escalation.Escalator
func (e *JournalingEscalator) Escalate(ctx context.Context, alert *model.Alert, rule model.EscalationRule) error {
	payload, _ := json.Marshal(rule)

	recordCtx, cancel := context.WithTimeout(ctx, recordTimeout)
	defer cancel()

	if err := e.journal.Record(recordCtx, &JournalEntry{
		ID:            uuid.New().String(),
		AlertID:       alert.ID,
		Event:         JournalEscalated,
		Type:          alert.Type,
		Severity:      alert.Severity,
		PatientID:     alert.PatientID,
		InstitutionID: alert.InstitutionID,
		Actor:         rule.EscalateTo,
		Payload:       payload,
		OccurredAt:    time.Now(),
	}); err != nil {
		e.logger.Error("Failed to record escalation",
			zap.String("alert_id", alert.ID),
			zap.Error(err))
	}

	return e.next.Escalate(ctx, alert, rule)
}
