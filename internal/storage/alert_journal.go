package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/luhit123/neolink123-sub008/internal/model"
)

// JournalEvent classifies an audit journal entry
type JournalEvent string

const (
	JournalCreated      JournalEvent = "created"
	JournalAcknowledged JournalEvent = "acknowledged"
	JournalDismissed    JournalEvent = "dismissed"
	JournalEscalated    JournalEvent = "escalated"
)

// JournalEntry is one audit record of an alert lifecycle event. The
// journal is the durable trail the in-memory store deliberately does not
// keep: dismissed alerts leave the active set but stay recorded here.
type JournalEntry struct {
	ID            string              `json:"id"`
	AlertID       string              `json:"alert_id"`
	Event         JournalEvent        `json:"event"`
	Type          model.AlertType     `json:"type"`
	Severity      model.AlertSeverity `json:"severity"`
	PatientID     string              `json:"patient_id,omitempty"`
	InstitutionID string              `json:"institution_id,omitempty"`
	Actor         string              `json:"actor,omitempty"`
	Payload       json.RawMessage     `json:"payload,omitempty"`
	OccurredAt    time.Time           `json:"occurred_at"`
}

// AlertJournal defines the interface for the durable audit trail
type AlertJournal interface {
	// Record appends one lifecycle event
	Record(ctx context.Context, entry *JournalEntry) error

	// List retrieves entries with pagination and filters, newest first
	List(ctx context.Context, filters map[string]interface{}, offset, limit int) ([]*JournalEntry, error)

	// Count returns the total number of entries matching the filters
	Count(ctx context.Context, filters map[string]interface{}) (int, error)

	// DeleteBefore deletes entries older than the specified time
	DeleteBefore(ctx context.Context, before time.Time) error

	// Close releases the underlying storage
	Close() error
}

// SQLiteAlertJournal implements AlertJournal using SQLite
type SQLiteAlertJournal struct {
	logger *zap.Logger
	db     *sql.DB
}

// NewSQLiteAlertJournal opens (or creates) the journal database. Unlike a
// scratch store, an existing journal file is kept: it is an audit trail.
func NewSQLiteAlertJournal(logger *zap.Logger, dbPath string) (*SQLiteAlertJournal, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	journal := &SQLiteAlertJournal{
		logger: logger.Named("journal"),
		db:     db,
	}

	if err := journal.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return journal, nil
}

// initialize creates the necessary tables if they don't exist
func (j *SQLiteAlertJournal) initialize() error {
	_, err := j.db.Exec(`
		CREATE TABLE IF NOT EXISTS alert_journal (
			id TEXT PRIMARY KEY,
			alert_id TEXT NOT NULL,
			event TEXT NOT NULL,
			type TEXT NOT NULL,
			severity TEXT NOT NULL,
			patient_id TEXT,
			institution_id TEXT,
			actor TEXT,
			payload TEXT,
			occurred_at DATETIME NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_alert_journal_alert_id ON alert_journal(alert_id);
		CREATE INDEX IF NOT EXISTS idx_alert_journal_event ON alert_journal(event);
		CREATE INDEX IF NOT EXISTS idx_alert_journal_patient_id ON alert_journal(patient_id);
		CREATE INDEX IF NOT EXISTS idx_alert_journal_occurred_at ON alert_journal(occurred_at);
	`)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	return nil
}

// Record implements AlertJournal.Record
func (j *SQLiteAlertJournal) Record(ctx context.Context, entry *JournalEntry) error {
	var payloadStr string
	if len(entry.Payload) > 0 {
		payloadStr = string(entry.Payload)
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO alert_journal (
			id, alert_id, event, type, severity, patient_id, institution_id, actor, payload, occurred_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.AlertID,
		entry.Event,
		entry.Type,
		entry.Severity,
		sql.NullString{String: entry.PatientID, Valid: entry.PatientID != ""},
		sql.NullString{String: entry.InstitutionID, Valid: entry.InstitutionID != ""},
		sql.NullString{String: entry.Actor, Valid: entry.Actor != ""},
		sql.NullString{String: payloadStr, Valid: payloadStr != ""},
		entry.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record journal entry: %w", err)
	}
	return nil
}

// List implements AlertJournal.List
func (j *SQLiteAlertJournal) List(ctx context.Context, filters map[string]interface{}, offset, limit int) ([]*JournalEntry, error) {
	query := "SELECT id, alert_id, event, type, severity, patient_id, institution_id, actor, payload, occurred_at FROM alert_journal"
	args := make([]interface{}, 0)

	if len(filters) > 0 {
		query += " WHERE"
		first := true
		for key, value := range filters {
			if !first {
				query += " AND"
			}
			query += fmt.Sprintf(" %s = ?", key)
			args = append(args, value)
			first = false
		}
	}

	query += " ORDER BY occurred_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal entries: %w", err)
	}
	defer rows.Close()

	var entries []*JournalEntry
	for rows.Next() {
		entry := &JournalEntry{}
		var patientID, institutionID, actor, payload sql.NullString

		err := rows.Scan(
			&entry.ID,
			&entry.AlertID,
			&entry.Event,
			&entry.Type,
			&entry.Severity,
			&patientID,
			&institutionID,
			&actor,
			&payload,
			&entry.OccurredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}

		if patientID.Valid {
			entry.PatientID = patientID.String
		}
		if institutionID.Valid {
			entry.InstitutionID = institutionID.String
		}
		if actor.Valid {
			entry.Actor = actor.String
		}
		if payload.Valid && payload.String != "" {
			entry.Payload = json.RawMessage(payload.String)
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}

	return entries, nil
}

// Count implements AlertJournal.Count
func (j *SQLiteAlertJournal) Count(ctx context.Context, filters map[string]interface{}) (int, error) {
	query := "SELECT COUNT(*) FROM alert_journal"
	args := make([]interface{}, 0)

	if len(filters) > 0 {
		query += " WHERE"
		first := true
		for key, value := range filters {
			if !first {
				query += " AND"
			}
			query += fmt.Sprintf(" %s = ?", key)
			args = append(args, value)
			first = false
		}
	}

	var count int
	err := j.db.QueryRowContext(ctx, query, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count journal entries: %w", err)
	}
	return count, nil
}

// DeleteBefore implements AlertJournal.DeleteBefore
func (j *SQLiteAlertJournal) DeleteBefore(ctx context.Context, before time.Time) error {
	result, err := j.db.ExecContext(ctx, "DELETE FROM alert_journal WHERE occurred_at < ?", before)
	if err != nil {
		return fmt.Errorf("failed to delete journal entries: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	j.logger.Info("Deleted old journal entries",
		zap.Time("before", before),
		zap.Int64("deleted", affected))

	return nil
}

// Close closes the database connection
func (j *SQLiteAlertJournal) Close() error {
	return j.db.Close()
}
