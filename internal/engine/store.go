package engine

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/luhit123/neolink123-sub008/internal/model"
)

type storeEntry struct {
	alert *model.Alert
	seq   uint64
}

// Store holds the active set of alerts and enforces the lifecycle state
// machine: raised, optionally acknowledged, dismissed. Dismissal removes
// the alert permanently; a durable audit trail is the journal's concern,
// not the store's.
//
// Instances are constructor-injected, never package state, so tests can
// run isolated stores side by side.
type Store struct {
	logger *zap.Logger
	bus    *Bus

	mu      sync.RWMutex
	alerts  map[string]*storeEntry
	nextSeq uint64
}

// NewStore creates a new lifecycle store. Acknowledge and dismiss
// transitions are announced on the bus.
func NewStore(bus *Bus, logger *zap.Logger) *Store {
	return &Store{
		logger: logger.Named("store"),
		bus:    bus,
		alerts: make(map[string]*storeEntry),
	}
}

// Add places a new alert in the active set. Ids are caller-assigned, so
// an id already present is a duplicate, not a race.
func (s *Store) Add(alert *model.Alert) error {
	s.mu.Lock()
	if _, exists := s.alerts[alert.ID]; exists {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateAlert, alert.ID)
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now()
	}
	s.nextSeq++
	s.alerts[alert.ID] = &storeEntry{alert: alert.Clone(), seq: s.nextSeq}
	s.mu.Unlock()

	s.logger.Info("Alert raised",
		zap.String("id", alert.ID),
		zap.String("type", string(alert.Type)),
		zap.String("severity", string(alert.Severity)),
		zap.String("patient_id", alert.PatientID))

	return nil
}

// Acknowledge records who handled the alert. It is a no-op when the id
// is unknown or the alert is already acknowledged; the actor fields are
// written exactly once, first write wins. Returns true when the
// transition happened, in which case an update event goes out on the bus.
func (s *Store) Acknowledge(id, actorID, actorName string) bool {
	s.mu.Lock()
	entry, ok := s.alerts[id]
	if !ok || entry.alert.Acknowledged {
		s.mu.Unlock()
		return false
	}
	now := time.Now()
	entry.alert.Acknowledged = true
	entry.alert.AcknowledgedBy = actorID
	entry.alert.AcknowledgedByName = actorName
	entry.alert.AcknowledgedAt = &now
	updated := entry.alert.Clone()
	s.mu.Unlock()

	s.logger.Info("Alert acknowledged",
		zap.String("id", id),
		zap.String("actor_id", actorID))

	if s.bus != nil {
		s.bus.Publish(Event{Type: EventAlertAcknowledged, Alert: updated})
	}
	return true
}

// Dismiss removes the alert from the active set, acknowledged or not.
// Dismissing an unknown id is a no-op, not an error; the transition is
// terminal. Returns true when a removal actually happened.
func (s *Store) Dismiss(id string) bool {
	s.mu.Lock()
	entry, ok := s.alerts[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	now := time.Now()
	entry.alert.Dismissed = true
	entry.alert.DismissedAt = &now
	removed := entry.alert.Clone()
	delete(s.alerts, id)
	s.mu.Unlock()

	s.logger.Info("Alert dismissed", zap.String("id", id))

	if s.bus != nil {
		s.bus.Publish(Event{Type: EventAlertDismissed, Alert: removed})
	}
	return true
}

// Get returns a copy of an active alert by id.
func (s *Store) Get(id string) (*model.Alert, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.alerts[id]
	if !ok {
		return nil, false
	}
	return entry.alert.Clone(), true
}

// ListActive returns the active alerts most recent first. A non-empty
// patientID filters by exact match only; merging in system-wide alerts
// is the caller's decision. The result is a private snapshot: every
// alert is cloned while the read lock is held, so a concurrent
// acknowledge or dismiss can never tear the copies the caller sees.
func (s *Store) ListActive(patientID string) []*model.Alert {
	s.mu.RLock()
	snapshot := make([]storeEntry, 0, len(s.alerts))
	for _, entry := range s.alerts {
		if patientID != "" && entry.alert.PatientID != patientID {
			continue
		}
		snapshot = append(snapshot, storeEntry{alert: entry.alert.Clone(), seq: entry.seq})
	}
	s.mu.RUnlock()

	sort.Slice(snapshot, func(i, j int) bool {
		if !snapshot[i].alert.CreatedAt.Equal(snapshot[j].alert.CreatedAt) {
			return snapshot[i].alert.CreatedAt.After(snapshot[j].alert.CreatedAt)
		}
		return snapshot[i].seq > snapshot[j].seq
	})

	alerts := make([]*model.Alert, len(snapshot))
	for i := range snapshot {
		alerts[i] = snapshot[i].alert
	}
	return alerts
}

// HighestSeverity returns the most severe active alert level for the
// given patient filter, using the canonical severity order. The second
// return value is false when no alert matches.
func (s *Store) HighestSeverity(patientID string) (model.AlertSeverity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var highest model.AlertSeverity
	found := false
	for _, entry := range s.alerts {
		if patientID != "" && entry.alert.PatientID != patientID {
			continue
		}
		if !found || model.CompareSeverity(entry.alert.Severity, highest) > 0 {
			highest = entry.alert.Severity
			found = true
		}
	}
	return highest, found
}

// Len returns the size of the active set.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.alerts)
}
