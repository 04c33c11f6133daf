package engine

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/luhit123/neolink123-sub008/internal/model"
)

func newTestStore(t *testing.T) (*Store, *Bus) {
	t.Helper()
	bus := NewBus(zap.NewNop())
	return NewStore(bus, zap.NewNop()), bus
}

func alertFixture(id, patientID string, severity model.AlertSeverity) *model.Alert {
	return &model.Alert{
		ID:        id,
		Type:      model.AlertTypeVitalAbnormal,
		Severity:  severity,
		Title:     "test alert",
		PatientID: patientID,
		CreatedAt: time.Now(),
	}
}

func TestStore_AddRejectsDuplicateID(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.Add(alertFixture("a1", "p1", model.AlertSeverityWarning)))
	err := store.Add(alertFixture("a1", "p1", model.AlertSeverityCritical))
	require.ErrorIs(t, err, ErrDuplicateAlert)
	require.Equal(t, 1, store.Len())
}

func TestStore_AcknowledgeSetsFieldsExactlyOnce(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Add(alertFixture("a1", "p1", model.AlertSeverityWarning)))

	require.True(t, store.Acknowledge("a1", "u1", "Nurse A"))

	got, ok := store.Get("a1")
	require.True(t, ok)
	require.True(t, got.Acknowledged)
	require.Equal(t, "u1", got.AcknowledgedBy)
	require.Equal(t, "Nurse A", got.AcknowledgedByName)
	require.NotNil(t, got.AcknowledgedAt)
	firstAckAt := *got.AcknowledgedAt

	// Second acknowledge is a no-op; first write wins.
	require.False(t, store.Acknowledge("a1", "u2", "Nurse B"))
	got, _ = store.Get("a1")
	require.Equal(t, "u1", got.AcknowledgedBy)
	require.Equal(t, firstAckAt, *got.AcknowledgedAt)

	// Severity is untouched by lifecycle transitions.
	require.Equal(t, model.AlertSeverityWarning, got.Severity)
}

func TestStore_AcknowledgeUnknownIsNoop(t *testing.T) {
	store, _ := newTestStore(t)
	require.False(t, store.Acknowledge("missing", "u1", "Nurse A"))
}

func TestStore_DismissIsIdempotentAndTerminal(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Add(alertFixture("a1", "p1", model.AlertSeverityWarning)))

	require.True(t, store.Dismiss("a1"))
	require.Equal(t, 0, store.Len())

	// Dismissing twice leaves the same observable state.
	require.False(t, store.Dismiss("a1"))
	require.Equal(t, 0, store.Len())

	// A dismissed alert is gone; it cannot be acknowledged.
	require.False(t, store.Acknowledge("a1", "u1", "Nurse A"))
}

func TestStore_DismissWorksWhetherAcknowledgedOrNot(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Add(alertFixture("a1", "p1", model.AlertSeverityWarning)))
	require.NoError(t, store.Add(alertFixture("a2", "p1", model.AlertSeverityCritical)))

	store.Acknowledge("a1", "u1", "Nurse A")
	require.True(t, store.Dismiss("a1"))
	require.True(t, store.Dismiss("a2"))
	require.Equal(t, 0, store.Len())
}

func TestStore_ListActiveOrderingAndFilter(t *testing.T) {
	store, _ := newTestStore(t)

	now := time.Now()
	oldest := alertFixture("a1", "p1", model.AlertSeverityInfo)
	oldest.CreatedAt = now.Add(-2 * time.Hour)
	middle := alertFixture("a2", "p2", model.AlertSeverityWarning)
	middle.CreatedAt = now.Add(-1 * time.Hour)
	newest := alertFixture("a3", "p1", model.AlertSeverityCritical)
	newest.CreatedAt = now

	require.NoError(t, store.Add(oldest))
	require.NoError(t, store.Add(newest))
	require.NoError(t, store.Add(middle))

	all := store.ListActive("")
	require.Len(t, all, 3)
	require.Equal(t, []string{"a3", "a2", "a1"}, []string{all[0].ID, all[1].ID, all[2].ID})

	// Exact-match patient filter only; merging system-wide alerts is the
	// caller's decision.
	p1 := store.ListActive("p1")
	require.Len(t, p1, 2)
	require.Equal(t, "a3", p1[0].ID)
	require.Equal(t, "a1", p1[1].ID)
}

func TestStore_Lifecycle(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.Add(alertFixture("a1", "p1", model.AlertSeverityWarning)))

	active := store.ListActive("p1")
	require.Len(t, active, 1)
	require.Equal(t, "a1", active[0].ID)

	require.True(t, store.Acknowledge("a1", "u1", "Nurse A"))
	active = store.ListActive("p1")
	require.Len(t, active, 1)
	require.True(t, active[0].Acknowledged)

	require.True(t, store.Dismiss("a1"))
	require.Empty(t, store.ListActive("p1"))
}

func TestStore_HighestSeverity(t *testing.T) {
	store, _ := newTestStore(t)

	_, found := store.HighestSeverity("p1")
	require.False(t, found)

	require.NoError(t, store.Add(alertFixture("a1", "p1", model.AlertSeverityInfo)))
	require.NoError(t, store.Add(alertFixture("a2", "p1", model.AlertSeverityEmergency)))
	require.NoError(t, store.Add(alertFixture("a3", "p1", model.AlertSeverityCritical)))
	require.NoError(t, store.Add(alertFixture("a4", "p2", model.AlertSeverityWarning)))

	highest, found := store.HighestSeverity("p1")
	require.True(t, found)
	require.Equal(t, model.AlertSeverityEmergency, highest)

	highest, found = store.HighestSeverity("p2")
	require.True(t, found)
	require.Equal(t, model.AlertSeverityWarning, highest)
}

func TestStore_TransitionsPublishUpdateEvents(t *testing.T) {
	store, bus := newTestStore(t)

	var events []Event
	bus.Subscribe(func(evt Event) { events = append(events, evt) })

	require.NoError(t, store.Add(alertFixture("a1", "p1", model.AlertSeverityWarning)))
	store.Acknowledge("a1", "u1", "Nurse A")
	store.Dismiss("a1")
	// No-op transitions publish nothing.
	store.Acknowledge("a1", "u2", "Nurse B")
	store.Dismiss("a1")

	require.Len(t, events, 2)
	require.Equal(t, EventAlertAcknowledged, events[0].Type)
	require.True(t, events[0].Alert.Acknowledged)
	require.Equal(t, EventAlertDismissed, events[1].Type)
	require.True(t, events[1].Alert.Dismissed)
}

func TestStore_ListActiveSnapshotsUnderConcurrentTransitions(t *testing.T) {
	store, _ := newTestStore(t)

	done := make(chan struct{})
	var wg sync.WaitGroup

	// The escalation sweep reads the full active set while acknowledge
	// and dismiss transitions arrive from other goroutines. Every alert
	// the snapshot hands out must be internally consistent.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-done:
				return
			default:
			}
			id := fmt.Sprintf("a%d", i)
			_ = store.Add(alertFixture(id, "p1", model.AlertSeverityWarning))
			store.Acknowledge(id, "u1", "Nurse A")
			store.Dismiss(id)
		}
	}()

	for i := 0; i < 500; i++ {
		for _, alert := range store.ListActive("") {
			if alert.Acknowledged {
				require.NotNil(t, alert.AcknowledgedAt)
				require.Equal(t, "u1", alert.AcknowledgedBy)
			}
			require.False(t, alert.Dismissed)
		}
	}

	close(done)
	wg.Wait()
}

func TestCompareSeverity_TotalOrder(t *testing.T) {
	ordered := []model.AlertSeverity{
		model.AlertSeverityInfo,
		model.AlertSeverityWarning,
		model.AlertSeverityCritical,
		model.AlertSeverityEmergency,
	}

	for i, lower := range ordered {
		require.Zero(t, model.CompareSeverity(lower, lower))
		for _, higher := range ordered[i+1:] {
			require.Negative(t, model.CompareSeverity(lower, higher))
			require.Positive(t, model.CompareSeverity(higher, lower))
		}
	}
}
