package escalation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/luhit123/neolink123-sub008/internal/engine"
	"github.com/luhit123/neolink123-sub008/internal/model"
)

type recordedEscalation struct {
	alertID string
	rule    model.EscalationRule
}

type fakeEscalator struct {
	mu    sync.Mutex
	calls []recordedEscalation
}

func (f *fakeEscalator) Escalate(ctx context.Context, alert *model.Alert, rule model.EscalationRule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordedEscalation{alertID: alert.ID, rule: rule})
	return nil
}

func (f *fakeEscalator) Name() string { return "fake" }

func (f *fakeEscalator) recorded() []recordedEscalation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedEscalation(nil), f.calls...)
}

type staticConfigs struct {
	cfg *model.AlertConfiguration
}

func (s staticConfigs) ConfigFor(institutionID string) *model.AlertConfiguration { return s.cfg }

func testConfig() *model.AlertConfiguration {
	return &model.AlertConfiguration{
		InstitutionID: "inst1",
		EscalationRules: []model.EscalationRule{
			{AfterMinutes: 10, EscalateTo: "charge-nurse", NotifyMethod: model.NotifyInApp},
		},
	}
}

func agedAlert(id string, age time.Duration) *model.Alert {
	return &model.Alert{
		ID:            id,
		Type:          model.AlertTypeVitalAbnormal,
		Severity:      model.AlertSeverityCritical,
		Title:         "test alert",
		PatientID:     "p1",
		InstitutionID: "inst1",
		CreatedAt:     time.Now().Add(-age),
	}
}

func newTestScheduler(t *testing.T, cfg *model.AlertConfiguration) (*Scheduler, *engine.Store, *fakeEscalator) {
	t.Helper()
	bus := engine.NewBus(zap.NewNop())
	store := engine.NewStore(bus, zap.NewNop())
	escalator := &fakeEscalator{}
	scheduler := NewScheduler(store, staticConfigs{cfg: cfg}, escalator, time.Second, zap.NewNop())
	return scheduler, store, escalator
}

func TestScheduler_EscalatesOverdueAlertOnce(t *testing.T) {
	scheduler, store, escalator := newTestScheduler(t, testConfig())

	require.NoError(t, store.Add(agedAlert("a1", 15*time.Minute)))
	require.NoError(t, store.Add(agedAlert("a2", 2*time.Minute)))

	scheduler.Sweep(context.Background())

	calls := escalator.recorded()
	require.Len(t, calls, 1)
	require.Equal(t, "a1", calls[0].alertID)
	require.Equal(t, "charge-nurse", calls[0].rule.EscalateTo)

	// Repeated sweeps must not fire again for the same alert.
	scheduler.Sweep(context.Background())
	scheduler.Sweep(context.Background())
	require.Len(t, escalator.recorded(), 1)
}

func TestScheduler_AcknowledgeCancelsEscalation(t *testing.T) {
	scheduler, store, escalator := newTestScheduler(t, testConfig())

	require.NoError(t, store.Add(agedAlert("a1", 15*time.Minute)))
	store.Acknowledge("a1", "u1", "Nurse A")

	scheduler.Sweep(context.Background())
	require.Empty(t, escalator.recorded())
}

// hookedConfigs runs a callback on every lookup. The sweep consults the
// config after taking its snapshot of the active set, so the callback
// lands between the snapshot and fire.
type hookedConfigs struct {
	cfg  *model.AlertConfiguration
	hook func()
}

func (h hookedConfigs) ConfigFor(institutionID string) *model.AlertConfiguration {
	h.hook()
	return h.cfg
}

func TestScheduler_AcknowledgeAfterSnapshotSuppressesEscalation(t *testing.T) {
	bus := engine.NewBus(zap.NewNop())
	store := engine.NewStore(bus, zap.NewNop())
	escalator := &fakeEscalator{}

	// The snapshot still shows the alert unacknowledged; the re-fetch at
	// fire time must see the transition and stay silent.
	configs := hookedConfigs{cfg: testConfig(), hook: func() {
		store.Acknowledge("a1", "u1", "Nurse A")
	}}
	scheduler := NewScheduler(store, configs, escalator, time.Second, zap.NewNop())

	require.NoError(t, store.Add(agedAlert("a1", 15*time.Minute)))
	scheduler.Sweep(context.Background())
	require.Empty(t, escalator.recorded())
}

func TestScheduler_DismissAfterSnapshotSuppressesEscalation(t *testing.T) {
	bus := engine.NewBus(zap.NewNop())
	store := engine.NewStore(bus, zap.NewNop())
	escalator := &fakeEscalator{}

	configs := hookedConfigs{cfg: testConfig(), hook: func() {
		store.Dismiss("a1")
	}}
	scheduler := NewScheduler(store, configs, escalator, time.Second, zap.NewNop())

	require.NoError(t, store.Add(agedAlert("a1", 15*time.Minute)))
	scheduler.Sweep(context.Background())
	require.Empty(t, escalator.recorded())
}

func TestScheduler_DismissCancelsEscalation(t *testing.T) {
	scheduler, store, escalator := newTestScheduler(t, testConfig())

	require.NoError(t, store.Add(agedAlert("a1", 15*time.Minute)))
	store.Dismiss("a1")

	scheduler.Sweep(context.Background())
	require.Empty(t, escalator.recorded())
}

func TestScheduler_EscalationDoesNotMutateAlert(t *testing.T) {
	scheduler, store, escalator := newTestScheduler(t, testConfig())

	require.NoError(t, store.Add(agedAlert("a1", 15*time.Minute)))
	scheduler.Sweep(context.Background())
	require.Len(t, escalator.recorded(), 1)

	got, ok := store.Get("a1")
	require.True(t, ok)
	require.Equal(t, model.AlertSeverityCritical, got.Severity)
	require.False(t, got.Acknowledged)
	require.False(t, got.Dismissed)
}

func TestScheduler_NoConfigMeansNoEscalation(t *testing.T) {
	scheduler, store, escalator := newTestScheduler(t, nil)

	require.NoError(t, store.Add(agedAlert("a1", time.Hour)))
	scheduler.Sweep(context.Background())
	require.Empty(t, escalator.recorded())
}

func TestScheduler_AutoAcknowledgeTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.EscalationRules = nil
	cfg.AutoAckMinutes = 30
	scheduler, store, escalator := newTestScheduler(t, cfg)

	require.NoError(t, store.Add(agedAlert("a1", 45*time.Minute)))
	require.NoError(t, store.Add(agedAlert("a2", 5*time.Minute)))

	scheduler.Sweep(context.Background())
	require.Empty(t, escalator.recorded())

	got, ok := store.Get("a1")
	require.True(t, ok)
	require.True(t, got.Acknowledged)
	require.Equal(t, "system", got.AcknowledgedBy)

	got, ok = store.Get("a2")
	require.True(t, ok)
	require.False(t, got.Acknowledged)
}
