package escalation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/luhit123/neolink123-sub008/internal/engine"
	"github.com/luhit123/neolink123-sub008/internal/model"
)

// cronLogger adapts zap.Logger to cron.Logger
type cronLogger struct {
	logger *zap.Logger
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, zap.Error(err))
}

// Scheduler sweeps the active set on a fixed cadence and fires at most
// one escalation per alert. Escalation never changes alert severity or
// state; it is a side-channel notification only.
type Scheduler struct {
	logger    *zap.Logger
	store     *engine.Store
	configs   ConfigProvider
	escalator Escalator
	sweep     time.Duration
	cron      *cron.Cron

	mu        sync.Mutex
	escalated map[string]bool
}

// NewScheduler creates a new escalation scheduler sweeping every sweep
// interval.
func NewScheduler(store *engine.Store, configs ConfigProvider, escalator Escalator, sweep time.Duration, logger *zap.Logger) *Scheduler {
	named := logger.Named("escalation")
	cronOptions := []cron.Option{
		cron.WithSeconds(),
		cron.WithChain(cron.Recover(&cronLogger{logger: named.Named("cron")})),
	}

	return &Scheduler{
		logger:    named,
		store:     store,
		configs:   configs,
		escalator: escalator,
		sweep:     sweep,
		cron:      cron.New(cronOptions...),
		escalated: make(map[string]bool),
	}
}

// Start begins the periodic sweep.
func (s *Scheduler) Start(ctx context.Context) error {
	spec := fmt.Sprintf("@every %s", s.sweep)
	if _, err := s.cron.AddFunc(spec, func() { s.Sweep(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule escalation sweep: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Escalation scheduler started",
		zap.Duration("sweep_interval", s.sweep),
		zap.String("escalator", s.escalator.Name()))
	return nil
}

// Stop stops the sweep and waits for a running tick to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Escalation scheduler stopped")
}

// Sweep runs one pass over a snapshot of the active set. Exported so the
// cadence can be driven directly in tests.
func (s *Scheduler) Sweep(ctx context.Context) {
	now := time.Now()
	active := s.store.ListActive("")
	activeIDs := make(map[string]bool, len(active))

	for _, alert := range active {
		activeIDs[alert.ID] = true

		cfg := s.configs.ConfigFor(alert.InstitutionID)
		if cfg == nil {
			continue
		}

		age := now.Sub(alert.CreatedAt)

		if !alert.Acknowledged && cfg.AutoAckMinutes > 0 &&
			age >= time.Duration(cfg.AutoAckMinutes)*time.Minute {
			s.store.Acknowledge(alert.ID, "system", "Auto-acknowledge timeout")
			continue
		}

		if alert.Acknowledged {
			continue
		}

		rule, due := dueRule(cfg.EscalationRules, age)
		if !due {
			continue
		}

		s.fire(ctx, alert.ID, rule)
	}

	s.pruneEscalated(activeIDs)
}

// fire triggers the escalation for one alert at most once. The alert is
// re-fetched immediately before firing: an acknowledge or dismiss whose
// effects are visible to this tick must suppress the escalation.
func (s *Scheduler) fire(ctx context.Context, id string, rule model.EscalationRule) {
	s.mu.Lock()
	if s.escalated[id] {
		s.mu.Unlock()
		return
	}

	current, ok := s.store.Get(id)
	if !ok || current.Acknowledged {
		s.mu.Unlock()
		return
	}

	s.escalated[id] = true
	s.mu.Unlock()

	s.logger.Info("Escalating unacknowledged alert",
		zap.String("id", id),
		zap.String("severity", string(current.Severity)),
		zap.String("escalate_to", rule.EscalateTo),
		zap.String("notify_method", string(rule.NotifyMethod)))

	// Fire and forget: delivery failures are the notification
	// collaborator's problem, the sweep moves on either way.
	if err := s.escalator.Escalate(ctx, current, rule); err != nil {
		s.logger.Error("Escalation notification failed",
			zap.String("id", id),
			zap.String("escalator", s.escalator.Name()),
			zap.Error(err))
	}
}

// pruneEscalated drops bookkeeping for alerts that left the active set.
func (s *Scheduler) pruneEscalated(activeIDs map[string]bool) {
	s.mu.Lock()
	for id := range s.escalated {
		if !activeIDs[id] {
			delete(s.escalated, id)
		}
	}
	s.mu.Unlock()
}

// dueRule returns the first configured rule whose delay has elapsed.
func dueRule(rules []model.EscalationRule, age time.Duration) (model.EscalationRule, bool) {
	for _, rule := range rules {
		if rule.AfterMinutes <= 0 {
			continue
		}
		if age >= time.Duration(rule.AfterMinutes)*time.Minute {
			return rule, true
		}
	}
	return model.EscalationRule{}, false
}
