package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"
)

const (
	engineStreamName    = "ENGINE"
	healthSubject       = "engine.health"
	engineStreamMaxAge  = 24 * time.Hour
	engineStreamMaxMsgs = -1
)

// HealthSnapshot is the periodic operational report of the engine host,
// published for ops dashboards. It is not a clinical signal and never
// produces alerts.
type HealthSnapshot struct {
	CPUPercent    float64   `json:"cpu_percent"`
	MemoryPercent float64   `json:"memory_percent"`
	MemoryUsed    uint64    `json:"memory_used"`
	ActiveAlerts  int       `json:"active_alerts"`
	CollectedAt   time.Time `json:"collected_at"`
}

// ActiveCounter reports the size of the active alert set.
type ActiveCounter interface {
	Len() int
}

// HealthReporter periodically samples host CPU/memory and the active set
// size, logs the snapshot and publishes it to JetStream.
type HealthReporter struct {
	logger   *zap.Logger
	js       nats.JetStreamContext
	active   ActiveCounter
	interval time.Duration
	stop     chan struct{}
}

// NewHealthReporter creates a new health reporter
func NewHealthReporter(js nats.JetStreamContext, active ActiveCounter, interval time.Duration, logger *zap.Logger) *HealthReporter {
	return &HealthReporter{
		logger:   logger.Named("health"),
		js:       js,
		active:   active,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start starts the reporting loop
func (r *HealthReporter) Start(ctx context.Context) error {
	_, err := r.js.AddStream(&nats.StreamConfig{
		Name:     engineStreamName,
		Subjects: []string{"engine.>"},
		Storage:  nats.FileStorage,
		MaxAge:   engineStreamMaxAge,
		MaxMsgs:  engineStreamMaxMsgs,
	})
	if err != nil && err != nats.ErrStreamNameAlreadyInUse {
		return fmt.Errorf("failed to create engine stream: %w", err)
	}

	go r.reportLoop(ctx)

	r.logger.Info("Health reporter started", zap.Duration("interval", r.interval))
	return nil
}

// Stop stops the reporting loop
func (r *HealthReporter) Stop() {
	close(r.stop)
}

func (r *HealthReporter) reportLoop(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stop:
			return
		case <-ticker.C:
			r.report()
		}
	}
}

func (r *HealthReporter) report() {
	snapshot := HealthSnapshot{
		ActiveAlerts: r.active.Len(),
		CollectedAt:  time.Now(),
	}

	cpuPercent, err := cpu.Percent(time.Second, false)
	if err != nil {
		r.logger.Error("Failed to sample CPU usage", zap.Error(err))
	} else if len(cpuPercent) > 0 {
		snapshot.CPUPercent = cpuPercent[0]
	}

	memInfo, err := mem.VirtualMemory()
	if err != nil {
		r.logger.Error("Failed to sample memory usage", zap.Error(err))
	} else {
		snapshot.MemoryPercent = memInfo.UsedPercent
		snapshot.MemoryUsed = memInfo.Used
	}

	r.logger.Info("Engine health",
		zap.Float64("cpu_percent", snapshot.CPUPercent),
		zap.Float64("memory_percent", snapshot.MemoryPercent),
		zap.Int("active_alerts", snapshot.ActiveAlerts))

	data, err := json.Marshal(snapshot)
	if err != nil {
		r.logger.Error("Failed to marshal health snapshot", zap.Error(err))
		return
	}

	if _, err := r.js.Publish(healthSubject, data); err != nil {
		r.logger.Error("Failed to publish health snapshot", zap.Error(err))
	}
}
