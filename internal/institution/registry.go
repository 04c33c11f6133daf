package institution

import (
	"sync"

	"go.uber.org/zap"

	"github.com/luhit123/neolink123-sub008/internal/model"
)

// Registry holds the per-institution alert configurations supplied by the
// settings module. The whole set is replaced atomically on configuration
// reload; readers always see a consistent snapshot.
type Registry struct {
	logger *zap.Logger

	mu      sync.RWMutex
	configs map[string]*model.AlertConfiguration
}

// NewRegistry creates an empty registry
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		logger:  logger.Named("institutions"),
		configs: make(map[string]*model.AlertConfiguration),
	}
}

// Replace swaps in a new configuration set.
func (r *Registry) Replace(configs []model.AlertConfiguration) {
	next := make(map[string]*model.AlertConfiguration, len(configs))
	for i := range configs {
		cfg := configs[i]
		next[cfg.InstitutionID] = &cfg
	}

	r.mu.Lock()
	r.configs = next
	r.mu.Unlock()

	r.logger.Info("Institution configurations replaced",
		zap.Int("count", len(next)))
}

// ConfigFor returns the configuration for the institution, or nil when
// none is registered. A nil configuration means default thresholds and
// no escalation.
func (r *Registry) ConfigFor(institutionID string) *model.AlertConfiguration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.configs[institutionID]
}
