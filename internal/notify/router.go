package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/luhit123/neolink123-sub008/internal/escalation"
	"github.com/luhit123/neolink123-sub008/internal/model"
)

// Router picks an escalator by the rule's notify method. Rules naming an
// unconfigured method fall back to the default escalator so an escalation
// is never silently lost to a configuration gap.
type Router struct {
	logger   *zap.Logger
	routes   map[model.NotifyMethod]escalation.Escalator
	fallback escalation.Escalator
}

// NewRouter creates a router with the given default escalator.
func NewRouter(fallback escalation.Escalator, logger *zap.Logger) *Router {
	return &Router{
		logger:   logger.Named("escalation-router"),
		routes:   make(map[model.NotifyMethod]escalation.Escalator),
		fallback: fallback,
	}
}

// Register maps a notify method to an escalator.
func (r *Router) Register(method model.NotifyMethod, esc escalation.Escalator) {
	r.routes[method] = esc
}

// Name implements escalation.Escalator
func (r *Router) Name() string { return "router" }

// Escalate implements escalation.Escalator
func (r *Router) Escalate(ctx context.Context, alert *model.Alert, rule model.EscalationRule) error {
	esc, ok := r.routes[rule.NotifyMethod]
	if !ok {
		if r.fallback == nil {
			return fmt.Errorf("no escalator for notify method %q", rule.NotifyMethod)
		}
		r.logger.Warn("No escalator for notify method, using fallback",
			zap.String("notify_method", string(rule.NotifyMethod)),
			zap.String("fallback", r.fallback.Name()))
		esc = r.fallback
	}
	return esc.Escalate(ctx, alert, rule)
}
