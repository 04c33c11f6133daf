package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/luhit123/neolink123-sub008/internal/model"
)

type countingEscalator struct {
	name  string
	calls int
}

func (c *countingEscalator) Escalate(ctx context.Context, alert *model.Alert, rule model.EscalationRule) error {
	c.calls++
	return nil
}

func (c *countingEscalator) Name() string { return c.name }

func TestRouter_RoutesByNotifyMethod(t *testing.T) {
	email := &countingEscalator{name: "email"}
	inApp := &countingEscalator{name: "in_app"}

	router := NewRouter(inApp, zap.NewNop())
	router.Register(model.NotifyEmail, email)
	router.Register(model.NotifyInApp, inApp)

	alert := &model.Alert{ID: "a1", Severity: model.AlertSeverityCritical}

	require.NoError(t, router.Escalate(context.Background(), alert,
		model.EscalationRule{NotifyMethod: model.NotifyEmail}))
	require.Equal(t, 1, email.calls)
	require.Equal(t, 0, inApp.calls)

	// Unconfigured methods fall back to the default escalator.
	require.NoError(t, router.Escalate(context.Background(), alert,
		model.EscalationRule{NotifyMethod: model.NotifySMS}))
	require.Equal(t, 1, inApp.calls)
}

func TestRouter_NoFallbackIsAnError(t *testing.T) {
	router := NewRouter(nil, zap.NewNop())

	err := router.Escalate(context.Background(),
		&model.Alert{ID: "a1"},
		model.EscalationRule{NotifyMethod: model.NotifySMS})
	require.Error(t, err)
}
