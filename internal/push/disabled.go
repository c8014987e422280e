package push

import (
	"context"

	"github.com/preciousyou/precious-backend/pkg/logger"
)

// DisabledGateway is the no-credentials fallback: every send is logged and
// reported as a failed delivery.
type DisabledGateway struct {
	logg *logger.Logger
}

func NewDisabledGateway(logg *logger.Logger) *DisabledGateway {
	return &DisabledGateway{logg: logg}
}

func (g *DisabledGateway) Send(ctx context.Context, token string, n Notification) bool {
	g.logg.Warn(ctx, "push delivery skipped, gateway disabled")
	return false
}
