package push

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/preciousyou/precious-backend/pkg/config"
	"github.com/preciousyou/precious-backend/pkg/logger"
)

// FCMGateway sends notifications through Firebase Cloud Messaging.
type FCMGateway struct {
	client *messaging.Client
	cfg    config.PushConfig
	logg   *logger.Logger
}

// NewGateway picks the FCM transport when credentials are configured and the
// logging no-op otherwise, so boot never fails on missing push secrets.
func NewGateway(ctx context.Context, cfg config.PushConfig, logg *logger.Logger) (Gateway, error) {
	if cfg.CredentialsJSON == "" {
		logg.Warn(ctx, "push credentials not configured, deliveries disabled")
		return NewDisabledGateway(logg), nil
	}
	return NewFCMGateway(ctx, cfg, logg)
}

// NewFCMGateway initializes the Firebase app and its messaging client.
func NewFCMGateway(ctx context.Context, cfg config.PushConfig, logg *logger.Logger) (*FCMGateway, error) {
	app, err := firebase.NewApp(ctx,
		&firebase.Config{ProjectID: cfg.ProjectID},
		option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)),
	)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("initializing fcm client: %w", err)
	}

	return &FCMGateway{client: client, cfg: cfg, logg: logg}, nil
}

// Send pushes one notification to one device token. Failures are logged and
// reported as false, never as an error.
func (g *FCMGateway) Send(ctx context.Context, token string, n Notification) bool {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.SendTimeout)
	defer cancel()

	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: n.Data,
	}

	if _, err := g.client.Send(ctx, msg); err != nil {
		g.logg.Error(ctx, "fcm send failed", err)
		return false
	}
	return true
}
