// Package dispatch selects and delivers motivational nudges, both for the
// scheduled fan-out and for one-off test sends.
package dispatch

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/preciousyou/precious-backend/internal/messages"
	"github.com/preciousyou/precious-backend/internal/push"
	"github.com/preciousyou/precious-backend/internal/users"
	"github.com/preciousyou/precious-backend/pkg/db/models"
	"github.com/preciousyou/precious-backend/pkg/errors"
	"github.com/preciousyou/precious-backend/pkg/logger"
	"github.com/preciousyou/precious-backend/pkg/metrics"
)

const JobName = "daily-nudge"

type userSource interface {
	ListPushEligible(ctx context.Context) ([]users.PushTarget, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type ServiceParams struct {
	Logger  *logger.Logger
	Users   userSource
	Bank    *messages.Bank
	Gateway push.Gateway
	Metrics *metrics.JobMetrics
	// Title is the notification title shown on devices.
	Title string
}

// Service runs nudge deliveries. It implements the scheduler's Job interface
// so a pass can be wired straight into the cron runner.
type Service struct {
	logg    *logger.Logger
	users   userSource
	bank    *messages.Bank
	gateway push.Gateway
	metrics *metrics.JobMetrics
	title   string
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user source required")
	}
	if params.Bank == nil {
		return nil, fmt.Errorf("message bank required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("push gateway required")
	}
	return &Service{
		logg:    params.Logger,
		users:   params.Users,
		bank:    params.Bank,
		gateway: params.Gateway,
		metrics: params.Metrics,
		title:   params.Title,
	}, nil
}

// PassResult summarizes one fan-out over all eligible users.
type PassResult struct {
	Eligible  int
	Attempted int
	Delivered int
}

// NudgeResult is the outcome of a single-user test send.
type NudgeResult struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

func (s *Service) Name() string { return JobName }

// Run satisfies the scheduler Job interface.
func (s *Service) Run(ctx context.Context) error {
	_, err := s.RunPass(ctx)
	return err
}

// RunPass sends one nudge to every push-eligible user. Only the eligibility
// query is fatal; a failed delivery to one user never stops the rest.
func (s *Service) RunPass(ctx context.Context) (PassResult, error) {
	targets, err := s.users.ListPushEligible(ctx)
	if err != nil {
		return PassResult{}, fmt.Errorf("listing push-eligible users: %w", err)
	}

	if len(targets) == 0 {
		s.logg.Info(ctx, "nudge pass: no eligible users")
		return PassResult{}, nil
	}

	result := PassResult{Eligible: len(targets)}
	for _, target := range targets {
		result.Attempted++
		if s.sendToTarget(ctx, target) {
			result.Delivered++
		}
	}

	if s.metrics != nil {
		s.metrics.CountSends(result.Delivered, result.Attempted-result.Delivered)
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"eligible":  result.Eligible,
		"attempted": result.Attempted,
		"delivered": result.Delivered,
	})
	s.logg.Info(logCtx, "nudge pass complete")
	return result, nil
}

func (s *Service) sendToTarget(ctx context.Context, target users.PushTarget) (delivered bool) {
	logCtx := s.logg.WithUserID(ctx, target.ID.String())
	defer func() {
		if r := recover(); r != nil {
			s.logg.Error(logCtx, "nudge delivery panicked", fmt.Errorf("%v", r))
			delivered = false
		}
	}()

	message := s.bank.Pick(target.Tone)
	body := messages.Personalize(message.Text, target.DisplayName)

	delivered = s.gateway.Send(ctx, target.PushToken, push.Notification{
		Title: s.title,
		Body:  body,
		Data:  map[string]string{"messageId": message.ID},
	})
	if !delivered {
		s.logg.Warn(logCtx, "nudge delivery failed")
	}
	return delivered
}

// SendNudge delivers a single nudge to one user, used by the test-push
// endpoint. It shares the selection path with the scheduled pass.
func (s *Service) SendNudge(ctx context.Context, userID uuid.UUID) (*NudgeResult, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, "user not found")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "loading user")
	}
	if user.PushToken == nil || *user.PushToken == "" {
		return nil, errors.New(errors.CodeValidation, "no push token registered")
	}

	message := s.bank.Pick(user.Tone)
	body := messages.Personalize(message.Text, user.DisplayName)

	sent := s.gateway.Send(ctx, *user.PushToken, push.Notification{
		Title: s.title,
		Body:  body,
		Data:  map[string]string{"messageId": message.ID},
	})
	if s.metrics != nil {
		if sent {
			s.metrics.CountSends(1, 0)
		} else {
			s.metrics.CountSends(0, 1)
		}
	}

	return &NudgeResult{Sent: sent, Message: body}, nil
}
