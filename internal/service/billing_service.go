package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Iyke200/doculuna/internal/access"
	"github.com/Iyke200/doculuna/internal/model"
	"github.com/Iyke200/doculuna/internal/repository"
)

// BillingEventKind is the closed set of subscription lifecycle changes the
// core accepts. Anything else is explicitly unhandled, not silently routed.
type BillingEventKind string

const (
	EventSubscriptionActivated BillingEventKind = "subscription_activated"
	EventSubscriptionRenewed   BillingEventKind = "subscription_renewed"
	EventSubscriptionExpired   BillingEventKind = "subscription_expired"
	EventSubscriptionCancelled BillingEventKind = "subscription_cancelled"
)

// ErrUnhandledBillingEvent marks an event kind outside the closed set.
var ErrUnhandledBillingEvent = errors.New("unhandled billing event kind")

// BillingEvent is an already-authenticated lifecycle change from the
// payment layer. Gateway protocol details stay outside the core.
type BillingEvent struct {
	Kind      BillingEventKind
	UserID    string
	PlanID    string
	ExpiresAt *time.Time
}

// Notifier delivers a text to a user; failures never propagate.
type Notifier interface {
	Send(ctx context.Context, userID, text string)
}

// BillingService applies billing events to subscription state.
type BillingService struct {
	subs       repository.SubscriptionRepository
	accessMgr  *access.Manager
	notifier   Notifier
	graceHours int
	logger     zerolog.Logger
}

// NewBillingService creates a BillingService with a scoped logger.
func NewBillingService(
	subs repository.SubscriptionRepository,
	accessMgr *access.Manager,
	notifier Notifier,
	graceHours int,
	logger zerolog.Logger,
) *BillingService {
	return &BillingService{
		subs:       subs,
		accessMgr:  accessMgr,
		notifier:   notifier,
		graceHours: graceHours,
		logger:     logger.With().Str("service", "BillingService").Logger(),
	}
}

// Apply dispatches one event over the closed kind set.
func (s *BillingService) Apply(ctx context.Context, event BillingEvent) error {
	if event.UserID == "" {
		return errors.New("billing event has no user")
	}
	s.logger.Info().Str("kind", string(event.Kind)).Str("user_id", event.UserID).Msg("Billing event received")

	switch event.Kind {
	case EventSubscriptionActivated, EventSubscriptionRenewed:
		if event.PlanID == "" || event.ExpiresAt == nil {
			return fmt.Errorf("event %s requires plan and expiry", event.Kind)
		}
		if err := s.subs.Upsert(ctx, event.UserID, event.PlanID, model.SubscriptionActive, event.ExpiresAt); err != nil {
			return fmt.Errorf("activate subscription for user %s: %w", event.UserID, err)
		}
		if s.notifier != nil {
			s.notifier.Send(ctx, event.UserID, fmt.Sprintf("Your %s plan is active. Enjoy the extra quota!", event.PlanID))
		}
		return nil

	case EventSubscriptionExpired:
		if err := s.subs.MarkExpired(ctx, event.UserID); err != nil {
			return fmt.Errorf("expire subscription for user %s: %w", event.UserID, err)
		}
		// A payment hiccup should not cut the user off mid-task.
		if s.graceHours > 0 {
			grace := time.Duration(s.graceHours) * time.Hour
			if _, err := s.accessMgr.GrantTempAccess(ctx, event.UserID, event.PlanID, grace, model.GrantGracePeriod); err != nil {
				s.logger.Error().Err(err).Str("user_id", event.UserID).Msg("Failed to grant grace period")
			} else if s.notifier != nil {
				s.notifier.Send(ctx, event.UserID,
					fmt.Sprintf("Your subscription lapsed. You have a %d-hour grace period while we retry the payment.", s.graceHours))
			}
		}
		return nil

	case EventSubscriptionCancelled:
		if err := s.subs.MarkExpired(ctx, event.UserID); err != nil {
			return fmt.Errorf("cancel subscription for user %s: %w", event.UserID, err)
		}
		if err := s.accessMgr.RevokeTempAccess(ctx, event.UserID); err != nil {
			s.logger.Warn().Err(err).Str("user_id", event.UserID).Msg("Failed to revoke grant on cancellation")
		}
		if s.notifier != nil {
			s.notifier.Send(ctx, event.UserID, "Your subscription was cancelled. You are back on the free tier.")
		}
		return nil

	default:
		s.logger.Warn().Str("kind", string(event.Kind)).Msg("Unhandled billing event")
		return fmt.Errorf("%w: %s", ErrUnhandledBillingEvent, event.Kind)
	}
}
