package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Iyke200/doculuna/internal/config"
	"github.com/Iyke200/doculuna/internal/repository"
)

// Sweeper runs the periodic retention and expiry sweep: lapsed
// subscriptions flip to expired, dead grants are removed and old history
// rows past retention are dropped.
type Sweeper struct {
	cfg           *config.Config
	subscriptions repository.SubscriptionRepository
	grants        repository.GrantRepository
	history       repository.HistoryRepository
	logger        zerolog.Logger
	clock         func() time.Time
}

// NewSweeper creates a Sweeper with a scoped logger.
func NewSweeper(
	cfg *config.Config,
	subscriptions repository.SubscriptionRepository,
	grants repository.GrantRepository,
	history repository.HistoryRepository,
	logger zerolog.Logger,
) *Sweeper {
	return &Sweeper{
		cfg:           cfg,
		subscriptions: subscriptions,
		grants:        grants,
		history:       history,
		logger:        logger.With().Str("worker", "cleanup").Logger(),
		clock:         time.Now,
	}
}

// Run sweeps once immediately and then on every tick until the context is
// cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	interval := time.Duration(s.cfg.CleanupIntervalMin) * time.Minute
	s.logger.Info().Dur("interval", interval).Msg("Starting cleanup sweeper")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Shutting down cleanup sweeper")
			return nil
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	now := s.clock().UTC()

	expired, err := s.subscriptions.ExpireLapsed(ctx, now)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to expire lapsed subscriptions")
	} else if expired > 0 {
		s.logger.Info().Int64("count", expired).Msg("Expired lapsed subscriptions")
	}

	removed, err := s.grants.DeleteExpired(ctx, now)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete expired grants")
	} else if removed > 0 {
		s.logger.Info().Int64("count", removed).Msg("Deleted expired grants")
	}

	cutoff := now.AddDate(0, 0, -s.cfg.HistoryRetentionDays)
	dropped, err := s.history.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to drop history past retention")
	} else if dropped > 0 {
		s.logger.Info().Int64("count", dropped).Time("cutoff", cutoff).Msg("Dropped history past retention")
	}
}
