package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/Iyke200/doculuna/internal/model"
	"github.com/Iyke200/doculuna/internal/repository"
)

var ErrUserNotFound = errors.New("user not found")

// UserService defines user profile operations.
type UserService interface {
	// Ensure lazily creates the user's rows; safe on every request.
	Ensure(ctx context.Context, userID string) error
	Get(ctx context.Context, userID string) (*model.User, error)
	// SetReferrer records who referred the user. Only the first write wins
	// and self-referrals are ignored.
	SetReferrer(ctx context.Context, userID, referrerID string) error
}

type userService struct {
	repo       repository.UserRepository
	userLogger zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(repo repository.UserRepository, logger zerolog.Logger) UserService {
	return &userService{
		repo:       repo,
		userLogger: logger.With().Str("service", "UserService").Logger(),
	}
}

func (s *userService) Ensure(ctx context.Context, userID string) error {
	if err := s.repo.Ensure(ctx, userID); err != nil {
		s.userLogger.Error().Err(err).Str("user_id", userID).Msg("Failed to ensure user rows")
		return err
	}
	return nil
}

func (s *userService) Get(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		s.userLogger.Error().Err(err).Str("user_id", userID).Msg("Failed to get user")
		return nil, err
	}
	return user, nil
}

func (s *userService) SetReferrer(ctx context.Context, userID, referrerID string) error {
	if err := s.repo.SetReferrer(ctx, userID, referrerID); err != nil {
		s.userLogger.Error().Err(err).Str("user_id", userID).Str("referrer_id", referrerID).
			Msg("Failed to set referrer")
		return err
	}
	return nil
}
