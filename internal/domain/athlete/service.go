package athlete

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/yanqian/workout-coach/internal/domain/workout"
	apperrors "github.com/yanqian/workout-coach/pkg/errors"
)

// Service manages athlete profiles.
type Service interface {
	Get(ctx context.Context, userID string) (Profile, error)
	Update(ctx context.Context, userID string, profile workout.UserProfile) (Profile, error)
	Delete(ctx context.Context, userID string) error
	Lookup(ctx context.Context, userID string) (workout.UserProfile, bool, error)
}

type service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs a Service instance.
func NewService(repo Repository, logger *slog.Logger) Service {
	return &service{
		repo:   repo,
		logger: logger.With("component", "athlete.service"),
		now:    time.Now,
	}
}

func (s *service) Get(ctx context.Context, userID string) (Profile, error) {
	if strings.TrimSpace(userID) == "" {
		return Profile{}, apperrors.Wrap("unauthorized", "sign in to view your profile", nil)
	}
	profile, found, err := s.repo.Get(ctx, userID)
	if err != nil {
		return Profile{}, apperrors.Wrap("profile_error", "failed to load profile", err)
	}
	if !found {
		return Profile{}, apperrors.Wrap("not_found", "profile not set", nil)
	}
	return profile, nil
}

func (s *service) Update(ctx context.Context, userID string, profile workout.UserProfile) (Profile, error) {
	if strings.TrimSpace(userID) == "" {
		return Profile{}, apperrors.Wrap("unauthorized", "sign in to update your profile", nil)
	}
	if err := profile.Validate(); err != nil {
		return Profile{}, apperrors.Wrap("invalid_input", err.Error(), err)
	}
	stored, err := s.repo.Upsert(ctx, Profile{UserID: userID, UserProfile: profile, UpdatedAt: s.now().UTC()})
	if err != nil {
		return Profile{}, apperrors.Wrap("profile_error", "failed to save profile", err)
	}
	s.logger.Info("profile updated", "user_id", userID)
	return stored, nil
}

func (s *service) Delete(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return apperrors.Wrap("unauthorized", "sign in to delete your profile", nil)
	}
	if _, err := s.repo.Delete(ctx, userID); err != nil {
		return apperrors.Wrap("profile_error", "failed to delete profile", err)
	}
	s.logger.Info("profile deleted", "user_id", userID)
	return nil
}

// Lookup lets the analysis service read profiles without the HTTP error codes.
func (s *service) Lookup(ctx context.Context, userID string) (workout.UserProfile, bool, error) {
	profile, found, err := s.repo.Get(ctx, userID)
	if err != nil || !found {
		return workout.UserProfile{}, false, err
	}
	return profile.UserProfile, true, nil
}
