package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/sakif/caption-studio/internal/apperror"
	"github.com/sakif/caption-studio/internal/model"
	"github.com/sakif/caption-studio/internal/repository"
)

const (
	MaxBioLength       = 1000
	MaxAvatarURLLength = 2048
)

// ProfileService reads and edits the avatar and bio shown on the dashboard.
type ProfileService struct {
	profiles repository.ProfileRepository
	logger   *slog.Logger
}

func NewProfileService(profiles repository.ProfileRepository, logger *slog.Logger) *ProfileService {
	return &ProfileService{profiles: profiles, logger: logger}
}

// Get returns userID's profile, creating an empty one on first access.
func (s *ProfileService) Get(ctx context.Context, userID string) (*model.Profile, error) {
	p, err := s.profiles.GetOrCreateProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/profile: loading profile for %s: %w", userID, err)
	}
	return p, nil
}

// Update replaces avatar and bio. avatarURL may be empty to clear it.
func (s *ProfileService) Update(ctx context.Context, userID, avatarURL, bio string) (*model.Profile, error) {
	avatarURL = strings.TrimSpace(avatarURL)
	bio = strings.TrimSpace(bio)

	if avatarURL != "" {
		u, err := url.Parse(avatarURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" ||
			len(avatarURL) > MaxAvatarURLLength {
			return nil, apperror.ValidationFailed("avatarUrl", "avatar must be an http(s) URL")
		}
	}
	if utf8.RuneCountInString(bio) > MaxBioLength {
		return nil, apperror.ValidationFailed("bio",
			fmt.Sprintf("bio must be %d characters or less", MaxBioLength))
	}

	// Get-or-create first so an edit before the first view still works.
	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	p.AvatarURL = avatarURL
	p.Bio = bio

	if err := s.profiles.UpdateProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("service/profile: updating profile for %s: %w", userID, err)
	}

	s.logger.Info("profile updated", slog.String("userID", userID))
	return p, nil
}
