// Package profiles serves profile reads/updates and avatar URL resolution.
package profiles

import (
	"context"
	"fmt"
	"strings"

	"github.com/pairchat/pairchat-server/internal/store"
)

// Service provides profile operations. It implements core.AvatarResolver.
type Service struct {
	store   store.Store
	baseURL string
}

// New creates a profiles service. baseURL is the public base used to build
// absolute avatar URLs.
func New(st store.Store, baseURL string) *Service {
	return &Service{
		store:   st,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Info is a profile joined with its user's account fields.
type Info struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Location string `json:"location"`
	Picture  string `json:"picture"`
}

// AvatarURL returns the absolute avatar URL for a username, or "" when the
// user has no picture. Missing profiles resolve to "" rather than an error.
func (s *Service) AvatarURL(ctx context.Context, username string) (string, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return "", fmt.Errorf("resolve user: %w", err)
	}

	profile, err := s.store.GetProfile(ctx, user.ID)
	if err != nil {
		return "", nil
	}
	return s.absolute(profile.Picture), nil
}

// Get returns the profile for a user.
func (s *Service) Get(ctx context.Context, userID int64) (*Info, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &Info{
		Username: user.Username,
		Email:    user.Email,
		Location: profile.Location,
		Picture:  s.absolute(profile.Picture),
	}, nil
}

// Update overwrites the fields that are non-nil and returns the result.
func (s *Service) Update(ctx context.Context, userID int64, location, picture *string) (*Info, error) {
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	if location != nil {
		profile.Location = *location
	}
	if picture != nil {
		profile.Picture = *picture
	}

	if err := s.store.UpdateProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return s.Get(ctx, userID)
}

// absolute joins a stored relative picture path with the public base URL.
func (s *Service) absolute(picture string) string {
	if picture == "" {
		return ""
	}
	if strings.HasPrefix(picture, "http://") || strings.HasPrefix(picture, "https://") {
		return picture
	}
	if !strings.HasPrefix(picture, "/") {
		picture = "/" + picture
	}
	return s.baseURL + picture
}
