// Package friends implements the friend-request workflow and friends listing.
package friends

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pairchat/pairchat-server/internal/presence"
	"github.com/pairchat/pairchat-server/internal/service/profiles"
	"github.com/pairchat/pairchat-server/internal/store"
)

// Common errors for friend operations.
var (
	ErrCannotFriendSelf     = errors.New("cannot add yourself as a friend")
	ErrAlreadyFriends       = errors.New("already friends")
	ErrRequestAlreadyExists = errors.New("friend request already sent")
	ErrRequestNotFound      = errors.New("friend request not found")
	ErrUserNotFound         = errors.New("user not found")
)

// Service provides friend management business logic.
type Service struct {
	store    store.Store
	presence presence.Store
	profiles *profiles.Service
}

// New creates a friends service.
func New(st store.Store, pres presence.Store, prof *profiles.Service) *Service {
	return &Service{
		store:    st,
		presence: pres,
		profiles: prof,
	}
}

// FriendInfo is one entry of the friends listing, decorated with presence.
type FriendInfo struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Picture  string `json:"picture,omitempty"`
	Location string `json:"location,omitempty"`
	IsActive bool   `json:"is_active"`
}

// RequestInfo is one incoming pending friend request.
type RequestInfo struct {
	ID           int64     `json:"id"`
	FromUsername string    `json:"from_username"`
	CreatedAt    time.Time `json:"created_at"`
}

// SendRequest sends a friend request to the named user.
func (s *Service) SendRequest(ctx context.Context, fromID int64, toUsername string) (*store.Friend, error) {
	target, err := s.store.GetUserByUsername(ctx, toUsername)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if target.ID == fromID {
		return nil, ErrCannotFriendSelf
	}

	existing, err := s.store.GetFriendship(ctx, fromID, target.ID)
	if err == nil {
		switch existing.Status {
		case store.FriendStatusAccepted:
			return nil, ErrAlreadyFriends
		case store.FriendStatusPending:
			return nil, ErrRequestAlreadyExists
		}
	}

	friend, err := s.store.CreateFriendRequest(ctx, fromID, target.ID)
	if err != nil {
		return nil, fmt.Errorf("create friend request: %w", err)
	}
	return friend, nil
}

// AcceptRequest accepts a pending request addressed to userID.
func (s *Service) AcceptRequest(ctx context.Context, userID, requestID int64) error {
	req, err := s.requestTo(ctx, userID, requestID)
	if err != nil {
		return err
	}

	if err := s.store.UpdateFriendStatus(ctx, req.UserID, req.FriendID, store.FriendStatusAccepted); err != nil {
		return fmt.Errorf("accept request: %w", err)
	}
	return nil
}

// RejectRequest rejects a pending request addressed to userID by removing it.
func (s *Service) RejectRequest(ctx context.Context, userID, requestID int64) error {
	req, err := s.requestTo(ctx, userID, requestID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteFriendship(ctx, req.UserID, req.FriendID); err != nil {
		return fmt.Errorf("reject request: %w", err)
	}
	return nil
}

// requestTo loads a pending request and verifies it is addressed to userID.
func (s *Service) requestTo(ctx context.Context, userID, requestID int64) (*store.Friend, error) {
	req, err := s.store.GetFriendRequestByID(ctx, requestID)
	if err != nil {
		return nil, ErrRequestNotFound
	}
	if req.Status != store.FriendStatusPending || req.FriendID != userID {
		return nil, ErrRequestNotFound
	}
	return req, nil
}

// ListPendingRequests returns incoming pending requests for a user.
func (s *Service) ListPendingRequests(ctx context.Context, userID int64) ([]RequestInfo, error) {
	status := store.FriendStatusPending
	all, err := s.store.ListFriends(ctx, userID, &status)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}

	requests := make([]RequestInfo, 0, len(all))
	for _, f := range all {
		// Only requests addressed to this user, not sent by them.
		if f.FriendID != userID {
			continue
		}
		from, err := s.store.GetUserByID(ctx, f.UserID)
		if err != nil {
			return nil, fmt.Errorf("resolve request sender: %w", err)
		}
		requests = append(requests, RequestInfo{
			ID:           f.ID,
			FromUsername: from.Username,
			CreatedAt:    f.CreatedAt,
		})
	}
	return requests, nil
}

// ListFriends returns accepted friends decorated with profile fields and the
// presence flag the clients render as the online indicator.
func (s *Service) ListFriends(ctx context.Context, userID int64) ([]FriendInfo, error) {
	status := store.FriendStatusAccepted
	edges, err := s.store.ListFriends(ctx, userID, &status)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}

	infos := make([]FriendInfo, 0, len(edges))
	for _, f := range edges {
		otherID := f.FriendID
		if otherID == userID {
			otherID = f.UserID
		}

		other, err := s.store.GetUserByID(ctx, otherID)
		if err != nil {
			return nil, fmt.Errorf("resolve friend: %w", err)
		}

		info := FriendInfo{
			Username: other.Username,
			Email:    other.Email,
		}
		if prof, err := s.profiles.Get(ctx, otherID); err == nil {
			info.Picture = prof.Picture
			info.Location = prof.Location
		}
		if online, err := s.presence.IsOnline(ctx, other.Username); err == nil {
			info.IsActive = online
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// IsFriend reports whether two users are friends.
func (s *Service) IsFriend(ctx context.Context, userID, friendID int64) (bool, error) {
	return s.store.IsFriend(ctx, userID, friendID)
}
