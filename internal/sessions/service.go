package sessions

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"
)

// Service issues and validates refresh sessions.
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service { return &Service{repo: r} }

// CreateSession stores a new refresh session for userID and returns the
// opaque refresh token.
func (s *Service) CreateSession(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	r := hex.EncodeToString(b)
	now := time.Now().UTC()
	sess := &Session{
		RefreshToken: r,
		UserID:       userID,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return "", err
	}
	return r, nil
}

// ValidateRefresh returns the session if refresh token is valid and not
// expired, (nil, nil) otherwise.
func (s *Service) ValidateRefresh(ctx context.Context, refresh string) (*Session, error) {
	if refresh == "" {
		return nil, nil
	}
	sess, err := s.repo.GetByRefresh(ctx, refresh)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}
	if sess.Expired(time.Now().UTC()) {
		_ = s.repo.DeleteByRefresh(ctx, refresh)
		return nil, nil
	}
	return sess, nil
}

func (s *Service) DeleteRefresh(ctx context.Context, refresh string) error {
	return s.repo.DeleteByRefresh(ctx, refresh)
}

// RevokeAll drops every refresh session of userID.
func (s *Service) RevokeAll(ctx context.Context, userID string) error {
	return s.repo.DeleteByUser(ctx, userID)
}
