package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/campusconecto/campusconecto/backend/api/internal/models"
)

var ErrInvalidCode = errors.New("invalid or expired otp")

// CodeLength is the number of digits in an issued code.
const CodeLength = 6

// Service issues and checks single-use password reset codes.
type Service struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

func NewService(store Store, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Service{store: store, ttl: ttl, now: time.Now}
}

// GenerateCode returns a uniformly random zero-padded decimal code.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", CodeLength, n.Int64()), nil
}

// Issue replaces every outstanding code for email with a fresh one.
func (s *Service) Issue(ctx context.Context, email string) (*models.OTP, error) {
	email = models.NormalizeEmail(email)
	if err := s.store.DeleteAll(ctx, email); err != nil {
		return nil, fmt.Errorf("clear codes: %w", err)
	}
	code, err := GenerateCode()
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}
	now := s.now().UTC()
	rec := &models.OTP{Email: email, Code: code, CreatedAt: now, ExpiresAt: now.Add(s.ttl)}
	if err := s.store.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("save code: %w", err)
	}
	return rec, nil
}

// Check validates code without consuming it.
func (s *Service) Check(ctx context.Context, email, code string) error {
	rec, err := s.store.Find(ctx, models.NormalizeEmail(email), code)
	if err != nil {
		return err
	}
	if rec == nil || s.now().After(rec.ExpiresAt) {
		return ErrInvalidCode
	}
	return nil
}

// Invalidate drops every code for email.
func (s *Service) Invalidate(ctx context.Context, email string) error {
	return s.store.DeleteAll(ctx, models.NormalizeEmail(email))
}

// MemoryStore is a process-local Store for tests and local runs.
type MemoryStore struct {
	mu   sync.Mutex
	recs map[string][]models.OTP
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{recs: map[string][]models.OTP{}}
}

func (m *MemoryStore) Save(ctx context.Context, rec *models.OTP) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs[rec.Email] = append(m.recs[rec.Email], *rec)
	return nil
}

func (m *MemoryStore) Find(ctx context.Context, email, code string) (*models.OTP, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for _, r := range m.recs[email] {
		if r.Code == code && now.Before(r.ExpiresAt) {
			rec := r
			return &rec, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) DeleteAll(ctx context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.recs, email)
	return nil
}
