package posts

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/campusconecto/campusconecto/backend/api/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepo is an in-memory Repository for tests and local runs.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[primitive.ObjectID]*models.Post
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[primitive.ObjectID]*models.Post)}
}

func copyPost(p *models.Post) *models.Post {
	c := *p
	c.Attachments = append([]models.Attachment{}, p.Attachments...)
	return &c
}

func (m *MemoryRepo) Create(ctx context.Context, p *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.Attachments == nil {
		p.Attachments = []models.Attachment{}
	}
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	m.store[p.ID] = copyPost(p)
	return nil
}

func (m *MemoryRepo) Get(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.store[id]; ok {
		return copyPost(p), nil
	}
	return nil, nil
}

func (m *MemoryRepo) sorted(keep func(*models.Post) bool) []*models.Post {
	m.mu.RLock()
	out := []*models.Post{}
	for _, p := range m.store {
		if keep(p) {
			out = append(out, copyPost(p))
		}
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.Hex() > out[j].ID.Hex()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (m *MemoryRepo) ListByUser(ctx context.Context, user primitive.ObjectID) ([]*models.Post, error) {
	return m.sorted(func(p *models.Post) bool { return p.User == user }), nil
}

func (m *MemoryRepo) Latest(ctx context.Context, limit int64) ([]*models.Post, error) {
	out := m.sorted(func(*models.Post) bool { return true })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryRepo) UpdateText(ctx context.Context, id primitive.ObjectID, text string) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return nil, nil
	}
	p.Text = text
	p.UpdatedAt = time.Now().UTC()
	return copyPost(p), nil
}

func (m *MemoryRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, id)
	return nil
}
