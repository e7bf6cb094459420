package users

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/campusconecto/campusconecto/backend/api/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepository is an in-memory UserRepository used by tests and local
// runs without MongoDB. Returned users are copies.
type MemoryRepository struct {
	mu    sync.RWMutex
	store map[primitive.ObjectID]*models.User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{store: make(map[primitive.ObjectID]*models.User)}
}

func clone(u *models.User) *models.User {
	c := *u
	c.Friends = append([]primitive.ObjectID{}, u.Friends...)
	c.Subjects = append([]string{}, u.Subjects...)
	return &c
}

func (m *MemoryRepository) Create(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.Email = models.NormalizeEmail(u.Email)
	for _, existing := range m.store {
		if existing.Email == u.Email {
			return ErrDuplicateEmail
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.Friends == nil {
		u.Friends = []primitive.ObjectID{}
	}
	if u.Subjects == nil {
		u.Subjects = []string{}
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	m.store[u.ID] = clone(u)
	return nil
}

func (m *MemoryRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.store[id]; ok {
		return clone(u), nil
	}
	return nil, nil
}

func (m *MemoryRepository) firstMatch(match func(*models.User) bool) *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.store {
		if match(u) {
			return clone(u)
		}
	}
	return nil
}

func (m *MemoryRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	email = models.NormalizeEmail(email)
	return m.firstMatch(func(u *models.User) bool { return u.Email == email }), nil
}

func (m *MemoryRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, nil
	}
	return m.firstMatch(func(u *models.User) bool { return u.Username == username }), nil
}

func (m *MemoryRepository) GetMany(ctx context.Context, ids []primitive.ObjectID) ([]*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*models.User{}
	for _, id := range ids {
		if u, ok := m.store[id]; ok {
			out = append(out, clone(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (m *MemoryRepository) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[id]
	if !ok {
		return nil, nil
	}
	if upd.Username != "" {
		for other, existing := range m.store {
			if other != id && existing.Username == upd.Username {
				return nil, ErrUsernameTaken
			}
		}
		u.Username = upd.Username
	}
	if upd.College != "" {
		u.College = upd.College
	}
	if upd.Bio != "" {
		u.Bio = upd.Bio
	}
	if upd.ProfileImageURL != "" {
		u.ProfileImageURL = upd.ProfileImageURL
	}
	u.ProfileCreated = true
	u.UpdatedAt = time.Now().UTC()
	return clone(u), nil
}

func (m *MemoryRepository) SetPasswordHash(ctx context.Context, id primitive.ObjectID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[id]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = hash
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryRepository) Search(ctx context.Context, q SearchQuery) ([]*models.User, error) {
	needle := strings.ToLower(q.Text)
	contains := func(s string) bool { return strings.Contains(strings.ToLower(s), needle) }
	m.mu.RLock()
	out := []*models.User{}
	for id, u := range m.store {
		if id == q.Exclude {
			continue
		}
		var hit bool
		switch q.Field {
		case "email":
			hit = contains(u.Email)
		case "username":
			hit = u.Username != "" && contains(u.Username)
		case "fullName":
			hit = contains(u.FullName)
		default:
			hit = contains(u.Email) || (u.Username != "" && contains(u.Username)) || contains(u.FullName)
		}
		if hit {
			out = append(out, clone(u))
		}
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	limit := int(q.Limit)
	if limit <= 0 || limit > MaxSearchResults {
		limit = MaxSearchResults
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryRepository) addLocked(owner, friend primitive.ObjectID) {
	u, ok := m.store[owner]
	if !ok || u.HasFriend(friend) {
		return
	}
	u.Friends = append(u.Friends, friend)
	u.UpdatedAt = time.Now().UTC()
}

func (m *MemoryRepository) removeLocked(owner, friend primitive.ObjectID) {
	u, ok := m.store[owner]
	if !ok {
		return
	}
	kept := u.Friends[:0]
	for _, f := range u.Friends {
		if f != friend {
			kept = append(kept, f)
		}
	}
	u.Friends = kept
	u.UpdatedAt = time.Now().UTC()
}

func (m *MemoryRepository) AddFriend(ctx context.Context, owner, friend primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addLocked(owner, friend)
	return nil
}

func (m *MemoryRepository) RemoveFriend(ctx context.Context, owner, friend primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(owner, friend)
	return nil
}

func (m *MemoryRepository) AddFriendPair(ctx context.Context, a, b primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addLocked(a, b)
	m.addLocked(b, a)
	return nil
}

func (m *MemoryRepository) RemoveFriendPair(ctx context.Context, a, b primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(a, b)
	m.removeLocked(b, a)
	return nil
}

func (m *MemoryRepository) ForEach(ctx context.Context, fn func(*models.User) error) error {
	m.mu.RLock()
	snapshot := make([]*models.User, 0, len(m.store))
	for _, u := range m.store {
		snapshot = append(snapshot, clone(u))
	}
	m.mu.RUnlock()
	for _, u := range snapshot {
		if err := fn(u); err != nil {
			return err
		}
	}
	return nil
}
