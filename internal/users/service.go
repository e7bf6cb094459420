package users

import (
	"context"
	"strings"

	"github.com/campusconecto/campusconecto/backend/api/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Service encapsulates user-related business logic
type Service struct {
	repo UserRepository
}

func NewService(r UserRepository) *Service {
	return &Service{repo: r}
}

// Me returns the user's own profile with friends expanded to public views.
func (s *Service) Me(ctx context.Context, id primitive.ObjectID) (*models.Profile, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound
	}
	friends, err := s.repo.GetMany(ctx, u.Friends)
	if err != nil {
		return nil, err
	}
	views := make([]models.PublicUser, 0, len(friends))
	for _, f := range friends {
		views = append(views, f.Public())
	}
	return models.ProfileOf(u, views), nil
}

// UpdateProfile applies the non-empty fields of upd and marks the profile as
// created. A username held by another account yields ErrUsernameTaken.
func (s *Service) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) (*models.User, error) {
	upd.Username = strings.ToLower(strings.TrimSpace(upd.Username))
	upd.College = strings.TrimSpace(upd.College)
	upd.Bio = strings.TrimSpace(upd.Bio)
	upd.ProfileImageURL = strings.TrimSpace(upd.ProfileImageURL)
	if upd.Username != "" {
		holder, err := s.repo.GetByUsername(ctx, upd.Username)
		if err != nil {
			return nil, err
		}
		if holder != nil && holder.ID != id {
			return nil, ErrUsernameTaken
		}
	}
	u, err := s.repo.UpdateProfile(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}

// Search finds other users matching q. An empty query matches nobody.
func (s *Service) Search(ctx context.Context, requester primitive.ObjectID, q, mode string) ([]models.PublicUser, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []models.PublicUser{}, nil
	}
	found, err := s.repo.Search(ctx, SearchQuery{
		Text:    q,
		Field:   SearchField(mode),
		Exclude: requester,
		Limit:   MaxSearchResults,
	})
	if err != nil {
		return nil, err
	}
	out := make([]models.PublicUser, 0, len(found))
	for _, u := range found {
		out = append(out, u.Public())
	}
	return out, nil
}
