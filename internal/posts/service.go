package posts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/campusconecto/campusconecto/backend/api/internal/models"
	"github.com/campusconecto/campusconecto/backend/api/internal/storage"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound = errors.New("post not found")
	ErrNotOwner = errors.New("user not authorized")
)

// FeedSize is the number of posts returned by Feed.
const FeedSize = 50

// Image is an uploaded file attached to a new post.
type Image struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// NewPost is the input of Create.
type NewPost struct {
	Text        string
	Image       *Image
	Attachments []models.Attachment
}

// Service implements the post feed operations.
type Service struct {
	repo  Repository
	store storage.ObjectStore
}

func NewService(repo Repository, store storage.ObjectStore) *Service {
	return &Service{repo: repo, store: store}
}

// ParseAttachments decodes the JSON array sent in the attachments form
// field. Entries without a URL are skipped.
func ParseAttachments(raw string) ([]models.Attachment, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []models.Attachment{}, nil
	}
	var in []models.Attachment
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		return nil, fmt.Errorf("attachments: %w", err)
	}
	out := make([]models.Attachment, 0, len(in))
	for _, a := range in {
		if strings.TrimSpace(a.URL) == "" {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// Create stores a post by author, uploading the image first when present.
func (s *Service) Create(ctx context.Context, author *models.User, in NewPost) (*models.Post, error) {
	p := &models.Post{
		User:        author.ID,
		AuthorEmail: author.Email,
		Text:        in.Text,
		Attachments: in.Attachments,
	}
	if in.Image != nil {
		key := storage.PostImageKey(author.Email, in.Image.Filename, in.Image.ContentType)
		url, err := s.store.Put(ctx, key, in.Image.Body, in.Image.Size, in.Image.ContentType)
		if err != nil {
			return nil, fmt.Errorf("upload post image: %w", err)
		}
		p.ImageThumb = url
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Mine(ctx context.Context, user primitive.ObjectID) ([]*models.Post, error) {
	return s.repo.ListByUser(ctx, user)
}

func (s *Service) Feed(ctx context.Context) ([]*models.Post, error) {
	return s.repo.Latest(ctx, FeedSize)
}

func (s *Service) owned(ctx context.Context, user primitive.ObjectID, postID string) (*models.Post, error) {
	id, ok := models.ParseID(postID)
	if !ok {
		return nil, ErrNotFound
	}
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	if p.User != user {
		return nil, ErrNotOwner
	}
	return p, nil
}

// Update replaces the text of the user's own post. Empty text keeps the
// current text.
func (s *Service) Update(ctx context.Context, user primitive.ObjectID, postID, text string) (*models.Post, error) {
	p, err := s.owned(ctx, user, postID)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return p, nil
	}
	updated, err := s.repo.UpdateText(ctx, p.ID, text)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrNotFound
	}
	return updated, nil
}

// Delete removes the user's own post.
func (s *Service) Delete(ctx context.Context, user primitive.ObjectID, postID string) error {
	p, err := s.owned(ctx, user, postID)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, p.ID)
}
