package posts

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/campusconecto/campusconecto/backend/api/internal/models"
	"github.com/campusconecto/campusconecto/backend/api/internal/storage"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newService(t *testing.T) *Service {
	t.Helper()
	store, err := storage.NewMemoryStore("http://files.local/campusconecto")
	require.NoError(t, err)
	return NewService(NewMemoryRepo(), store)
}

func author(email string) *models.User {
	return &models.User{ID: primitive.NewObjectID(), FullName: "A", Email: email}
}

func TestCreateWithImageAndAttachments(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	a := author("alice@x.com")

	p, err := svc.Create(ctx, a, NewPost{
		Text:        "hello",
		Image:       &Image{Filename: "pic.png", ContentType: "image/png", Size: 3, Body: strings.NewReader("png")},
		Attachments: []models.Attachment{{Name: "notes", URL: "http://files.local/campusconecto/x.pdf"}},
	})
	require.NoError(t, err)
	require.False(t, p.ID.IsZero())
	require.Equal(t, "alice@x.com", p.AuthorEmail)
	require.True(t, strings.HasPrefix(p.ImageThumb, "http://files.local/campusconecto/posts/alice_x.com/"), p.ImageThumb)
	require.Len(t, p.Attachments, 1)

	mine, err := svc.Mine(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
}

func TestFeedIsNewestFirstAndCapped(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	a := author("a@x.com")
	for i := 0; i < FeedSize+5; i++ {
		_, err := svc.Create(ctx, a, NewPost{Text: fmt.Sprintf("post %d", i)})
		require.NoError(t, err)
	}
	feed, err := svc.Feed(ctx)
	require.NoError(t, err)
	require.Len(t, feed, FeedSize)
	for i := 1; i < len(feed); i++ {
		require.False(t, feed[i].CreatedAt.After(feed[i-1].CreatedAt))
	}
}

func TestOnlyOwnerMayEditOrDelete(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	owner, other := author("o@x.com"), author("x@x.com")
	p, err := svc.Create(ctx, owner, NewPost{Text: "original"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, other.ID, p.ID.Hex(), "hacked")
	require.ErrorIs(t, err, ErrNotOwner)
	require.ErrorIs(t, svc.Delete(ctx, other.ID, p.ID.Hex()), ErrNotOwner)

	// empty text keeps the old text
	got, err := svc.Update(ctx, owner.ID, p.ID.Hex(), "")
	require.NoError(t, err)
	require.Equal(t, "original", got.Text)

	got, err = svc.Update(ctx, owner.ID, p.ID.Hex(), "edited")
	require.NoError(t, err)
	require.Equal(t, "edited", got.Text)

	require.NoError(t, svc.Delete(ctx, owner.ID, p.ID.Hex()))
	_, err = svc.Update(ctx, owner.ID, p.ID.Hex(), "again")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, svc.Delete(ctx, owner.ID, "not-an-id"), ErrNotFound)
}

func TestParseAttachments(t *testing.T) {
	got, err := ParseAttachments(`[{"name":"a","url":"http://u/a"},{"name":"empty","url":""}]`)
	require.NoError(t, err)
	require.Equal(t, []models.Attachment{{Name: "a", URL: "http://u/a"}}, got)

	got, err = ParseAttachments("")
	require.NoError(t, err)
	require.Empty(t, got)

	_, err = ParseAttachments("{broken")
	require.Error(t, err)
}
