package users

import (
	"context"
	"fmt"
	"testing"

	"github.com/campusconecto/campusconecto/backend/api/internal/models"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func seed(t *testing.T, repo *MemoryRepository, name, email, username string) *models.User {
	t.Helper()
	u := &models.User{FullName: name, Email: email, Username: username}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	repo := NewMemoryRepository()
	seed(t, repo, "Alice", "alice@x.com", "")
	err := repo.Create(context.Background(), &models.User{FullName: "Other", Email: "ALICE@x.com"})
	require.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestGetByEmailMissingReturnsNil(t *testing.T) {
	repo := NewMemoryRepository()
	u, err := repo.GetByEmail(context.Background(), "nobody@x.com")
	require.NoError(t, err)
	require.Nil(t, u)
}

func TestMePopulatesFriends(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	alice := seed(t, repo, "Alice", "alice@x.com", "")
	bob := seed(t, repo, "Bob", "bob@x.com", "bobby")
	require.NoError(t, repo.AddFriendPair(ctx, alice.ID, bob.ID))

	svc := NewService(repo)
	p, err := svc.Me(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, p.Friends, 1)
	require.Equal(t, bob.ID, p.Friends[0].ID)
	require.Equal(t, "bobby", p.Friends[0].Username)

	_, err = svc.Me(ctx, primitive.NewObjectID())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	alice := seed(t, repo, "Alice", "alice@x.com", "")
	seed(t, repo, "Bob", "bob@x.com", "bob")
	svc := NewService(repo)

	_, err := svc.UpdateProfile(ctx, alice.ID, ProfileUpdate{Username: " BOB "})
	require.ErrorIs(t, err, ErrUsernameTaken)

	u, err := svc.UpdateProfile(ctx, alice.ID, ProfileUpdate{Username: "Alice1", College: "MIT"})
	require.NoError(t, err)
	require.Equal(t, "alice1", u.Username)
	require.Equal(t, "MIT", u.College)
	require.True(t, u.ProfileCreated)

	// empty fields keep the stored values; re-using own username is fine
	u, err = svc.UpdateProfile(ctx, alice.ID, ProfileUpdate{Username: "alice1", Bio: "hi"})
	require.NoError(t, err)
	require.Equal(t, "MIT", u.College)
	require.Equal(t, "hi", u.Bio)

	_, err = svc.UpdateProfile(ctx, primitive.NewObjectID(), ProfileUpdate{College: "x"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	alice := seed(t, repo, "Alice Smith", "alice@x.com", "alice")
	seed(t, repo, "Bob Stone", "bob@campus.edu", "bstone")
	seed(t, repo, "Carol", "carol@x.com", "")
	svc := NewService(repo)

	got, err := svc.Search(ctx, alice.ID, "   ", "")
	require.NoError(t, err)
	require.Empty(t, got)

	// requester never appears in own results
	got, err = svc.Search(ctx, alice.ID, "x.com", "email")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Carol", got[0].FullName)

	got, err = svc.Search(ctx, alice.ID, "STONE", "name")
	require.NoError(t, err)
	require.Len(t, got, 1)

	// no mode searches every field
	got, err = svc.Search(ctx, alice.ID, "campus", "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Bob Stone", got[0].FullName)

	// regex metacharacters are literal
	got, err = svc.Search(ctx, alice.ID, ".*", "")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestSearchCapsResults(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	for i := 0; i < MaxSearchResults+5; i++ {
		seed(t, repo, fmt.Sprintf("Student %02d", i), fmt.Sprintf("s%d@uni.edu", i), "")
	}
	got, err := NewService(repo).Search(ctx, primitive.NewObjectID(), "student", "name")
	require.NoError(t, err)
	require.Len(t, got, MaxSearchResults)
}

func TestFriendPairIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	a := seed(t, repo, "A", "a@x.com", "")
	b := seed(t, repo, "B", "b@x.com", "")

	require.NoError(t, repo.AddFriendPair(ctx, a.ID, b.ID))
	require.NoError(t, repo.AddFriendPair(ctx, a.ID, b.ID))
	ga, _ := repo.GetByID(ctx, a.ID)
	gb, _ := repo.GetByID(ctx, b.ID)
	require.Equal(t, []primitive.ObjectID{b.ID}, ga.Friends)
	require.Equal(t, []primitive.ObjectID{a.ID}, gb.Friends)

	require.NoError(t, repo.RemoveFriendPair(ctx, a.ID, b.ID))
	ga, _ = repo.GetByID(ctx, a.ID)
	gb, _ = repo.GetByID(ctx, b.ID)
	require.Empty(t, ga.Friends)
	require.Empty(t, gb.Friends)
}
