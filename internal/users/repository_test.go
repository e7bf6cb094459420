package users

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSearchFilterMatchesLiterally(t *testing.T) {
	me := primitive.NewObjectID()
	f := searchFilter(SearchQuery{Text: "a.b(", Field: SearchField("name"), Exclude: me})

	pattern, ok := f["fullName"].(primitive.Regex)
	require.True(t, ok)
	require.Equal(t, "i", pattern.Options)
	require.Equal(t, `a\.b\(`, pattern.Pattern)
	require.Equal(t, bson.M{"$ne": me}, f["_id"])

	re := regexp.MustCompile("(?i)" + pattern.Pattern)
	require.True(t, re.MatchString("Xa.B(y"))
	require.False(t, re.MatchString("axb("))
}

func TestSearchFilterAnyField(t *testing.T) {
	f := searchFilter(SearchQuery{Text: "bob", Field: SearchField("")})
	or, ok := f["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 3)
	for i, field := range []string{"email", "username", "fullName"} {
		require.Contains(t, or[i], field)
	}
	_, excluded := f["_id"]
	require.False(t, excluded)
}

func TestFriendUpdatesAreSetOperations(t *testing.T) {
	id := primitive.NewObjectID()
	now := time.Now().UTC()

	add := addFriendUpdate(id, now)
	require.Equal(t, bson.M{"friends": id}, add["$addToSet"])
	require.Equal(t, bson.M{"updatedAt": now}, add["$set"])

	rm := removeFriendUpdate(id, now)
	require.Equal(t, bson.M{"friends": id}, rm["$pull"])
	require.Equal(t, bson.M{"updatedAt": now}, rm["$set"])
}

func TestPairWithoutTransactionRunsDirectly(t *testing.T) {
	r := &MongoUserRepository{}
	calls := 0
	err := r.pair(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	boom := errors.New("boom")
	require.ErrorIs(t, r.pair(context.Background(), func(context.Context) error { return boom }), boom)
}
