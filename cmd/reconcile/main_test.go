package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/campusconecto/campusconecto/backend/api/internal/friends"
	"github.com/campusconecto/campusconecto/backend/api/internal/models"
	"github.com/campusconecto/campusconecto/backend/api/internal/users"
	"github.com/stretchr/testify/require"
)

func TestReconcileWritesReport(t *testing.T) {
	ctx := context.Background()
	repo := users.NewMemoryRepository()
	a := &models.User{FullName: "A", Email: "a@x.com"}
	b := &models.User{FullName: "B", Email: "b@x.com"}
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))
	require.NoError(t, repo.AddFriend(ctx, a.ID, b.ID))

	var out bytes.Buffer
	require.NoError(t, reconcile(ctx, &out, repo, true))
	var rep friends.Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &rep))
	require.Equal(t, 2, rep.UsersScanned)
	require.Equal(t, 1, rep.BackRefsAdded)
	require.True(t, rep.DryRun)

	// dry run leaves data untouched
	got, _ := repo.GetByID(ctx, b.ID)
	require.Empty(t, got.Friends)

	out.Reset()
	require.NoError(t, reconcile(ctx, &out, repo, false))
	got, _ = repo.GetByID(ctx, b.ID)
	require.Equal(t, a.ID, got.Friends[0])
}
