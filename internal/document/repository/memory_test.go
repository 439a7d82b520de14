package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jargoyle/jargoyle/internal/document"
)

func TestMemoryRepo_CreateGetDelete(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	id, err := repo.Create(ctx, &document.Document{UserID: "u1", Title: "Lease", Status: document.StatusPending})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := repo.GetByIDAndUser(ctx, id, "u1")
	require.NoError(t, err)
	require.Equal(t, "Lease", got.Title)

	require.NoError(t, repo.DeleteByIDAndUser(ctx, id, "u1"))
	_, err = repo.GetByIDAndUser(ctx, id, "u1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepo_ScopedByUser(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	id, err := repo.Create(ctx, &document.Document{UserID: "owner", Title: "Private"})
	require.NoError(t, err)

	// someone else's document behaves exactly like a missing one
	_, err = repo.GetByIDAndUser(ctx, id, "intruder")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, repo.DeleteByIDAndUser(ctx, id, "intruder"), ErrNotFound)
	title := "Stolen"
	require.ErrorIs(t, repo.UpdateMeta(ctx, id, "intruder", &title, nil), ErrNotFound)

	// still intact for the owner
	got, err := repo.GetByIDAndUser(ctx, id, "owner")
	require.NoError(t, err)
	require.Equal(t, "Private", got.Title)
}

func TestMemoryRepo_ListByUserPaginatedNewestFirst(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := repo.Create(ctx, &document.Document{UserID: "u1", Title: "doc"})
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}
	_, err := repo.Create(ctx, &document.Document{UserID: "u2", Title: "other"})
	require.NoError(t, err)

	page0, total, err := repo.ListByUser(ctx, "u1", 0, 3)
	require.NoError(t, err)
	require.EqualValues(t, 5, total)
	require.Len(t, page0, 3)

	page1, _, err := repo.ListByUser(ctx, "u1", 1, 3)
	require.NoError(t, err)
	require.Len(t, page1, 2)

	// newest first
	require.True(t, page0[0].CreatedAt.After(page0[2].CreatedAt))
	require.True(t, page0[2].CreatedAt.After(page1[1].CreatedAt))

	empty, _, err := repo.ListByUser(ctx, "u1", 5, 3)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestMemoryRepo_SummaryLifecycle(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	id, err := repo.Create(ctx, &document.Document{UserID: "u1", Title: "doc"})
	require.NoError(t, err)

	sum, err := repo.GetSummary(ctx, id)
	require.NoError(t, err)
	require.Nil(t, sum)

	require.NoError(t, repo.SaveSummary(ctx, &document.Summary{
		DocumentID:   id,
		PlainSummary: "short version",
		GeneratedAt:  time.Now().UTC(),
	}))

	sum, err = repo.GetSummary(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, sum)
	require.Equal(t, "short version", sum.PlainSummary)

	// delete removes the summary too
	require.NoError(t, repo.DeleteByIDAndUser(ctx, id, "u1"))
	sum, err = repo.GetSummary(ctx, id)
	require.NoError(t, err)
	require.Nil(t, sum)
}
