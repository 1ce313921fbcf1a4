package repository

import (
	"context"
	"testing"

	"github.com/reqforge/reqforge/internal/brd"
	"github.com/stretchr/testify/require"
)

func TestMemoryBRDRepo_CRUD(t *testing.T) {
	mem := NewMemoryStore()
	repo := mem.BRDs()
	ctx := context.Background()

	id, err := repo.Create(ctx, &brd.BRD{ProductName: "Widget", Goals: "grow", Content: "text"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Widget", got.ProductName)
	require.False(t, got.CreatedAt.IsZero())

	// mutating the returned copy must not leak into the store
	got.ProductName = "changed"
	again, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Widget", again.ProductName)

	require.NoError(t, repo.Update(ctx, id, brd.UpdateBRD{ProductName: "Widget 2", Goals: "expand", Content: "new"}))
	got, err = repo.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Widget 2", got.ProductName)
	require.True(t, got.UpdatedAt.After(got.CreatedAt) || got.UpdatedAt.Equal(got.CreatedAt))

	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, repo.Update(ctx, "missing", brd.UpdateBRD{}), ErrNotFound)
}

func TestMemoryCommentRepo_ListIsOrderedAndScoped(t *testing.T) {
	mem := NewMemoryStore()
	repo := mem.Comments()
	ctx := context.Background()

	_, err := repo.Create(ctx, &brd.Comment{BRDID: "brd-1", Content: "first", CreatedBy: "a@example.com"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &brd.Comment{BRDID: "brd-1", Content: "second", CreatedBy: "b@example.com"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &brd.Comment{BRDID: "brd-2", Content: "elsewhere", CreatedBy: "a@example.com"})
	require.NoError(t, err)

	list, err := repo.ListByBRD(ctx, "brd-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "first", list[0].Content)
	require.Equal(t, "second", list[1].Content)

	empty, err := repo.ListByBRD(ctx, "brd-3")
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestMemoryStoryRepo_UpdateAndDelete(t *testing.T) {
	mem := NewMemoryStore()
	repo := mem.Stories()
	ctx := context.Background()

	id, err := repo.Create(ctx, &brd.UserStory{BRDID: "brd-1", Content: "As a user..."})
	require.NoError(t, err)

	require.NoError(t, repo.UpdateContent(ctx, id, "As an admin..."))
	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "As an admin...", got.Content)

	require.NoError(t, repo.Delete(ctx, id))
	_, err = repo.Get(ctx, id)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, repo.Delete(ctx, id), ErrNotFound)
	require.ErrorIs(t, repo.UpdateContent(ctx, id, "x"), ErrNotFound)
}
