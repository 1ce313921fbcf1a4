package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/reqforge/reqforge/internal/apperrors"
	"github.com/reqforge/reqforge/internal/brd"
	"github.com/reqforge/reqforge/internal/brd/repository"
	"github.com/reqforge/reqforge/internal/eventbus"
	"github.com/reqforge/reqforge/internal/locks"
	"github.com/stretchr/testify/require"
)

// fakeGenerator persists a fixed set of stories and counts invocations.
type fakeGenerator struct {
	stories repository.StoryRepository
	calls   int64
}

func (f *fakeGenerator) GenerateUserStories(ctx context.Context, brdID, goals, features string) ([]*brd.UserStory, error) {
	atomic.AddInt64(&f.calls, 1)
	out := []*brd.UserStory{}
	for _, content := range []string{"story one", "story two", "story three"} {
		st := &brd.UserStory{BRDID: brdID, Content: content}
		if _, err := f.stories.Create(ctx, st); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

func newTestService(t *testing.T) (*Service, *repository.MemoryStore, *fakeGenerator) {
	t.Helper()
	mem := repository.NewMemoryStore()
	gen := &fakeGenerator{stories: mem.Stories()}
	svc := New(mem.BRDs(), mem.Comments(), mem.Stories(), gen, eventbus.NewBus(), locks.NewMemoryLocker())
	return svc, mem, gen
}

func seedBRD(t *testing.T, mem *repository.MemoryStore) string {
	t.Helper()
	id, err := mem.BRDs().Create(context.Background(), &brd.BRD{
		ProductName: "Widget",
		Goals:       "grow revenue",
		Features:    "sharing",
		Content:     "Summary Do X",
	})
	require.NoError(t, err)
	return id
}

func TestGetBRD_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.GetBRD(context.Background(), "missing")
	require.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestUpdateBRD_Overwrites(t *testing.T) {
	svc, mem, _ := newTestService(t)
	id := seedBRD(t, mem)

	got, err := svc.UpdateBRD(context.Background(), id, brd.UpdateBRD{
		ProductName: "Widget 2",
		Goals:       "expand",
		Content:     "rewritten",
	})
	require.NoError(t, err)
	require.Equal(t, "Widget 2", got.ProductName)
	require.Equal(t, "rewritten", got.Content)
	// untouched request fields clear the stored value; edits are full overwrites
	require.Equal(t, "", got.Features)
}

func TestAddComment_RequiresExistingBRD(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.AddComment(context.Background(), "missing", "hi", "a@example.com")
	require.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestComment_OwnershipEnforced(t *testing.T) {
	svc, mem, _ := newTestService(t)
	id := seedBRD(t, mem)
	ctx := context.Background()

	c, err := svc.AddComment(ctx, id, "looks good", "author@example.com")
	require.NoError(t, err)

	_, err = svc.UpdateComment(ctx, c.ID, "edited", "other@example.com")
	require.True(t, apperrors.IsKind(err, apperrors.KindForbidden))

	err = svc.DeleteComment(ctx, c.ID, "other@example.com")
	require.True(t, apperrors.IsKind(err, apperrors.KindForbidden))

	// the author can do both
	upd, err := svc.UpdateComment(ctx, c.ID, "edited", "author@example.com")
	require.NoError(t, err)
	require.Equal(t, "edited", upd.Content)
	require.NoError(t, svc.DeleteComment(ctx, c.ID, "author@example.com"))

	list, err := svc.ListComments(ctx, id)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestEnsureStories_GeneratesOnceForEmptyList(t *testing.T) {
	svc, mem, gen := newTestService(t)
	id := seedBRD(t, mem)
	ctx := context.Background()

	out, err := svc.EnsureStories(ctx, id)
	require.NoError(t, err)
	require.Len(t, out, 3)
	require.EqualValues(t, 1, atomic.LoadInt64(&gen.calls))

	// second view sees the stored stories without another generation
	out, err = svc.EnsureStories(ctx, id)
	require.NoError(t, err)
	require.Len(t, out, 3)
	require.EqualValues(t, 1, atomic.LoadInt64(&gen.calls))
}

func TestEnsureStories_ConcurrentViewersSingleGeneration(t *testing.T) {
	svc, mem, gen := newTestService(t)
	id := seedBRD(t, mem)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.EnsureStories(context.Background(), id)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	require.EqualValues(t, 1, atomic.LoadInt64(&gen.calls))
	stored, err := mem.Stories().ListByBRD(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, stored, 3)
}

func TestEnsureStories_UnknownBRD(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.EnsureStories(context.Background(), "missing")
	require.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestStories_ManualCRUD(t *testing.T) {
	svc, mem, _ := newTestService(t)
	id := seedBRD(t, mem)
	ctx := context.Background()

	st, err := svc.AddStory(ctx, id, "As a user, I want to export")
	require.NoError(t, err)

	upd, err := svc.UpdateStory(ctx, st.ID, "As a user, I want to export as text")
	require.NoError(t, err)
	require.Equal(t, "As a user, I want to export as text", upd.Content)

	require.NoError(t, svc.DeleteStory(ctx, st.ID))
	err = svc.DeleteStory(ctx, st.ID)
	require.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	list, err := svc.ListStories(ctx, id)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestSubscribe_ReceivesMutations(t *testing.T) {
	svc, mem, _ := newTestService(t)
	id := seedBRD(t, mem)
	ctx := context.Background()

	ch, cancel := svc.Subscribe(id)
	defer cancel()

	c, err := svc.AddComment(ctx, id, "hello", "a@example.com")
	require.NoError(t, err)

	select {
	case ev := <-ch:
		require.Equal(t, eventbus.CommentCreated, ev.Type)
		require.Equal(t, c.ID, ev.ID)
		require.Equal(t, id, ev.BRDID)
	case <-time.After(time.Second):
		t.Fatal("expected a change event")
	}
}
