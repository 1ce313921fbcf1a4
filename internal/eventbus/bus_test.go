package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPublishReachesSubscriber(t *testing.T) {
	b := NewBus()
	ch, cancel := b.Subscribe("brd-1")
	defer cancel()

	b.Publish(Change{Type: CommentCreated, BRDID: "brd-1", ID: "c1"})

	select {
	case ev := <-ch:
		require.Equal(t, CommentCreated, ev.Type)
		require.Equal(t, "c1", ev.ID)
	case <-time.After(time.Second):
		t.Fatal("expected event")
	}
}

func TestSubscriptionsAreScopedToDocument(t *testing.T) {
	b := NewBus()
	ch, cancel := b.Subscribe("brd-1")
	defer cancel()

	b.Publish(Change{Type: StoryCreated, BRDID: "brd-2", ID: "s1"})

	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCancelClosesChannel(t *testing.T) {
	b := NewBus()
	ch, cancel := b.Subscribe("brd-1")
	cancel()

	_, open := <-ch
	require.False(t, open)

	// publishing after cancel must not panic
	b.Publish(Change{Type: CommentDeleted, BRDID: "brd-1", ID: "c1"})

	// cancel is idempotent
	cancel()
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	b := NewBus()
	ch, cancel := b.Subscribe("brd-1")
	defer cancel()

	// overflow the buffer; Publish must never block
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Publish(Change{Type: StoryUpdated, BRDID: "brd-1", ID: "s"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	require.NotEmpty(t, ch)
}
