package eventbus

import (
	"sync"
	"sync/atomic"
)

// ChangeType identifies what happened to a subcollection record.
type ChangeType string

const (
	CommentCreated ChangeType = "comment.created"
	CommentUpdated ChangeType = "comment.updated"
	CommentDeleted ChangeType = "comment.deleted"
	StoryCreated   ChangeType = "story.created"
	StoryUpdated   ChangeType = "story.updated"
	StoryDeleted   ChangeType = "story.deleted"
)

// Change is one snapshot delta for a document's subcollections.
type Change struct {
	Type    ChangeType  `json:"type"`
	BRDID   string      `json:"brdId"`
	ID      string      `json:"id"`
	Payload interface{} `json:"payload,omitempty"`
}

// Bus is an in-process publish/subscribe hub, fanned out per document id.
// Subscribers receive deltas on a buffered channel; a slow subscriber drops
// deltas rather than blocking publishers.
type Bus struct {
	mu      sync.RWMutex
	subs    map[string]map[uint64]chan Change
	counter uint64
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[uint64]chan Change)}
}

// Subscribe registers interest in one document's changes. The returned
// cancel func drops the subscription and closes the channel; dropping the
// handle is the only cancellation there is.
func (b *Bus) Subscribe(brdID string) (<-chan Change, func()) {
	id := atomic.AddUint64(&b.counter, 1)
	ch := make(chan Change, 16)
	b.mu.Lock()
	if b.subs[brdID] == nil {
		b.subs[brdID] = make(map[uint64]chan Change)
	}
	b.subs[brdID][id] = ch
	b.mu.Unlock()
	return ch, func() {
		b.mu.Lock()
		if m, ok := b.subs[brdID]; ok {
			if c, ok := m[id]; ok {
				delete(m, id)
				close(c)
			}
			if len(m) == 0 {
				delete(b.subs, brdID)
			}
		}
		b.mu.Unlock()
	}
}

// Publish delivers the change to every live subscriber of its document.
func (b *Bus) Publish(ev Change) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs[ev.BRDID] {
		select {
		case ch <- ev:
		default:
		}
	}
}
