package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/reqforge/reqforge/internal/brd"
)

// MemoryStore holds all three collections behind one lock. Used by unit
// tests and dependency-free runs; behavior mirrors the Mongo repositories.
type MemoryStore struct {
	mu       sync.RWMutex
	brds     map[string]*brd.BRD
	comments map[string]*brd.Comment
	stories  map[string]*brd.UserStory
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		brds:     make(map[string]*brd.BRD),
		comments: make(map[string]*brd.Comment),
		stories:  make(map[string]*brd.UserStory),
	}
}

// BRDs returns the store viewed as a BRDRepository.
func (m *MemoryStore) BRDs() BRDRepository         { return (*memoryBRDRepo)(m) }
func (m *MemoryStore) Comments() CommentRepository { return (*memoryCommentRepo)(m) }
func (m *MemoryStore) Stories() StoryRepository    { return (*memoryStoryRepo)(m) }

type memoryBRDRepo MemoryStore

func (m *memoryBRDRepo) Create(ctx context.Context, d *brd.BRD) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d.CreatedAt = time.Now().UTC()
	d.UpdatedAt = d.CreatedAt
	cp := *d
	m.brds[d.ID] = &cp
	return d.ID, nil
}

func (m *memoryBRDRepo) Get(ctx context.Context, id string) (*brd.BRD, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.brds[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *memoryBRDRepo) Update(ctx context.Context, id string, upd brd.UpdateBRD) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.brds[id]
	if !ok {
		return ErrNotFound
	}
	d.ProductName = upd.ProductName
	d.Goals = upd.Goals
	d.Features = upd.Features
	d.Content = upd.Content
	d.UpdatedAt = time.Now().UTC()
	return nil
}

type memoryCommentRepo MemoryStore

func (m *memoryCommentRepo) Create(ctx context.Context, c *brd.Comment) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = time.Now().UTC()
	cp := *c
	m.comments[c.ID] = &cp
	return c.ID, nil
}

func (m *memoryCommentRepo) Get(ctx context.Context, id string) (*brd.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.comments[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *memoryCommentRepo) ListByBRD(ctx context.Context, brdID string) ([]*brd.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*brd.Comment{}
	for _, c := range m.comments {
		if c.BRDID == brdID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryCommentRepo) UpdateContent(ctx context.Context, id, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[id]
	if !ok {
		return ErrNotFound
	}
	c.Content = content
	return nil
}

func (m *memoryCommentRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.comments[id]; !ok {
		return ErrNotFound
	}
	delete(m.comments, id)
	return nil
}

type memoryStoryRepo MemoryStore

func (m *memoryStoryRepo) Create(ctx context.Context, s *brd.UserStory) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.CreatedAt = time.Now().UTC()
	cp := *s
	m.stories[s.ID] = &cp
	return s.ID, nil
}

func (m *memoryStoryRepo) Get(ctx context.Context, id string) (*brd.UserStory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.stories[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *memoryStoryRepo) ListByBRD(ctx context.Context, brdID string) ([]*brd.UserStory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*brd.UserStory{}
	for _, s := range m.stories {
		if s.BRDID == brdID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryStoryRepo) UpdateContent(ctx context.Context, id, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stories[id]
	if !ok {
		return ErrNotFound
	}
	s.Content = content
	return nil
}

func (m *memoryStoryRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.stories[id]; !ok {
		return ErrNotFound
	}
	delete(m.stories, id)
	return nil
}
