package repository

import (
	"context"
	"errors"

	"github.com/reqforge/reqforge/internal/brd"
)

var (
	ErrNotFound = errors.New("not found")
)

// BRDRepository persists documents in the brds collection.
type BRDRepository interface {
	Create(ctx context.Context, d *brd.BRD) (string, error)
	Get(ctx context.Context, id string) (*brd.BRD, error)
	Update(ctx context.Context, id string, upd brd.UpdateBRD) error
}

// CommentRepository persists the per-document comment subcollection.
type CommentRepository interface {
	Create(ctx context.Context, c *brd.Comment) (string, error)
	Get(ctx context.Context, id string) (*brd.Comment, error)
	ListByBRD(ctx context.Context, brdID string) ([]*brd.Comment, error)
	UpdateContent(ctx context.Context, id, content string) error
	Delete(ctx context.Context, id string) error
}

// StoryRepository persists the per-document user-story subcollection.
type StoryRepository interface {
	Create(ctx context.Context, s *brd.UserStory) (string, error)
	Get(ctx context.Context, id string) (*brd.UserStory, error)
	ListByBRD(ctx context.Context, brdID string) ([]*brd.UserStory, error)
	UpdateContent(ctx context.Context, id, content string) error
	Delete(ctx context.Context, id string) error
}
