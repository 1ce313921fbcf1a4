package service

import (
	"context"
	"strings"
	"time"

	"github.com/reqforge/reqforge/internal/apperrors"
	"github.com/reqforge/reqforge/internal/brd"
	"github.com/reqforge/reqforge/internal/brd/repository"
	"github.com/reqforge/reqforge/internal/eventbus"
	"github.com/reqforge/reqforge/internal/locks"
	"github.com/reqforge/reqforge/pkg/logger"
)

// storyGenLockTTL bounds how long a crashed generation run can hold a
// document's populate lock.
const storyGenLockTTL = 30 * time.Second

// StoryGenerator is the slice of the generation gateway this service needs.
type StoryGenerator interface {
	GenerateUserStories(ctx context.Context, brdID, goals, features string) ([]*brd.UserStory, error)
}

// Service is the collaboration workflow: document read and overwrite-edit,
// the comment and user-story subcollections, and the ensure-populated story
// trigger. Reads need no identity; every mutation takes the acting
// identity's email.
type Service struct {
	brds     repository.BRDRepository
	comments repository.CommentRepository
	stories  repository.StoryRepository
	gen      StoryGenerator
	bus      *eventbus.Bus
	locker   locks.Locker
}

func New(brds repository.BRDRepository, comments repository.CommentRepository, stories repository.StoryRepository, gen StoryGenerator, bus *eventbus.Bus, locker locks.Locker) *Service {
	return &Service{brds: brds, comments: comments, stories: stories, gen: gen, bus: bus, locker: locker}
}

func (s *Service) GetBRD(ctx context.Context, id string) (*brd.BRD, error) {
	d, err := s.brds.Get(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("BRD not found")
		}
		return nil, apperrors.Persistence("failed to fetch BRD", err)
	}
	return d, nil
}

// UpdateBRD overwrites every editable field and returns the saved document.
func (s *Service) UpdateBRD(ctx context.Context, id string, upd brd.UpdateBRD) (*brd.BRD, error) {
	if err := s.brds.Update(ctx, id, upd); err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("BRD not found")
		}
		return nil, apperrors.Persistence("failed to update BRD", err)
	}
	return s.GetBRD(ctx, id)
}

func (s *Service) ListComments(ctx context.Context, brdID string) ([]*brd.Comment, error) {
	out, err := s.comments.ListByBRD(ctx, brdID)
	if err != nil {
		return nil, apperrors.Persistence("failed to list comments", err)
	}
	return out, nil
}

// AddComment creates a comment authored by the acting identity. The target
// document must exist at creation time; it is never re-validated later.
func (s *Service) AddComment(ctx context.Context, brdID, content, createdBy string) (*brd.Comment, error) {
	if strings.TrimSpace(brdID) == "" || strings.TrimSpace(content) == "" || createdBy == "" {
		return nil, apperrors.Validation("missing required fields")
	}
	if _, err := s.GetBRD(ctx, brdID); err != nil {
		return nil, err
	}
	c := &brd.Comment{BRDID: brdID, Content: content, CreatedBy: createdBy}
	if _, err := s.comments.Create(ctx, c); err != nil {
		return nil, apperrors.Persistence("failed to add comment", err)
	}
	s.bus.Publish(eventbus.Change{Type: eventbus.CommentCreated, BRDID: brdID, ID: c.ID, Payload: c})
	return c, nil
}

// UpdateComment rewrites a comment's content. Only the author may edit.
func (s *Service) UpdateComment(ctx context.Context, id, content, actor string) (*brd.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.Validation("missing comment content")
	}
	c, err := s.comments.Get(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("comment not found")
		}
		return nil, apperrors.Persistence("failed to fetch comment", err)
	}
	if c.CreatedBy != actor {
		return nil, apperrors.Forbidden("only the comment author may edit it")
	}
	if err := s.comments.UpdateContent(ctx, id, content); err != nil {
		return nil, apperrors.Persistence("failed to update comment", err)
	}
	c.Content = content
	s.bus.Publish(eventbus.Change{Type: eventbus.CommentUpdated, BRDID: c.BRDID, ID: c.ID, Payload: c})
	return c, nil
}

// DeleteComment removes a comment. Only the author may delete.
func (s *Service) DeleteComment(ctx context.Context, id, actor string) error {
	c, err := s.comments.Get(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return apperrors.NotFound("comment not found")
		}
		return apperrors.Persistence("failed to fetch comment", err)
	}
	if c.CreatedBy != actor {
		return apperrors.Forbidden("only the comment author may delete it")
	}
	if err := s.comments.Delete(ctx, id); err != nil {
		return apperrors.Persistence("failed to delete comment", err)
	}
	s.bus.Publish(eventbus.Change{Type: eventbus.CommentDeleted, BRDID: c.BRDID, ID: c.ID})
	return nil
}

func (s *Service) ListStories(ctx context.Context, brdID string) ([]*brd.UserStory, error) {
	out, err := s.stories.ListByBRD(ctx, brdID)
	if err != nil {
		return nil, apperrors.Persistence("failed to list user stories", err)
	}
	return out, nil
}

// EnsureStories returns the document's stories, generating them first when
// the list is empty. The per-document lock keeps two concurrent viewers of
// an empty list from both triggering generation; the loser of the race just
// returns whatever is visible and lets the event feed deliver the rest.
func (s *Service) EnsureStories(ctx context.Context, brdID string) ([]*brd.UserStory, error) {
	existing, err := s.ListStories(ctx, brdID)
	if err != nil || len(existing) > 0 {
		return existing, err
	}

	d, err := s.GetBRD(ctx, brdID)
	if err != nil {
		return nil, err
	}

	unlock, ok, err := s.locker.TryLock(ctx, "storygen:"+brdID, storyGenLockTTL)
	if err != nil {
		return nil, apperrors.Persistence("failed to acquire story lock", err)
	}
	if !ok {
		logger.Debugf("story generation already in flight for brd %s", brdID)
		return s.ListStories(ctx, brdID)
	}
	defer func() { _ = unlock(ctx) }()

	// re-check under the lock; another holder may have just populated
	existing, err = s.ListStories(ctx, brdID)
	if err != nil || len(existing) > 0 {
		return existing, err
	}

	// the generator publishes a story.created event per record it persists
	return s.gen.GenerateUserStories(ctx, brdID, d.Goals, d.Features)
}

// AddStory creates a single user story by hand.
func (s *Service) AddStory(ctx context.Context, brdID, content string) (*brd.UserStory, error) {
	if strings.TrimSpace(brdID) == "" || strings.TrimSpace(content) == "" {
		return nil, apperrors.Validation("missing required fields")
	}
	if _, err := s.GetBRD(ctx, brdID); err != nil {
		return nil, err
	}
	st := &brd.UserStory{BRDID: brdID, Content: content}
	if _, err := s.stories.Create(ctx, st); err != nil {
		return nil, apperrors.Persistence("failed to add user story", err)
	}
	s.bus.Publish(eventbus.Change{Type: eventbus.StoryCreated, BRDID: brdID, ID: st.ID, Payload: st})
	return st, nil
}

// UpdateStory rewrites a story's content. Any signed-in user may edit.
func (s *Service) UpdateStory(ctx context.Context, id, content string) (*brd.UserStory, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.Validation("missing story content")
	}
	st, err := s.stories.Get(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("user story not found")
		}
		return nil, apperrors.Persistence("failed to fetch user story", err)
	}
	if err := s.stories.UpdateContent(ctx, id, content); err != nil {
		return nil, apperrors.Persistence("failed to update user story", err)
	}
	st.Content = content
	s.bus.Publish(eventbus.Change{Type: eventbus.StoryUpdated, BRDID: st.BRDID, ID: st.ID, Payload: st})
	return st, nil
}

// DeleteStory removes a story. Any signed-in user may delete.
func (s *Service) DeleteStory(ctx context.Context, id string) error {
	st, err := s.stories.Get(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return apperrors.NotFound("user story not found")
		}
		return apperrors.Persistence("failed to fetch user story", err)
	}
	if err := s.stories.Delete(ctx, id); err != nil {
		return apperrors.Persistence("failed to delete user story", err)
	}
	s.bus.Publish(eventbus.Change{Type: eventbus.StoryDeleted, BRDID: st.BRDID, ID: st.ID})
	return nil
}

// Subscribe exposes the document's change feed; the cancel func ends it.
func (s *Service) Subscribe(brdID string) (<-chan eventbus.Change, func()) {
	return s.bus.Subscribe(brdID)
}
