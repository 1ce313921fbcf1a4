package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/reqforge/reqforge/internal/apperrors"
	"github.com/reqforge/reqforge/internal/brd"
	"github.com/reqforge/reqforge/internal/brd/repository"
	"github.com/reqforge/reqforge/internal/eventbus"
)

const brdSystemPrompt = "You are a helpful assistant specialized in writing BRDs."

const storySystemPrompt = "You are an expert in writing user stories for software products."

// markupRunes is the set of markdown punctuation removed from model replies
// before a document is persisted.
const markupRunes = "#*`_~>"

// GenerateRequest is the input for BRD generation. ProductName and Goals
// are required; Features is free-form and optional.
type GenerateRequest struct {
	ProductName string `json:"productName"`
	Goals       string `json:"goals"`
	Features    string `json:"features"`
}

// Service is the generation gateway: prompt construction, the upstream
// call, reply cleanup, and persistence of the result. Story creation is
// announced on the event bus so live feeds see generated records the same
// way they see manual ones.
type Service struct {
	client  *Client
	brds    repository.BRDRepository
	stories repository.StoryRepository
	bus     *eventbus.Bus
}

func NewService(client *Client, brds repository.BRDRepository, stories repository.StoryRepository, bus *eventbus.Bus) *Service {
	return &Service{client: client, brds: brds, stories: stories, bus: bus}
}

// GenerateBRD produces and persists a new document. The stored content is
// plain text: markup punctuation is stripped and whitespace collapsed.
func (s *Service) GenerateBRD(ctx context.Context, req GenerateRequest) (*brd.BRD, error) {
	if strings.TrimSpace(req.ProductName) == "" || strings.TrimSpace(req.Goals) == "" {
		return nil, apperrors.Validation("missing required fields: productName or goals")
	}

	reply, err := s.client.Complete(ctx, brdSystemPrompt, buildBRDPrompt(req))
	if err != nil {
		return nil, err
	}

	doc := &brd.BRD{
		ProductName: req.ProductName,
		Goals:       req.Goals,
		Features:    req.Features,
		Content:     CleanReply(reply),
	}
	if _, err := s.brds.Create(ctx, doc); err != nil {
		return nil, apperrors.Persistence("failed to store generated document", err)
	}
	return doc, nil
}

// GenerateUserStories derives three stories for an existing document and
// persists each one. All created records are returned in reply order.
func (s *Service) GenerateUserStories(ctx context.Context, brdID, goals, features string) ([]*brd.UserStory, error) {
	if strings.TrimSpace(brdID) == "" || strings.TrimSpace(goals) == "" {
		return nil, apperrors.Validation("missing required fields: brdId or goals")
	}

	reply, err := s.client.Complete(ctx, storySystemPrompt, buildStoryPrompt(goals, features))
	if err != nil {
		return nil, err
	}

	lines := SplitStories(reply)
	if len(lines) == 0 {
		return nil, apperrors.Upstream("completion contained no stories", nil)
	}

	out := make([]*brd.UserStory, 0, len(lines))
	for _, line := range lines {
		st := &brd.UserStory{BRDID: brdID, Content: line}
		if _, err := s.stories.Create(ctx, st); err != nil {
			return nil, apperrors.Persistence("failed to store user story", err)
		}
		s.bus.Publish(eventbus.Change{Type: eventbus.StoryCreated, BRDID: brdID, ID: st.ID, Payload: st})
		out = append(out, st)
	}
	return out, nil
}

func buildBRDPrompt(req GenerateRequest) string {
	features := req.Features
	if features == "" {
		features = "No specific features provided"
	}
	return fmt.Sprintf(`Generate a Business Requirements Document (BRD) based on the following details:
- Product Name: %s
- Goals: %s
- Features: %s

The BRD should include:
1. An executive summary.
2. Key objectives.
3. Functional requirements.
4. High-level project risks or assumptions.
Make the document concise, professional, and tailored for a technical and business audience.`, req.ProductName, req.Goals, features)
}

func buildStoryPrompt(goals, features string) string {
	if features == "" {
		features = "No specific features provided"
	}
	return fmt.Sprintf(`Generate user stories for a product based on the following details:
- Goals: %s
- Features: %s

Each user story should follow this format:
"As a [type of user], I want to [perform some action] so that [achieve a goal]."

Generate 3 concise user stories.`, goals, features)
}

// CleanReply strips markup punctuation from a model reply and collapses all
// whitespace runs (including newlines) to single spaces.
func CleanReply(reply string) string {
	stripped := strings.Map(func(r rune) rune {
		if strings.ContainsRune(markupRunes, r) {
			return -1
		}
		return r
	}, reply)
	return strings.Join(strings.Fields(stripped), " ")
}

// SplitStories breaks a reply into individual story lines: non-empty trimmed
// lines with markup punctuation removed, capped at the three the prompt
// asks for.
func SplitStories(reply string) []string {
	out := []string{}
	for _, line := range strings.Split(reply, "\n") {
		cleaned := CleanReply(line)
		if cleaned == "" {
			continue
		}
		out = append(out, cleaned)
		if len(out) == 3 {
			break
		}
	}
	return out
}
