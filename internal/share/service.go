package share

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"strings"

	"github.com/reqforge/reqforge/internal/apperrors"
	"github.com/reqforge/reqforge/pkg/metrics"
	"golang.org/x/crypto/bcrypt"
)

// shareIDBytes gives 12 URL-safe characters, in line with the entropy of
// the usual short-link generators.
const shareIDBytes = 9

// Service is the share registry: it mints opaque tokens for documents and
// resolves them back. Passwords are hashed at rest and never checked on
// resolution; any holder of the link can resolve it. VerifyPassword exists
// for callers that want to gate on it.
type Service struct {
	repo    Repository
	baseURL string
}

func NewService(repo Repository, publicBaseURL string) *Service {
	return &Service{repo: repo, baseURL: strings.TrimRight(publicBaseURL, "/")}
}

// Create mints a new token for the document and returns the shareable link
// along with the stored record. Both arguments are required.
func (s *Service) Create(ctx context.Context, brdID, password string) (string, *Token, error) {
	if strings.TrimSpace(brdID) == "" || password == "" {
		return "", nil, apperrors.Validation("missing required fields: brdId or password")
	}

	shareID, err := newShareID()
	if err != nil {
		return "", nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, err
	}

	t := &Token{ShareID: shareID, BRDID: brdID, PasswordHash: hash}
	if err := s.repo.Create(ctx, t); err != nil {
		return "", nil, apperrors.Persistence("failed to store share token", err)
	}
	return s.baseURL + "/share/" + shareID, t, nil
}

// Resolve looks the token up by its share id.
func (s *Service) Resolve(ctx context.Context, shareID string) (*Token, error) {
	if strings.TrimSpace(shareID) == "" {
		return nil, apperrors.Validation("missing share ID")
	}
	t, err := s.repo.GetByShareID(ctx, shareID)
	if err != nil {
		if err == ErrNotFound {
			metrics.ShareResolutions.WithLabelValues("miss").Inc()
			return nil, apperrors.NotFound("shared BRD not found")
		}
		return nil, apperrors.Persistence("failed to fetch share token", err)
	}
	metrics.ShareResolutions.WithLabelValues("hit").Inc()
	return t, nil
}

// VerifyPassword reports whether the supplied password matches the one the
// token was created with.
func (s *Service) VerifyPassword(t *Token, password string) bool {
	return bcrypt.CompareHashAndPassword(t.PasswordHash, []byte(password)) == nil
}

func newShareID() (string, error) {
	b := make([]byte, shareIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
