package tokens

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/reqforge/reqforge/internal/config"
	"github.com/reqforge/reqforge/pkg/middleware"
)

// AccessVerifier validates the HS256 access tokens this service issues. It
// satisfies the middleware Verifier interface so protected routes accept
// first-party tokens.
type AccessVerifier struct {
	secret []byte
}

func NewAccessVerifier(cfg *config.Config) *AccessVerifier {
	return &AccessVerifier{secret: []byte(cfg.JWT.Secret)}
}

type accessToken struct {
	claims jwt.MapClaims
}

func (t *accessToken) Claims(v interface{}) error {
	m, ok := v.(*map[string]interface{})
	if !ok {
		return fmt.Errorf("unsupported claims target %T", v)
	}
	out := make(map[string]interface{}, len(t.claims))
	for k, val := range t.claims {
		out[k] = val
	}
	*m = out
	return nil
}

func (v *AccessVerifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	parsed, err := jwt.Parse(raw, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", tok.Method.Alg())
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return &accessToken{claims: claims}, nil
}
