package handlers

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reqforge/reqforge/internal/config"
	"github.com/reqforge/reqforge/internal/sessions"
	"github.com/reqforge/reqforge/internal/tokens"
	"github.com/reqforge/reqforge/internal/users"
	"github.com/reqforge/reqforge/pkg/logger"
	"github.com/reqforge/reqforge/pkg/middleware"
)

// LoginRequest carries the ID token minted by the identity provider. The
// frontend completes the OIDC flow itself and exchanges the resulting token
// here for a first-party session.
type LoginRequest struct {
	IDToken string `json:"idToken" binding:"required"`
}

// AuthHandler holds dependencies
type AuthHandler struct {
	cfg         *config.Config
	usersSvc    *users.Service
	sessionsSvc *sessions.Service
	verifier    middleware.Verifier
}

func NewAuthHandler(cfg *config.Config, u *users.Service, s *sessions.Service, v middleware.Verifier) *AuthHandler {
	return &AuthHandler{cfg: cfg, usersSvc: u, sessionsSvc: s, verifier: v}
}

// Register routes under /auth
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/auth")
	a.POST("/login", h.Login)
	a.POST("/refresh", h.Refresh)
	a.POST("/logout", h.Logout)
}

// Login verifies the provider ID token, upserts the user record and issues
// an access token plus a refresh session.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tok, err := h.verifier.Verify(c.Request.Context(), req.IDToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid id token"})
		return
	}
	var claims map[string]interface{}
	if err := tok.Claims(&claims); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid id token"})
		return
	}

	u, err := h.usersSvc.UpsertFromClaims(c.Request.Context(), claims)
	if err != nil {
		logger.Errorf("user upsert error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user upsert failed"})
		return
	}
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "id token has no subject"})
		return
	}

	rft, err := h.sessionsSvc.CreateSession(c.Request.Context(), u.Sub, u.Email, h.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		logger.Errorf("failed to create session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	access, err := tokens.GenerateAccessToken(h.cfg, u, h.cfg.JWT.AccessTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create access token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"accessToken":  access,
		"refreshToken": rft,
		"user":         u,
		"expiresIn":    int(h.cfg.JWT.AccessTokenTTL.Seconds()),
	})
}

// Refresh accepts a refresh token and returns a new access token
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, err := h.sessionsSvc.ValidateRefresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "validation failed"})
		return
	}
	if sess == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	u, err := h.usersSvc.GetBySub(c.Request.Context(), sess.Sub)
	if err != nil || u == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user lookup failed"})
		return
	}
	access, err := tokens.GenerateAccessToken(h.cfg, u, h.cfg.JWT.AccessTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create access token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"accessToken": access, "expiresIn": int(h.cfg.JWT.AccessTokenTTL.Seconds())})
}

// Logout invalidates the refresh token and, when a Bearer token accompanies
// the request, blacklists it for its remaining lifetime.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	auth := c.GetHeader("Authorization")
	if auth != "" {
		var at string
		if n, _ := fmt.Sscanf(auth, "Bearer %s", &at); n == 1 {
			if exp, err := parseExpFromJWT(at); err == nil {
				if ttl := time.Until(exp); ttl > 0 {
					if err := sessions.BlacklistAccessToken(c.Request.Context(), at, ttl); err != nil {
						c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to blacklist access token"})
						return
					}
				}
			}
		}
	}

	if err := h.sessionsSvc.DeleteRefresh(c.Request.Context(), req.RefreshToken); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// parseExpFromJWT decodes the JWT payload and returns the `exp` claim as time.Time.
// Payload-only parsing, no signature check; only used to size the blacklist TTL.
func parseExpFromJWT(tok string) (time.Time, error) {
	parts := strings.Split(tok, ".")
	if len(parts) < 2 {
		return time.Time{}, fmt.Errorf("invalid token")
	}
	b, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		b, err = base64.StdEncoding.DecodeString(parts[1])
		if err != nil {
			return time.Time{}, err
		}
	}
	var claims map[string]interface{}
	if err := json.Unmarshal(b, &claims); err != nil {
		return time.Time{}, err
	}
	v, ok := claims["exp"]
	if !ok {
		return time.Time{}, fmt.Errorf("exp claim not present")
	}
	switch vv := v.(type) {
	case float64:
		return time.Unix(int64(vv), 0), nil
	case json.Number:
		i64, err := vv.Int64()
		if err != nil {
			return time.Time{}, err
		}
		return time.Unix(i64, 0), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported exp type %T", v)
	}
}
