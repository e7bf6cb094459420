package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/campusconecto/campusconecto/backend/api/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware.
const (
	ClaimsKey      = "claims"
	UserIDKey      = "userID"
	AccessTokenKey = "accessToken"
)

// Token is minimal interface for a verified token that can expose claims
type Token interface {
	Claims(v interface{}) error
}

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

// Revocations reports access tokens revoked before their expiry.
type Revocations interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header, returning "" when absent or malformed.
func BearerToken(r *http.Request) string {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(auth) < 7 || !strings.EqualFold(auth[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(auth[7:])
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": msg})
}

// AuthMiddleware returns a Gin middleware that verifies Bearer tokens using
// the provided verifier and rejects revoked tokens. revoked may be nil.
func AuthMiddleware(ver Verifier, revoked Revocations) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			unauthorized(c, "Not authorized, no token")
			return
		}
		token := BearerToken(c.Request)
		if token == "" {
			unauthorized(c, "Not authorized, invalid Authorization header")
			return
		}

		if revoked != nil {
			isRevoked, err := revoked.IsRevoked(c.Request.Context(), token)
			if err != nil {
				logger.Warnf("token blacklist lookup failed: %v", err)
			}
			if isRevoked {
				unauthorized(c, "Not authorized, token revoked")
				return
			}
		}

		verified, err := ver.Verify(c.Request.Context(), token)
		if err != nil {
			logger.Debugf("token verification failed: %v", err)
			unauthorized(c, "Not authorized, token failed")
			return
		}

		var claims map[string]interface{}
		if err := verified.Claims(&claims); err != nil {
			unauthorized(c, "Not authorized, token failed")
			return
		}
		id := Subject(claims)
		if id == "" {
			unauthorized(c, "Not authorized, token has no subject")
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(UserIDKey, id)
		c.Set(AccessTokenKey, token)
		c.Next()
	}
}

func claimString(claims map[string]interface{}, name string) string {
	s, _ := claims[name].(string)
	return s
}

// Subject returns the user id carried by claims: "id", falling back to "sub".
func Subject(claims map[string]interface{}) string {
	if id := claimString(claims, "id"); id != "" {
		return id
	}
	return claimString(claims, "sub")
}

// UserID returns the authenticated user id set by AuthMiddleware.
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

// AccessToken returns the raw bearer token accepted by AuthMiddleware.
func AccessToken(c *gin.Context) string {
	return c.GetString(AccessTokenKey)
}
