package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/voting-app/votingapp/internal/entity"
	"github.com/voting-app/votingapp/internal/lib/jwt"
)

// IdentityKey is the gin context key holding the authenticated username.
const IdentityKey = "username"

type AuthMiddleware struct {
	userProvider UserProvider
	tokenSecret  []byte
}

type UserProvider interface {
	User(ctx context.Context, username string) (entity.User, error)
}

func NewAuthMiddleware(userProvider UserProvider, tokenSecret []byte) *AuthMiddleware {
	return &AuthMiddleware{userProvider: userProvider, tokenSecret: tokenSecret}
}

// Identity establishes the caller's identity from the bearer token, if any.
// It never rejects a request: a missing, malformed, expired or unresolvable
// token just leaves the request unauthenticated and RequireAuth decides per
// route. Identity already set earlier in the chain is left untouched.
func (m *AuthMiddleware) Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(IdentityKey); exists {
			c.Next()
			return
		}

		tokenString := extractTokenFromHeader(c.GetHeader("Authorization"))
		if tokenString == "" {
			c.Next()
			return
		}

		subject, err := jwt.ExtractUsername(tokenString)
		if err != nil {
			c.Next()
			return
		}

		user, err := m.userProvider.User(c.Request.Context(), subject)
		if err != nil {
			c.Next()
			return
		}

		username, err := jwt.Verify(tokenString, m.tokenSecret)
		if err != nil || username != user.Username {
			c.Next()
			return
		}

		c.Set(IdentityKey, user.Username)
		c.Next()
	}
}

// RequireAuth rejects requests that carry no established identity.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(IdentityKey); !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

// Username returns the authenticated username set by Identity.
func Username(c *gin.Context) (string, bool) {
	value, exists := c.Get(IdentityKey)
	if !exists {
		return "", false
	}
	username, ok := value.(string)
	return username, ok && username != ""
}

func extractTokenFromHeader(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
