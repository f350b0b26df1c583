package auth

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
)

type contextKey string

const userContextKey contextKey = "filestoreUser"

// ContextUser represents the authenticated principal stored in the request context.
type ContextUser struct {
	ID    int64
	Email string
}

// TokenValidator turns a bearer token into claims.
type TokenValidator interface {
	ValidateAccessToken(token string) (UserClaims, error)
}

// UserLookup resolves the subject of a token to a stored user.
type UserLookup func(ctx context.Context, email string) (User, error)

// AuthMiddleware validates bearer tokens, loads the user and injects it.
func AuthMiddleware(tokens TokenValidator, lookup UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(401, gin.H{"error": "missing authorization header"})
			return
		}

		token := extractBearerToken(authHeader)
		if token == "" {
			c.AbortWithStatusJSON(401, gin.H{"error": "invalid authorization header"})
			return
		}

		claims, err := tokens.ValidateAccessToken(token)
		if err != nil {
			c.AbortWithStatusJSON(401, gin.H{"error": "invalid or expired token"})
			return
		}

		user, err := lookup(c.Request.Context(), claims.Email)
		if err != nil {
			c.AbortWithStatusJSON(401, gin.H{"error": "invalid credentials"})
			return
		}

		c.Set(string(userContextKey), ContextUser{
			ID:    user.ID,
			Email: user.Email,
		})

		c.Next()
	}
}

// CurrentUser extracts the authenticated user from the context.
func CurrentUser(c *gin.Context) (ContextUser, bool) {
	value, exists := c.Get(string(userContextKey))
	if !exists {
		return ContextUser{}, false
	}
	user, ok := value.(ContextUser)
	return user, ok
}

func extractBearerToken(header string) string {
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
