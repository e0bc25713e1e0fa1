package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tasklist/internal/apperror"
	"tasklist/pkg/logger"
)

const userIDKey = "userID"

type ctxKey struct{}

// TokenValidator resolves a bearer token to the user id it was issued for.
type TokenValidator interface {
	Validate(token string) (string, error)
}

// AuthMiddleware rejects requests without a valid bearer token with a uniform 401
// and otherwise attaches the token's user id to the request.
func AuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		auth := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if len(auth) < len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
			logger.Debug(ctx, "Missing or invalid Authorization header")
			abortUnauthorized(c)
			return
		}
		tokenStr := strings.TrimSpace(auth[len(prefix):])
		userID, err := tokens.Validate(tokenStr)
		if err != nil {
			logger.Debug(ctx, "Bearer token rejected", "error", err)
			abortUnauthorized(c)
			return
		}
		c.Set(userIDKey, userID)
		c.Request = c.Request.WithContext(context.WithValue(ctx, ctxKey{}, userID))
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": apperror.ErrUnauthorized.Message()})
}

// UserID returns the authenticated user id set by AuthMiddleware.
func UserID(c *gin.Context) (string, bool) {
	id := c.GetString(userIDKey)
	return id, id != ""
}

// UserIDFromContext is UserID for code that only has the request context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id, id != ""
}
