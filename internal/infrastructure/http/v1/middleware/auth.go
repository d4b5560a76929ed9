package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SaqibDoullah/invoice-flow-sub002/internal/core/apperror"
	appctx "github.com/SaqibDoullah/invoice-flow-sub002/internal/core/context"
)

// TokenValidator interface for token validation.
type TokenValidator interface {
	ValidateToken(tokenString string) (*appctx.OwnerContext, error)
}

// Auth middleware validates bearer tokens and populates the owner context.
func Auth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		// Check Bearer prefix
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		owner, err := validator.ValidateToken(parts[1])
		if err != nil {
			_ = c.Error(apperror.NewUnauthorized("invalid token"))
			c.Abort()
			return
		}

		ctx := appctx.WithOwner(c.Request.Context(), owner)
		c.Request = c.Request.WithContext(ctx)

		// Store in gin context for easy access
		c.Set("owner_id", owner.OwnerID)

		c.Next()
	}
}

// OptionalAuth validates token if present, but doesn't require it.
func OptionalAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.Next()
			return
		}

		owner, err := validator.ValidateToken(parts[1])
		if err == nil && owner != nil {
			ctx := appctx.WithOwner(c.Request.Context(), owner)
			c.Request = c.Request.WithContext(ctx)
			c.Set("owner_id", owner.OwnerID)
		}

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
