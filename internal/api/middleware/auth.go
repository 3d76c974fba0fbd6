// Package middleware provides HTTP middleware for the API.
package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lingopal/conversation-service/internal/domain/errors"
	"github.com/lingopal/conversation-service/internal/domain/models"
)

const principalKey = "principal"

// PrincipalResolver authenticates a bearer token.
type PrincipalResolver interface {
	Resolve(ctx context.Context, token string) (*models.Principal, error)
}

// AuthMiddleware authenticates requests with a bearer token.
type AuthMiddleware struct {
	resolver PrincipalResolver
}

// NewAuthMiddleware creates a new AuthMiddleware.
func NewAuthMiddleware(resolver PrincipalResolver) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver}
}

// Authenticate returns a gin middleware that resolves the Bearer token into a
// principal and stores it in the context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			HandleError(c, err)
			return
		}

		principal, err := m.resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			HandleError(c, err)
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.NewUnauthorizedError("missing authorization header")
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", errors.NewUnauthorizedError("invalid authorization header format")
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.NewUnauthorizedError("empty token")
	}
	return token, nil
}

// GetPrincipal retrieves the authenticated principal from the gin context.
func GetPrincipal(c *gin.Context) *models.Principal {
	if p, exists := c.Get(principalKey); exists {
		if principal, ok := p.(*models.Principal); ok {
			return principal
		}
	}
	return nil
}
