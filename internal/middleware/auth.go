package middleware

import (
	"context"
	"strings"

	"fest-ticketing/internal/model"
	apperrors "fest-ticketing/pkg/app_errors"

	"github.com/gin-gonic/gin"
)

// TokenVerifier is satisfied by service.AuthService.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (model.Identity, error)
}

// RequireAuth 驗證 Authorization: Bearer <token>，成功後將身分放入 context
func RequireAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
			abortWithError(c, apperrors.ErrUnauthenticated)
			return
		}

		identity, err := verifier.VerifyToken(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			abortWithError(c, apperrors.ErrUnauthenticated)
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFrom(c)
		if !ok {
			abortWithError(c, apperrors.ErrUnauthenticated)
			return
		}
		if !identity.IsAdmin {
			abortWithError(c, apperrors.ErrForbidden)
			return
		}
		c.Next()
	}
}
