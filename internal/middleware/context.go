package middleware

import (
	"fest-ticketing/internal/model"
	apperrors "fest-ticketing/pkg/app_errors"

	"github.com/gin-gonic/gin"
)

const (
	identityKey     = "identity"
	requestIDKey    = "request_id"
	RequestIDHeader = "X-Request-ID"
)

// IdentityFrom 取得 RequireAuth 寫入的呼叫者身分
func IdentityFrom(c *gin.Context) (model.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return model.Identity{}, false
	}
	identity, ok := v.(model.Identity)
	return identity, ok
}

func RequestIDFrom(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperrors.HTTPStatus(err), gin.H{
		"error": apperrors.PublicMessage(err),
		"code":  apperrors.KindOf(err),
	})
}
