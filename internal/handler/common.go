package handler

import (
	"net/http"

	"fest-ticketing/internal/middleware"
	"fest-ticketing/internal/model"
	apperrors "fest-ticketing/pkg/app_errors"
	"fest-ticketing/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func BindJson(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
			"code":  apperrors.KindInvalidArgument,
		})
		return err
	}
	return nil
}

// parseUUIDParam 解析路徑參數；失敗時已寫入 400
func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + name,
			"code":  apperrors.KindInvalidArgument,
		})
		return uuid.Nil, false
	}
	return id, true
}

// identity 只在 RequireAuth 之後的路由使用
func identity(c *gin.Context) model.Identity {
	id, _ := middleware.IdentityFrom(c)
	return id
}

// respondError maps err to its HTTP status. Internal errors are logged at error level and masked.
func respondError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(
		zap.String("operation", operation),
		zap.String("request_id", middleware.RequestIDFrom(c)),
		zap.Error(err),
	)
	kind := apperrors.KindOf(err)
	if kind == apperrors.KindInternal {
		log.Error("Unexpected error")
	} else {
		log.Warn("Request rejected", zap.String("kind", string(kind)))
	}
	c.JSON(apperrors.HTTPStatus(err), gin.H{
		"error": apperrors.PublicMessage(err),
		"code":  kind,
	})
}
