package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"babel/internal/errs"
	"babel/internal/logger"
	"babel/internal/models"
	"babel/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxPageSize caps the page_size query parameter.
const maxPageSize = 100

// RenderError maps a service error to a status code and a JSON body with the
// reason code. Anything untyped is a 500 and gets logged.
func RenderError(c *gin.Context, err error) {
	code := errs.CodeOf(err)
	var e *errs.Error
	msg := "internal error"
	if errors.As(err, &e) {
		msg = e.Message
	}

	switch {
	case errors.Is(err, errs.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": msg, "code": code})
	case errors.Is(err, errs.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": msg, "code": code})
	case errors.Is(err, errs.ErrInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": code})
	case errors.Is(err, errs.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": msg, "code": code})
	default:
		logger.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// BadRequest 参数错误
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message, "code": errs.CodeInvalidInput})
}

// pageSize reads page_size, falling back to the configured default on
// anything unusable.
func pageSize(c *gin.Context) int {
	n, err := strconv.Atoi(c.Query("page_size"))
	if err != nil || n <= 0 {
		return 0
	}
	if n > maxPageSize {
		return maxPageSize
	}
	return n
}

func page(c *gin.Context) int {
	raw := c.Query("page")
	p := utils.ParsePage(raw)
	if p == 1 && raw != "" && raw != "1" {
		logger.Debug("ignoring malformed page", zap.String("page", raw))
	}
	return p
}

// targetParam reads /:type/:id into a vote/report target.
func targetParam(c *gin.Context) (models.Target, bool) {
	kind, ok := models.ParseTargetKind(c.Param("type"))
	if !ok {
		return models.Target{}, false
	}
	if kind == models.TargetComment {
		return models.CommentTarget(c.Param("id")), true
	}
	return models.PostTarget(c.Param("id")), true
}
