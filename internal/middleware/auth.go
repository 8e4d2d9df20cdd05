package middleware

import (
	"errors"
	"net/http"

	"babel/internal/errs"
	"babel/internal/logger"
	"babel/internal/models"
	"babel/internal/repository"
	"babel/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const CheckUserKey = "user"

// SessionUserKey is the session field the auth layer writes on login.
const SessionUserKey = "user_id"

// CurrentUser returns the user LoadUser attached, or nil for anonymous requests.
func CurrentUser(c *gin.Context) *models.User {
	if u, exists := c.Get(CheckUserKey); exists {
		if user, ok := u.(*models.User); ok {
			return user
		}
	}
	return nil
}

// CurrentUserID is "" for anonymous requests.
func CurrentUserID(c *gin.Context) string {
	if u := CurrentUser(c); u != nil {
		return u.ID
	}
	return ""
}

// LoadUser retrieves user from session and sets to context
func LoadUser(users repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, _ := session.Get(SessionUserKey).(string)

		if userID != "" {
			user, err := users.Get(c.Request.Context(), userID)
			if err == nil {
				c.Set(CheckUserKey, user)
			} else if !errors.Is(err, errs.ErrNotFound) {
				logger.Warn("load session user failed", zap.String("user_id", userID), zap.Error(err))
			}
		}
		c.Next()
	}
}

// AuthRequired ensures a user is logged in
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required", "code": "LOGIN_REQUIRED"})
			return
		}
		c.Next()
	}
}

// ModeratorRequired must run after AuthRequired.
func ModeratorRequired(standing *services.StandingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := standing.IsModerator(c.Request.Context(), CurrentUserID(c))
		if err != nil {
			logger.Error("moderator check failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "moderators only", "code": errs.CodeUnauthorized})
			return
		}
		c.Next()
	}
}
