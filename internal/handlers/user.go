package handlers

import (
	"net/http"
	"strconv"

	"babel/internal/middleware"
	"babel/internal/repository"
	"babel/internal/services"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	feed     *services.FeedService
	standing *services.StandingService
	users    repository.UserRepository
}

func NewUserHandler(feed *services.FeedService, standing *services.StandingService, users repository.UserRepository) *UserHandler {
	return &UserHandler{feed: feed, standing: standing, users: users}
}

func limitParam(c *gin.Context, def int) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n <= 0 {
		return def
	}
	if n > maxPageSize {
		return maxPageSize
	}
	return n
}

// Profile 用户主页
func (h *UserHandler) Profile(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := h.users.GetByUsername(ctx, c.Param("username"))
	if err != nil {
		RenderError(c, err)
		return
	}
	st, err := h.standing.Get(ctx, user.ID)
	if err != nil {
		RenderError(c, err)
		return
	}
	status, err := h.standing.ModerationStatus(ctx, user.ID)
	if err != nil {
		RenderError(c, err)
		return
	}
	badges, err := h.standing.Badges(ctx, user.ID)
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":   user,
		"karma":  st.Karma,
		"status": status,
		"badges": badges,
	})
}

func (h *UserHandler) Posts(c *gin.Context) {
	posts, err := h.feed.GetUserFeed(c.Request.Context(), c.Param("username"), cursorQuery(c))
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *UserHandler) Comments(c *gin.Context) {
	comments, err := h.feed.GetUserComments(c.Request.Context(), c.Param("username"), cursorQuery(c))
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

// KarmaLogs 积分记录
func (h *UserHandler) KarmaLogs(c *gin.Context) {
	logs, err := h.standing.KarmaHistory(c.Request.Context(), middleware.CurrentUserID(c), limitParam(c, 50))
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// Leaderboard 积分排行
func (h *UserHandler) Leaderboard(c *gin.Context) {
	top, err := h.standing.TopKarma(c.Request.Context(), limitParam(c, 10))
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": top})
}
