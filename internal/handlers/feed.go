package handlers

import (
	"net/http"
	"strconv"

	"babel/internal/middleware"
	"babel/internal/services"

	"github.com/gin-gonic/gin"
)

// FeedHandler serves the read-only lists: ranked, newest, categories, archive.
type FeedHandler struct {
	feed *services.FeedService
}

func NewFeedHandler(feed *services.FeedService) *FeedHandler {
	return &FeedHandler{feed: feed}
}

func windowDays(c *gin.Context) int {
	n, err := strconv.Atoi(c.Query("days"))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

func cursorQuery(c *gin.Context) services.CursorQuery {
	return services.CursorQuery{
		UserID:     middleware.CurrentUserID(c),
		PageSize:   pageSize(c),
		WindowDays: windowDays(c),
		Cursor:     c.Query("cursor"),
	}
}

// ListTop 首页 - 热门文章
func (h *FeedHandler) ListTop(c *gin.Context) {
	feed, err := h.feed.GetRankedFeed(c.Request.Context(), services.FeedQuery{
		UserID:     middleware.CurrentUserID(c),
		PageSize:   pageSize(c),
		WindowDays: windowDays(c),
		Page:       page(c),
	})
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, feed)
}

// ListNew 最新文章
func (h *FeedHandler) ListNew(c *gin.Context) {
	h.renderPosts(c, func(q services.CursorQuery) (*services.PostPage, error) {
		return h.feed.GetNewestFeed(c.Request.Context(), q)
	})
}

func (h *FeedHandler) ListAsk(c *gin.Context) {
	h.renderPosts(c, func(q services.CursorQuery) (*services.PostPage, error) {
		return h.feed.GetAskFeed(c.Request.Context(), q)
	})
}

func (h *FeedHandler) ListShare(c *gin.Context) {
	h.renderPosts(c, func(q services.CursorQuery) (*services.PostPage, error) {
		return h.feed.GetShareFeed(c.Request.Context(), q)
	})
}

// ListByMonth 按月归档
func (h *FeedHandler) ListByMonth(c *gin.Context) {
	month := c.Param("month")
	h.renderPosts(c, func(q services.CursorQuery) (*services.PostPage, error) {
		return h.feed.GetMonthFeed(c.Request.Context(), month, q)
	})
}

func (h *FeedHandler) PastMonths(c *gin.Context) {
	months, err := h.feed.PastMonths(c.Request.Context())
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"months": months})
}

// ListComments 最新评论
func (h *FeedHandler) ListComments(c *gin.Context) {
	comments, err := h.feed.GetNewestComments(c.Request.Context(), cursorQuery(c))
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (h *FeedHandler) renderPosts(c *gin.Context, fetch func(services.CursorQuery) (*services.PostPage, error)) {
	posts, err := fetch(cursorQuery(c))
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}
