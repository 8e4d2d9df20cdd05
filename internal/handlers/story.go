package handlers

import (
	"net/http"

	"babel/internal/middleware"
	"babel/internal/services"

	"github.com/gin-gonic/gin"
)

type StoryHandler struct {
	content *services.ContentService
}

func NewStoryHandler(content *services.ContentService) *StoryHandler {
	return &StoryHandler{content: content}
}

type commentRequest struct {
	ParentID *string `json:"parent_id"`
	Text     string  `json:"text" binding:"required"`
}

type commentEditRequest struct {
	Text string `json:"text" binding:"required"`
}

// Detail 文章详情页，含评论树
func (h *StoryHandler) Detail(c *gin.Context) {
	thread, err := h.content.GetThread(c.Request.Context(), middleware.CurrentUserID(c), c.Param("pid"))
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, thread)
}

// Create 提交发布文章
func (h *StoryHandler) Create(c *gin.Context) {
	var req services.NewPost
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	post, err := h.content.CreatePost(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// Update 提交文章更新
func (h *StoryHandler) Update(c *gin.Context) {
	var req services.PostEdit
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	post, err := h.content.EditPost(c.Request.Context(), middleware.CurrentUserID(c), c.Param("pid"), req)
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// Delete 删除文章（软删除）
func (h *StoryHandler) Delete(c *gin.Context) {
	if err := h.content.HidePost(c.Request.Context(), middleware.CurrentUserID(c), c.Param("pid")); err != nil {
		RenderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateComment 发表评论
func (h *StoryHandler) CreateComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	comment, err := h.content.CreateComment(c.Request.Context(), middleware.CurrentUserID(c), services.NewComment{
		PostID:   c.Param("pid"),
		ParentID: req.ParentID,
		Text:     req.Text,
	})
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *StoryHandler) UpdateComment(c *gin.Context) {
	var req commentEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	comment, err := h.content.EditComment(c.Request.Context(), middleware.CurrentUserID(c), c.Param("cid"), req.Text)
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// DeleteComment 删除评论
func (h *StoryHandler) DeleteComment(c *gin.Context) {
	if err := h.content.HideComment(c.Request.Context(), middleware.CurrentUserID(c), c.Param("cid")); err != nil {
		RenderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
