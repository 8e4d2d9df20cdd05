package handlers

import (
	"net/http"

	"babel/internal/errs"
	"babel/internal/middleware"
	"babel/internal/services"

	"github.com/gin-gonic/gin"
)

type VoteHandler struct {
	engagement *services.EngagementService
}

func NewVoteHandler(engagement *services.EngagementService) *VoteHandler {
	return &VoteHandler{engagement: engagement}
}

type reportRequest struct {
	Reason string `json:"reason"`
}

func badTarget(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "type must be post or comment", "code": errs.CodeInvalidTarget})
}

// Vote 点赞
func (h *VoteHandler) Vote(c *gin.Context) {
	target, ok := targetParam(c)
	if !ok {
		badTarget(c)
		return
	}
	res, err := h.engagement.ApplyVote(c.Request.Context(), middleware.CurrentUserID(c), target)
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Unvote 取消点赞
func (h *VoteHandler) Unvote(c *gin.Context) {
	target, ok := targetParam(c)
	if !ok {
		badTarget(c)
		return
	}
	res, err := h.engagement.RetractVote(c.Request.Context(), middleware.CurrentUserID(c), target)
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Report 举报，reason 可为空
func (h *VoteHandler) Report(c *gin.Context) {
	target, ok := targetParam(c)
	if !ok {
		badTarget(c)
		return
	}
	var req reportRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, err.Error())
			return
		}
	}
	res, err := h.engagement.ApplyReport(c.Request.Context(), middleware.CurrentUserID(c), target, req.Reason)
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *VoteHandler) Unreport(c *gin.Context) {
	target, ok := targetParam(c)
	if !ok {
		badTarget(c)
		return
	}
	res, err := h.engagement.RetractReport(c.Request.Context(), middleware.CurrentUserID(c), target)
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
