package handlers

import (
	"net/http"
	"time"

	"babel/internal/services"

	"github.com/gin-gonic/gin"
)

// AdminHandler holds the moderator-only endpoints. Routes mount it behind
// AuthRequired and ModeratorRequired.
type AdminHandler struct {
	standing   *services.StandingService
	engagement *services.EngagementService
}

func NewAdminHandler(standing *services.StandingService, engagement *services.EngagementService) *AdminHandler {
	return &AdminHandler{standing: standing, engagement: engagement}
}

type punishRequest struct {
	Hours  int    `json:"hours" binding:"required,min=1"`
	Reason string `json:"reason"`
}

type verifyRequest struct {
	Verified bool `json:"verified"`
}

type roleRequest struct {
	Role string `json:"role" binding:"required"`
}

type badgeRequest struct {
	Badge string `json:"badge" binding:"required"`
}

type karmaRequest struct {
	Amount float64 `json:"amount" binding:"required"`
	Action string  `json:"action"`
}

// Ban 封禁用户
func (h *AdminHandler) Ban(c *gin.Context) {
	var req punishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	d := time.Duration(req.Hours) * time.Hour
	if err := h.standing.Ban(c.Request.Context(), c.Param("id"), d, req.Reason); err != nil {
		RenderError(c, err)
		return
	}
	h.renderStatus(c)
}

func (h *AdminHandler) Unban(c *gin.Context) {
	if err := h.standing.Unban(c.Request.Context(), c.Param("id")); err != nil {
		RenderError(c, err)
		return
	}
	h.renderStatus(c)
}

// Mute 禁言用户
func (h *AdminHandler) Mute(c *gin.Context) {
	var req punishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	d := time.Duration(req.Hours) * time.Hour
	if err := h.standing.Mute(c.Request.Context(), c.Param("id"), d, req.Reason); err != nil {
		RenderError(c, err)
		return
	}
	h.renderStatus(c)
}

func (h *AdminHandler) Unmute(c *gin.Context) {
	if err := h.standing.Unmute(c.Request.Context(), c.Param("id")); err != nil {
		RenderError(c, err)
		return
	}
	h.renderStatus(c)
}

func (h *AdminHandler) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if err := h.standing.Verify(c.Request.Context(), c.Param("id"), req.Verified); err != nil {
		RenderError(c, err)
		return
	}
	h.renderStatus(c)
}

func (h *AdminHandler) SetRole(c *gin.Context) {
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if err := h.standing.SetRole(c.Request.Context(), c.Param("id"), req.Role); err != nil {
		RenderError(c, err)
		return
	}
	h.renderStatus(c)
}

// AdjustKarma 手动调整积分
func (h *AdminHandler) AdjustKarma(c *gin.Context) {
	var req karmaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	st, err := h.standing.AdjustKarma(c.Request.Context(), c.Param("id"), req.Amount, req.Action)
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// AwardBadge 授予徽章
func (h *AdminHandler) AwardBadge(c *gin.Context) {
	var req badgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if err := h.standing.AwardBadge(c.Request.Context(), c.Param("id"), req.Badge); err != nil {
		RenderError(c, err)
		return
	}
	h.renderBadges(c)
}

// RevokeBadge 撤销徽章
func (h *AdminHandler) RevokeBadge(c *gin.Context) {
	if err := h.standing.RevokeBadge(c.Request.Context(), c.Param("id"), c.Param("badge")); err != nil {
		RenderError(c, err)
		return
	}
	h.renderBadges(c)
}

// Recount 从明细表重算计数器
func (h *AdminHandler) Recount(c *gin.Context) {
	if err := h.engagement.RecountCounters(c.Request.Context()); err != nil {
		RenderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) renderStatus(c *gin.Context) {
	status, err := h.standing.ModerationStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *AdminHandler) renderBadges(c *gin.Context) {
	badges, err := h.standing.Badges(c.Request.Context(), c.Param("id"))
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"badges": badges})
}
