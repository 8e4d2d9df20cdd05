package router

import (
	"babel/internal/handlers"
	"babel/internal/middleware"
	"babel/internal/repository"
	"babel/internal/services"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the JSON API. LoadUser (or an equivalent that sets
// middleware.CheckUserKey) must already be installed on r.
func RegisterRoutes(r *gin.Engine, svc *services.Services, store *repository.Store) {
	// Handlers
	feedHandler := handlers.NewFeedHandler(svc.Feed)
	storyHandler := handlers.NewStoryHandler(svc.Content)
	voteHandler := handlers.NewVoteHandler(svc.Engagement)
	userHandler := handlers.NewUserHandler(svc.Feed, svc.Standing, store.Users)
	adminHandler := handlers.NewAdminHandler(svc.Standing, svc.Engagement)

	// 公共路由 (Public Routes)
	r.GET("/", feedHandler.ListTop)                      // 首页 - 热门文章
	r.GET("/new", feedHandler.ListNew)                   // 最新文章
	r.GET("/ask", feedHandler.ListAsk)                   // اسال بابل
	r.GET("/share", feedHandler.ListShare)               // شارك بابل
	r.GET("/past", feedHandler.PastMonths)               // 归档月份
	r.GET("/past/:month", feedHandler.ListByMonth)       // 某月文章
	r.GET("/comments", feedHandler.ListComments)         // 最新评论
	r.GET("/p/:pid", storyHandler.Detail)                // 文章详情页
	r.GET("/u/:username", userHandler.Profile)           // 用户主页
	r.GET("/u/:username/posts", userHandler.Posts)       // 用户文章
	r.GET("/u/:username/comments", userHandler.Comments) // 用户评论
	r.GET("/leaderboard", userHandler.Leaderboard)       // 积分排行

	// 受保护路由 (Protected Routes)
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.POST("/submit", storyHandler.Create)                // 提交发布文章
		authorized.PATCH("/p/:pid", storyHandler.Update)               // 提交文章更新
		authorized.DELETE("/p/:pid", storyHandler.Delete)              // 删除文章
		authorized.POST("/p/:pid/comment", storyHandler.CreateComment) // 发表评论
		authorized.PATCH("/comment/:cid", storyHandler.UpdateComment)  // 编辑评论
		authorized.DELETE("/comment/:cid", storyHandler.DeleteComment) // 删除评论

		authorized.POST("/vote/:type/:id", voteHandler.Vote)         // 点赞
		authorized.DELETE("/vote/:type/:id", voteHandler.Unvote)     // 取消点赞
		authorized.POST("/report/:type/:id", voteHandler.Report)     // 举报
		authorized.DELETE("/report/:type/:id", voteHandler.Unreport) // 撤销举报

		authorized.GET("/dashboard/karma", userHandler.KarmaLogs) // 积分记录
	}

	// 管理路由 (Moderator Routes)
	admin := r.Group("/admin")
	admin.Use(middleware.AuthRequired(), middleware.ModeratorRequired(svc.Standing))
	{
		admin.POST("/users/:id/ban", adminHandler.Ban)
		admin.DELETE("/users/:id/ban", adminHandler.Unban)
		admin.POST("/users/:id/mute", adminHandler.Mute)
		admin.DELETE("/users/:id/mute", adminHandler.Unmute)
		admin.POST("/users/:id/verify", adminHandler.Verify)
		admin.POST("/users/:id/role", adminHandler.SetRole)
		admin.POST("/users/:id/karma", adminHandler.AdjustKarma)
		admin.POST("/users/:id/badges", adminHandler.AwardBadge)
		admin.DELETE("/users/:id/badges/:badge", adminHandler.RevokeBadge)
		admin.POST("/recount", adminHandler.Recount)
	}
}
