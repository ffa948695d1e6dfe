package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"matterlab/internal/api/handler"
	"matterlab/internal/api/middleware"
	"matterlab/internal/pkg/config"
	"matterlab/pkg/constants"
)

// Handlers 路由依赖的处理器
type Handlers struct {
	Gitlab *handler.GitlabHandler
	Apps   *handler.AppsHandler
}

// Setup 设置路由
func Setup(cfg *config.Config, h *Handlers) *gin.Engine {
	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// 全局中间件
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// GitLab webhook
	r.POST(constants.PathWebhook, h.Gitlab.Webhook)

	// Mattermost Apps
	mm := r.Group("/mattermost")
	{
		// 安装阶段由 Mattermost 直接拉取，不携带 JWT
		mm.GET("/manifest", h.Apps.Manifest)

		calls := mm.Group("")
		calls.Use(middleware.AppsJWTMiddleware(cfg.Mattermost.AppSecret))
		{
			calls.POST("/ping", h.Apps.Ping)
			calls.POST("/bindings", h.Apps.Bindings)

			// 绑定仓库
			calls.POST(constants.PathConnect, h.Apps.Connect)
			calls.POST(constants.PathConnectRefresh, h.Apps.ConnectRefresh)
			calls.POST(constants.PathConnectComplete, h.Apps.ConnectComplete)
			calls.POST(constants.PathDisconnect, h.Apps.Disconnect)
			calls.POST(constants.PathDisconnectComplete, h.Apps.DisconnectComplete)

			// 动态下拉
			calls.POST(constants.PathGetRepos, h.Apps.GetRepos)
			calls.POST(constants.PathGetChannelRepos, h.Apps.GetChannelRepos)

			// 消息提醒
			calls.POST(constants.PathCreateReminder, h.Apps.CreateReminder)
			calls.POST(constants.PathReminderRefresh, h.Apps.ReminderRefresh)
		}
	}

	return r
}
