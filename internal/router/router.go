package router

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/issuetracker/tracker/config"
	"github.com/issuetracker/tracker/internal/embed"
	"github.com/issuetracker/tracker/internal/handler"
)

func setMode(cfg *config.Config) {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
}

// SetupWeb 浏览器端页面服务
func SetupWeb(cfg *config.Config, pageHandler *handler.PageHandler) (*gin.Engine, error) {
	setMode(cfg)

	r := gin.Default()

	// 嵌入模板与静态资源
	if err := embed.SetupRouter(r); err != nil {
		return nil, err
	}
	pageHandler.RegisterRoutes(r)
	return r, nil
}

// SetupAPI issues API 服务，允许任意来源跨域访问
func SetupAPI(cfg *config.Config, issueHandler *handler.IssueHandler) *gin.Engine {
	setMode(cfg)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:   []string{"Content-Length"},
	}))

	issueHandler.RegisterRoutes(r)
	return r
}
