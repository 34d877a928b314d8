package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"transcription-service/ddd/application/app"
	"transcription-service/pkg/middleware"
)

// Router 路由配置
type Router struct {
	videoApp    app.VideoApp
	maxFileSize int64
	jwtSecret   string
	jwtIssuer   string
}

// NewRouter 创建路由配置
func NewRouter(videoApp app.VideoApp, maxFileSize int64, jwtSecret, jwtIssuer string) *Router {
	return &Router{
		videoApp:    videoApp,
		maxFileSize: maxFileSize,
		jwtSecret:   jwtSecret,
		jwtIssuer:   jwtIssuer,
	}
}

// SetupMiddleware 设置中间件
func (r *Router) SetupMiddleware(engine *gin.Engine) {
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestContextMiddleware())
	engine.Use(middleware.IdentityMiddleware(r.jwtSecret, r.jwtIssuer))
}

// SetupRoutes 设置路由
func (r *Router) SetupRoutes(engine *gin.Engine) {
	videoController := NewVideoController(r.videoApp, r.maxFileSize)

	v1 := engine.Group("/api/v1")
	{
		videos := v1.Group("/videos")
		{
			videos.POST("/upload", videoController.Upload)
			videos.GET("", videoController.List)
			videos.GET("/:id", videoController.Get)
			videos.POST("/:id/transcribe", videoController.Transcribe)
			videos.POST("/:id/enqueue", videoController.Enqueue)
			videos.PUT("/:id/metadata", videoController.UpdateMetadata)
			videos.PUT("/:id/analysis", videoController.UpdateAnalysis)
		}
	}

	// 健康检查路由
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "transcription-service",
		})
	})
}
