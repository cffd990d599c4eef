package video

import (
	"earnplay-backend/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("video.service",
	fx.Provide(
		NewService,
		NewHandler,
	),
	fx.Invoke(registerRoutes),
)

func registerRoutes(engine *gin.Engine, auth *middleware.Auth, h *Handler) {
	api := engine.Group("/api", auth.RequireAuth())
	api.GET("/video-tasks", h.List)
	api.GET("/video-tasks/:id", h.Get)
	api.POST("/video-tasks", h.Create)
	api.DELETE("/video-tasks/:id", h.Delete)
}
