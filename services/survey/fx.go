package survey

import (
	"earnplay-backend/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("survey.service",
	fx.Provide(
		NewClient,
		NewService,
		NewReconciler,
		NewHandler,
	),
	fx.Invoke(registerRoutes),
)

func registerRoutes(engine *gin.Engine, auth *middleware.Auth, h *Handler) {
	api := engine.Group("/api", auth.RequireAuth())
	api.GET("/surveys", h.List)
	api.POST("/surveys/start", h.Start)
	api.GET("/dashboard", h.Dashboard)

	// partner postback, authenticated by signature instead of a user token
	engine.POST("/webhooks/survey", h.Callback)
}
