package reward

import (
	"earnplay-backend/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("reward.service",
	fx.Provide(
		NewService,
		NewHandler,
	),
	fx.Invoke(registerRoutes),
)

func registerRoutes(engine *gin.Engine, auth *middleware.Auth, h *Handler) {
	api := engine.Group("/api", auth.RequireAuth())
	api.POST("/start-video-session", h.StartSession)
	api.PUT("/update-watch-progress/:session_id", h.UpdateProgress)
	api.POST("/complete-video-session/:session_id", h.CompleteSession)
	api.POST("/submit-quiz-responses", h.SubmitQuiz)
	api.POST("/award-ad-points", h.AwardAdPoints)
	api.GET("/points", h.TotalPoints)
}
