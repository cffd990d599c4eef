package ads

import (
	"net/http"

	"earnplay-backend/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("ads.service",
	fx.Provide(NewService),
	fx.Invoke(registerRoutes),
)

func registerRoutes(engine *gin.Engine, auth *middleware.Auth, svc *Service) {
	api := engine.Group("/api", auth.RequireAuth())
	api.GET("/ad-placements", func(c *gin.Context) {
		placements, err := svc.List(c.Request.Context())
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"placements": placements})
	})
}
