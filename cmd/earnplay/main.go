package main

import (
	"log"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"earnplay-backend/pkg/config"
	"earnplay-backend/pkg/db"
	"earnplay-backend/pkg/health"
	"earnplay-backend/pkg/logger"
	"earnplay-backend/pkg/middleware"
	"earnplay-backend/pkg/otelcol"
	"earnplay-backend/pkg/redis"
	"earnplay-backend/pkg/server"
	"earnplay-backend/services/ads"
	"earnplay-backend/services/bootstrap"
	"earnplay-backend/services/reward"
	"earnplay-backend/services/survey"
	"earnplay-backend/services/video"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		otelcol.Module,
		db.Module,
		redis.Module,
		fx.Provide(
			provideSnowflakeNode,
			middleware.NewAuth,
		),
		server.Module,
		health.Module,
		bootstrap.Module,
		video.Module,
		reward.Module,
		survey.Module,
		ads.Module,
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})

func provideSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
