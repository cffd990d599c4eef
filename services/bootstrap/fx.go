package bootstrap

import (
	"earnplay-backend/services/ads"
	"earnplay-backend/services/reward"
	"earnplay-backend/services/survey"
	"earnplay-backend/services/video"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Module migrates the schema before any route starts serving.
var Module = fx.Module("bootstrap",
	fx.Invoke(migrate),
)

func migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&video.VideoTask{},
		&video.QuizQuestion{},
		&reward.VideoWatchSession{},
		&reward.QuizResponse{},
		&reward.Reward{},
		&survey.UserProfile{},
		&survey.SurveyCompletion{},
		&survey.SurveyTransaction{},
		&ads.AdPlacement{},
	)
	if err != nil {
		zap.L().Error("failed to migrate schema", zap.Error(err))
		return err
	}
	return nil
}
