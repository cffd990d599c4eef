package reward

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"earnplay-backend/pkg/db/option"
	"earnplay-backend/pkg/errutil"
	"earnplay-backend/pkg/repository"
	"earnplay-backend/services/video"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// completionBonusPoints is granted once per session, on top of quiz points,
// when a submission completes the session.
const completionBonusPoints = 1

type Service struct {
	db   *gorm.DB
	node *snowflake.Node

	videos *video.Service

	sessions  repository.Repository[VideoWatchSession]
	responses repository.Repository[QuizResponse]
	rewards   repository.Repository[Reward]
}

type ServiceParams struct {
	fx.In
	DB     *gorm.DB
	Node   *snowflake.Node
	Videos *video.Service
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:   p.DB,
		node: p.Node,

		videos: p.Videos,

		sessions:  repository.ProvideStore[VideoWatchSession](p.DB),
		responses: repository.ProvideStore[QuizResponse](p.DB),
		rewards:   repository.ProvideStore[Reward](p.DB),
	}
}

func traceFields(ctx context.Context) []zap.Field {
	span := trace.SpanFromContext(ctx)
	return []zap.Field{
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	}
}

// StartSession returns the caller's open session for the video, creating one
// when none exists. The partial unique index makes the get-or-create safe
// against concurrent duplicate starts.
func (s *Service) StartSession(ctx context.Context, userID, videoID string) (*VideoWatchSession, error) {
	task, err := s.videos.Get(ctx, videoID)
	if err != nil {
		return nil, err
	}

	var session VideoWatchSession
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND video_id = ? AND NOT completed", userID, task.ID).
		First(&session).Error
	if err == nil {
		return &session, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errutil.Internal("failed to query watch session", err)
	}

	session = VideoWatchSession{
		ID:        s.node.Generate().String(),
		UserID:    userID,
		VideoID:   task.ID,
		StartedAt: time.Now(),
	}
	if err := s.sessions.Create(ctx, &session); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost the race; the winner's open session is the one to return
			var existing VideoWatchSession
			if ferr := s.db.WithContext(ctx).
				Where("user_id = ? AND video_id = ? AND NOT completed", userID, task.ID).
				First(&existing).Error; ferr == nil {
				return &existing, nil
			}
		}
		return nil, errutil.Internal("failed to create watch session", err)
	}

	return &session, nil
}

type ProgressInput struct {
	WatchDuration *int     `json:"watch_duration"`
	PercentViewed *float64 `json:"percent_viewed"`
}

// UpdateProgress raises watch_duration and percent_viewed, never lowering
// either: progress reports can arrive out of order.
func (s *Service) UpdateProgress(ctx context.Context, userID, sessionID string, in ProgressInput) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tx = tx.Scopes(option.LockingUpdate)

		session, err := s.sessions.WithTrx(tx).FindOne(ctx, &VideoWatchSession{ID: sessionID, UserID: userID})
		if err != nil {
			return errutil.Internal("failed to query watch session", err)
		}
		if session == nil {
			return errutil.NotFound("watch session not found", nil)
		}

		updates := map[string]any{}
		if in.WatchDuration != nil && *in.WatchDuration > session.WatchDuration {
			updates["watch_duration"] = *in.WatchDuration
		}
		if in.PercentViewed != nil {
			pv := math.Min(math.Max(*in.PercentViewed, 0), 100)
			if pv > session.PercentViewed {
				updates["percent_viewed"] = pv
			}
		}

		if len(updates) == 0 {
			return nil
		}
		return s.sessions.WithTrx(tx).Update(ctx, session.ID, updates)
	})
}

// CompleteSession flips the session to completed. The transition is one-way;
// completing twice is a no-op.
func (s *Service) CompleteSession(ctx context.Context, userID, sessionID string) (*VideoWatchSession, error) {
	var session *VideoWatchSession
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tx = tx.Scopes(option.LockingUpdate)

		var err error
		session, err = s.sessions.WithTrx(tx).FindOne(ctx, &VideoWatchSession{ID: sessionID, UserID: userID})
		if err != nil {
			return errutil.Internal("failed to query watch session", err)
		}
		if session == nil {
			return errutil.NotFound("watch session not found", nil)
		}

		if session.Completed {
			return nil
		}

		now := time.Now()
		if err := s.sessions.WithTrx(tx).Update(ctx, session.ID, map[string]any{
			"completed": true,
			"ended_at":  now,
		}); err != nil {
			return errutil.Internal("failed to complete watch session", err)
		}
		session.Completed = true
		session.EndedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

type QuizAnswer struct {
	QuestionID string `json:"question"`
	UserAnswer string `json:"user_answer"`
}

// SubmitQuiz grades a full submission atomically: every response row, the
// session completion and the reward entry commit together or not at all. An
// answer referencing a question outside the session's video fails the whole
// submission.
func (s *Service) SubmitQuiz(ctx context.Context, userID, sessionID string, answers []QuizAnswer) (*QuizResult, error) {
	zapLog := zap.L().With(traceFields(ctx)...)

	var result QuizResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tx = tx.Scopes(option.LockingUpdate)

		session, err := s.sessions.WithTrx(tx).FindOne(ctx, &VideoWatchSession{ID: sessionID, UserID: userID})
		if err != nil {
			return errutil.Internal("failed to query watch session", err)
		}
		if session == nil {
			return errutil.NotFound("watch session not found", nil)
		}

		totalPoints := 0
		for _, answer := range answers {
			question, err := s.videos.Question(ctx, tx, answer.QuestionID, session.VideoID)
			if err != nil {
				return err
			}

			submitted := strings.TrimSpace(answer.UserAnswer)
			isCorrect := strings.EqualFold(submitted, strings.TrimSpace(question.CorrectAnswer))

			points := 0
			if isCorrect {
				points = question.Points
				result.CorrectAnswers++
				totalPoints += points
			}
			result.TotalQuestions++

			if err := s.responses.WithTrx(tx).Create(ctx, &QuizResponse{
				ID:            s.node.Generate().String(),
				SessionID:     session.ID,
				QuestionID:    question.ID,
				UserAnswer:    submitted,
				IsCorrect:     isCorrect,
				PointsAwarded: points,
				AnsweredAt:    time.Now(),
			}); err != nil {
				return errutil.Internal("failed to record quiz response", err)
			}
		}

		if !session.Completed {
			if err := s.sessions.WithTrx(tx).Update(ctx, session.ID, map[string]any{
				"completed": true,
				"ended_at":  time.Now(),
			}); err != nil {
				return errutil.Internal("failed to complete watch session", err)
			}
		}

		result.TotalPointsAwarded = totalPoints + completionBonusPoints
		if result.TotalPointsAwarded > 0 {
			sessionID := session.ID
			if err := s.rewards.WithTrx(tx).Create(ctx, &Reward{
				ID:        s.node.Generate().String(),
				UserID:    userID,
				SessionID: &sessionID,
				Points:    result.TotalPointsAwarded,
				CreatedAt: time.Now(),
			}); err != nil {
				return errutil.Internal("failed to create reward entry", err)
			}
		}

		return nil
	})
	if err != nil {
		zapLog.Error("quiz submission failed", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}

	if result.TotalQuestions > 0 {
		score := float64(result.CorrectAnswers) / float64(result.TotalQuestions) * 100
		result.QuizScore = math.Round(score*100) / 100
	}

	return &result, nil
}

// CreditAd appends a session-less reward for a rewarded ad view. The caller
// is trusted to report each view once; duplicate calls credit again.
func (s *Service) CreditAd(ctx context.Context, userID string, points int) (*Reward, error) {
	if points <= 0 {
		return nil, errutil.ValidationFailed("a positive integer for points must be provided", nil)
	}

	entry := &Reward{
		ID:        s.node.Generate().String(),
		UserID:    userID,
		Points:    points,
		CreatedAt: time.Now(),
	}
	if err := s.rewards.Create(ctx, entry); err != nil {
		return nil, errutil.Internal("failed to create reward entry", err)
	}

	zap.L().With(traceFields(ctx)...).Info("ad points credited",
		zap.String("user_id", userID),
		zap.Int("points", points),
	)

	return entry, nil
}

// TotalPoints sums the user's reward ledger.
func (s *Service) TotalPoints(ctx context.Context, userID string) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).
		Model(&Reward{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(points), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, errutil.Internal("failed to sum rewards", err)
	}
	return total, nil
}
