package reward

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"earnplay-backend/pkg/errutil"
	"earnplay-backend/services/testutil"
	"earnplay-backend/services/video"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestService(t *testing.T) (*Service, *video.Service) {
	db := testutil.NewTestDB(t,
		&video.VideoTask{},
		&video.QuizQuestion{},
		&VideoWatchSession{},
		&QuizResponse{},
		&Reward{},
	)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	videos := video.NewService(video.ServiceParams{DB: db, Node: node})
	svc := NewService(ServiceParams{DB: db, Node: node, Videos: videos})
	return svc, videos
}

func createVideo(t *testing.T, videos *video.Service, questions []video.QuestionInput) *video.VideoTask {
	task, err := videos.Create(context.Background(), video.CreateVideoInput{
		Title:      "Capitals of Europe",
		YoutubeURL: "https://www.youtube.com/watch?v=abc123",
		Questions:  questions,
	})
	require.NoError(t, err)
	return task
}

func TestStartSessionReturnsExistingOpenSession(t *testing.T) {
	svc, videos := newTestService(t)
	task := createVideo(t, videos, nil)

	first, err := svc.StartSession(context.Background(), "user-1", task.ID)
	require.NoError(t, err)

	second, err := svc.StartSession(context.Background(), "user-1", task.ID)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, svc.db.Model(&VideoWatchSession{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestStartSessionUnknownVideo(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.StartSession(context.Background(), "user-1", "missing")
	require.Error(t, err)
	require.Equal(t, errutil.StatusNotFound, errutil.StatusOf(err))
}

func TestUpdateProgressIsMonotonic(t *testing.T) {
	svc, videos := newTestService(t)
	task := createVideo(t, videos, nil)

	session, err := svc.StartSession(context.Background(), "user-1", task.ID)
	require.NoError(t, err)

	duration := 30
	percent := 50.0
	require.NoError(t, svc.UpdateProgress(context.Background(), "user-1", session.ID, ProgressInput{
		WatchDuration: &duration,
		PercentViewed: &percent,
	}))

	// stale report must not lower either value
	duration = 10
	percent = 20.0
	require.NoError(t, svc.UpdateProgress(context.Background(), "user-1", session.ID, ProgressInput{
		WatchDuration: &duration,
		PercentViewed: &percent,
	}))

	var got VideoWatchSession
	require.NoError(t, svc.db.First(&got, "id = ?", session.ID).Error)
	require.Equal(t, 30, got.WatchDuration)
	require.Equal(t, 50.0, got.PercentViewed)

	duration = 60
	percent = 120.0
	require.NoError(t, svc.UpdateProgress(context.Background(), "user-1", session.ID, ProgressInput{
		WatchDuration: &duration,
		PercentViewed: &percent,
	}))

	require.NoError(t, svc.db.First(&got, "id = ?", session.ID).Error)
	require.Equal(t, 60, got.WatchDuration)
	require.Equal(t, 100.0, got.PercentViewed)
}

func TestUpdateProgressUnknownSession(t *testing.T) {
	svc, _ := newTestService(t)

	duration := 5
	err := svc.UpdateProgress(context.Background(), "user-1", "missing", ProgressInput{WatchDuration: &duration})
	require.Error(t, err)
	require.Equal(t, errutil.StatusNotFound, errutil.StatusOf(err))
}

func TestCompleteSessionIsOneWay(t *testing.T) {
	svc, videos := newTestService(t)
	task := createVideo(t, videos, nil)

	session, err := svc.StartSession(context.Background(), "user-1", task.ID)
	require.NoError(t, err)

	completed, err := svc.CompleteSession(context.Background(), "user-1", session.ID)
	require.NoError(t, err)
	require.True(t, completed.Completed)
	require.NotNil(t, completed.EndedAt)

	firstEnd := *completed.EndedAt
	again, err := svc.CompleteSession(context.Background(), "user-1", session.ID)
	require.NoError(t, err)
	require.True(t, again.Completed)

	var got VideoWatchSession
	require.NoError(t, svc.db.First(&got, "id = ?", session.ID).Error)
	require.NotNil(t, got.EndedAt)
	require.WithinDuration(t, firstEnd, *got.EndedAt, time.Second)

	// a fresh start opens a new session once the old one is closed
	fresh, err := svc.StartSession(context.Background(), "user-1", task.ID)
	require.NoError(t, err)
	require.NotEqual(t, session.ID, fresh.ID)
}

func TestSubmitQuizGradesAndCredits(t *testing.T) {
	svc, videos := newTestService(t)
	task := createVideo(t, videos, []video.QuestionInput{
		{QuestionText: "Capital of France?", CorrectAnswer: "paris", Points: 2},
		{QuestionText: "Capital of Germany?", CorrectAnswer: "london", Points: 3},
	})

	session, err := svc.StartSession(context.Background(), "user-1", task.ID)
	require.NoError(t, err)

	result, err := svc.SubmitQuiz(context.Background(), "user-1", session.ID, []QuizAnswer{
		{QuestionID: task.Questions[0].ID, UserAnswer: " Paris "},
		{QuestionID: task.Questions[1].ID, UserAnswer: "wrong"},
	})
	require.NoError(t, err)

	require.Equal(t, 1, result.CorrectAnswers)
	require.Equal(t, 2, result.TotalQuestions)
	require.Equal(t, 3, result.TotalPointsAwarded)
	require.Equal(t, 50.0, result.QuizScore)

	var got VideoWatchSession
	require.NoError(t, svc.db.First(&got, "id = ?", session.ID).Error)
	require.True(t, got.Completed)

	total, err := svc.TotalPoints(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
}

func TestSubmitQuizUnknownQuestionRollsBack(t *testing.T) {
	svc, videos := newTestService(t)
	task := createVideo(t, videos, []video.QuestionInput{
		{QuestionText: "Capital of France?", CorrectAnswer: "paris", Points: 2},
	})
	other := createVideo(t, videos, []video.QuestionInput{
		{QuestionText: "Capital of Spain?", CorrectAnswer: "madrid", Points: 2},
	})

	session, err := svc.StartSession(context.Background(), "user-1", task.ID)
	require.NoError(t, err)

	_, err = svc.SubmitQuiz(context.Background(), "user-1", session.ID, []QuizAnswer{
		{QuestionID: task.Questions[0].ID, UserAnswer: "paris"},
		{QuestionID: other.Questions[0].ID, UserAnswer: "madrid"},
	})
	require.Error(t, err)
	require.Equal(t, errutil.StatusNotFound, errutil.StatusOf(err))

	var responses int64
	require.NoError(t, svc.db.Model(&QuizResponse{}).Count(&responses).Error)
	require.Zero(t, responses)

	var rewards int64
	require.NoError(t, svc.db.Model(&Reward{}).Count(&rewards).Error)
	require.Zero(t, rewards)

	var got VideoWatchSession
	require.NoError(t, svc.db.First(&got, "id = ?", session.ID).Error)
	require.False(t, got.Completed)
}

func TestSubmitQuizUnknownSession(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.SubmitQuiz(context.Background(), "user-1", "missing", nil)
	require.Error(t, err)
	require.Equal(t, errutil.StatusNotFound, errutil.StatusOf(err))
}

func TestRewardSurvivesSessionDeletion(t *testing.T) {
	svc, videos := newTestService(t)
	task := createVideo(t, videos, []video.QuestionInput{
		{QuestionText: "Capital of France?", CorrectAnswer: "paris", Points: 2},
	})

	session, err := svc.StartSession(context.Background(), "user-1", task.ID)
	require.NoError(t, err)

	_, err = svc.SubmitQuiz(context.Background(), "user-1", session.ID, []QuizAnswer{
		{QuestionID: task.Questions[0].ID, UserAnswer: "paris"},
	})
	require.NoError(t, err)

	require.NoError(t, svc.db.Where("session_id = ?", session.ID).Delete(&QuizResponse{}).Error)
	require.NoError(t, svc.db.Where("id = ?", session.ID).Delete(&VideoWatchSession{}).Error)

	// the ledger entry keeps its points; only the session link is nulled out
	var entry Reward
	require.NoError(t, svc.db.First(&entry, "user_id = ?", "user-1").Error)
	require.Nil(t, entry.SessionID)
	require.Equal(t, 3, entry.Points)

	total, err := svc.TotalPoints(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
}

func TestCreditAdRejectsNonPositivePoints(t *testing.T) {
	svc, _ := newTestService(t)

	for _, points := range []int{0, -5} {
		_, err := svc.CreditAd(context.Background(), "user-1", points)
		require.Error(t, err)

		var be errutil.BaseError
		require.True(t, errors.As(err, &be))
		require.Equal(t, errutil.StatusValidationFailed, be.Status())
	}

	var rewards int64
	require.NoError(t, svc.db.Model(&Reward{}).Count(&rewards).Error)
	require.Zero(t, rewards)
}

func TestCreditAdAppendsLedgerEntry(t *testing.T) {
	svc, _ := newTestService(t)

	entry, err := svc.CreditAd(context.Background(), "user-1", 10)
	require.NoError(t, err)
	require.Equal(t, 10, entry.Points)
	require.Nil(t, entry.SessionID)

	_, err = svc.CreditAd(context.Background(), "user-1", 5)
	require.NoError(t, err)

	total, err := svc.TotalPoints(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, int64(15), total)

	other, err := svc.TotalPoints(context.Background(), "user-2")
	require.NoError(t, err)
	require.Zero(t, other)
}
