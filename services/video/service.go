package video

import (
	"context"
	"time"

	"earnplay-backend/pkg/db/option"
	"earnplay-backend/pkg/errutil"
	"earnplay-backend/pkg/repository"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type Service struct {
	db   *gorm.DB
	node *snowflake.Node

	videos    repository.Repository[VideoTask]
	questions repository.Repository[QuizQuestion]
}

type ServiceParams struct {
	fx.In
	DB   *gorm.DB
	Node *snowflake.Node
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:   p.DB,
		node: p.Node,

		videos:    repository.ProvideStore[VideoTask](p.DB),
		questions: repository.ProvideStore[QuizQuestion](p.DB),
	}
}

type QuestionInput struct {
	QuestionText  string `json:"question_text"`
	CorrectAnswer string `json:"correct_answer"`
	Points        int    `json:"points"`
}

type CreateVideoInput struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	YoutubeURL  string          `json:"youtube_url"`
	Questions   []QuestionInput `json:"questions"`
}

func (s *Service) Create(ctx context.Context, in CreateVideoInput) (*VideoTask, error) {
	if in.Title == "" || in.YoutubeURL == "" {
		return nil, errutil.ValidationFailed("title and youtube_url are required", nil)
	}

	task := &VideoTask{
		ID:          s.node.Generate().String(),
		Title:       in.Title,
		Description: in.Description,
		YoutubeURL:  in.YoutubeURL,
		YTVideoID:   ExtractYTVideoID(in.YoutubeURL),
		CreatedAt:   time.Now(),
	}

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.videos.WithTrx(tx).Create(ctx, task); err != nil {
			return err
		}

		questions := make([]*QuizQuestion, 0, len(in.Questions))
		for _, q := range in.Questions {
			points := q.Points
			if points <= 0 {
				points = 1
			}
			questions = append(questions, &QuizQuestion{
				ID:            s.node.Generate().String(),
				VideoID:       task.ID,
				QuestionText:  q.QuestionText,
				CorrectAnswer: q.CorrectAnswer,
				Points:        points,
				CreatedAt:     time.Now(),
			})
		}

		if err := s.questions.WithTrx(tx).BatchCreate(ctx, questions); err != nil {
			return err
		}

		for _, q := range questions {
			task.Questions = append(task.Questions, *q)
		}
		return nil
	}); err != nil {
		return nil, errutil.Internal("failed to create video task", err)
	}

	return task, nil
}

func (s *Service) List(ctx context.Context) ([]*VideoTask, error) {
	var tasks []*VideoTask
	if err := s.db.WithContext(ctx).
		Preload("Questions").
		Order("created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, errutil.Internal("failed to list video tasks", err)
	}
	return tasks, nil
}

func (s *Service) Get(ctx context.Context, id string) (*VideoTask, error) {
	var task VideoTask
	err := s.db.WithContext(ctx).Preload("Questions").Where("id = ?", id).First(&task).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errutil.NotFound("video task not found", err)
		}
		return nil, errutil.Internal("failed to get video task", err)
	}
	return &task, nil
}

// Delete removes the task and its questions. Sessions keep their rows; the
// reward ledger is never touched here.
func (s *Service) Delete(ctx context.Context, id string) error {
	task, err := s.videos.FindOne(ctx, &VideoTask{ID: id})
	if err != nil {
		return errutil.Internal("failed to query video task", err)
	}
	if task == nil {
		return errutil.NotFound("video task not found", nil)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("video_id = ?", id).Delete(&QuizQuestion{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&VideoTask{}).Error
	})
}

// Question resolves one question, scoped to a video so grading can verify
// ownership in a single lookup.
func (s *Service) Question(ctx context.Context, tx *gorm.DB, questionID, videoID string) (*QuizQuestion, error) {
	q, err := s.questions.WithTrx(tx).FindOne(ctx, &QuizQuestion{ID: questionID, VideoID: videoID}, option.WithLockingUpdate())
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, errutil.NotFound("question not found for this video", nil)
	}
	return q, nil
}
