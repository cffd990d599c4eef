package video

import (
	"net/http"

	"earnplay-backend/pkg/errutil"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// questionView hides the correct answer from API consumers.
type questionView struct {
	ID           string `json:"id"`
	QuestionText string `json:"question_text"`
	Points       int    `json:"points"`
}

type taskView struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	YoutubeURL  string         `json:"youtube_url"`
	YTVideoID   string         `json:"yt_video_id"`
	Questions   []questionView `json:"questions"`
	CreatedAt   string         `json:"created_at"`
}

func toTaskView(t *VideoTask) taskView {
	questions := make([]questionView, 0, len(t.Questions))
	for _, q := range t.Questions {
		questions = append(questions, questionView{
			ID:           q.ID,
			QuestionText: q.QuestionText,
			Points:       q.Points,
		})
	}
	return taskView{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		YoutubeURL:  t.YoutubeURL,
		YTVideoID:   t.YTVideoID,
		Questions:   questions,
		CreatedAt:   t.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (h *Handler) List(c *gin.Context) {
	tasks, err := h.svc.List(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	views := make([]taskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, toTaskView(t))
	}
	c.JSON(http.StatusOK, views)
}

func (h *Handler) Get(c *gin.Context) {
	task, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toTaskView(task))
}

func (h *Handler) Create(c *gin.Context) {
	var in CreateVideoInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	task, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, toTaskView(task))
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
