package reward

import (
	"net/http"

	"earnplay-backend/pkg/errutil"
	"earnplay-backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) StartSession(c *gin.Context) {
	var in struct {
		TaskID string `json:"task_id"`
	}
	if err := c.ShouldBindJSON(&in); err != nil || in.TaskID == "" {
		c.Error(errutil.BadRequest("task_id required", err))
		return
	}

	userID := middleware.UserFrom(c.Request.Context())
	session, err := h.svc.StartSession(c.Request.Context(), userID, in.TaskID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *Handler) UpdateProgress(c *gin.Context) {
	var in ProgressInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	userID := middleware.UserFrom(c.Request.Context())
	if err := h.svc.UpdateProgress(c.Request.Context(), userID, c.Param("session_id"), in); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) CompleteSession(c *gin.Context) {
	userID := middleware.UserFrom(c.Request.Context())
	if _, err := h.svc.CompleteSession(c.Request.Context(), userID, c.Param("session_id")); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "completed"})
}

func (h *Handler) SubmitQuiz(c *gin.Context) {
	var in struct {
		SessionID string       `json:"session_id"`
		Responses []QuizAnswer `json:"responses"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.Error(errutil.BadRequest("invalid request body", err))
		return
	}
	if in.SessionID == "" {
		c.Error(errutil.BadRequest("session_id required", nil))
		return
	}

	userID := middleware.UserFrom(c.Request.Context())
	result, err := h.svc.SubmitQuiz(c.Request.Context(), userID, in.SessionID, in.Responses)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) AwardAdPoints(c *gin.Context) {
	var in struct {
		Points int `json:"points"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.Error(errutil.ValidationFailed("a positive integer for points must be provided", err))
		return
	}

	userID := middleware.UserFrom(c.Request.Context())
	entry, err := h.svc.CreditAd(c.Request.Context(), userID, in.Points)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "points awarded successfully",
		"reward":  entry,
	})
}

func (h *Handler) TotalPoints(c *gin.Context) {
	userID := middleware.UserFrom(c.Request.Context())
	total, err := h.svc.TotalPoints(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total_points": total})
}
