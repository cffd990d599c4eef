package survey

import (
	"io"
	"net/http"

	"earnplay-backend/pkg/errutil"
	"earnplay-backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// SignatureHeader carries the partner's HMAC digest of the callback body.
const SignatureHeader = "X-Provider-Signature"

type Handler struct {
	svc        *Service
	reconciler *Reconciler
}

func NewHandler(svc *Service, reconciler *Reconciler) *Handler {
	return &Handler{svc: svc, reconciler: reconciler}
}

func (h *Handler) List(c *gin.Context) {
	userID := middleware.UserFrom(c.Request.Context())
	surveys, profile, err := h.svc.Surveys(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"surveys":           surveys,
		"available_balance": profile.AvailableBalance,
		"total_earnings":    profile.TotalEarnings,
	})
}

func (h *Handler) Start(c *gin.Context) {
	var in struct {
		SurveyID string `json:"survey_id"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	userID := middleware.UserFrom(c.Request.Context())
	result, err := h.svc.StartSurvey(c.Request.Context(), userID, in.SurveyID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) Dashboard(c *gin.Context) {
	userID := middleware.UserFrom(c.Request.Context())
	dashboard, err := h.svc.Dashboard(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// Callback receives the partner's server-to-server postback. The body is
// read raw so the signature covers exactly the bytes the partner signed.
func (h *Handler) Callback(c *gin.Context) {
	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Error(errutil.BadRequest("failed to read callback body", err))
		return
	}

	if err := h.reconciler.HandleCallback(c.Request.Context(), rawBody, c.GetHeader(SignatureHeader)); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
