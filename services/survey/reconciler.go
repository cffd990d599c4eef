package survey

import (
	"context"
	"encoding/json"
	"time"

	"earnplay-backend/pkg/db/option"
	"earnplay-backend/pkg/errutil"
	"earnplay-backend/pkg/repository"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Callback event types the partner sends. Anything else is acknowledged and
// ignored so the partner does not retry events we never act on.
const (
	EventSurveyCompleted = "survey_completed"
	EventSurveyRejected  = "survey_rejected"
)

// CallbackEvent is the partner's server-to-server payload. Uid carries the
// partner user id we minted at profile creation.
type CallbackEvent struct {
	Type     string  `json:"type"`
	UID      string  `json:"uid"`
	SurveyID string  `json:"survey_id"`
	ClickID  string  `json:"click_id"`
	Reward   float64 `json:"reward"`
}

// Reconciler applies partner callbacks to local state. A completion is
// credited at most once: the status transition out of started, the balance
// update and the transaction append all commit in one locked transaction, so
// replays and concurrent deliveries of the same event are no-ops.
type Reconciler struct {
	db       *gorm.DB
	node     *snowflake.Node
	provider Client

	profiles     repository.Repository[UserProfile]
	completions  repository.Repository[SurveyCompletion]
	transactions repository.Repository[SurveyTransaction]
}

type ReconcilerParams struct {
	fx.In
	DB       *gorm.DB
	Node     *snowflake.Node
	Provider Client
}

func NewReconciler(p ReconcilerParams) *Reconciler {
	return &Reconciler{
		db:       p.DB,
		node:     p.Node,
		provider: p.Provider,

		profiles:     repository.ProvideStore[UserProfile](p.DB),
		completions:  repository.ProvideStore[SurveyCompletion](p.DB),
		transactions: repository.ProvideStore[SurveyTransaction](p.DB),
	}
}

// HandleCallback verifies and applies one raw callback body. The signature is
// checked against the untouched bytes before any parsing.
func (r *Reconciler) HandleCallback(ctx context.Context, rawBody []byte, signature string) error {
	span := trace.SpanFromContext(ctx)
	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	if signature == "" {
		return errutil.Unauthorized("missing callback signature", nil)
	}
	if !r.provider.VerifySignature(rawBody, signature) {
		zapLog.Warn("callback signature mismatch")
		return errutil.Unauthorized("invalid callback signature", nil)
	}

	var event CallbackEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return errutil.BadRequest("malformed callback payload", err)
	}
	if event.UID == "" || event.ClickID == "" {
		return errutil.BadRequest("callback payload missing uid or click_id", nil)
	}

	switch event.Type {
	case EventSurveyCompleted, EventSurveyRejected:
	default:
		zapLog.Info("ignoring callback event", zap.String("type", event.Type))
		return nil
	}

	profile, err := r.profiles.FindOne(ctx, &UserProfile{PartnerUserID: event.UID})
	if err != nil {
		return errutil.Internal("failed to query user profile", err)
	}
	if profile == nil {
		return errutil.NotFound("no profile for callback uid", nil)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tx = tx.Scopes(option.LockingUpdate)

		completion, err := r.completions.WithTrx(tx).FindOne(ctx, &SurveyCompletion{
			ProfileID: profile.ID,
			ClickID:   event.ClickID,
		})
		if err != nil {
			return errutil.Internal("failed to query survey completion", err)
		}
		if completion == nil {
			return errutil.NotFound("no completion for callback click_id", nil)
		}

		if completion.Status != StatusStarted {
			zapLog.Info("callback replay ignored",
				zap.String("click_id", event.ClickID),
				zap.String("status", completion.Status),
			)
			return nil
		}

		switch event.Type {
		case EventSurveyCompleted:
			return r.credit(ctx, tx, zapLog, profile, completion, event)
		case EventSurveyRejected:
			if err := r.completions.WithTrx(tx).Update(ctx, completion.ID, map[string]any{
				"status": StatusRejected,
			}); err != nil {
				return errutil.Internal("failed to reject survey completion", err)
			}
			zapLog.Info("survey completion rejected", zap.String("click_id", event.ClickID))
			return nil
		}
		return nil
	})
}

// credit applies a survey_completed event to a completion still in started.
func (r *Reconciler) credit(ctx context.Context, tx *gorm.DB, zapLog *zap.Logger, profile *UserProfile, completion *SurveyCompletion, event CallbackEvent) error {
	if event.Reward <= 0 {
		return errutil.BadRequest("callback reward must be positive", nil)
	}

	now := time.Now()
	if err := r.completions.WithTrx(tx).Update(ctx, completion.ID, map[string]any{
		"status":        StatusCompleted,
		"reward_amount": event.Reward,
		"completed_at":  now,
	}); err != nil {
		return errutil.Internal("failed to complete survey completion", err)
	}

	if err := r.profiles.WithTrx(tx).Update(ctx, profile.ID, map[string]any{
		"available_balance": gorm.Expr("available_balance + ?", event.Reward),
		"total_earnings":    gorm.Expr("total_earnings + ?", event.Reward),
	}); err != nil {
		return errutil.Internal("failed to credit profile balance", err)
	}

	metadata, err := json.Marshal(map[string]string{
		"survey_id": completion.SurveyID,
		"click_id":  completion.ClickID,
	})
	if err != nil {
		return errutil.Internal("failed to encode transaction metadata", err)
	}

	if err := r.transactions.WithTrx(tx).Create(ctx, &SurveyTransaction{
		ID:           r.node.Generate().String(),
		ProfileID:    profile.ID,
		CompletionID: &completion.ID,
		Amount:       event.Reward,
		Type:         TypeSurveyReward,
		Description:  "Reward for survey " + completion.SurveyID,
		Metadata:     datatypes.JSON(metadata),
		CreatedAt:    now,
	}); err != nil {
		return errutil.Internal("failed to append survey transaction", err)
	}

	zapLog.Info("survey reward credited",
		zap.String("click_id", completion.ClickID),
		zap.Float64("reward", event.Reward),
	)
	return nil
}
