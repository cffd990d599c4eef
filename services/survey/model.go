package survey

import (
	"time"

	"gorm.io/datatypes"
)

// Completion statuses. A completion is created as started and moves exactly
// once, to completed or rejected.
const (
	StatusStarted   = "started"
	StatusCompleted = "completed"
	StatusRejected  = "rejected"
)

// TypeSurveyReward labels ledger entries written when a completion is
// credited.
const TypeSurveyReward = "survey_reward"

// UserProfile carries the per-user survey state: the identifier we hand to
// the affiliate partner and the materialized balance. Balance fields are only
// ever updated inside the same transaction that appends the matching
// SurveyTransaction row.
type UserProfile struct {
	ID               string    `gorm:"column:id;primaryKey" json:"id"`
	UserID           string    `gorm:"column:user_id;uniqueIndex;not null" json:"user_id"`
	PartnerUserID    string    `gorm:"column:partner_user_id;uniqueIndex;not null" json:"partner_user_id"`
	AvailableBalance float64   `gorm:"column:available_balance;default:0" json:"available_balance"`
	TotalEarnings    float64   `gorm:"column:total_earnings;default:0" json:"total_earnings"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// SurveyCompletion tracks one user's attempt at one partner survey. The
// composite unique index allows a single attempt per (profile, survey);
// ClickID is the correlation key the partner echoes back in callbacks.
type SurveyCompletion struct {
	ID           string     `gorm:"column:id;primaryKey" json:"id"`
	ProfileID    string     `gorm:"column:profile_id;not null;uniqueIndex:idx_profile_survey" json:"profile_id"`
	SurveyID     string     `gorm:"column:survey_id;not null;uniqueIndex:idx_profile_survey" json:"survey_id"`
	ClickID      string     `gorm:"column:click_id;uniqueIndex;not null" json:"click_id"`
	Status       string     `gorm:"column:status;default:started" json:"status"`
	RewardAmount float64    `gorm:"column:reward_amount;default:0" json:"reward_amount"`
	StartedAt    time.Time  `gorm:"column:started_at;autoCreateTime" json:"started_at"`
	CompletedAt  *time.Time `gorm:"column:completed_at" json:"completed_at"`
}

// SurveyTransaction is an append-only money log. Rows are never updated or
// deleted; the profile balance is derivable by summing them.
type SurveyTransaction struct {
	ID           string         `gorm:"column:id;primaryKey" json:"id"`
	ProfileID    string         `gorm:"column:profile_id;index;not null" json:"profile_id"`
	CompletionID *string        `gorm:"column:completion_id" json:"completion_id"`
	Amount       float64        `gorm:"column:amount;not null" json:"amount"`
	Type         string         `gorm:"column:type;not null" json:"type"`
	Description  string         `gorm:"column:description" json:"description"`
	Metadata     datatypes.JSON `gorm:"column:metadata" json:"metadata"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// Survey is a partner survey offer as shown to the client.
type Survey struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Reward          float64 `json:"reward"`
	Duration        int     `json:"duration"`
	Category        string  `json:"category"`
	Rating          float64 `json:"rating"`
	ConversionLevel string  `json:"conversion_level"`
}

// StartSurveyResult is returned to the client after a survey link is minted.
type StartSurveyResult struct {
	SurveyURL string `json:"survey_url"`
	ClickID   string `json:"click_id"`
}

// Dashboard aggregates the survey state for one user.
type Dashboard struct {
	UserProfile        *UserProfile         `json:"user_profile"`
	RecentCompletions  []*SurveyCompletion  `json:"recent_completions"`
	RecentTransactions []*SurveyTransaction `json:"recent_transactions"`
}
