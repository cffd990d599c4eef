package reward

import "time"

// VideoWatchSession tracks one user's attempt at one video. The partial
// unique index keeps at most one open session per (user, video); completed
// sessions accumulate freely.
type VideoWatchSession struct {
	ID            string     `gorm:"column:id;primaryKey" json:"id"`
	UserID        string     `gorm:"column:user_id;not null;uniqueIndex:idx_open_watch_session,where:not completed" json:"user_id"`
	VideoID       string     `gorm:"column:video_id;not null;uniqueIndex:idx_open_watch_session,where:not completed" json:"video_id"`
	StartedAt     time.Time  `gorm:"column:started_at" json:"started_at"`
	EndedAt       *time.Time `gorm:"column:ended_at" json:"ended_at"`
	WatchDuration int        `gorm:"column:watch_duration;default:0" json:"watch_duration"`
	PercentViewed float64    `gorm:"column:percent_viewed;default:0" json:"percent_viewed"`
	Completed     bool       `gorm:"column:completed;default:false" json:"completed"`
}

// QuizResponse is one graded answer. Immutable once created.
type QuizResponse struct {
	ID            string    `gorm:"column:id;primaryKey" json:"id"`
	SessionID     string    `gorm:"column:session_id;index;not null" json:"session_id"`
	QuestionID    string    `gorm:"column:question_id;not null" json:"question_id"`
	UserAnswer    string    `gorm:"column:user_answer" json:"user_answer"`
	IsCorrect     bool      `gorm:"column:is_correct" json:"is_correct"`
	PointsAwarded int       `gorm:"column:points_awarded" json:"points_awarded"`
	AnsweredAt    time.Time `gorm:"column:answered_at;autoCreateTime" json:"answered_at"`
}

// Reward is an append-only ledger entry for the point paths (quiz, video
// completion, rewarded ads). Points and user are immutable after creation;
// only PaidOut may flip, and only false to true.
type Reward struct {
	ID        string             `gorm:"column:id;primaryKey" json:"id"`
	UserID    string             `gorm:"column:user_id;index;not null" json:"user_id"`
	SessionID *string            `gorm:"column:session_id" json:"session_id"`
	Session   *VideoWatchSession `gorm:"foreignKey:SessionID;constraint:OnDelete:SET NULL" json:"-"`
	Points    int                `gorm:"column:points;not null" json:"points"`
	PaidOut   bool               `gorm:"column:paid_out;default:false" json:"paid_out"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// QuizResult is the outcome of grading one submission.
type QuizResult struct {
	QuizScore          float64 `json:"quiz_score"`
	CorrectAnswers     int     `json:"correct_answers"`
	TotalQuestions     int     `json:"total_questions"`
	TotalPointsAwarded int     `json:"total_points_awarded"`
}
