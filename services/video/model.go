package video

import (
	"regexp"
	"time"
)

// VideoTask is a watchable video with an attached quiz.
type VideoTask struct {
	ID          string         `gorm:"column:id;primaryKey" json:"id"`
	Title       string         `gorm:"column:title;not null" json:"title"`
	Description string         `gorm:"column:description" json:"description"`
	YoutubeURL  string         `gorm:"column:youtube_url;not null" json:"youtube_url"`
	YTVideoID   string         `gorm:"column:yt_video_id" json:"yt_video_id"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	Questions   []QuizQuestion `gorm:"foreignKey:VideoID;constraint:OnDelete:CASCADE" json:"questions,omitempty"`
}

// QuizQuestion belongs to a VideoTask. CorrectAnswer never leaves the
// service; responses are graded server-side.
type QuizQuestion struct {
	ID            string    `gorm:"column:id;primaryKey" json:"id"`
	VideoID       string    `gorm:"column:video_id;index;not null" json:"video_id"`
	QuestionText  string    `gorm:"column:question_text;not null" json:"question_text"`
	CorrectAnswer string    `gorm:"column:correct_answer;not null" json:"-"`
	Points        int       `gorm:"column:points;default:1" json:"points"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

var ytVideoIDPattern = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([^&\n?#]+)`)

// ExtractYTVideoID pulls the video id out of a youtube watch or short URL,
// empty when the URL has neither form.
func ExtractYTVideoID(url string) string {
	m := ytVideoIDPattern.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}
