package postgres

import (
	"time"

	"github.com/uptrace/bun"
	"langquiz-service/internal/domain"
)

type userModel struct {
	bun.BaseModel `bun:"table:app_user,alias:u"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Email     string    `bun:"email,notnull"`
	Role      string    `bun:"role,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

func (m userModel) toDomain() domain.User {
	return domain.User{ID: m.ID, Email: m.Email, Role: domain.Role(m.Role), CreatedAt: m.CreatedAt.UTC()}
}

type profileModel struct {
	bun.BaseModel `bun:"table:learner_profile,alias:lp"`

	UserID         int64     `bun:"user_id,pk"`
	TargetLanguage string    `bun:"target_language,notnull"`
	Level          string    `bun:"level,notnull"`
	TotalXP        int       `bun:"total_xp,notnull"`
	CreatedAt      time.Time `bun:"created_at,notnull"`
}

func (m profileModel) toDomain() domain.LearnerProfile {
	return domain.LearnerProfile{
		UserID:         m.UserID,
		TargetLanguage: domain.Language(m.TargetLanguage),
		Level:          domain.Level(m.Level),
		TotalXP:        m.TotalXP,
		CreatedAt:      m.CreatedAt.UTC(),
	}
}

type contentModel struct {
	bun.BaseModel `bun:"table:video_content,alias:vc"`

	ID           int64      `bun:"id,pk,autoincrement"`
	CreatorID    int64      `bun:"creator_id,notnull"`
	Language     string     `bun:"language,notnull"`
	Level        string     `bun:"level,notnull"`
	Title        string     `bun:"title,notnull"`
	Caption      string     `bun:"caption,notnull"`
	VideoURL     string     `bun:"video_url,notnull"`
	ThumbnailURL string     `bun:"thumbnail_url,notnull"`
	Status       string     `bun:"status,notnull"`
	PublishedAt  *time.Time `bun:"published_at"`
	CreatedAt    time.Time  `bun:"created_at,notnull"`
}

func contentFromDomain(c domain.VideoContent) contentModel {
	return contentModel{
		ID:           c.ID,
		CreatorID:    c.CreatorID,
		Language:     string(c.Language),
		Level:        string(c.Level),
		Title:        c.Title,
		Caption:      c.Caption,
		VideoURL:     c.VideoURL,
		ThumbnailURL: c.ThumbnailURL,
		Status:       string(c.Status),
		PublishedAt:  c.PublishedAt,
		CreatedAt:    c.CreatedAt,
	}
}

func (m contentModel) toDomain() domain.VideoContent {
	out := domain.VideoContent{
		ID:           m.ID,
		CreatorID:    m.CreatorID,
		Language:     domain.Language(m.Language),
		Level:        domain.Level(m.Level),
		Title:        m.Title,
		Caption:      m.Caption,
		VideoURL:     m.VideoURL,
		ThumbnailURL: m.ThumbnailURL,
		Status:       domain.ContentStatus(m.Status),
		CreatedAt:    m.CreatedAt.UTC(),
	}
	if m.PublishedAt != nil {
		at := m.PublishedAt.UTC()
		out.PublishedAt = &at
	}
	return out
}

type quizModel struct {
	bun.BaseModel `bun:"table:quiz,alias:qz"`

	ID        int64     `bun:"id,pk,autoincrement"`
	ContentID int64     `bun:"content_id,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

type questionModel struct {
	bun.BaseModel `bun:"table:question,alias:qn"`

	ID                 int64     `bun:"id,pk,autoincrement"`
	QuizID             int64     `bun:"quiz_id,notnull"`
	Type               string    `bun:"type,notnull"`
	Prompt             string    `bun:"prompt,notnull"`
	Options            []string  `bun:"options,type:jsonb,notnull"`
	CorrectOptionIndex int       `bun:"correct_option_index,notnull"`
	CreatedAt          time.Time `bun:"created_at,notnull"`
}

func (m questionModel) toDomain() domain.Question {
	return domain.Question{
		ID:                 m.ID,
		QuizID:             m.QuizID,
		Type:               domain.QuestionType(m.Type),
		Prompt:             m.Prompt,
		Options:            m.Options,
		CorrectOptionIndex: m.CorrectOptionIndex,
		CreatedAt:          m.CreatedAt.UTC(),
	}
}

type attemptModel struct {
	bun.BaseModel `bun:"table:quiz_attempt,alias:qa"`

	ID               int64     `bun:"id,pk,autoincrement"`
	UserID           int64     `bun:"user_id,notnull"`
	ContentID        int64     `bun:"content_id,notnull"`
	QuizID           int64     `bun:"quiz_id,notnull"`
	ScorePercent     int       `bun:"score_percent,notnull"`
	CorrectCount     int       `bun:"correct_count,notnull"`
	TotalQuestions   int       `bun:"total_questions,notnull"`
	XPAwarded        int       `bun:"xp_awarded,notnull"`
	CompletedAt      time.Time `bun:"completed_at,notnull"`
	CompletedDateUTC string    `bun:"completed_date_utc,type:text,notnull"`
}

func attemptFromDomain(a domain.QuizAttempt) attemptModel {
	return attemptModel{
		ID:               a.ID,
		UserID:           a.LearnerID,
		ContentID:        a.ContentID,
		QuizID:           a.QuizID,
		ScorePercent:     a.ScorePercent,
		CorrectCount:     a.CorrectCount,
		TotalQuestions:   a.TotalQuestions,
		XPAwarded:        a.XPAwarded,
		CompletedAt:      a.CompletedAt,
		CompletedDateUTC: a.CompletedDateUTC,
	}
}

func (m attemptModel) toDomain() domain.QuizAttempt {
	return domain.QuizAttempt{
		ID:               m.ID,
		LearnerID:        m.UserID,
		ContentID:        m.ContentID,
		QuizID:           m.QuizID,
		ScorePercent:     m.ScorePercent,
		CorrectCount:     m.CorrectCount,
		TotalQuestions:   m.TotalQuestions,
		XPAwarded:        m.XPAwarded,
		CompletedAt:      m.CompletedAt.UTC(),
		CompletedDateUTC: m.CompletedDateUTC,
	}
}

type xpEventModel struct {
	bun.BaseModel `bun:"table:xp_event,alias:xe"`

	ID             int64     `bun:"id,pk,autoincrement"`
	UserID         int64     `bun:"user_id,notnull"`
	ContentID      *int64    `bun:"content_id"`
	Reason         string    `bun:"reason,notnull"`
	Amount         int       `bun:"amount,notnull"`
	CreatedAt      time.Time `bun:"created_at,notnull"`
	CreatedDateUTC string    `bun:"created_date_utc,type:text,notnull"`
}

type streakModel struct {
	bun.BaseModel `bun:"table:streak,alias:st"`

	UserID            int64   `bun:"user_id,pk"`
	CurrentStreakDays int     `bun:"current_streak_days,notnull"`
	LastActiveDateUTC *string `bun:"last_active_date_utc,type:text"`
}

func (m streakModel) toDomain() domain.Streak {
	s := domain.Streak{LearnerID: m.UserID, CurrentStreakDays: m.CurrentStreakDays}
	if m.LastActiveDateUTC != nil {
		s.LastActiveDateUTC = *m.LastActiveDateUTC
	}
	return s
}
