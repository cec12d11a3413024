package http

import (
	"time"

	"langquiz-service/internal/app"
	"langquiz-service/internal/domain"
)

type contentView struct {
	ID           int64                `json:"id"`
	CreatorID    int64                `json:"creator_id"`
	Language     domain.Language      `json:"language"`
	Level        domain.Level         `json:"level"`
	Title        string               `json:"title"`
	Caption      string               `json:"caption"`
	VideoURL     string               `json:"video_url"`
	ThumbnailURL string               `json:"thumbnail_url"`
	Status       domain.ContentStatus `json:"status"`
	PublishedAt  *time.Time           `json:"published_at"`
}

func newContentView(c domain.VideoContent) contentView {
	return contentView{
		ID:           c.ID,
		CreatorID:    c.CreatorID,
		Language:     c.Language,
		Level:        c.Level,
		Title:        c.Title,
		Caption:      c.Caption,
		VideoURL:     c.VideoURL,
		ThumbnailURL: c.ThumbnailURL,
		Status:       c.Status,
		PublishedAt:  c.PublishedAt,
	}
}

type creatorContentView struct {
	contentView
	CreatedAt time.Time `json:"created_at"`
}

func newCreatorContentView(c domain.VideoContent) creatorContentView {
	return creatorContentView{contentView: newContentView(c), CreatedAt: c.CreatedAt}
}

type feedView struct {
	Items      []contentView `json:"items"`
	NextCursor *string       `json:"next_cursor"`
}

type creatorQuestionView struct {
	ID                 int64               `json:"id"`
	Type               domain.QuestionType `json:"type"`
	Prompt             string              `json:"prompt"`
	Options            []string            `json:"options"`
	CorrectOptionIndex int                 `json:"correct_option_index"`
}

type creatorQuizView struct {
	QuizID    int64                 `json:"quiz_id"`
	ContentID int64                 `json:"content_id"`
	Questions []creatorQuestionView `json:"questions"`
}

func newCreatorQuizView(q domain.Quiz) creatorQuizView {
	out := creatorQuizView{QuizID: q.ID, ContentID: q.ContentID, Questions: make([]creatorQuestionView, 0, len(q.Questions))}
	for _, qq := range q.Questions {
		out.Questions = append(out.Questions, creatorQuestionView{
			ID:                 qq.ID,
			Type:               qq.Type,
			Prompt:             qq.Prompt,
			Options:            qq.Options,
			CorrectOptionIndex: qq.CorrectOptionIndex,
		})
	}
	return out
}

// replaceQuizView is the authoring response after a quiz replacement.
type replaceQuizView struct {
	creatorQuizView
	QuestionCount int `json:"question_count"`
}

func newReplaceQuizView(q domain.Quiz) replaceQuizView {
	return replaceQuizView{creatorQuizView: newCreatorQuizView(q), QuestionCount: len(q.Questions)}
}

// learnerQuizView nests the content summary and the answer-free quiz.
type learnerQuizView struct {
	Content learnerQuizContentView `json:"content"`
	Quiz    learnerQuizBodyView    `json:"quiz"`
}

type learnerQuizContentView struct {
	ID       int64                `json:"id"`
	Title    string               `json:"title"`
	Language domain.Language      `json:"language"`
	Level    domain.Level         `json:"level"`
	VideoURL string               `json:"video_url"`
	Status   domain.ContentStatus `json:"status"`
}

type learnerQuizBodyView struct {
	ID        int64                   `json:"id"`
	Questions []domain.PublicQuestion `json:"questions"`
}

func newLearnerQuizView(q domain.PublicQuiz) learnerQuizView {
	questions := q.Questions
	if questions == nil {
		questions = []domain.PublicQuestion{}
	}
	return learnerQuizView{
		Content: learnerQuizContentView{
			ID:       q.ContentID,
			Title:    q.Title,
			Language: q.Language,
			Level:    q.Level,
			VideoURL: q.VideoURL,
			Status:   q.Status,
		},
		Quiz: learnerQuizBodyView{ID: q.QuizID, Questions: questions},
	}
}

type profileView struct {
	UserID         int64           `json:"user_id"`
	TargetLanguage domain.Language `json:"target_language"`
	Level          domain.Level    `json:"level"`
	TotalXP        int             `json:"total_xp"`
}

func newProfileView(p domain.LearnerProfile) profileView {
	return profileView{UserID: p.UserID, TargetLanguage: p.TargetLanguage, Level: p.Level, TotalXP: p.TotalXP}
}

type attemptView struct {
	AttemptID      int64     `json:"attempt_id"`
	ContentID      int64     `json:"content_id"`
	ScorePercent   int       `json:"score_percent"`
	CorrectCount   int       `json:"correct_count"`
	TotalQuestions int       `json:"total_questions"`
	XPAwarded      int       `json:"xp_awarded"`
	CompletedAt    time.Time `json:"completed_at"`
}

func newAttemptView(a domain.QuizAttempt) attemptView {
	return attemptView{
		AttemptID:      a.ID,
		ContentID:      a.ContentID,
		ScorePercent:   a.ScorePercent,
		CorrectCount:   a.CorrectCount,
		TotalQuestions: a.TotalQuestions,
		XPAwarded:      a.XPAwarded,
		CompletedAt:    a.CompletedAt,
	}
}

type progressView struct {
	TotalXP           int           `json:"total_xp"`
	CurrentStreakDays int           `json:"current_streak_days"`
	LastActiveDateUTC *string       `json:"last_active_date_utc"`
	RecentAttempts    []attemptView `json:"recent_attempts"`
}

func newProgressView(p domain.Progress) progressView {
	streak := p.Streak.View()
	out := progressView{
		TotalXP:           p.TotalXP,
		CurrentStreakDays: streak.CurrentStreakDays,
		LastActiveDateUTC: streak.LastActiveDateUTC,
		RecentAttempts:    make([]attemptView, 0, len(p.RecentAttempts)),
	}
	for _, a := range p.RecentAttempts {
		out.RecentAttempts = append(out.RecentAttempts, newAttemptView(a))
	}
	return out
}

type userView struct {
	ID    int64       `json:"id"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// request bodies

type profileRequest struct {
	TargetLanguage domain.Language `json:"target_language"`
	Level          domain.Level    `json:"level"`
}

type attemptRequest struct {
	Answers []domain.Answer `json:"answers"`
}

type contentRequest struct {
	Language     domain.Language `json:"language"`
	Level        domain.Level    `json:"level"`
	Title        string          `json:"title"`
	Caption      string          `json:"caption"`
	VideoURL     string          `json:"video_url"`
	ThumbnailURL string          `json:"thumbnail_url"`
}

func (c contentRequest) toInput() app.NewContent {
	return app.NewContent{
		Language:     c.Language,
		Level:        c.Level,
		Title:        c.Title,
		Caption:      c.Caption,
		VideoURL:     c.VideoURL,
		ThumbnailURL: c.ThumbnailURL,
	}
}

type questionRequest struct {
	Prompt             string   `json:"prompt"`
	Options            []string `json:"options"`
	CorrectOptionIndex *int     `json:"correct_option_index"`
}

type quizRequest struct {
	Questions []questionRequest `json:"questions"`
}

func (q quizRequest) toInput() ([]app.NewQuestion, error) {
	out := make([]app.NewQuestion, 0, len(q.Questions))
	for i, qq := range q.Questions {
		if qq.CorrectOptionIndex == nil {
			return nil, domain.Invalid("questions", "question %d: correct_option_index is required", i)
		}
		out = append(out, app.NewQuestion{Prompt: qq.Prompt, Options: qq.Options, CorrectOptionIndex: *qq.CorrectOptionIndex})
	}
	return out, nil
}
