package domain

import "time"

// Role separates learners from creators; a user holds exactly one.
type Role string

const (
	RoleLearner Role = "learner"
	RoleCreator Role = "creator"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleLearner || r == RoleCreator
}

// Language is a target language offered by the platform.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageSpanish Language = "es"
	LanguageFrench  Language = "fr"
)

// Languages lists every supported language.
var Languages = []Language{LanguageEnglish, LanguageSpanish, LanguageFrench}

func (l Language) Valid() bool {
	for _, known := range Languages {
		if l == known {
			return true
		}
	}
	return false
}

// Level is a CEFR proficiency level, A1 (lowest) through C2.
type Level string

const (
	LevelA1 Level = "A1"
	LevelA2 Level = "A2"
	LevelB1 Level = "B1"
	LevelB2 Level = "B2"
	LevelC1 Level = "C1"
	LevelC2 Level = "C2"
)

// Levels is ordered from lowest to highest proficiency.
var Levels = []Level{LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2}

func (l Level) Valid() bool {
	return l.Rank() >= 0
}

// Rank returns the ordinal position of l, or -1 when l is unknown.
func (l Level) Rank() int {
	for i, known := range Levels {
		if l == known {
			return i
		}
	}
	return -1
}

// ContentStatus is the one-way lifecycle of a video item.
type ContentStatus string

const (
	StatusDraft     ContentStatus = "draft"
	StatusPublished ContentStatus = "published"
)

// QuestionType is always multiple choice for now.
type QuestionType string

const QuestionMultipleChoice QuestionType = "multiple_choice"

// XPReason explains why an XP event was recorded.
type XPReason string

const (
	XPQuizCompleted XPReason = "quiz_completed"
	XPStreakBonus   XPReason = "streak_bonus"
)

// User is an account identity.
type User struct {
	ID        int64
	Email     string
	Role      Role
	CreatedAt time.Time
}

// LearnerProfile holds a learner's preferences and cumulative XP.
type LearnerProfile struct {
	UserID         int64
	TargetLanguage Language
	Level          Level
	TotalXP        int
	CreatedAt      time.Time
}

// VideoContent is a creator-owned video item. PublishedAt is non-nil iff
// Status is StatusPublished.
type VideoContent struct {
	ID           int64
	CreatorID    int64
	Language     Language
	Level        Level
	Title        string
	Caption      string
	VideoURL     string
	ThumbnailURL string
	Status       ContentStatus
	PublishedAt  *time.Time
	CreatedAt    time.Time
}

// Published reports whether the item is visible to learners.
func (c VideoContent) Published() bool {
	return c.Status == StatusPublished
}

// Question models an MCQ question; CorrectOptionIndex indexes Options.
type Question struct {
	ID                 int64
	QuizID             int64
	Type               QuestionType
	Prompt             string
	Options            []string
	CorrectOptionIndex int
	CreatedAt          time.Time
}

// Quiz is the single quiz attached to a content item, questions in insertion order.
type Quiz struct {
	ID        int64
	ContentID int64
	Questions []Question
	CreatedAt time.Time
}

// QuizAttempt is an immutable record of one scored submission.
type QuizAttempt struct {
	ID               int64
	LearnerID        int64
	ContentID        int64
	QuizID           int64
	ScorePercent     int
	CorrectCount     int
	TotalQuestions   int
	XPAwarded        int
	CompletedAt      time.Time
	CompletedDateUTC string
}

// XPEvent is the audit record of a positive XP award.
type XPEvent struct {
	ID             int64
	LearnerID      int64
	ContentID      *int64
	Reason         XPReason
	Amount         int
	CreatedAt      time.Time
	CreatedDateUTC string
}

// Streak counts consecutive UTC days of activity. An empty LastActiveDateUTC
// means no activity was ever recorded.
type Streak struct {
	LearnerID         int64
	CurrentStreakDays int
	LastActiveDateUTC string
}

// Answer is one learner selection inside an attempt submission.
type Answer struct {
	QuestionID    int64 `json:"question_id"`
	SelectedIndex int   `json:"selected_index"`
}

// AttemptSubmission is the scoring input for a single quiz attempt.
type AttemptSubmission struct {
	ContentID int64
	Answers   []Answer
}

// StreakView is the wire projection of a Streak.
type StreakView struct {
	CurrentStreakDays int     `json:"current_streak_days"`
	LastActiveDateUTC *string `json:"last_active_date_utc"`
}

// View converts a streak to its wire form, mapping "no activity" to null.
func (s Streak) View() StreakView {
	view := StreakView{CurrentStreakDays: s.CurrentStreakDays}
	if s.LastActiveDateUTC != "" {
		date := s.LastActiveDateUTC
		view.LastActiveDateUTC = &date
	}
	return view
}

// AttemptResult is returned to the learner after a submission.
type AttemptResult struct {
	AttemptID      int64      `json:"attempt_id"`
	ScorePercent   int        `json:"score_percent"`
	CorrectCount   int        `json:"correct_count"`
	TotalQuestions int        `json:"total_questions"`
	XPAwarded      int        `json:"xp_awarded"`
	Streak         StreakView `json:"streak"`
}

// PublicQuestion is a question as shown to learners. It deliberately has no
// field for the correct option.
type PublicQuestion struct {
	ID      int64        `json:"id"`
	Type    QuestionType `json:"type"`
	Prompt  string       `json:"prompt"`
	Options []string     `json:"options"`
}

// PublicQuiz is the learner-facing projection of a content item and its quiz.
// QuizID is zero when the content has no quiz attached.
type PublicQuiz struct {
	ContentID int64            `json:"content_id"`
	Title     string           `json:"title"`
	Language  Language         `json:"language"`
	Level     Level            `json:"level"`
	VideoURL  string           `json:"video_url"`
	Status    ContentStatus    `json:"status"`
	QuizID    int64            `json:"quiz_id"`
	Questions []PublicQuestion `json:"questions"`
}

// PublicQuestions strips the answer key from a quiz's questions.
func PublicQuestions(questions []Question) []PublicQuestion {
	out := make([]PublicQuestion, 0, len(questions))
	for _, q := range questions {
		options := make([]string, len(q.Options))
		copy(options, q.Options)
		out = append(out, PublicQuestion{
			ID:      q.ID,
			Type:    q.Type,
			Prompt:  q.Prompt,
			Options: options,
		})
	}
	return out
}

// FeedPage is one page of the learner feed.
type FeedPage struct {
	Items      []VideoContent
	NextCursor *string
}

// Progress summarises a learner's XP, streak and latest attempts.
type Progress struct {
	TotalXP        int
	Streak         Streak
	RecentAttempts []QuizAttempt
}
