package app

import (
	"context"
	"errors"
	"time"

	"langquiz-service/internal/domain"
)

// ErrDuplicateAward is returned by a store when a second positive XP award for
// the same (learner, content, day) violates its uniqueness guarantee.
var ErrDuplicateAward = errors.New("xp already awarded for content today")

// Store runs units of work atomically.
type Store interface {
	// RunInTx executes fn in one transaction; fn returning an error rolls back.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// FeedQuery selects published content for a language/level pair. After, when
// set, restricts results to rows strictly after the cursor position in
// (published_at DESC, id DESC) order.
type FeedQuery struct {
	Language domain.Language
	Level    domain.Level
	After    *Cursor
	Limit    int
}

// Tx is the repository surface available inside a transaction.
type Tx interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id int64) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	GetProfile(ctx context.Context, userID int64) (domain.LearnerProfile, error)
	SaveProfile(ctx context.Context, profile *domain.LearnerProfile) error
	IncrementXP(ctx context.Context, userID int64, amount int) (int, error)

	CreateContent(ctx context.Context, content *domain.VideoContent) error
	GetContent(ctx context.Context, id int64) (domain.VideoContent, error)
	PublishContent(ctx context.Context, id int64, at time.Time) error
	ListContentByCreator(ctx context.Context, creatorID int64) ([]domain.VideoContent, error)
	ListFeed(ctx context.Context, q FeedQuery) ([]domain.VideoContent, error)

	GetQuizByContent(ctx context.Context, contentID int64) (domain.Quiz, error)
	ReplaceQuiz(ctx context.Context, quiz *domain.Quiz) error

	HasAwardedXPOn(ctx context.Context, learnerID, contentID int64, date string) (bool, error)
	CreateAttempt(ctx context.Context, attempt *domain.QuizAttempt) error
	GetAttempt(ctx context.Context, id int64) (domain.QuizAttempt, error)
	ListRecentAttempts(ctx context.Context, learnerID int64, limit int) ([]domain.QuizAttempt, error)
	CreateXPEvent(ctx context.Context, event *domain.XPEvent) error

	// GetStreak returns the learner's streak, or a zero streak if none exists yet.
	GetStreak(ctx context.Context, learnerID int64) (domain.Streak, error)
	SaveStreak(ctx context.Context, streak domain.Streak) error
}

// QuizLoader fetches the learner-facing quiz projection from a backing store.
type QuizLoader interface {
	LoadQuiz(ctx context.Context, contentID int64) (domain.PublicQuiz, error)
}

// QuizCache serves learner quiz projections, loading on miss.
type QuizCache interface {
	GetQuiz(ctx context.Context, contentID int64) (domain.PublicQuiz, error)
	Invalidate(ctx context.Context, contentID int64) error
}
