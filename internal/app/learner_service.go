package app

import (
	"context"
	"errors"
	"time"

	"langquiz-service/internal/domain"
)

// RecentAttemptsLimit caps the attempt history returned with progress.
const RecentAttemptsLimit = 10

// LearnerService covers onboarding, the feed, quiz retrieval and progress.
type LearnerService struct {
	store   Store
	quizzes QuizCache
	now     func() time.Time
}

func NewLearnerService(store Store, quizzes QuizCache) *LearnerService {
	return &LearnerService{store: store, quizzes: quizzes, now: time.Now}
}

// SaveProfile creates or updates the learner's language and level. The
// accumulated XP is preserved.
func (s *LearnerService) SaveProfile(ctx context.Context, learnerID int64, language domain.Language, level domain.Level) (domain.LearnerProfile, error) {
	if !language.Valid() {
		return domain.LearnerProfile{}, domain.Invalid("target_language", "must be one of %v", domain.Languages)
	}
	if !level.Valid() {
		return domain.LearnerProfile{}, domain.Invalid("level", "must be one of %v", domain.Levels)
	}

	var profile domain.LearnerProfile
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		existing, err := tx.GetProfile(ctx, learnerID)
		switch {
		case errors.Is(err, domain.ErrProfileNotFound):
			existing = domain.LearnerProfile{UserID: learnerID, CreatedAt: domain.StorageTime(s.now())}
		case err != nil:
			return err
		}
		existing.TargetLanguage = language
		existing.Level = level
		if err := tx.SaveProfile(ctx, &existing); err != nil {
			return err
		}
		profile = existing
		return nil
	})
	return profile, err
}

// GetProfile returns the learner's profile or domain.ErrProfileNotFound.
func (s *LearnerService) GetProfile(ctx context.Context, learnerID int64) (domain.LearnerProfile, error) {
	var profile domain.LearnerProfile
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		profile, err = tx.GetProfile(ctx, learnerID)
		return err
	})
	return profile, err
}

// Feed returns one page of published content matching the learner's profile,
// newest first. An undecodable cursor restarts from the first page.
func (s *LearnerService) Feed(ctx context.Context, learnerID int64, cursor string, limit int) (domain.FeedPage, error) {
	limit = ClampFeedLimit(limit)
	query := FeedQuery{Limit: limit + 1}
	if c, ok := DecodeCursor(cursor); ok {
		query.After = &c
	}

	var items []domain.VideoContent
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		profile, err := tx.GetProfile(ctx, learnerID)
		if errors.Is(err, domain.ErrProfileNotFound) {
			return domain.ErrProfileRequired
		}
		if err != nil {
			return err
		}
		query.Language = profile.TargetLanguage
		query.Level = profile.Level
		items, err = tx.ListFeed(ctx, query)
		return err
	})
	if err != nil {
		return domain.FeedPage{}, err
	}

	page := domain.FeedPage{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		next := EncodeCursor(CursorFor(page.Items[limit-1]))
		page.NextCursor = &next
	}
	if page.Items == nil {
		page.Items = []domain.VideoContent{}
	}
	return page, nil
}

// QuizForAttempt returns the learner-facing quiz of a published content item.
func (s *LearnerService) QuizForAttempt(ctx context.Context, contentID int64) (domain.PublicQuiz, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, contentID)
	if err != nil {
		return domain.PublicQuiz{}, err
	}
	if quiz.Status != domain.StatusPublished {
		return domain.PublicQuiz{}, domain.ErrContentNotPublished
	}
	if quiz.QuizID == 0 {
		return domain.PublicQuiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

// Progress returns XP, streak and the most recent attempts. Learners without
// a profile or any activity get zero values.
func (s *LearnerService) Progress(ctx context.Context, learnerID int64) (domain.Progress, error) {
	var progress domain.Progress
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		profile, err := tx.GetProfile(ctx, learnerID)
		switch {
		case errors.Is(err, domain.ErrProfileNotFound):
		case err != nil:
			return err
		default:
			progress.TotalXP = profile.TotalXP
		}

		progress.Streak, err = tx.GetStreak(ctx, learnerID)
		if err != nil {
			return err
		}
		progress.RecentAttempts, err = tx.ListRecentAttempts(ctx, learnerID, RecentAttemptsLimit)
		return err
	})
	if progress.RecentAttempts == nil {
		progress.RecentAttempts = []domain.QuizAttempt{}
	}
	return progress, err
}
