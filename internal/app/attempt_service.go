package app

import (
	"context"
	"errors"
	"time"

	"langquiz-service/internal/domain"
	"langquiz-service/internal/logger"
)

// AttemptService scores quiz attempts and applies the XP and streak rules.
type AttemptService struct {
	store Store
	hub   ProgressPublisher
	log   *logger.Logger
	now   func() time.Time
}

func NewAttemptService(store Store, hub ProgressPublisher, log *logger.Logger) *AttemptService {
	return NewAttemptServiceWithClock(store, hub, log, time.Now)
}

// NewAttemptServiceWithClock allows deterministic dates in tests.
func NewAttemptServiceWithClock(store Store, hub ProgressPublisher, log *logger.Logger, now func() time.Time) *AttemptService {
	if log == nil {
		log = logger.Nop()
	}
	return &AttemptService{store: store, hub: hub, log: log, now: now}
}

// Submit scores a learner's answers for a content item and records the
// attempt, any XP award and the streak transition in one transaction.
func (s *AttemptService) Submit(ctx context.Context, learnerID int64, sub domain.AttemptSubmission) (domain.AttemptResult, error) {
	// One clock read per submission: timestamp, eligibility day and streak day
	// must agree even across midnight.
	completedAt := domain.StorageTime(s.now())
	today := domain.UTCDate(completedAt)

	result, update, err := s.submitAt(ctx, learnerID, sub, completedAt, today)
	if errors.Is(err, ErrDuplicateAward) {
		// A concurrent submission won the day's award; the rerun records zero XP.
		s.log.Warn("xp award race detected, retrying", "learner_id", learnerID, "content_id", sub.ContentID)
		result, update, err = s.submitAt(ctx, learnerID, sub, completedAt, today)
	}
	if err != nil {
		return domain.AttemptResult{}, err
	}

	s.log.Info("learner_attempt_submitted",
		"learner_id", learnerID,
		"content_id", sub.ContentID,
		"attempt_id", result.AttemptID,
		"score_percent", result.ScorePercent,
		"xp_awarded", result.XPAwarded,
		"streak_days", result.Streak.CurrentStreakDays,
	)
	if s.hub != nil {
		s.hub.Publish(learnerID, update)
	}
	return result, nil
}

func (s *AttemptService) submitAt(ctx context.Context, learnerID int64, sub domain.AttemptSubmission, completedAt time.Time, today string) (domain.AttemptResult, ProgressUpdate, error) {
	var (
		result domain.AttemptResult
		update ProgressUpdate
	)
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		content, err := tx.GetContent(ctx, sub.ContentID)
		if err != nil {
			return err
		}
		if !content.Published() {
			return domain.ErrContentNotPublished
		}
		quiz, err := tx.GetQuizByContent(ctx, content.ID)
		if err != nil {
			return err
		}

		score, err := ScoreAttempt(quiz, sub.Answers)
		if err != nil {
			return err
		}

		earned, err := tx.HasAwardedXPOn(ctx, learnerID, content.ID, today)
		if err != nil {
			return err
		}
		xp := XPForScore(score.Percent, earned)

		attempt := domain.QuizAttempt{
			LearnerID:        learnerID,
			ContentID:        content.ID,
			QuizID:           quiz.ID,
			ScorePercent:     score.Percent,
			CorrectCount:     score.CorrectCount,
			TotalQuestions:   score.TotalQuestions,
			XPAwarded:        xp,
			CompletedAt:      completedAt,
			CompletedDateUTC: today,
		}
		if err := tx.CreateAttempt(ctx, &attempt); err != nil {
			return err
		}

		totalXP, err := s.awardXP(ctx, tx, learnerID, content, xp, completedAt, today)
		if err != nil {
			return err
		}

		streak, err := tx.GetStreak(ctx, learnerID)
		if err != nil {
			return err
		}
		streak = AdvanceStreak(streak, today)
		if err := tx.SaveStreak(ctx, streak); err != nil {
			return err
		}

		result = domain.AttemptResult{
			AttemptID:      attempt.ID,
			ScorePercent:   attempt.ScorePercent,
			CorrectCount:   attempt.CorrectCount,
			TotalQuestions: attempt.TotalQuestions,
			XPAwarded:      attempt.XPAwarded,
			Streak:         streak.View(),
		}
		update = ProgressUpdate{
			AttemptID:    attempt.ID,
			ContentID:    content.ID,
			ScorePercent: attempt.ScorePercent,
			XPAwarded:    attempt.XPAwarded,
			TotalXP:      totalXP,
			Streak:       streak.View(),
			At:           completedAt,
		}
		return nil
	})
	return result, update, err
}

// awardXP credits a positive award to the learner profile and the event log,
// returning the learner's resulting total. A learner who never onboarded gets
// a profile seeded from the content's language and level.
func (s *AttemptService) awardXP(ctx context.Context, tx Tx, learnerID int64, content domain.VideoContent, xp int, at time.Time, today string) (int, error) {
	profile, err := tx.GetProfile(ctx, learnerID)
	switch {
	case errors.Is(err, domain.ErrProfileNotFound):
		if xp == 0 {
			return 0, nil
		}
		profile = domain.LearnerProfile{
			UserID:         learnerID,
			TargetLanguage: content.Language,
			Level:          content.Level,
			CreatedAt:      at,
		}
		if err := tx.SaveProfile(ctx, &profile); err != nil {
			return 0, err
		}
	case err != nil:
		return 0, err
	}
	if xp == 0 {
		return profile.TotalXP, nil
	}

	total, err := tx.IncrementXP(ctx, learnerID, xp)
	if err != nil {
		return 0, err
	}
	contentID := content.ID
	event := domain.XPEvent{
		LearnerID:      learnerID,
		ContentID:      &contentID,
		Reason:         domain.XPQuizCompleted,
		Amount:         xp,
		CreatedAt:      at,
		CreatedDateUTC: today,
	}
	if err := tx.CreateXPEvent(ctx, &event); err != nil {
		return 0, err
	}
	return total, nil
}

// GetAttempt returns one of the learner's own attempts.
func (s *AttemptService) GetAttempt(ctx context.Context, learnerID, attemptID int64) (domain.QuizAttempt, error) {
	var attempt domain.QuizAttempt
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		attempt, err = tx.GetAttempt(ctx, attemptID)
		return err
	})
	if err != nil {
		return domain.QuizAttempt{}, err
	}
	if attempt.LearnerID != learnerID {
		return domain.QuizAttempt{}, domain.ErrNotAttemptOwner
	}
	return attempt, nil
}
