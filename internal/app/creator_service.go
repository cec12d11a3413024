package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"langquiz-service/internal/domain"
	"langquiz-service/internal/logger"
)

const (
	MinQuizQuestions   = 3
	MaxQuizQuestions   = 5
	MinQuestionOptions = 2
	MaxQuestionOptions = 6
)

// NewContent is the creator input for a content draft.
type NewContent struct {
	Language     domain.Language
	Level        domain.Level
	Title        string
	Caption      string
	VideoURL     string
	ThumbnailURL string
}

// NewQuestion is the creator input for one quiz question.
type NewQuestion struct {
	Prompt             string
	Options            []string
	CorrectOptionIndex int
}

// CreatorService covers content authoring, quiz replacement and publishing.
type CreatorService struct {
	store   Store
	quizzes QuizCache
	log     *logger.Logger
	now     func() time.Time
}

func NewCreatorService(store Store, quizzes QuizCache, log *logger.Logger) *CreatorService {
	return NewCreatorServiceWithClock(store, quizzes, log, time.Now)
}

// NewCreatorServiceWithClock allows deterministic publish timestamps in tests.
func NewCreatorServiceWithClock(store Store, quizzes QuizCache, log *logger.Logger, now func() time.Time) *CreatorService {
	if log == nil {
		log = logger.Nop()
	}
	return &CreatorService{store: store, quizzes: quizzes, log: log, now: now}
}

// CreateContent stores a new draft owned by creatorID.
func (s *CreatorService) CreateContent(ctx context.Context, creatorID int64, in NewContent) (domain.VideoContent, error) {
	if !in.Language.Valid() {
		return domain.VideoContent{}, domain.Invalid("language", "must be one of %v", domain.Languages)
	}
	if !in.Level.Valid() {
		return domain.VideoContent{}, domain.Invalid("level", "must be one of %v", domain.Levels)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.VideoContent{}, domain.Invalid("title", "cannot be empty")
	}
	videoURL := strings.TrimSpace(in.VideoURL)
	if videoURL == "" {
		return domain.VideoContent{}, domain.Invalid("video_url", "cannot be empty")
	}

	content := domain.VideoContent{
		CreatorID:    creatorID,
		Language:     in.Language,
		Level:        in.Level,
		Title:        title,
		Caption:      strings.TrimSpace(in.Caption),
		VideoURL:     videoURL,
		ThumbnailURL: strings.TrimSpace(in.ThumbnailURL),
		Status:       domain.StatusDraft,
		CreatedAt:    domain.StorageTime(s.now()),
	}
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.CreateContent(ctx, &content)
	})
	return content, err
}

// ListContent returns the creator's items, newest created first.
func (s *CreatorService) ListContent(ctx context.Context, creatorID int64) ([]domain.VideoContent, error) {
	var items []domain.VideoContent
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		items, err = tx.ListContentByCreator(ctx, creatorID)
		return err
	})
	if items == nil {
		items = []domain.VideoContent{}
	}
	return items, err
}

// ValidateQuestions checks quiz shape and returns the trimmed questions.
func ValidateQuestions(questions []NewQuestion) ([]NewQuestion, error) {
	if len(questions) < MinQuizQuestions || len(questions) > MaxQuizQuestions {
		return nil, domain.Invalid("questions", "quiz must have %d-%d questions (got %d)",
			MinQuizQuestions, MaxQuizQuestions, len(questions))
	}
	out := make([]NewQuestion, 0, len(questions))
	for i, q := range questions {
		prompt := strings.TrimSpace(q.Prompt)
		if prompt == "" {
			return nil, domain.Invalid("questions", "question %d: prompt cannot be empty", i)
		}
		if len(q.Options) < MinQuestionOptions || len(q.Options) > MaxQuestionOptions {
			return nil, domain.Invalid("questions", "question %d: must have %d-%d options (got %d)",
				i, MinQuestionOptions, MaxQuestionOptions, len(q.Options))
		}
		options := make([]string, len(q.Options))
		for j, opt := range q.Options {
			options[j] = strings.TrimSpace(opt)
			if options[j] == "" {
				return nil, domain.Invalid("questions", "question %d: options cannot be empty strings", i)
			}
		}
		if q.CorrectOptionIndex < 0 || q.CorrectOptionIndex >= len(options) {
			return nil, domain.Invalid("questions", "question %d: correct_option_index %d is out of range for %d options",
				i, q.CorrectOptionIndex, len(options))
		}
		out = append(out, NewQuestion{Prompt: prompt, Options: options, CorrectOptionIndex: q.CorrectOptionIndex})
	}
	return out, nil
}

// ReplaceQuiz swaps the content's quiz for a new one built from questions.
// Old question ids are discarded.
func (s *CreatorService) ReplaceQuiz(ctx context.Context, creatorID, contentID int64, questions []NewQuestion) (domain.Quiz, error) {
	cleaned, err := ValidateQuestions(questions)
	if err != nil {
		return domain.Quiz{}, err
	}

	now := domain.StorageTime(s.now())
	quiz := domain.Quiz{ContentID: contentID, CreatedAt: now}
	for _, q := range cleaned {
		quiz.Questions = append(quiz.Questions, domain.Question{
			Type:               domain.QuestionMultipleChoice,
			Prompt:             q.Prompt,
			Options:            q.Options,
			CorrectOptionIndex: q.CorrectOptionIndex,
			CreatedAt:          now,
		})
	}

	err = s.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		if _, err := s.ownedContent(ctx, tx, creatorID, contentID); err != nil {
			return err
		}
		return tx.ReplaceQuiz(ctx, &quiz)
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	s.invalidate(ctx, contentID)
	return quiz, nil
}

// CreatorQuiz returns the full quiz, answer key included, to its owner.
func (s *CreatorService) CreatorQuiz(ctx context.Context, creatorID, contentID int64) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		if _, err := s.ownedContent(ctx, tx, creatorID, contentID); err != nil {
			return err
		}
		var err error
		quiz, err = tx.GetQuizByContent(ctx, contentID)
		return err
	})
	return quiz, err
}

// Publish moves a draft to published. Publishing twice is a no-op.
func (s *CreatorService) Publish(ctx context.Context, creatorID, contentID int64) (domain.VideoContent, error) {
	var (
		content   domain.VideoContent
		published bool
	)
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		content, err = s.ownedContent(ctx, tx, creatorID, contentID)
		if err != nil {
			return err
		}
		if content.Published() {
			return nil
		}
		if strings.TrimSpace(content.VideoURL) == "" {
			return domain.Conflict("video_url is required to publish")
		}
		quiz, err := tx.GetQuizByContent(ctx, contentID)
		if errors.Is(err, domain.ErrQuizNotFound) {
			return domain.Conflict("a quiz with %d-%d questions is required to publish", MinQuizQuestions, MaxQuizQuestions)
		}
		if err != nil {
			return err
		}
		if n := len(quiz.Questions); n < MinQuizQuestions || n > MaxQuizQuestions {
			return domain.Conflict("quiz must have %d-%d questions to publish (currently has %d)",
				MinQuizQuestions, MaxQuizQuestions, n)
		}

		at := domain.StorageTime(s.now())
		if err := tx.PublishContent(ctx, contentID, at); err != nil {
			return err
		}
		content.Status = domain.StatusPublished
		content.PublishedAt = &at
		published = true
		return nil
	})
	if err != nil {
		return domain.VideoContent{}, err
	}
	if published {
		s.invalidate(ctx, contentID)
		s.log.Info("creator_publish", "content_id", content.ID, "creator_id", creatorID)
	}
	return content, nil
}

func (s *CreatorService) ownedContent(ctx context.Context, tx Tx, creatorID, contentID int64) (domain.VideoContent, error) {
	content, err := tx.GetContent(ctx, contentID)
	if err != nil {
		return domain.VideoContent{}, err
	}
	if content.CreatorID != creatorID {
		return domain.VideoContent{}, domain.ErrNotOwner
	}
	return content, nil
}

func (s *CreatorService) invalidate(ctx context.Context, contentID int64) {
	if s.quizzes == nil {
		return
	}
	if err := s.quizzes.Invalidate(ctx, contentID); err != nil {
		s.log.Warn("quiz cache invalidation failed", "content_id", contentID, "error", err)
	}
}
