package app_test

import (
	"context"
	"testing"
	"time"

	"langquiz-service/internal/app"
	"langquiz-service/internal/domain"
	"langquiz-service/internal/infra/memory"
	"langquiz-service/internal/logger"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Set(layout string) {
	t, err := time.Parse(time.RFC3339, layout)
	if err != nil {
		panic(err)
	}
	c.now = t
}

type fixture struct {
	store    *memory.Store
	clock    *fakeClock
	hub      *app.ProgressHub
	creators *app.CreatorService
	learners *app.LearnerService
	attempts *app.AttemptService
	accounts *app.AccountService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	clock := &fakeClock{now: time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)}
	cache := memory.NewQuizCache(store, time.Minute)
	hub := app.NewProgressHub()
	return &fixture{
		store:    store,
		clock:    clock,
		hub:      hub,
		creators: app.NewCreatorServiceWithClock(store, cache, logger.Nop(), clock.Now),
		learners: app.NewLearnerService(store, cache),
		attempts: app.NewAttemptServiceWithClock(store, hub, logger.Nop(), clock.Now),
		accounts: app.NewAccountService(store),
	}
}

func (f *fixture) user(t *testing.T, email string, role domain.Role) domain.User {
	t.Helper()
	u, err := f.accounts.CreateUser(context.Background(), email, role)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// publishedQuiz creates a published item whose n questions all have the
// correct option at index 1.
func (f *fixture) publishedQuiz(t *testing.T, creatorID int64, n int) (domain.VideoContent, domain.Quiz) {
	t.Helper()
	ctx := context.Background()
	content, err := f.creators.CreateContent(ctx, creatorID, app.NewContent{
		Language: domain.LanguageSpanish,
		Level:    domain.LevelA2,
		Title:    "En el mercado",
		VideoURL: "https://cdn.example.com/mercado.mp4",
	})
	if err != nil {
		t.Fatalf("create content: %v", err)
	}
	questions := make([]app.NewQuestion, n)
	for i := range questions {
		questions[i] = app.NewQuestion{Prompt: "¿Qué?", Options: []string{"uno", "dos", "tres"}, CorrectOptionIndex: 1}
	}
	quiz, err := f.creators.ReplaceQuiz(ctx, creatorID, content.ID, questions)
	if err != nil {
		t.Fatalf("replace quiz: %v", err)
	}
	content, err = f.creators.Publish(ctx, creatorID, content.ID)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	return content, quiz
}

// answers returns a submission with the first `correct` answers right.
func answers(quiz domain.Quiz, correct int) []domain.Answer {
	out := make([]domain.Answer, len(quiz.Questions))
	for i, q := range quiz.Questions {
		selected := 0
		if i < correct {
			selected = q.CorrectOptionIndex
		}
		out[i] = domain.Answer{QuestionID: q.ID, SelectedIndex: selected}
	}
	return out
}
