package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"langquiz-service/internal/app"
	"langquiz-service/internal/domain"
)

// Store is an in-memory implementation of app.Store. Transactions are
// serialized under one mutex. Reads use the committed state directly; the
// first write clones it, and the clone is swapped in only when the unit of
// work succeeds.
type Store struct {
	mu    sync.Mutex
	state *state
}

type sequences struct {
	user, content, quiz, question, attempt, xpEvent int64
}

type state struct {
	seq           sequences
	users         map[int64]domain.User
	profiles      map[int64]domain.LearnerProfile
	contents      map[int64]domain.VideoContent
	quizzes       map[int64]domain.Quiz
	quizByContent map[int64]int64
	attempts      map[int64]domain.QuizAttempt
	xpEvents      []domain.XPEvent
	streaks       map[int64]domain.Streak
}

func NewStore() *Store {
	return &Store{state: &state{
		users:         make(map[int64]domain.User),
		profiles:      make(map[int64]domain.LearnerProfile),
		contents:      make(map[int64]domain.VideoContent),
		quizzes:       make(map[int64]domain.Quiz),
		quizByContent: make(map[int64]int64),
		attempts:      make(map[int64]domain.QuizAttempt),
		streaks:       make(map[int64]domain.Streak),
	}}
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx app.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &tx{st: s.state}
	if err := fn(ctx, t); err != nil {
		return err
	}
	if t.cloned {
		s.state = t.st
	}
	return nil
}

// LoadQuiz implements app.QuizLoader for the in-memory backend.
func (s *Store) LoadQuiz(ctx context.Context, contentID int64) (domain.PublicQuiz, error) {
	var out domain.PublicQuiz
	err := s.RunInTx(ctx, func(ctx context.Context, t app.Tx) error {
		content, err := t.GetContent(ctx, contentID)
		if err != nil {
			return err
		}
		out = domain.PublicQuiz{
			ContentID: content.ID,
			Title:     content.Title,
			Language:  content.Language,
			Level:     content.Level,
			VideoURL:  content.VideoURL,
			Status:    content.Status,
			Questions: []domain.PublicQuestion{},
		}
		quiz, err := t.GetQuizByContent(ctx, contentID)
		switch {
		case errors.Is(err, domain.ErrQuizNotFound):
			return nil
		case err != nil:
			return err
		}
		out.QuizID = quiz.ID
		out.Questions = domain.PublicQuestions(quiz.Questions)
		return nil
	})
	return out, err
}

// XPEvents returns a copy of the XP audit log (tests and diagnostics).
func (s *Store) XPEvents() []domain.XPEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.XPEvent, len(s.state.xpEvents))
	copy(out, s.state.xpEvents)
	return out
}

// AttemptCount returns how many attempts have been committed.
func (s *Store) AttemptCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.attempts)
}

func (st *state) clone() *state {
	out := &state{
		seq:           st.seq,
		users:         make(map[int64]domain.User, len(st.users)),
		profiles:      make(map[int64]domain.LearnerProfile, len(st.profiles)),
		contents:      make(map[int64]domain.VideoContent, len(st.contents)),
		quizzes:       make(map[int64]domain.Quiz, len(st.quizzes)),
		quizByContent: make(map[int64]int64, len(st.quizByContent)),
		attempts:      make(map[int64]domain.QuizAttempt, len(st.attempts)),
		xpEvents:      make([]domain.XPEvent, len(st.xpEvents)),
		streaks:       make(map[int64]domain.Streak, len(st.streaks)),
	}
	for k, v := range st.users {
		out.users[k] = v
	}
	for k, v := range st.profiles {
		out.profiles[k] = v
	}
	for k, v := range st.contents {
		out.contents[k] = v
	}
	// Quizzes are replaced wholesale, never edited in place, so sharing the
	// question slices between snapshots is safe.
	for k, v := range st.quizzes {
		out.quizzes[k] = v
	}
	for k, v := range st.quizByContent {
		out.quizByContent[k] = v
	}
	for k, v := range st.attempts {
		out.attempts[k] = v
	}
	copy(out.xpEvents, st.xpEvents)
	for k, v := range st.streaks {
		out.streaks[k] = v
	}
	return out
}

type tx struct {
	st     *state
	cloned bool
}

// mutate switches the transaction onto a private copy before its first write.
func (t *tx) mutate() {
	if !t.cloned {
		t.st = t.st.clone()
		t.cloned = true
	}
}

func (t *tx) CreateUser(_ context.Context, user *domain.User) error {
	t.mutate()
	for _, u := range t.st.users {
		if u.Email == user.Email {
			return domain.ErrEmailTaken
		}
	}
	t.st.seq.user++
	user.ID = t.st.seq.user
	t.st.users[user.ID] = *user
	return nil
}

func (t *tx) GetUser(_ context.Context, id int64) (domain.User, error) {
	u, ok := t.st.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return u, nil
}

func (t *tx) GetUserByEmail(_ context.Context, email string) (domain.User, error) {
	for _, u := range t.st.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (t *tx) GetProfile(_ context.Context, userID int64) (domain.LearnerProfile, error) {
	p, ok := t.st.profiles[userID]
	if !ok {
		return domain.LearnerProfile{}, domain.ErrProfileNotFound
	}
	return p, nil
}

func (t *tx) SaveProfile(_ context.Context, profile *domain.LearnerProfile) error {
	t.mutate()
	if existing, ok := t.st.profiles[profile.UserID]; ok {
		profile.TotalXP = existing.TotalXP
		profile.CreatedAt = existing.CreatedAt
	}
	t.st.profiles[profile.UserID] = *profile
	return nil
}

func (t *tx) IncrementXP(_ context.Context, userID int64, amount int) (int, error) {
	t.mutate()
	p, ok := t.st.profiles[userID]
	if !ok {
		return 0, domain.ErrProfileNotFound
	}
	p.TotalXP += amount
	t.st.profiles[userID] = p
	return p.TotalXP, nil
}

func (t *tx) CreateContent(_ context.Context, content *domain.VideoContent) error {
	t.mutate()
	t.st.seq.content++
	content.ID = t.st.seq.content
	t.st.contents[content.ID] = *content
	return nil
}

func (t *tx) GetContent(_ context.Context, id int64) (domain.VideoContent, error) {
	c, ok := t.st.contents[id]
	if !ok {
		return domain.VideoContent{}, domain.ErrContentNotFound
	}
	return c, nil
}

func (t *tx) PublishContent(_ context.Context, id int64, at time.Time) error {
	t.mutate()
	c, ok := t.st.contents[id]
	if !ok {
		return domain.ErrContentNotFound
	}
	if c.Published() {
		return nil
	}
	at = at.UTC()
	c.Status = domain.StatusPublished
	c.PublishedAt = &at
	t.st.contents[id] = c
	return nil
}

func (t *tx) ListContentByCreator(_ context.Context, creatorID int64) ([]domain.VideoContent, error) {
	var out []domain.VideoContent
	for _, c := range t.st.contents {
		if c.CreatorID == creatorID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (t *tx) ListFeed(_ context.Context, q app.FeedQuery) ([]domain.VideoContent, error) {
	var out []domain.VideoContent
	for _, c := range t.st.contents {
		if !c.Published() || c.Language != q.Language || c.Level != q.Level {
			continue
		}
		if q.After != nil && !q.After.Precedes(c) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].PublishedAt, out[j].PublishedAt
		if !a.Equal(*b) {
			return a.After(*b)
		}
		return out[i].ID > out[j].ID
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (t *tx) GetQuizByContent(_ context.Context, contentID int64) (domain.Quiz, error) {
	id, ok := t.st.quizByContent[contentID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	quiz := t.st.quizzes[id]
	questions := make([]domain.Question, len(quiz.Questions))
	for i, q := range quiz.Questions {
		q.Options = append([]string(nil), q.Options...)
		questions[i] = q
	}
	quiz.Questions = questions
	return quiz, nil
}

func (t *tx) ReplaceQuiz(_ context.Context, quiz *domain.Quiz) error {
	t.mutate()
	if _, ok := t.st.contents[quiz.ContentID]; !ok {
		return domain.ErrContentNotFound
	}
	if old, ok := t.st.quizByContent[quiz.ContentID]; ok {
		delete(t.st.quizzes, old)
	}
	t.st.seq.quiz++
	quiz.ID = t.st.seq.quiz
	stored := make([]domain.Question, len(quiz.Questions))
	for i := range quiz.Questions {
		t.st.seq.question++
		quiz.Questions[i].ID = t.st.seq.question
		quiz.Questions[i].QuizID = quiz.ID
		q := quiz.Questions[i]
		q.Options = append([]string(nil), q.Options...)
		stored[i] = q
	}
	copied := *quiz
	copied.Questions = stored
	t.st.quizzes[quiz.ID] = copied
	t.st.quizByContent[quiz.ContentID] = quiz.ID
	return nil
}

func (t *tx) HasAwardedXPOn(_ context.Context, learnerID, contentID int64, date string) (bool, error) {
	for _, a := range t.st.attempts {
		if a.LearnerID == learnerID && a.ContentID == contentID && a.CompletedDateUTC == date && a.XPAwarded > 0 {
			return true, nil
		}
	}
	return false, nil
}

func (t *tx) CreateAttempt(_ context.Context, attempt *domain.QuizAttempt) error {
	t.mutate()
	t.st.seq.attempt++
	attempt.ID = t.st.seq.attempt
	t.st.attempts[attempt.ID] = *attempt
	return nil
}

func (t *tx) GetAttempt(_ context.Context, id int64) (domain.QuizAttempt, error) {
	a, ok := t.st.attempts[id]
	if !ok {
		return domain.QuizAttempt{}, domain.ErrAttemptNotFound
	}
	return a, nil
}

func (t *tx) ListRecentAttempts(_ context.Context, learnerID int64, limit int) ([]domain.QuizAttempt, error) {
	var out []domain.QuizAttempt
	for _, a := range t.st.attempts {
		if a.LearnerID == learnerID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CompletedAt.Equal(out[j].CompletedAt) {
			return out[i].CompletedAt.After(out[j].CompletedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (t *tx) CreateXPEvent(_ context.Context, event *domain.XPEvent) error {
	t.mutate()
	t.st.seq.xpEvent++
	event.ID = t.st.seq.xpEvent
	t.st.xpEvents = append(t.st.xpEvents, *event)
	return nil
}

func (t *tx) GetStreak(_ context.Context, learnerID int64) (domain.Streak, error) {
	if s, ok := t.st.streaks[learnerID]; ok {
		return s, nil
	}
	return domain.Streak{LearnerID: learnerID}, nil
}

func (t *tx) SaveStreak(_ context.Context, streak domain.Streak) error {
	t.mutate()
	t.st.streaks[streak.LearnerID] = streak
	return nil
}
