package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
	"langquiz-service/internal/app"
	"langquiz-service/internal/domain"
)

const (
	uniqueViolation       = "23505"
	xpOnceConstraint      = "ux_quiz_attempt_xp_once"
	emailUniqueConstraint = "app_user_email_key"
)

// Store implements app.Store on Postgres through bun.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx app.Tx) error) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, btx bun.Tx) error {
		return fn(ctx, &tx{db: btx})
	})
}

type tx struct {
	db bun.IDB
}

func (t *tx) CreateUser(ctx context.Context, user *domain.User) error {
	m := userModel{Email: user.Email, Role: string(user.Role), CreatedAt: user.CreatedAt}
	if _, err := t.db.NewInsert().Model(&m).Returning("id").Exec(ctx); err != nil {
		if constraintViolated(err, emailUniqueConstraint) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	user.ID = m.ID
	return nil
}

func (t *tx) GetUser(ctx context.Context, id int64) (domain.User, error) {
	var m userModel
	err := t.db.NewSelect().Model(&m).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return domain.User{}, notFound(err, domain.ErrUserNotFound)
	}
	return m.toDomain(), nil
}

func (t *tx) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var m userModel
	err := t.db.NewSelect().Model(&m).Where("email = ?", email).Scan(ctx)
	if err != nil {
		return domain.User{}, notFound(err, domain.ErrUserNotFound)
	}
	return m.toDomain(), nil
}

func (t *tx) GetProfile(ctx context.Context, userID int64) (domain.LearnerProfile, error) {
	var m profileModel
	err := t.db.NewSelect().Model(&m).Where("user_id = ?", userID).Scan(ctx)
	if err != nil {
		return domain.LearnerProfile{}, notFound(err, domain.ErrProfileNotFound)
	}
	return m.toDomain(), nil
}

func (t *tx) SaveProfile(ctx context.Context, profile *domain.LearnerProfile) error {
	m := profileModel{
		UserID:         profile.UserID,
		TargetLanguage: string(profile.TargetLanguage),
		Level:          string(profile.Level),
		TotalXP:        profile.TotalXP,
		CreatedAt:      profile.CreatedAt,
	}
	err := t.db.NewInsert().Model(&m).
		On("CONFLICT (user_id) DO UPDATE").
		Set("target_language = EXCLUDED.target_language").
		Set("level = EXCLUDED.level").
		Returning("total_xp, created_at").
		Scan(ctx)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	profile.TotalXP = m.TotalXP
	profile.CreatedAt = m.CreatedAt.UTC()
	return nil
}

func (t *tx) IncrementXP(ctx context.Context, userID int64, amount int) (int, error) {
	var total int
	err := t.db.NewUpdate().Model((*profileModel)(nil)).
		Set("total_xp = total_xp + ?", amount).
		Where("user_id = ?", userID).
		Returning("total_xp").
		Scan(ctx, &total)
	if err != nil {
		return 0, notFound(err, domain.ErrProfileNotFound)
	}
	return total, nil
}

func (t *tx) CreateContent(ctx context.Context, content *domain.VideoContent) error {
	m := contentFromDomain(*content)
	if _, err := t.db.NewInsert().Model(&m).Returning("id").Exec(ctx); err != nil {
		return fmt.Errorf("insert content: %w", err)
	}
	content.ID = m.ID
	return nil
}

func (t *tx) GetContent(ctx context.Context, id int64) (domain.VideoContent, error) {
	var m contentModel
	err := t.db.NewSelect().Model(&m).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return domain.VideoContent{}, notFound(err, domain.ErrContentNotFound)
	}
	return m.toDomain(), nil
}

func (t *tx) PublishContent(ctx context.Context, id int64, at time.Time) error {
	res, err := t.db.NewUpdate().Model((*contentModel)(nil)).
		Set("status = ?", string(domain.StatusPublished)).
		Set("published_at = ?", at.UTC()).
		Where("id = ?", id).
		Where("status = ?", string(domain.StatusDraft)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("publish content: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// already published is fine; a missing row is not
		if _, err := t.GetContent(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (t *tx) ListContentByCreator(ctx context.Context, creatorID int64) ([]domain.VideoContent, error) {
	var rows []contentModel
	err := t.db.NewSelect().Model(&rows).
		Where("creator_id = ?", creatorID).
		OrderExpr("created_at DESC, id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list creator content: %w", err)
	}
	return contentToDomain(rows), nil
}

func (t *tx) ListFeed(ctx context.Context, q app.FeedQuery) ([]domain.VideoContent, error) {
	var rows []contentModel
	query := t.db.NewSelect().Model(&rows).
		Where("language = ?", string(q.Language)).
		Where("level = ?", string(q.Level)).
		Where("status = ?", string(domain.StatusPublished))
	if q.After != nil {
		at := q.After.PublishedAt.UTC()
		query = query.Where("(published_at < ? OR (published_at = ? AND id < ?))", at, at, q.After.ID)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	if err := query.OrderExpr("published_at DESC, id DESC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list feed: %w", err)
	}
	return contentToDomain(rows), nil
}

func (t *tx) GetQuizByContent(ctx context.Context, contentID int64) (domain.Quiz, error) {
	var qm quizModel
	if err := t.db.NewSelect().Model(&qm).Where("content_id = ?", contentID).Scan(ctx); err != nil {
		return domain.Quiz{}, notFound(err, domain.ErrQuizNotFound)
	}
	var rows []questionModel
	err := t.db.NewSelect().Model(&rows).
		Where("quiz_id = ?", qm.ID).
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load questions: %w", err)
	}
	quiz := domain.Quiz{ID: qm.ID, ContentID: qm.ContentID, CreatedAt: qm.CreatedAt.UTC()}
	for _, r := range rows {
		quiz.Questions = append(quiz.Questions, r.toDomain())
	}
	return quiz, nil
}

func (t *tx) ReplaceQuiz(ctx context.Context, quiz *domain.Quiz) error {
	if _, err := t.GetContent(ctx, quiz.ContentID); err != nil {
		return err
	}
	// questions go with the old quiz via ON DELETE CASCADE
	if _, err := t.db.NewDelete().Model((*quizModel)(nil)).Where("content_id = ?", quiz.ContentID).Exec(ctx); err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}

	qm := quizModel{ContentID: quiz.ContentID, CreatedAt: quiz.CreatedAt}
	if _, err := t.db.NewInsert().Model(&qm).Returning("id").Exec(ctx); err != nil {
		return fmt.Errorf("insert quiz: %w", err)
	}
	quiz.ID = qm.ID
	if len(quiz.Questions) == 0 {
		return nil
	}

	rows := make([]questionModel, len(quiz.Questions))
	for i, q := range quiz.Questions {
		rows[i] = questionModel{
			QuizID:             qm.ID,
			Type:               string(q.Type),
			Prompt:             q.Prompt,
			Options:            q.Options,
			CorrectOptionIndex: q.CorrectOptionIndex,
			CreatedAt:          q.CreatedAt,
		}
	}
	if _, err := t.db.NewInsert().Model(&rows).Returning("id").Exec(ctx); err != nil {
		return fmt.Errorf("insert questions: %w", err)
	}
	for i := range quiz.Questions {
		quiz.Questions[i].ID = rows[i].ID
		quiz.Questions[i].QuizID = qm.ID
	}
	return nil
}

func (t *tx) HasAwardedXPOn(ctx context.Context, learnerID, contentID int64, date string) (bool, error) {
	exists, err := t.db.NewSelect().Model((*attemptModel)(nil)).
		Where("user_id = ?", learnerID).
		Where("content_id = ?", contentID).
		Where("completed_date_utc = ?", date).
		Where("xp_awarded > 0").
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("check xp award: %w", err)
	}
	return exists, nil
}

func (t *tx) CreateAttempt(ctx context.Context, attempt *domain.QuizAttempt) error {
	m := attemptFromDomain(*attempt)
	if _, err := t.db.NewInsert().Model(&m).Returning("id").Exec(ctx); err != nil {
		if constraintViolated(err, xpOnceConstraint) {
			return app.ErrDuplicateAward
		}
		return fmt.Errorf("insert attempt: %w", err)
	}
	attempt.ID = m.ID
	return nil
}

func (t *tx) GetAttempt(ctx context.Context, id int64) (domain.QuizAttempt, error) {
	var m attemptModel
	if err := t.db.NewSelect().Model(&m).Where("id = ?", id).Scan(ctx); err != nil {
		return domain.QuizAttempt{}, notFound(err, domain.ErrAttemptNotFound)
	}
	return m.toDomain(), nil
}

func (t *tx) ListRecentAttempts(ctx context.Context, learnerID int64, limit int) ([]domain.QuizAttempt, error) {
	var rows []attemptModel
	query := t.db.NewSelect().Model(&rows).
		Where("user_id = ?", learnerID).
		OrderExpr("completed_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	out := make([]domain.QuizAttempt, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (t *tx) CreateXPEvent(ctx context.Context, event *domain.XPEvent) error {
	m := xpEventModel{
		UserID:         event.LearnerID,
		ContentID:      event.ContentID,
		Reason:         string(event.Reason),
		Amount:         event.Amount,
		CreatedAt:      event.CreatedAt,
		CreatedDateUTC: event.CreatedDateUTC,
	}
	if _, err := t.db.NewInsert().Model(&m).Returning("id").Exec(ctx); err != nil {
		return fmt.Errorf("insert xp event: %w", err)
	}
	event.ID = m.ID
	return nil
}

func (t *tx) GetStreak(ctx context.Context, learnerID int64) (domain.Streak, error) {
	var m streakModel
	err := t.db.NewSelect().Model(&m).Where("user_id = ?", learnerID).For("UPDATE").Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Streak{LearnerID: learnerID}, nil
	}
	if err != nil {
		return domain.Streak{}, fmt.Errorf("load streak: %w", err)
	}
	return m.toDomain(), nil
}

func (t *tx) SaveStreak(ctx context.Context, streak domain.Streak) error {
	m := streakModel{UserID: streak.LearnerID, CurrentStreakDays: streak.CurrentStreakDays}
	if streak.LastActiveDateUTC != "" {
		date := streak.LastActiveDateUTC
		m.LastActiveDateUTC = &date
	}
	_, err := t.db.NewInsert().Model(&m).
		On("CONFLICT (user_id) DO UPDATE").
		Set("current_streak_days = EXCLUDED.current_streak_days").
		Set("last_active_date_utc = EXCLUDED.last_active_date_utc").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("save streak: %w", err)
	}
	return nil
}

func contentToDomain(rows []contentModel) []domain.VideoContent {
	out := make([]domain.VideoContent, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out
}

func notFound(err, sentinel error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return err
}

// constraintViolated reports whether err is a unique violation of the named
// constraint or index.
func constraintViolated(err error, constraint string) bool {
	var pgErr pgdriver.Error
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Field('C') == uniqueViolation && pgErr.Field('n') == constraint
}
