package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"langquiz-service/internal/domain"
)

// QuizLoader reads learner quiz projections straight from Postgres.
// It backs the quiz cache and never exposes the answer key.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

const loadContentSQL = `
SELECT vc.id, vc.title, vc.language, vc.level, vc.video_url, vc.status, q.id
FROM video_content vc
LEFT JOIN quiz q ON q.content_id = vc.id
WHERE vc.id = $1`

const loadQuestionsSQL = `
SELECT id, type, prompt, options
FROM question
WHERE quiz_id = $1
ORDER BY id`

func (l *QuizLoader) LoadQuiz(ctx context.Context, contentID int64) (domain.PublicQuiz, error) {
	var (
		quiz   domain.PublicQuiz
		quizID *int64
	)
	err := l.pool.QueryRow(ctx, loadContentSQL, contentID).Scan(
		&quiz.ContentID, &quiz.Title, &quiz.Language, &quiz.Level, &quiz.VideoURL, &quiz.Status, &quizID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.PublicQuiz{}, domain.ErrContentNotFound
	}
	if err != nil {
		return domain.PublicQuiz{}, fmt.Errorf("load content: %w", err)
	}
	quiz.Questions = []domain.PublicQuestion{}
	if quizID == nil {
		return quiz, nil
	}
	quiz.QuizID = *quizID

	rows, err := l.pool.Query(ctx, loadQuestionsSQL, *quizID)
	if err != nil {
		return domain.PublicQuiz{}, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			q   domain.PublicQuestion
			raw []byte
		)
		if err := rows.Scan(&q.ID, &q.Type, &q.Prompt, &raw); err != nil {
			return domain.PublicQuiz{}, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal(raw, &q.Options); err != nil {
			return domain.PublicQuiz{}, fmt.Errorf("unmarshal options: %w", err)
		}
		quiz.Questions = append(quiz.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return domain.PublicQuiz{}, fmt.Errorf("load questions: %w", err)
	}
	return quiz, nil
}
