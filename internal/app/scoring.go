package app

import "langquiz-service/internal/domain"

// Score is the outcome of grading one submission.
type Score struct {
	CorrectCount   int
	TotalQuestions int
	Percent        int
}

// ScoreAttempt validates answers against quiz and grades them. Every answer
// is graded; there is no short-circuit on the first wrong one.
func ScoreAttempt(quiz domain.Quiz, answers []domain.Answer) (Score, error) {
	total := len(quiz.Questions)
	if total == 0 {
		return Score{}, domain.ErrQuizNotFound
	}
	if len(answers) != total {
		return Score{}, domain.Invalid("answers", "expected %d answers, got %d", total, len(answers))
	}

	byID := make(map[int64]*domain.Question, total)
	for i := range quiz.Questions {
		byID[quiz.Questions[i].ID] = &quiz.Questions[i]
	}

	seen := make(map[int64]struct{}, total)
	for _, answer := range answers {
		question, ok := byID[answer.QuestionID]
		if !ok {
			return Score{}, domain.Invalid("answers", "question %d does not belong to this quiz", answer.QuestionID)
		}
		if _, dup := seen[answer.QuestionID]; dup {
			return Score{}, domain.Invalid("answers", "question %d answered more than once", answer.QuestionID)
		}
		seen[answer.QuestionID] = struct{}{}
		if answer.SelectedIndex < 0 || answer.SelectedIndex >= len(question.Options) {
			return Score{}, domain.Invalid("answers", "selected_index %d out of range for question %d (%d options)",
				answer.SelectedIndex, answer.QuestionID, len(question.Options))
		}
	}

	correct := 0
	for _, answer := range answers {
		if byID[answer.QuestionID].CorrectOptionIndex == answer.SelectedIndex {
			correct++
		}
	}
	return Score{
		CorrectCount:   correct,
		TotalQuestions: total,
		Percent:        correct * 100 / total,
	}, nil
}
