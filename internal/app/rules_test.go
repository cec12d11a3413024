package app

import (
	"errors"
	"testing"
	"time"

	"langquiz-service/internal/domain"
)

func threeQuestionQuiz() domain.Quiz {
	opts := []string{"a", "b", "c", "d"}
	return domain.Quiz{ID: 1, ContentID: 1, Questions: []domain.Question{
		{ID: 11, Options: opts, CorrectOptionIndex: 0},
		{ID: 12, Options: opts, CorrectOptionIndex: 1},
		{ID: 13, Options: opts, CorrectOptionIndex: 2},
	}}
}

func TestScoreAttemptTruncates(t *testing.T) {
	score, err := ScoreAttempt(threeQuestionQuiz(), []domain.Answer{
		{QuestionID: 13, SelectedIndex: 2},
		{QuestionID: 11, SelectedIndex: 0},
		{QuestionID: 12, SelectedIndex: 3},
	})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score.CorrectCount != 2 || score.TotalQuestions != 3 || score.Percent != 66 {
		t.Fatalf("unexpected score %+v", score)
	}
}

func TestScoreAttemptFourOfFiveIsExactlyEighty(t *testing.T) {
	opts := []string{"x", "y"}
	quiz := domain.Quiz{}
	var answers []domain.Answer
	for i := int64(1); i <= 5; i++ {
		quiz.Questions = append(quiz.Questions, domain.Question{ID: i, Options: opts, CorrectOptionIndex: 1})
		selected := 1
		if i == 5 {
			selected = 0
		}
		answers = append(answers, domain.Answer{QuestionID: i, SelectedIndex: selected})
	}
	score, err := ScoreAttempt(quiz, answers)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score.Percent != 80 {
		t.Fatalf("expected 80, got %d", score.Percent)
	}
}

func TestScoreAttemptRejections(t *testing.T) {
	cases := []struct {
		name    string
		answers []domain.Answer
	}{
		{"too few", []domain.Answer{{QuestionID: 11}, {QuestionID: 12}}},
		{"too many", []domain.Answer{{QuestionID: 11}, {QuestionID: 12}, {QuestionID: 13}, {QuestionID: 13}}},
		{"foreign question", []domain.Answer{{QuestionID: 11}, {QuestionID: 12}, {QuestionID: 99}}},
		{"duplicate question", []domain.Answer{{QuestionID: 11}, {QuestionID: 11}, {QuestionID: 12}}},
		{"negative index", []domain.Answer{{QuestionID: 11, SelectedIndex: -1}, {QuestionID: 12}, {QuestionID: 13}}},
		{"index past options", []domain.Answer{{QuestionID: 11, SelectedIndex: 4}, {QuestionID: 12}, {QuestionID: 13}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ScoreAttempt(threeQuestionQuiz(), tc.answers)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}

	if _, err := ScoreAttempt(domain.Quiz{}, nil); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found for empty quiz, got %v", err)
	}
}

func TestXPForScore(t *testing.T) {
	cases := []struct {
		percent int
		earned  bool
		want    int
	}{
		{0, false, 30},
		{79, false, 30},
		{80, false, 40},
		{99, false, 40},
		{100, false, 60},
		{100, true, 0},
		{60, true, 0},
	}
	for _, tc := range cases {
		if got := XPForScore(tc.percent, tc.earned); got != tc.want {
			t.Fatalf("XPForScore(%d, %v) = %d, want %d", tc.percent, tc.earned, got, tc.want)
		}
	}
}

func TestAdvanceStreak(t *testing.T) {
	s := domain.Streak{LearnerID: 1}

	s = AdvanceStreak(s, "2026-01-10")
	if s.CurrentStreakDays != 1 || s.LastActiveDateUTC != "2026-01-10" {
		t.Fatalf("first activity: %+v", s)
	}
	s = AdvanceStreak(s, "2026-01-10")
	if s.CurrentStreakDays != 1 {
		t.Fatalf("same-day repeat must not change streak: %+v", s)
	}
	s = AdvanceStreak(s, "2026-01-11")
	s = AdvanceStreak(s, "2026-01-12")
	if s.CurrentStreakDays != 3 {
		t.Fatalf("expected 3 consecutive days, got %+v", s)
	}
	s = AdvanceStreak(s, "2026-01-14")
	if s.CurrentStreakDays != 1 || s.LastActiveDateUTC != "2026-01-14" {
		t.Fatalf("gap must reset to 1: %+v", s)
	}
}

func TestAdvanceStreakAcrossYearBoundary(t *testing.T) {
	s := AdvanceStreak(domain.Streak{CurrentStreakDays: 4, LastActiveDateUTC: "2025-12-31"}, "2026-01-01")
	if s.CurrentStreakDays != 5 {
		t.Fatalf("expected 5, got %+v", s)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	at := time.Date(2026, 1, 10, 9, 30, 0, 123456000, time.UTC)
	c := Cursor{PublishedAt: at, ID: 42}
	got, ok := DecodeCursor(EncodeCursor(c))
	if !ok {
		t.Fatalf("expected decodable cursor")
	}
	if !got.PublishedAt.Equal(at) || got.ID != 42 {
		t.Fatalf("unexpected cursor %+v", got)
	}
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	for _, token := range []string{"", "!!", "bm9jb2xvbg", "YWJjOjE", "MTIzOi01"} {
		if _, ok := DecodeCursor(token); ok {
			t.Fatalf("expected %q to be rejected", token)
		}
	}
}

func TestCursorPrecedes(t *testing.T) {
	at := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	c := Cursor{PublishedAt: at, ID: 5}
	older := at.Add(-time.Second)
	newer := at.Add(time.Second)

	cases := []struct {
		name string
		item domain.VideoContent
		want bool
	}{
		{"older item", domain.VideoContent{ID: 9, PublishedAt: &older}, true},
		{"same time lower id", domain.VideoContent{ID: 4, PublishedAt: &at}, true},
		{"same item", domain.VideoContent{ID: 5, PublishedAt: &at}, false},
		{"same time higher id", domain.VideoContent{ID: 6, PublishedAt: &at}, false},
		{"newer item", domain.VideoContent{ID: 1, PublishedAt: &newer}, false},
		{"draft", domain.VideoContent{ID: 1}, false},
	}
	for _, tc := range cases {
		if got := c.Precedes(tc.item); got != tc.want {
			t.Fatalf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}
}

func TestClampFeedLimit(t *testing.T) {
	for in, want := range map[int]int{-3: 1, 0: 1, 1: 1, 10: 10, 50: 50, 51: 50, 500: 50} {
		if got := ClampFeedLimit(in); got != want {
			t.Fatalf("ClampFeedLimit(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestProgressHubDropsOldestForSlowSubscriber(t *testing.T) {
	hub := NewProgressHub()
	ch, cancel := hub.Subscribe(1)

	for i := 1; i <= 10; i++ {
		hub.Publish(1, ProgressUpdate{AttemptID: int64(i)})
	}
	first := <-ch
	if first.AttemptID != 3 {
		t.Fatalf("expected oldest two dropped, first queued is %d", first.AttemptID)
	}

	hub.Publish(2, ProgressUpdate{AttemptID: 99})
	if hub.Subscribers(1) != 1 || hub.Subscribers(2) != 0 {
		t.Fatalf("unexpected subscriber counts")
	}
	cancel()
	cancel()
	if hub.Subscribers(1) != 0 {
		t.Fatalf("expected subscription removed")
	}
	// cancel closes the channel once buffered updates are drained
	for range ch {
	}
}
