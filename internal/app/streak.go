package app

import "langquiz-service/internal/domain"

// AdvanceStreak applies one day of activity on today (YYYY-MM-DD) to s.
// Repeats on the same day are no-ops, activity on the following day extends
// the streak, and anything else starts over at 1.
func AdvanceStreak(s domain.Streak, today string) domain.Streak {
	if s.LastActiveDateUTC == today {
		return s
	}
	if yesterday, ok := domain.PreviousDate(today); ok && s.LastActiveDateUTC != "" && s.LastActiveDateUTC == yesterday {
		s.CurrentStreakDays++
	} else {
		s.CurrentStreakDays = 1
	}
	s.LastActiveDateUTC = today
	return s
}
