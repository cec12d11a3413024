package app

const (
	xpBase             = 30
	xpProficiencyBonus = 10
	xpPerfectBonus     = 20
	proficiencyPercent = 80
)

// XPForScore returns the XP earned by an attempt. Learners earn XP for a
// content item at most once per UTC day, so alreadyEarned forces zero.
func XPForScore(scorePercent int, alreadyEarned bool) int {
	if alreadyEarned {
		return 0
	}
	xp := xpBase
	if scorePercent >= proficiencyPercent {
		xp += xpProficiencyBonus
	}
	if scorePercent == 100 {
		xp += xpPerfectBonus
	}
	return xp
}
