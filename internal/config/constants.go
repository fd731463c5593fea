package config

// Learning and gamification rules. Kept as named constants so services and
// tests agree on the same numbers.
const (
	// A lesson counts as completed once the quiz score reaches this value.
	PassingScore = 70.0

	// XP awarded when a lesson is newly completed; the bonus applies from
	// BonusScore upward.
	BaseLessonXP  = 10
	BonusLessonXP = 15
	BonusScore    = 90.0

	// Quiz-skip escape valve: after MaxQuizAttempts failed attempts the next
	// SkipUnlockCount lessons in the path are unlocked.
	MaxQuizAttempts = 3
	SkipUnlockCount = 2
)
