package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/on-their-footsteps/backend/internal/cache"
	"github.com/on-their-footsteps/backend/internal/config"
	"github.com/on-their-footsteps/backend/internal/middleware"
	"github.com/on-their-footsteps/backend/internal/model"
	"github.com/on-their-footsteps/backend/internal/repository"
)

type ProgressService interface {
	SubmitLessonProgress(ctx context.Context, user *model.User, lessonID uint, patch *model.LessonProgressPatch) (*model.LessonProgressResult, error)
	ListLessonProgress(ctx context.Context, user *model.User) ([]*model.UserLessonProgress, error)
	SkipQuiz(ctx context.Context, user *model.User, lessonID uint, req *model.SkipQuizRequest) (*model.SkipQuizResponse, error)
	UpdateStoryProgress(ctx context.Context, user *model.User, characterID uint, chapter int) (*model.UserProgress, error)
	ListStoryProgress(ctx context.Context, user *model.User) ([]*model.UserProgress, error)
}

type progressService struct {
	db           *gorm.DB
	progressRepo repository.ProgressRepository
	learningRepo repository.LearningRepository
	userRepo     repository.UserRepository
	cache        *cache.Cache
}

func NewProgressService(db *gorm.DB, progressRepo repository.ProgressRepository, learningRepo repository.LearningRepository, userRepo repository.UserRepository, c *cache.Cache) ProgressService {
	return &progressService{
		db:           db,
		progressRepo: progressRepo,
		learningRepo: learningRepo,
		userRepo:     userRepo,
		cache:        c,
	}
}

// SubmitLessonProgress upserts the single progress row for (user, lesson).
// A submission completes the lesson only when it carries a score at or above
// the passing mark; score-less patches record time spent without completing.
// XP is awarded only on the transition into the completed state, so
// resubmitting a completed lesson never grants XP twice.
func (s *progressService) SubmitLessonProgress(ctx context.Context, user *model.User, lessonID uint, patch *model.LessonProgressPatch) (*model.LessonProgressResult, error) {
	logger := middleware.GetLogger(ctx)

	if _, err := s.learningRepo.FindLessonByID(ctx, s.db, lessonID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("LESSON_NOT_FOUND", "الدرس غير موجود.", "", model.ErrNotFound)
		}
		return nil, model.ErrInternalServer
	}

	var result *model.LessonProgressResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		progress, err := s.progressRepo.FindLessonProgress(ctx, tx, user.ID, lessonID)
		if err != nil {
			if !errors.Is(err, model.ErrNotFound) {
				return err
			}
			progress = &model.UserLessonProgress{UserID: user.ID, LessonID: lessonID}
		}

		wasCompleted := progress.IsCompleted

		if patch.Score != nil {
			progress.Score = patch.Score
		}
		if patch.TimeSpent != nil {
			progress.TimeSpent = patch.TimeSpent
		}

		passed := patch.Score != nil && *patch.Score >= config.PassingScore
		if passed && !progress.IsCompleted {
			progress.IsCompleted = true
			now := time.Now()
			progress.CompletedAt = &now
		}

		if err := s.progressRepo.SaveLessonProgress(ctx, tx, progress); err != nil {
			return err
		}

		result = &model.LessonProgressResult{
			Progress:  progress,
			CurrentXP: user.CurrentXP,
			LevelID:   user.LevelID,
		}

		if progress.IsCompleted && !wasCompleted {
			xp := config.BaseLessonXP
			if patch.Score != nil && *patch.Score >= config.BonusScore {
				xp = config.BonusLessonXP
			}
			awarded, err := s.awardXP(ctx, tx, user, xp)
			if err != nil {
				return err
			}
			result.XPAwarded = xp
			result.CurrentXP = awarded.CurrentXP
			result.LeveledUp = awarded.LeveledUp
			result.LevelID = awarded.LevelID
		}
		return nil
	})
	if err != nil {
		var appErr *model.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		logger.Error("Transaction failed for SubmitLessonProgress", "error", err, "user_id", user.ID, "lesson_id", lessonID)
		return nil, model.ErrInternalServer
	}

	s.cache.InvalidateUserProgress(user.ID)
	return result, nil
}

type xpAward struct {
	CurrentXP int
	LeveledUp bool
	LevelID   *uint
}

// awardXP adds xp to the user's total and promotes them at most one level:
// the level with the smallest threshold strictly above the current level's
// that the new total now meets. Also mutates the passed user so callers see
// the fresh totals.
func (s *progressService) awardXP(ctx context.Context, tx *gorm.DB, user *model.User, xp int) (*xpAward, error) {
	newXP := user.CurrentXP + xp
	updates := map[string]interface{}{"current_xp": newXP}

	award := &xpAward{CurrentXP: newXP, LevelID: user.LevelID}

	currentThreshold := 0
	if user.LevelID != nil {
		level, err := s.learningRepo.FindLevelByID(ctx, tx, *user.LevelID)
		if err != nil && !errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		if level != nil {
			currentThreshold = level.XPRequired
		}
	}

	next, err := s.learningRepo.NextLevel(ctx, tx, currentThreshold)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}
	if next != nil && newXP >= next.XPRequired {
		updates["level_id"] = next.ID
		award.LeveledUp = true
		award.LevelID = &next.ID
	}

	if err := s.userRepo.Update(ctx, tx, user.ID, updates); err != nil {
		return nil, err
	}

	user.CurrentXP = newXP
	if award.LeveledUp {
		user.LevelID = award.LevelID
	}
	return award, nil
}

func (s *progressService) ListLessonProgress(ctx context.Context, user *model.User) ([]*model.UserLessonProgress, error) {
	key := cache.UserProgressKey(user.ID)
	if cached, ok := s.cache.Get(key); ok {
		if rows, ok := cached.([]*model.UserLessonProgress); ok {
			return rows, nil
		}
	}

	rows, err := s.progressRepo.ListLessonProgress(ctx, s.db, user.ID)
	if err != nil {
		return nil, model.ErrInternalServer
	}
	s.cache.Set(key, rows)
	return rows, nil
}

// SkipQuiz lets a learner stuck on a quiz move on: after the maximum number
// of failed attempts the next lessons in the path are unlocked by creating
// their progress rows.
func (s *progressService) SkipQuiz(ctx context.Context, user *model.User, lessonID uint, req *model.SkipQuizRequest) (*model.SkipQuizResponse, error) {
	logger := middleware.GetLogger(ctx)

	lesson, err := s.learningRepo.FindLessonByID(ctx, s.db, lessonID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("LESSON_NOT_FOUND", "الدرس غير موجود.", "", model.ErrNotFound)
		}
		return nil, model.ErrInternalServer
	}
	if !lesson.HasQuiz {
		return nil, model.NewAppError("NO_QUIZ", "هذا الدرس لا يحتوي على اختبار.", "", model.ErrInvalidInput)
	}

	if req.QuizAttempts < config.MaxQuizAttempts {
		remaining := config.MaxQuizAttempts - req.QuizAttempts
		return &model.SkipQuizResponse{
			CanSkip: false,
			Message: fmt.Sprintf("لا يمكنك تخطي الاختبار بعد. تبقى %d من المحاولات.", remaining),
		}, nil
	}

	following, err := s.learningRepo.LessonsAfter(ctx, s.db, lesson, config.SkipUnlockCount)
	if err != nil {
		return nil, model.ErrInternalServer
	}

	unlocked := make([]uint, 0, len(following))
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, next := range following {
			if _, err := s.progressRepo.FindLessonProgress(ctx, tx, user.ID, next.ID); err == nil {
				unlocked = append(unlocked, next.ID)
				continue
			} else if !errors.Is(err, model.ErrNotFound) {
				return err
			}
			row := &model.UserLessonProgress{UserID: user.ID, LessonID: next.ID}
			if err := s.progressRepo.SaveLessonProgress(ctx, tx, row); err != nil {
				return err
			}
			unlocked = append(unlocked, next.ID)
		}
		return nil
	})
	if err != nil {
		logger.Error("Transaction failed for SkipQuiz", "error", err, "user_id", user.ID, "lesson_id", lessonID)
		return nil, model.ErrInternalServer
	}

	s.cache.InvalidateUserProgress(user.ID)
	return &model.SkipQuizResponse{
		CanSkip:         true,
		UnlockedLessons: unlocked,
		Message:         "تم فتح الدروس التالية. يمكنك المتابعة في رحلتك.",
	}, nil
}

func (s *progressService) UpdateStoryProgress(ctx context.Context, user *model.User, characterID uint, chapter int) (*model.UserProgress, error) {
	logger := middleware.GetLogger(ctx)
	if chapter < 0 {
		return nil, model.NewAppError("VALIDATION_ERROR", "رقم الفصل غير صالح.", "chapter", model.ErrInvalidInput)
	}

	var progress *model.UserProgress
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		progress, err = s.progressRepo.FindStoryProgress(ctx, tx, user.ID, characterID)
		if err != nil {
			if !errors.Is(err, model.ErrNotFound) {
				return err
			}
			progress = &model.UserProgress{UserID: user.ID, CharacterID: characterID}
		}

		// Chapters only move forward.
		if chapter > progress.CurrentChapter {
			progress.CurrentChapter = chapter
		}
		if progress.TotalChapters > 0 {
			pct := float64(progress.CurrentChapter) / float64(progress.TotalChapters) * 100
			if pct > progress.CompletionPercentage {
				progress.CompletionPercentage = pct
			}
			if progress.CurrentChapter >= progress.TotalChapters && !progress.IsCompleted {
				progress.IsCompleted = true
				now := time.Now()
				progress.CompletedAt = &now
			}
		}
		return s.progressRepo.SaveStoryProgress(ctx, tx, progress)
	})
	if err != nil {
		logger.Error("Transaction failed for UpdateStoryProgress", "error", err, "user_id", user.ID, "character_id", characterID)
		return nil, model.ErrInternalServer
	}

	s.cache.InvalidateUserProgress(user.ID)
	return progress, nil
}

func (s *progressService) ListStoryProgress(ctx context.Context, user *model.User) ([]*model.UserProgress, error) {
	rows, err := s.progressRepo.ListStoryProgress(ctx, s.db, user.ID)
	if err != nil {
		return nil, model.ErrInternalServer
	}
	return rows, nil
}
