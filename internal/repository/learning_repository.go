package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/on-their-footsteps/backend/internal/middleware"
	"github.com/on-their-footsteps/backend/internal/model"
)

// LearningRepository reads the static learning catalog: paths, lessons,
// companions and the level ladder. Writes happen through seeding and admin
// tooling, not this interface.
type LearningRepository interface {
	ListPaths(ctx context.Context, db *gorm.DB) ([]*model.LearningPath, error)
	FindPathByID(ctx context.Context, db *gorm.DB, pathID uint) (*model.LearningPath, error)
	ListLessonsByPath(ctx context.Context, db *gorm.DB, pathID uint) ([]*model.Lesson, error)
	FindLessonByID(ctx context.Context, db *gorm.DB, lessonID uint) (*model.Lesson, error)
	LessonsAfter(ctx context.Context, db *gorm.DB, lesson *model.Lesson, count int) ([]*model.Lesson, error)
	ListCompanions(ctx context.Context, db *gorm.DB) ([]*model.CompanionCharacter, error)
	FindCompanionByID(ctx context.Context, db *gorm.DB, companionID uint) (*model.CompanionCharacter, error)
	FindLevelByID(ctx context.Context, db *gorm.DB, levelID uint) (*model.Level, error)
	NextLevel(ctx context.Context, db *gorm.DB, xpAbove int) (*model.Level, error)
	FirstLevel(ctx context.Context, db *gorm.DB) (*model.Level, error)
}

type gormLearningRepository struct{}

func NewGormLearningRepository() LearningRepository {
	return &gormLearningRepository{}
}

func (r *gormLearningRepository) ListPaths(ctx context.Context, db *gorm.DB) ([]*model.LearningPath, error) {
	logger := middleware.GetLogger(ctx)
	var paths []*model.LearningPath
	result := db.WithContext(ctx).Where("is_active = ?", true).Order("sort_order, id").Find(&paths)
	if result.Error != nil {
		logger.Error("Error listing learning paths in DB", "error", result.Error)
		return nil, fmt.Errorf("gormLearningRepository.ListPaths: %w", result.Error)
	}
	return paths, nil
}

func (r *gormLearningRepository) FindPathByID(ctx context.Context, db *gorm.DB, pathID uint) (*model.LearningPath, error) {
	logger := middleware.GetLogger(ctx)
	var path model.LearningPath
	result := db.WithContext(ctx).First(&path, pathID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding learning path in DB", "error", result.Error, "path_id", pathID)
		return nil, fmt.Errorf("gormLearningRepository.FindPathByID: %w", result.Error)
	}
	return &path, nil
}

func (r *gormLearningRepository) ListLessonsByPath(ctx context.Context, db *gorm.DB, pathID uint) ([]*model.Lesson, error) {
	logger := middleware.GetLogger(ctx)
	var lessons []*model.Lesson
	result := db.WithContext(ctx).
		Preload("Character").
		Where("path_id = ? AND is_active = ?", pathID, true).
		Order("sort_order, id").
		Find(&lessons)
	if result.Error != nil {
		logger.Error("Error listing lessons in DB", "error", result.Error, "path_id", pathID)
		return nil, fmt.Errorf("gormLearningRepository.ListLessonsByPath: %w", result.Error)
	}
	return lessons, nil
}

func (r *gormLearningRepository) FindLessonByID(ctx context.Context, db *gorm.DB, lessonID uint) (*model.Lesson, error) {
	logger := middleware.GetLogger(ctx)
	var lesson model.Lesson
	result := db.WithContext(ctx).Preload("Character").First(&lesson, lessonID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding lesson in DB", "error", result.Error, "lesson_id", lessonID)
		return nil, fmt.Errorf("gormLearningRepository.FindLessonByID: %w", result.Error)
	}
	return &lesson, nil
}

// LessonsAfter returns up to count lessons in the same path ordered after the
// given lesson. Used by quiz-skip to unlock the next lessons.
func (r *gormLearningRepository) LessonsAfter(ctx context.Context, db *gorm.DB, lesson *model.Lesson, count int) ([]*model.Lesson, error) {
	logger := middleware.GetLogger(ctx)
	var lessons []*model.Lesson
	result := db.WithContext(ctx).
		Where("path_id = ? AND is_active = ?", lesson.PathID, true).
		Where("(sort_order > ?) OR (sort_order = ? AND id > ?)", lesson.SortOrder, lesson.SortOrder, lesson.ID).
		Order("sort_order, id").
		Limit(count).
		Find(&lessons)
	if result.Error != nil {
		logger.Error("Error finding following lessons in DB", "error", result.Error, "lesson_id", lesson.ID)
		return nil, fmt.Errorf("gormLearningRepository.LessonsAfter: %w", result.Error)
	}
	return lessons, nil
}

func (r *gormLearningRepository) ListCompanions(ctx context.Context, db *gorm.DB) ([]*model.CompanionCharacter, error) {
	logger := middleware.GetLogger(ctx)
	var companions []*model.CompanionCharacter
	result := db.WithContext(ctx).Where("is_active = ?", true).Order("id").Find(&companions)
	if result.Error != nil {
		logger.Error("Error listing companion characters in DB", "error", result.Error)
		return nil, fmt.Errorf("gormLearningRepository.ListCompanions: %w", result.Error)
	}
	return companions, nil
}

func (r *gormLearningRepository) FindCompanionByID(ctx context.Context, db *gorm.DB, companionID uint) (*model.CompanionCharacter, error) {
	logger := middleware.GetLogger(ctx)
	var companion model.CompanionCharacter
	result := db.WithContext(ctx).First(&companion, companionID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding companion character in DB", "error", result.Error, "companion_id", companionID)
		return nil, fmt.Errorf("gormLearningRepository.FindCompanionByID: %w", result.Error)
	}
	return &companion, nil
}

func (r *gormLearningRepository) FindLevelByID(ctx context.Context, db *gorm.DB, levelID uint) (*model.Level, error) {
	logger := middleware.GetLogger(ctx)
	var level model.Level
	result := db.WithContext(ctx).First(&level, levelID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding level in DB", "error", result.Error, "level_id", levelID)
		return nil, fmt.Errorf("gormLearningRepository.FindLevelByID: %w", result.Error)
	}
	return &level, nil
}

// NextLevel returns the level with the smallest XP threshold strictly above
// xpAbove, or ErrNotFound when the ladder is exhausted.
func (r *gormLearningRepository) NextLevel(ctx context.Context, db *gorm.DB, xpAbove int) (*model.Level, error) {
	logger := middleware.GetLogger(ctx)
	var level model.Level
	result := db.WithContext(ctx).
		Where("xp_required > ?", xpAbove).
		Order("xp_required").
		First(&level)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding next level in DB", "error", result.Error, "xp_above", xpAbove)
		return nil, fmt.Errorf("gormLearningRepository.NextLevel: %w", result.Error)
	}
	return &level, nil
}

func (r *gormLearningRepository) FirstLevel(ctx context.Context, db *gorm.DB) (*model.Level, error) {
	logger := middleware.GetLogger(ctx)
	var level model.Level
	result := db.WithContext(ctx).Order("xp_required").First(&level)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding first level in DB", "error", result.Error)
		return nil, fmt.Errorf("gormLearningRepository.FirstLevel: %w", result.Error)
	}
	return &level, nil
}
