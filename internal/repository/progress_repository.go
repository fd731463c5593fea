package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/on-their-footsteps/backend/internal/middleware"
	"github.com/on-their-footsteps/backend/internal/model"
)

// ProgressRepository persists per-user lesson progress and per-character
// story progress.
type ProgressRepository interface {
	FindLessonProgress(ctx context.Context, db *gorm.DB, userID, lessonID uint) (*model.UserLessonProgress, error)
	ListLessonProgress(ctx context.Context, db *gorm.DB, userID uint) ([]*model.UserLessonProgress, error)
	SaveLessonProgress(ctx context.Context, tx *gorm.DB, progress *model.UserLessonProgress) error
	CountCompletedLessons(ctx context.Context, db *gorm.DB, userID uint) (int64, error)
	FindStoryProgress(ctx context.Context, db *gorm.DB, userID, characterID uint) (*model.UserProgress, error)
	ListStoryProgress(ctx context.Context, db *gorm.DB, userID uint) ([]*model.UserProgress, error)
	SaveStoryProgress(ctx context.Context, tx *gorm.DB, progress *model.UserProgress) error
}

type gormProgressRepository struct{}

func NewGormProgressRepository() ProgressRepository {
	return &gormProgressRepository{}
}

func (r *gormProgressRepository) FindLessonProgress(ctx context.Context, db *gorm.DB, userID, lessonID uint) (*model.UserLessonProgress, error) {
	logger := middleware.GetLogger(ctx)
	var progress model.UserLessonProgress
	result := db.WithContext(ctx).Where("user_id = ? AND lesson_id = ?", userID, lessonID).First(&progress)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding lesson progress in DB",
			"error", result.Error,
			"user_id", userID,
			"lesson_id", lessonID,
		)
		return nil, fmt.Errorf("gormProgressRepository.FindLessonProgress: %w", result.Error)
	}
	return &progress, nil
}

func (r *gormProgressRepository) ListLessonProgress(ctx context.Context, db *gorm.DB, userID uint) ([]*model.UserLessonProgress, error) {
	logger := middleware.GetLogger(ctx)
	var rows []*model.UserLessonProgress
	result := db.WithContext(ctx).Where("user_id = ?", userID).Order("lesson_id").Find(&rows)
	if result.Error != nil {
		logger.Error("Error listing lesson progress in DB", "error", result.Error, "user_id", userID)
		return nil, fmt.Errorf("gormProgressRepository.ListLessonProgress: %w", result.Error)
	}
	return rows, nil
}

// SaveLessonProgress inserts or updates the single row per (user, lesson).
func (r *gormProgressRepository) SaveLessonProgress(ctx context.Context, tx *gorm.DB, progress *model.UserLessonProgress) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Save(progress)
	if result.Error != nil {
		logger.Error("Error saving lesson progress in DB",
			"error", result.Error,
			"user_id", progress.UserID,
			"lesson_id", progress.LessonID,
		)
		return fmt.Errorf("gormProgressRepository.SaveLessonProgress: %w", result.Error)
	}
	return nil
}

func (r *gormProgressRepository) CountCompletedLessons(ctx context.Context, db *gorm.DB, userID uint) (int64, error) {
	logger := middleware.GetLogger(ctx)
	var count int64
	result := db.WithContext(ctx).Model(&model.UserLessonProgress{}).
		Where("user_id = ? AND is_completed = ?", userID, true).
		Count(&count)
	if result.Error != nil {
		logger.Error("Error counting completed lessons in DB", "error", result.Error, "user_id", userID)
		return 0, fmt.Errorf("gormProgressRepository.CountCompletedLessons: %w", result.Error)
	}
	return count, nil
}

func (r *gormProgressRepository) FindStoryProgress(ctx context.Context, db *gorm.DB, userID, characterID uint) (*model.UserProgress, error) {
	logger := middleware.GetLogger(ctx)
	var progress model.UserProgress
	result := db.WithContext(ctx).Where("user_id = ? AND character_id = ?", userID, characterID).First(&progress)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding story progress in DB",
			"error", result.Error,
			"user_id", userID,
			"character_id", characterID,
		)
		return nil, fmt.Errorf("gormProgressRepository.FindStoryProgress: %w", result.Error)
	}
	return &progress, nil
}

func (r *gormProgressRepository) ListStoryProgress(ctx context.Context, db *gorm.DB, userID uint) ([]*model.UserProgress, error) {
	logger := middleware.GetLogger(ctx)
	var rows []*model.UserProgress
	result := db.WithContext(ctx).Preload("Character").Where("user_id = ?", userID).Find(&rows)
	if result.Error != nil {
		logger.Error("Error listing story progress in DB", "error", result.Error, "user_id", userID)
		return nil, fmt.Errorf("gormProgressRepository.ListStoryProgress: %w", result.Error)
	}
	return rows, nil
}

func (r *gormProgressRepository) SaveStoryProgress(ctx context.Context, tx *gorm.DB, progress *model.UserProgress) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Save(progress)
	if result.Error != nil {
		logger.Error("Error saving story progress in DB",
			"error", result.Error,
			"user_id", progress.UserID,
			"character_id", progress.CharacterID,
		)
		return fmt.Errorf("gormProgressRepository.SaveStoryProgress: %w", result.Error)
	}
	return nil
}
