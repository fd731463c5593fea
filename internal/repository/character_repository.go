package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/on-their-footsteps/backend/internal/middleware"
	"github.com/on-their-footsteps/backend/internal/model"
)

type CharacterRepository interface {
	Create(ctx context.Context, tx *gorm.DB, character *model.Character) error
	FindByID(ctx context.Context, db *gorm.DB, characterID uint) (*model.Character, error)
	List(ctx context.Context, db *gorm.DB, q model.CharacterListQuery) ([]*model.Character, int64, error)
	Update(ctx context.Context, tx *gorm.DB, characterID uint, updates map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, characterID uint) error
	IncrementViewCount(ctx context.Context, tx *gorm.DB, characterID uint) error
	Count(ctx context.Context, db *gorm.DB) (int64, error)
}

type gormCharacterRepository struct{}

func NewGormCharacterRepository() CharacterRepository {
	return &gormCharacterRepository{}
}

func (r *gormCharacterRepository) Create(ctx context.Context, tx *gorm.DB, character *model.Character) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(character)
	if result.Error != nil {
		logger.Error("Error creating character in DB",
			"error", result.Error,
			"name", character.Name,
		)
		return fmt.Errorf("gormCharacterRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormCharacterRepository) FindByID(ctx context.Context, db *gorm.DB, characterID uint) (*model.Character, error) {
	logger := middleware.GetLogger(ctx)
	var character model.Character
	result := db.WithContext(ctx).First(&character, characterID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding character by ID in DB", "error", result.Error, "character_id", characterID)
		return nil, fmt.Errorf("gormCharacterRepository.FindByID: %w", result.Error)
	}
	return &character, nil
}

func (r *gormCharacterRepository) List(ctx context.Context, db *gorm.DB, q model.CharacterListQuery) ([]*model.Character, int64, error) {
	logger := middleware.GetLogger(ctx)

	query := db.WithContext(ctx).Model(&model.Character{}).Where("is_active = ?", true)
	if q.Category != "" {
		query = query.Where("category = ?", q.Category)
	}
	if q.Era != "" {
		query = query.Where("era = ?", q.Era)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Error counting characters in DB", "error", err)
		return nil, 0, fmt.Errorf("gormCharacterRepository.List: %w", err)
	}

	var characters []*model.Character
	result := query.Order("id").Offset((q.Page - 1) * q.Limit).Limit(q.Limit).Find(&characters)
	if result.Error != nil {
		logger.Error("Error listing characters in DB", "error", result.Error)
		return nil, 0, fmt.Errorf("gormCharacterRepository.List: %w", result.Error)
	}
	return characters, total, nil
}

func (r *gormCharacterRepository) Update(ctx context.Context, tx *gorm.DB, characterID uint, updates map[string]interface{}) error {
	logger := middleware.GetLogger(ctx)
	if len(updates) == 0 {
		return nil
	}
	result := tx.WithContext(ctx).Model(&model.Character{}).Where("id = ?", characterID).Updates(updates)
	if result.Error != nil {
		logger.Error("Error updating character in DB", "error", result.Error, "character_id", characterID)
		return fmt.Errorf("gormCharacterRepository.Update: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *gormCharacterRepository) Delete(ctx context.Context, tx *gorm.DB, characterID uint) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Delete(&model.Character{}, characterID)
	if result.Error != nil {
		logger.Error("Error deleting character in DB", "error", result.Error, "character_id", characterID)
		return fmt.Errorf("gormCharacterRepository.Delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *gormCharacterRepository) IncrementViewCount(ctx context.Context, tx *gorm.DB, characterID uint) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Model(&model.Character{}).Where("id = ?", characterID).
		UpdateColumn("views_count", gorm.Expr("views_count + 1"))
	if result.Error != nil {
		logger.Error("Error incrementing character view count in DB", "error", result.Error, "character_id", characterID)
		return fmt.Errorf("gormCharacterRepository.IncrementViewCount: %w", result.Error)
	}
	return nil
}

func (r *gormCharacterRepository) Count(ctx context.Context, db *gorm.DB) (int64, error) {
	logger := middleware.GetLogger(ctx)
	var count int64
	result := db.WithContext(ctx).Model(&model.Character{}).Count(&count)
	if result.Error != nil {
		logger.Error("Error counting characters in DB", "error", result.Error)
		return 0, fmt.Errorf("gormCharacterRepository.Count: %w", result.Error)
	}
	return count, nil
}
