package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/on-their-footsteps/backend/internal/middleware"
	"github.com/on-their-footsteps/backend/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, user *model.User) error
	FindByID(ctx context.Context, db *gorm.DB, userID uint) (*model.User, error)
	FindByUsername(ctx context.Context, db *gorm.DB, username string) (*model.User, error)
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*model.User, error)
	List(ctx context.Context, db *gorm.DB, offset, limit int) ([]*model.User, int64, error)
	Update(ctx context.Context, tx *gorm.DB, userID uint, updates map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, userID uint) error
	CountActive(ctx context.Context, db *gorm.DB) (int64, error)
}

type gormUserRepository struct{}

func NewGormUserRepository() UserRepository {
	return &gormUserRepository{}
}

func (r *gormUserRepository) Create(ctx context.Context, tx *gorm.DB, user *model.User) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(user)
	if result.Error != nil {
		logger.Error("Error creating user in DB",
			"error", result.Error,
			"username", user.Username,
		)
		return fmt.Errorf("gormUserRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormUserRepository) FindByID(ctx context.Context, db *gorm.DB, userID uint) (*model.User, error) {
	logger := middleware.GetLogger(ctx)
	var user model.User
	result := db.WithContext(ctx).Preload("Level").First(&user, userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding user by ID in DB", "error", result.Error, "user_id", userID)
		return nil, fmt.Errorf("gormUserRepository.FindByID: %w", result.Error)
	}
	return &user, nil
}

func (r *gormUserRepository) FindByUsername(ctx context.Context, db *gorm.DB, username string) (*model.User, error) {
	logger := middleware.GetLogger(ctx)
	var user model.User
	result := db.WithContext(ctx).Where("username = ?", username).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding user by username in DB", "error", result.Error, "username", username)
		return nil, fmt.Errorf("gormUserRepository.FindByUsername: %w", result.Error)
	}
	return &user, nil
}

func (r *gormUserRepository) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*model.User, error) {
	logger := middleware.GetLogger(ctx)
	var user model.User
	result := db.WithContext(ctx).Where("email = ?", email).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding user by email in DB", "error", result.Error, "email", email)
		return nil, fmt.Errorf("gormUserRepository.FindByEmail: %w", result.Error)
	}
	return &user, nil
}

func (r *gormUserRepository) List(ctx context.Context, db *gorm.DB, offset, limit int) ([]*model.User, int64, error) {
	logger := middleware.GetLogger(ctx)
	var users []*model.User
	var total int64

	if err := db.WithContext(ctx).Model(&model.User{}).Count(&total).Error; err != nil {
		logger.Error("Error counting users in DB", "error", err)
		return nil, 0, fmt.Errorf("gormUserRepository.List: %w", err)
	}
	result := db.WithContext(ctx).Order("id").Offset(offset).Limit(limit).Find(&users)
	if result.Error != nil {
		logger.Error("Error listing users in DB", "error", result.Error)
		return nil, 0, fmt.Errorf("gormUserRepository.List: %w", result.Error)
	}
	return users, total, nil
}

func (r *gormUserRepository) Update(ctx context.Context, tx *gorm.DB, userID uint, updates map[string]interface{}) error {
	logger := middleware.GetLogger(ctx)
	if len(updates) == 0 {
		return nil
	}
	result := tx.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Updates(updates)
	if result.Error != nil {
		logger.Error("Error updating user in DB", "error", result.Error, "user_id", userID)
		return fmt.Errorf("gormUserRepository.Update: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *gormUserRepository) Delete(ctx context.Context, tx *gorm.DB, userID uint) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Delete(&model.User{}, userID)
	if result.Error != nil {
		logger.Error("Error deleting user in DB", "error", result.Error, "user_id", userID)
		return fmt.Errorf("gormUserRepository.Delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *gormUserRepository) CountActive(ctx context.Context, db *gorm.DB) (int64, error) {
	logger := middleware.GetLogger(ctx)
	var count int64
	result := db.WithContext(ctx).Model(&model.User{}).Where("is_active = ?", true).Count(&count)
	if result.Error != nil {
		logger.Error("Error counting active users in DB", "error", result.Error)
		return 0, fmt.Errorf("gormUserRepository.CountActive: %w", result.Error)
	}
	return count, nil
}
