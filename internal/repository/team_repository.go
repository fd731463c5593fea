package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/on-their-footsteps/backend/internal/middleware"
	"github.com/on-their-footsteps/backend/internal/model"
)

// TeamRepository resolves production-team membership and roles.
type TeamRepository interface {
	FindMemberByUserID(ctx context.Context, db *gorm.DB, userID uint) (*model.TeamMember, error)
	FindMemberByID(ctx context.Context, db *gorm.DB, memberID uint) (*model.TeamMember, error)
	ListMembers(ctx context.Context, db *gorm.DB) ([]*model.TeamMember, error)
	CreateMember(ctx context.Context, tx *gorm.DB, member *model.TeamMember) error
	FindRoleByName(ctx context.Context, db *gorm.DB, name string) (*model.Role, error)
	ListRoles(ctx context.Context, db *gorm.DB) ([]*model.Role, error)
}

type gormTeamRepository struct{}

func NewGormTeamRepository() TeamRepository {
	return &gormTeamRepository{}
}

func (r *gormTeamRepository) FindMemberByUserID(ctx context.Context, db *gorm.DB, userID uint) (*model.TeamMember, error) {
	logger := middleware.GetLogger(ctx)
	var member model.TeamMember
	result := db.WithContext(ctx).Preload("Role").Where("user_id = ? AND is_active = ?", userID, true).First(&member)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding team member by user ID in DB", "error", result.Error, "user_id", userID)
		return nil, fmt.Errorf("gormTeamRepository.FindMemberByUserID: %w", result.Error)
	}
	return &member, nil
}

func (r *gormTeamRepository) FindMemberByID(ctx context.Context, db *gorm.DB, memberID uint) (*model.TeamMember, error) {
	logger := middleware.GetLogger(ctx)
	var member model.TeamMember
	result := db.WithContext(ctx).Preload("Role").First(&member, memberID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding team member in DB", "error", result.Error, "member_id", memberID)
		return nil, fmt.Errorf("gormTeamRepository.FindMemberByID: %w", result.Error)
	}
	return &member, nil
}

func (r *gormTeamRepository) ListMembers(ctx context.Context, db *gorm.DB) ([]*model.TeamMember, error) {
	logger := middleware.GetLogger(ctx)
	var members []*model.TeamMember
	result := db.WithContext(ctx).Preload("Role").Preload("User").Where("is_active = ?", true).Find(&members)
	if result.Error != nil {
		logger.Error("Error listing team members in DB", "error", result.Error)
		return nil, fmt.Errorf("gormTeamRepository.ListMembers: %w", result.Error)
	}
	return members, nil
}

func (r *gormTeamRepository) CreateMember(ctx context.Context, tx *gorm.DB, member *model.TeamMember) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(member)
	if result.Error != nil {
		logger.Error("Error creating team member in DB", "error", result.Error, "user_id", member.UserID)
		return fmt.Errorf("gormTeamRepository.CreateMember: %w", result.Error)
	}
	return nil
}

func (r *gormTeamRepository) FindRoleByName(ctx context.Context, db *gorm.DB, name string) (*model.Role, error) {
	logger := middleware.GetLogger(ctx)
	var role model.Role
	result := db.WithContext(ctx).Where("name = ?", name).First(&role)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding role in DB", "error", result.Error, "name", name)
		return nil, fmt.Errorf("gormTeamRepository.FindRoleByName: %w", result.Error)
	}
	return &role, nil
}

func (r *gormTeamRepository) ListRoles(ctx context.Context, db *gorm.DB) ([]*model.Role, error) {
	logger := middleware.GetLogger(ctx)
	var roles []*model.Role
	result := db.WithContext(ctx).Where("is_active = ?", true).Order("id").Find(&roles)
	if result.Error != nil {
		logger.Error("Error listing roles in DB", "error", result.Error)
		return nil, fmt.Errorf("gormTeamRepository.ListRoles: %w", result.Error)
	}
	return roles, nil
}
