package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/on-their-footsteps/backend/internal/cache"
	"github.com/on-their-footsteps/backend/internal/middleware"
	"github.com/on-their-footsteps/backend/internal/model"
	"github.com/on-their-footsteps/backend/internal/monitoring"
	"github.com/on-their-footsteps/backend/internal/repository"
)

// AdminStats is the operational rollup served to superusers.
type AdminStats struct {
	TotalUsers       int64               `json:"total_users"`
	ActiveUsers      int64               `json:"active_users"`
	TotalCharacters  int64               `json:"total_characters"`
	InProduction     int64               `json:"in_production"`
	PublishedContent int64               `json:"published_content"`
	System           monitoring.Snapshot `json:"system"`
}

type UserPage struct {
	Users []model.UserResponse `json:"users"`
	Total int64                `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
}

type ResetPasswordResponse struct {
	Message      string `json:"message"`
	TempPassword string `json:"temp_password"`
}

type AdminService interface {
	Stats(ctx context.Context) (*AdminStats, error)
	ListUsers(ctx context.Context, page, limit int) (*UserPage, error)
	PatchUser(ctx context.Context, userID uint, patch *model.AdminUserPatch) (*model.User, error)
	ResetUserPassword(ctx context.Context, userID uint) (*ResetPasswordResponse, error)
	PatchCharacter(ctx context.Context, characterID uint, patch *model.AdminCharacterPatch) (*model.Character, error)
	DeleteCharacter(ctx context.Context, characterID uint) error
	AddTeamMember(ctx context.Context, userID uint, roleName, department string) (*model.TeamMember, error)
}

type adminService struct {
	db            *gorm.DB
	userRepo      repository.UserRepository
	characterRepo repository.CharacterRepository
	pipelineRepo  repository.PipelineRepository
	teamRepo      repository.TeamRepository
	cache         *cache.Cache
	monitor       *monitoring.Monitor
}

func NewAdminService(db *gorm.DB, userRepo repository.UserRepository, characterRepo repository.CharacterRepository, pipelineRepo repository.PipelineRepository, teamRepo repository.TeamRepository, c *cache.Cache, monitor *monitoring.Monitor) AdminService {
	return &adminService{
		db:            db,
		userRepo:      userRepo,
		characterRepo: characterRepo,
		pipelineRepo:  pipelineRepo,
		teamRepo:      teamRepo,
		cache:         c,
		monitor:       monitor,
	}
}

func (s *adminService) Stats(ctx context.Context) (*AdminStats, error) {
	stats := &AdminStats{}

	var total int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).Count(&total).Error; err != nil {
		return nil, model.ErrInternalServer
	}
	stats.TotalUsers = total

	active, err := s.userRepo.CountActive(ctx, s.db)
	if err != nil {
		return nil, model.ErrInternalServer
	}
	stats.ActiveUsers = active

	characters, err := s.characterRepo.Count(ctx, s.db)
	if err != nil {
		return nil, model.ErrInternalServer
	}
	stats.TotalCharacters = characters

	inProduction, err := s.pipelineRepo.CountProductionsByStatus(ctx, s.db, model.StatusInProduction)
	if err != nil {
		return nil, model.ErrInternalServer
	}
	stats.InProduction = inProduction

	published, err := s.pipelineRepo.CountProductionsByStatus(ctx, s.db, model.StatusPublished)
	if err != nil {
		return nil, model.ErrInternalServer
	}
	stats.PublishedContent = published

	stats.System = s.monitor.Snapshot()
	return stats, nil
}

func (s *adminService) ListUsers(ctx context.Context, page, limit int) (*UserPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	users, total, err := s.userRepo.List(ctx, s.db, (page-1)*limit, limit)
	if err != nil {
		return nil, model.ErrInternalServer
	}

	responses := make([]model.UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, u.ToResponse())
	}
	return &UserPage{Users: responses, Total: total, Page: page, Limit: limit}, nil
}

func (s *adminService) PatchUser(ctx context.Context, userID uint, patch *model.AdminUserPatch) (*model.User, error) {
	logger := middleware.GetLogger(ctx)

	updates := map[string]interface{}{}
	if patch.FullName != nil {
		updates["full_name"] = *patch.FullName
	}
	if patch.IsActive != nil {
		updates["is_active"] = *patch.IsActive
	}
	if patch.IsSuperuser != nil {
		updates["is_superuser"] = *patch.IsSuperuser
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.userRepo.Update(ctx, tx, userID, updates)
	})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		logger.Error("Transaction failed for PatchUser", "error", err, "user_id", userID)
		return nil, model.ErrInternalServer
	}
	return s.userRepo.FindByID(ctx, s.db, userID)
}

// ResetUserPassword issues a random temporary password and returns it once.
// Only the bcrypt hash is stored.
func (s *adminService) ResetUserPassword(ctx context.Context, userID uint) (*ResetPasswordResponse, error) {
	logger := middleware.GetLogger(ctx)

	if _, err := s.userRepo.FindByID(ctx, s.db, userID); err != nil {
		return nil, err
	}

	tempPassword := uuid.NewString()[:12]
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("Error hashing temporary password", "error", err, "user_id", userID)
		return nil, model.ErrInternalServer
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.userRepo.Update(ctx, tx, userID, map[string]interface{}{
			"hashed_password": string(hash),
		})
	})
	if err != nil {
		logger.Error("Transaction failed for ResetUserPassword", "error", err, "user_id", userID)
		return nil, model.ErrInternalServer
	}

	return &ResetPasswordResponse{
		Message:      "تمت إعادة تعيين كلمة المرور.",
		TempPassword: tempPassword,
	}, nil
}

func (s *adminService) PatchCharacter(ctx context.Context, characterID uint, patch *model.AdminCharacterPatch) (*model.Character, error) {
	logger := middleware.GetLogger(ctx)

	updates := map[string]interface{}{}
	if patch.IsActive != nil {
		updates["is_active"] = *patch.IsActive
	}
	if patch.IsFeatured != nil {
		updates["is_featured"] = *patch.IsFeatured
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.characterRepo.Update(ctx, tx, characterID, updates)
	})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		logger.Error("Transaction failed for PatchCharacter", "error", err, "character_id", characterID)
		return nil, model.ErrInternalServer
	}

	s.cache.InvalidateCharacters()
	return s.characterRepo.FindByID(ctx, s.db, characterID)
}

func (s *adminService) DeleteCharacter(ctx context.Context, characterID uint) error {
	logger := middleware.GetLogger(ctx)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.characterRepo.Delete(ctx, tx, characterID)
	})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return err
		}
		logger.Error("Transaction failed for DeleteCharacter", "error", err, "character_id", characterID)
		return model.ErrInternalServer
	}

	s.cache.InvalidateCharacters()
	return nil
}

func (s *adminService) AddTeamMember(ctx context.Context, userID uint, roleName, department string) (*model.TeamMember, error) {
	logger := middleware.GetLogger(ctx)

	if _, err := s.userRepo.FindByID(ctx, s.db, userID); err != nil {
		return nil, err
	}
	role, err := s.teamRepo.FindRoleByName(ctx, s.db, roleName)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("ROLE_NOT_FOUND", "الدور غير موجود.", "role", model.ErrNotFound)
		}
		return nil, model.ErrInternalServer
	}
	if _, err := s.teamRepo.FindMemberByUserID(ctx, s.db, userID); err == nil {
		return nil, model.NewAppError("ALREADY_MEMBER", "المستخدم عضو في الفريق بالفعل.", "user_id", model.ErrConflict)
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, model.ErrInternalServer
	}

	member := &model.TeamMember{
		UserID:     userID,
		RoleID:     role.ID,
		Department: department,
		IsActive:   true,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.teamRepo.CreateMember(ctx, tx, member)
	})
	if err != nil {
		logger.Error("Transaction failed for AddTeamMember", "error", err, "user_id", userID)
		return nil, model.ErrInternalServer
	}
	member.Role = role
	return member, nil
}
