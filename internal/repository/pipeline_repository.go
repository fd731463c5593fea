package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/on-their-footsteps/backend/internal/middleware"
	"github.com/on-their-footsteps/backend/internal/model"
)

// PipelineRepository persists the content-production pipeline: productions,
// scripts, the three asset families, platforms and publications.
type PipelineRepository interface {
	CreateProduction(ctx context.Context, tx *gorm.DB, production *model.ContentProduction) error
	FindProductionByID(ctx context.Context, db *gorm.DB, productionID uint) (*model.ContentProduction, error)
	ListProductions(ctx context.Context, db *gorm.DB, filter model.ProductionFilter) ([]*model.ContentProduction, error)
	UpdateProduction(ctx context.Context, tx *gorm.DB, productionID uint, updates map[string]interface{}) error
	CountProductionsByStatus(ctx context.Context, db *gorm.DB, status string) (int64, error)

	CreateScript(ctx context.Context, tx *gorm.DB, script *model.Script) error
	FindScriptByID(ctx context.Context, db *gorm.DB, scriptID uint) (*model.Script, error)
	UpdateScript(ctx context.Context, tx *gorm.DB, scriptID uint, updates map[string]interface{}) error
	FindProductionByScriptID(ctx context.Context, db *gorm.DB, scriptID uint) (*model.ContentProduction, error)

	CreateIllustration(ctx context.Context, tx *gorm.DB, illustration *model.Illustration) error
	FindIllustrationByID(ctx context.Context, db *gorm.DB, illustrationID uint) (*model.Illustration, error)
	UpdateIllustration(ctx context.Context, tx *gorm.DB, illustrationID uint, updates map[string]interface{}) error
	CountIllustrations(ctx context.Context, db *gorm.DB, scriptID uint) (total, completed int64, err error)

	CreateVoiceRecording(ctx context.Context, tx *gorm.DB, recording *model.VoiceRecording) error
	FindVoiceRecordingByID(ctx context.Context, db *gorm.DB, recordingID uint) (*model.VoiceRecording, error)
	UpdateVoiceRecording(ctx context.Context, tx *gorm.DB, recordingID uint, updates map[string]interface{}) error
	CountVoiceRecordings(ctx context.Context, db *gorm.DB, scriptID uint) (total, completed int64, err error)

	CreateAnimation(ctx context.Context, tx *gorm.DB, animation *model.Animation) error
	FindAnimationByID(ctx context.Context, db *gorm.DB, animationID uint) (*model.Animation, error)
	UpdateAnimation(ctx context.Context, tx *gorm.DB, animationID uint, updates map[string]interface{}) error
	CountAnimations(ctx context.Context, db *gorm.DB, scriptID uint) (total, completed int64, err error)

	FindPlatformByID(ctx context.Context, db *gorm.DB, platformID uint) (*model.PublishingPlatform, error)
	ListPlatforms(ctx context.Context, db *gorm.DB) ([]*model.PublishingPlatform, error)
	CreatePublication(ctx context.Context, tx *gorm.DB, publication *model.Publication) error
	ListPublications(ctx context.Context, db *gorm.DB, productionID uint) ([]*model.Publication, error)
}

type gormPipelineRepository struct{}

func NewGormPipelineRepository() PipelineRepository {
	return &gormPipelineRepository{}
}

func (r *gormPipelineRepository) CreateProduction(ctx context.Context, tx *gorm.DB, production *model.ContentProduction) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(production)
	if result.Error != nil {
		logger.Error("Error creating production in DB", "error", result.Error, "title", production.Title)
		return fmt.Errorf("gormPipelineRepository.CreateProduction: %w", result.Error)
	}
	return nil
}

func (r *gormPipelineRepository) FindProductionByID(ctx context.Context, db *gorm.DB, productionID uint) (*model.ContentProduction, error) {
	logger := middleware.GetLogger(ctx)
	var production model.ContentProduction
	result := db.WithContext(ctx).First(&production, productionID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding production in DB", "error", result.Error, "production_id", productionID)
		return nil, fmt.Errorf("gormPipelineRepository.FindProductionByID: %w", result.Error)
	}
	return &production, nil
}

func (r *gormPipelineRepository) ListProductions(ctx context.Context, db *gorm.DB, filter model.ProductionFilter) ([]*model.ContentProduction, error) {
	logger := middleware.GetLogger(ctx)
	query := db.WithContext(ctx).Model(&model.ContentProduction{})
	if filter.Status != "" {
		query = query.Where("overall_status = ?", filter.Status)
	}
	if filter.CharacterID != nil {
		query = query.Where("character_id = ?", *filter.CharacterID)
	}
	var productions []*model.ContentProduction
	result := query.Order("created_at DESC").Find(&productions)
	if result.Error != nil {
		logger.Error("Error listing productions in DB", "error", result.Error)
		return nil, fmt.Errorf("gormPipelineRepository.ListProductions: %w", result.Error)
	}
	return productions, nil
}

func (r *gormPipelineRepository) UpdateProduction(ctx context.Context, tx *gorm.DB, productionID uint, updates map[string]interface{}) error {
	logger := middleware.GetLogger(ctx)
	if len(updates) == 0 {
		return nil
	}
	result := tx.WithContext(ctx).Model(&model.ContentProduction{}).Where("id = ?", productionID).Updates(updates)
	if result.Error != nil {
		logger.Error("Error updating production in DB", "error", result.Error, "production_id", productionID)
		return fmt.Errorf("gormPipelineRepository.UpdateProduction: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *gormPipelineRepository) CountProductionsByStatus(ctx context.Context, db *gorm.DB, status string) (int64, error) {
	logger := middleware.GetLogger(ctx)
	var count int64
	result := db.WithContext(ctx).Model(&model.ContentProduction{}).Where("overall_status = ?", status).Count(&count)
	if result.Error != nil {
		logger.Error("Error counting productions in DB", "error", result.Error, "status", status)
		return 0, fmt.Errorf("gormPipelineRepository.CountProductionsByStatus: %w", result.Error)
	}
	return count, nil
}

func (r *gormPipelineRepository) CreateScript(ctx context.Context, tx *gorm.DB, script *model.Script) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(script)
	if result.Error != nil {
		logger.Error("Error creating script in DB", "error", result.Error, "title", script.Title)
		return fmt.Errorf("gormPipelineRepository.CreateScript: %w", result.Error)
	}
	return nil
}

func (r *gormPipelineRepository) FindScriptByID(ctx context.Context, db *gorm.DB, scriptID uint) (*model.Script, error) {
	logger := middleware.GetLogger(ctx)
	var script model.Script
	result := db.WithContext(ctx).First(&script, scriptID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding script in DB", "error", result.Error, "script_id", scriptID)
		return nil, fmt.Errorf("gormPipelineRepository.FindScriptByID: %w", result.Error)
	}
	return &script, nil
}

func (r *gormPipelineRepository) UpdateScript(ctx context.Context, tx *gorm.DB, scriptID uint, updates map[string]interface{}) error {
	logger := middleware.GetLogger(ctx)
	if len(updates) == 0 {
		return nil
	}
	result := tx.WithContext(ctx).Model(&model.Script{}).Where("id = ?", scriptID).Updates(updates)
	if result.Error != nil {
		logger.Error("Error updating script in DB", "error", result.Error, "script_id", scriptID)
		return fmt.Errorf("gormPipelineRepository.UpdateScript: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

// FindProductionByScriptID locates the production a script is attached to,
// if any. Returns ErrNotFound when the script is unattached.
func (r *gormPipelineRepository) FindProductionByScriptID(ctx context.Context, db *gorm.DB, scriptID uint) (*model.ContentProduction, error) {
	logger := middleware.GetLogger(ctx)
	var production model.ContentProduction
	result := db.WithContext(ctx).Where("script_id = ?", scriptID).First(&production)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding production by script in DB", "error", result.Error, "script_id", scriptID)
		return nil, fmt.Errorf("gormPipelineRepository.FindProductionByScriptID: %w", result.Error)
	}
	return &production, nil
}

func (r *gormPipelineRepository) CreateIllustration(ctx context.Context, tx *gorm.DB, illustration *model.Illustration) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(illustration)
	if result.Error != nil {
		logger.Error("Error creating illustration in DB", "error", result.Error, "title", illustration.Title)
		return fmt.Errorf("gormPipelineRepository.CreateIllustration: %w", result.Error)
	}
	return nil
}

func (r *gormPipelineRepository) FindIllustrationByID(ctx context.Context, db *gorm.DB, illustrationID uint) (*model.Illustration, error) {
	logger := middleware.GetLogger(ctx)
	var illustration model.Illustration
	result := db.WithContext(ctx).First(&illustration, illustrationID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding illustration in DB", "error", result.Error, "illustration_id", illustrationID)
		return nil, fmt.Errorf("gormPipelineRepository.FindIllustrationByID: %w", result.Error)
	}
	return &illustration, nil
}

func (r *gormPipelineRepository) UpdateIllustration(ctx context.Context, tx *gorm.DB, illustrationID uint, updates map[string]interface{}) error {
	logger := middleware.GetLogger(ctx)
	if len(updates) == 0 {
		return nil
	}
	result := tx.WithContext(ctx).Model(&model.Illustration{}).Where("id = ?", illustrationID).Updates(updates)
	if result.Error != nil {
		logger.Error("Error updating illustration in DB", "error", result.Error, "illustration_id", illustrationID)
		return fmt.Errorf("gormPipelineRepository.UpdateIllustration: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *gormPipelineRepository) CountIllustrations(ctx context.Context, db *gorm.DB, scriptID uint) (int64, int64, error) {
	return r.countAssets(ctx, db, &model.Illustration{}, scriptID, "gormPipelineRepository.CountIllustrations")
}

func (r *gormPipelineRepository) CreateVoiceRecording(ctx context.Context, tx *gorm.DB, recording *model.VoiceRecording) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(recording)
	if result.Error != nil {
		logger.Error("Error creating voice recording in DB", "error", result.Error, "title", recording.Title)
		return fmt.Errorf("gormPipelineRepository.CreateVoiceRecording: %w", result.Error)
	}
	return nil
}

func (r *gormPipelineRepository) FindVoiceRecordingByID(ctx context.Context, db *gorm.DB, recordingID uint) (*model.VoiceRecording, error) {
	logger := middleware.GetLogger(ctx)
	var recording model.VoiceRecording
	result := db.WithContext(ctx).First(&recording, recordingID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding voice recording in DB", "error", result.Error, "recording_id", recordingID)
		return nil, fmt.Errorf("gormPipelineRepository.FindVoiceRecordingByID: %w", result.Error)
	}
	return &recording, nil
}

func (r *gormPipelineRepository) UpdateVoiceRecording(ctx context.Context, tx *gorm.DB, recordingID uint, updates map[string]interface{}) error {
	logger := middleware.GetLogger(ctx)
	if len(updates) == 0 {
		return nil
	}
	result := tx.WithContext(ctx).Model(&model.VoiceRecording{}).Where("id = ?", recordingID).Updates(updates)
	if result.Error != nil {
		logger.Error("Error updating voice recording in DB", "error", result.Error, "recording_id", recordingID)
		return fmt.Errorf("gormPipelineRepository.UpdateVoiceRecording: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *gormPipelineRepository) CountVoiceRecordings(ctx context.Context, db *gorm.DB, scriptID uint) (int64, int64, error) {
	return r.countAssets(ctx, db, &model.VoiceRecording{}, scriptID, "gormPipelineRepository.CountVoiceRecordings")
}

func (r *gormPipelineRepository) CreateAnimation(ctx context.Context, tx *gorm.DB, animation *model.Animation) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(animation)
	if result.Error != nil {
		logger.Error("Error creating animation in DB", "error", result.Error, "title", animation.Title)
		return fmt.Errorf("gormPipelineRepository.CreateAnimation: %w", result.Error)
	}
	return nil
}

func (r *gormPipelineRepository) FindAnimationByID(ctx context.Context, db *gorm.DB, animationID uint) (*model.Animation, error) {
	logger := middleware.GetLogger(ctx)
	var animation model.Animation
	result := db.WithContext(ctx).First(&animation, animationID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding animation in DB", "error", result.Error, "animation_id", animationID)
		return nil, fmt.Errorf("gormPipelineRepository.FindAnimationByID: %w", result.Error)
	}
	return &animation, nil
}

func (r *gormPipelineRepository) UpdateAnimation(ctx context.Context, tx *gorm.DB, animationID uint, updates map[string]interface{}) error {
	logger := middleware.GetLogger(ctx)
	if len(updates) == 0 {
		return nil
	}
	result := tx.WithContext(ctx).Model(&model.Animation{}).Where("id = ?", animationID).Updates(updates)
	if result.Error != nil {
		logger.Error("Error updating animation in DB", "error", result.Error, "animation_id", animationID)
		return fmt.Errorf("gormPipelineRepository.UpdateAnimation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *gormPipelineRepository) CountAnimations(ctx context.Context, db *gorm.DB, scriptID uint) (int64, int64, error) {
	return r.countAssets(ctx, db, &model.Animation{}, scriptID, "gormPipelineRepository.CountAnimations")
}

func (r *gormPipelineRepository) countAssets(ctx context.Context, db *gorm.DB, assetModel interface{}, scriptID uint, op string) (int64, int64, error) {
	logger := middleware.GetLogger(ctx)
	var total, completed int64
	if err := db.WithContext(ctx).Model(assetModel).Where("script_id = ?", scriptID).Count(&total).Error; err != nil {
		logger.Error("Error counting assets in DB", "error", err, "script_id", scriptID)
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}
	if err := db.WithContext(ctx).Model(assetModel).
		Where("script_id = ? AND status = ?", scriptID, model.AssetStatusCompleted).
		Count(&completed).Error; err != nil {
		logger.Error("Error counting completed assets in DB", "error", err, "script_id", scriptID)
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}
	return total, completed, nil
}

func (r *gormPipelineRepository) FindPlatformByID(ctx context.Context, db *gorm.DB, platformID uint) (*model.PublishingPlatform, error) {
	logger := middleware.GetLogger(ctx)
	var platform model.PublishingPlatform
	result := db.WithContext(ctx).First(&platform, platformID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding publishing platform in DB", "error", result.Error, "platform_id", platformID)
		return nil, fmt.Errorf("gormPipelineRepository.FindPlatformByID: %w", result.Error)
	}
	return &platform, nil
}

func (r *gormPipelineRepository) ListPlatforms(ctx context.Context, db *gorm.DB) ([]*model.PublishingPlatform, error) {
	logger := middleware.GetLogger(ctx)
	var platforms []*model.PublishingPlatform
	result := db.WithContext(ctx).Where("is_active = ?", true).Order("id").Find(&platforms)
	if result.Error != nil {
		logger.Error("Error listing publishing platforms in DB", "error", result.Error)
		return nil, fmt.Errorf("gormPipelineRepository.ListPlatforms: %w", result.Error)
	}
	return platforms, nil
}

func (r *gormPipelineRepository) CreatePublication(ctx context.Context, tx *gorm.DB, publication *model.Publication) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(publication)
	if result.Error != nil {
		logger.Error("Error creating publication in DB",
			"error", result.Error,
			"production_id", publication.ProductionID,
			"platform_id", publication.PlatformID,
		)
		return fmt.Errorf("gormPipelineRepository.CreatePublication: %w", result.Error)
	}
	return nil
}

func (r *gormPipelineRepository) ListPublications(ctx context.Context, db *gorm.DB, productionID uint) ([]*model.Publication, error) {
	logger := middleware.GetLogger(ctx)
	var publications []*model.Publication
	result := db.WithContext(ctx).Preload("Platform").Where("production_id = ?", productionID).Find(&publications)
	if result.Error != nil {
		logger.Error("Error listing publications in DB", "error", result.Error, "production_id", productionID)
		return nil, fmt.Errorf("gormPipelineRepository.ListPublications: %w", result.Error)
	}
	return publications, nil
}
