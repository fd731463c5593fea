package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/on-their-footsteps/backend/internal/middleware"
	"github.com/on-their-footsteps/backend/internal/model"
	"github.com/on-their-footsteps/backend/internal/repository"
)

// PipelineService drives content through the production stages: idea,
// scripting, illustration, voice recording, animation, review, published.
// Every mutation checks the actor's team permission first; the production's
// completion percentage only ever moves up.
type PipelineService interface {
	CreateProduction(ctx context.Context, actor *model.User, req *model.CreateProductionRequest) (*model.ContentProduction, error)
	GetProduction(ctx context.Context, actor *model.User, productionID uint) (*model.ContentProduction, error)
	ListProductions(ctx context.Context, actor *model.User, filter model.ProductionFilter) ([]*model.ContentProduction, error)

	CreateScript(ctx context.Context, actor *model.User, productionID uint, req *model.CreateScriptRequest) (*model.Script, error)
	SubmitScriptForReview(ctx context.Context, actor *model.User, scriptID uint) (*model.Script, error)
	ApproveScript(ctx context.Context, actor *model.User, scriptID uint, req *model.ApproveScriptRequest) (*model.Script, error)
	RejectScript(ctx context.Context, actor *model.User, scriptID uint, req *model.ApproveScriptRequest) (*model.Script, error)

	CreateIllustration(ctx context.Context, actor *model.User, req *model.CreateIllustrationRequest) (*model.Illustration, error)
	AttachIllustrationFile(ctx context.Context, actor *model.User, illustrationID uint, kind, filePath string) (*model.Illustration, error)

	CreateVoiceRecording(ctx context.Context, actor *model.User, req *model.CreateVoiceRecordingRequest) (*model.VoiceRecording, error)
	AttachVoiceAudio(ctx context.Context, actor *model.User, recordingID uint, filePath string, fileSize int64) (*model.VoiceRecording, error)

	CreateAnimation(ctx context.Context, actor *model.User, req *model.CreateAnimationRequest) (*model.Animation, error)
	AttachAnimationFile(ctx context.Context, actor *model.User, animationID uint, kind, filePath string, fileSize int64) (*model.Animation, error)

	Publish(ctx context.Context, actor *model.User, productionID uint, req *model.PublishRequest) (*model.PublishResponse, error)
	GetPipelineStatus(ctx context.Context, actor *model.User, productionID uint) (*model.PipelineStatus, error)
	ListPlatforms(ctx context.Context) ([]*model.PublishingPlatform, error)
}

// Upload kinds accepted by the Attach* methods.
const (
	FileKindSketch     = "sketch"
	FileKindFinal      = "final"
	FileKindThumbnail  = "thumbnail"
	FileKindStoryboard = "storyboard"
	FileKindPreview    = "preview"
)

type pipelineService struct {
	db           *gorm.DB
	pipelineRepo repository.PipelineRepository
	teamRepo     repository.TeamRepository
}

func NewPipelineService(db *gorm.DB, pipelineRepo repository.PipelineRepository, teamRepo repository.TeamRepository) PipelineService {
	return &pipelineService{db: db, pipelineRepo: pipelineRepo, teamRepo: teamRepo}
}

func (s *pipelineService) CreateProduction(ctx context.Context, actor *model.User, req *model.CreateProductionRequest) (*model.ContentProduction, error) {
	logger := middleware.GetLogger(ctx)

	if err := requirePermission(ctx, s.db, s.teamRepo, actor, model.PermCreateCharacter); err != nil {
		return nil, err
	}

	production := &model.ContentProduction{
		Title:          req.Title,
		Description:    req.Description,
		CharacterID:    req.CharacterID,
		CreatedByID:    actor.ID,
		CurrentStage:   model.StageIdea,
		OverallStatus:  model.StatusInProduction,
		Priority:       req.Priority,
		TargetAudience: req.TargetAudience,
	}
	if production.Priority == "" {
		production.Priority = "medium"
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.pipelineRepo.CreateProduction(ctx, tx, production)
	})
	if err != nil {
		logger.Error("Transaction failed for CreateProduction", "error", err)
		return nil, model.ErrInternalServer
	}
	return production, nil
}

func (s *pipelineService) GetProduction(ctx context.Context, actor *model.User, productionID uint) (*model.ContentProduction, error) {
	if _, err := s.requireMember(ctx, actor, ""); err != nil {
		return nil, err
	}
	return s.pipelineRepo.FindProductionByID(ctx, s.db, productionID)
}

func (s *pipelineService) ListProductions(ctx context.Context, actor *model.User, filter model.ProductionFilter) ([]*model.ContentProduction, error) {
	if _, err := s.requireMember(ctx, actor, ""); err != nil {
		return nil, err
	}
	productions, err := s.pipelineRepo.ListProductions(ctx, s.db, filter)
	if err != nil {
		return nil, model.ErrInternalServer
	}
	return productions, nil
}

func (s *pipelineService) CreateScript(ctx context.Context, actor *model.User, productionID uint, req *model.CreateScriptRequest) (*model.Script, error) {
	logger := middleware.GetLogger(ctx)

	member, err := s.requireMember(ctx, actor, model.PermCreateScript)
	if err != nil {
		return nil, err
	}

	production, err := s.pipelineRepo.FindProductionByID(ctx, s.db, productionID)
	if err != nil {
		return nil, err
	}
	if production.OverallStatus == model.StatusCancelled {
		return nil, model.NewAppError("PRODUCTION_CANCELLED", "تم إلغاء هذا الإنتاج.", "", model.ErrConflict)
	}

	script := &model.Script{
		Title:             req.Title,
		Content:           req.Content,
		Summary:           req.Summary,
		CharacterID:       req.CharacterID,
		WriterID:          member.ID,
		Status:            model.ScriptStatusDraft,
		WordCount:         len(strings.Fields(req.Content)),
		EstimatedDuration: req.EstimatedDuration,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.pipelineRepo.CreateScript(ctx, tx, script); err != nil {
			return err
		}
		return s.pipelineRepo.UpdateProduction(ctx, tx, production.ID, map[string]interface{}{
			"script_id":     script.ID,
			"current_stage": model.StageScripting,
		})
	})
	if err != nil {
		logger.Error("Transaction failed for CreateScript", "error", err, "production_id", productionID)
		return nil, model.ErrInternalServer
	}
	return script, nil
}

func (s *pipelineService) SubmitScriptForReview(ctx context.Context, actor *model.User, scriptID uint) (*model.Script, error) {
	logger := middleware.GetLogger(ctx)

	member, err := s.requireMember(ctx, actor, model.PermCreateScript)
	if err != nil {
		return nil, err
	}

	script, err := s.pipelineRepo.FindScriptByID(ctx, s.db, scriptID)
	if err != nil {
		return nil, err
	}
	if script.WriterID != member.ID {
		return nil, model.NewAppError("NOT_SCRIPT_WRITER", "يمكن لكاتب النص فقط إرساله للمراجعة.", "", model.ErrForbidden)
	}
	if script.Status != model.ScriptStatusDraft && script.Status != model.ScriptStatusRejected {
		return nil, model.NewAppError("INVALID_SCRIPT_STATE", "النص ليس في حالة مسودة.", "", model.ErrConflict)
	}

	now := time.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.pipelineRepo.UpdateScript(ctx, tx, scriptID, map[string]interface{}{
			"status":       model.ScriptStatusPendingReview,
			"submitted_at": now,
		})
	})
	if err != nil {
		logger.Error("Transaction failed for SubmitScriptForReview", "error", err, "script_id", scriptID)
		return nil, model.ErrInternalServer
	}

	script.Status = model.ScriptStatusPendingReview
	script.SubmittedAt = &now
	return script, nil
}

// ApproveScript moves a pending script to approved and advances the attached
// production to the illustration stage at 20% completion. The percentage is
// raised, never lowered, so approving after a later milestone is harmless.
func (s *pipelineService) ApproveScript(ctx context.Context, actor *model.User, scriptID uint, req *model.ApproveScriptRequest) (*model.Script, error) {
	logger := middleware.GetLogger(ctx)

	member, err := s.requireMember(ctx, actor, model.PermApproveScript)
	if err != nil {
		return nil, err
	}

	script, err := s.pipelineRepo.FindScriptByID(ctx, s.db, scriptID)
	if err != nil {
		return nil, err
	}
	if script.Status != model.ScriptStatusPendingReview {
		return nil, model.NewAppError("INVALID_SCRIPT_STATE", "النص ليس قيد المراجعة.", "", model.ErrConflict)
	}

	now := time.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.pipelineRepo.UpdateScript(ctx, tx, scriptID, map[string]interface{}{
			"status":         model.ScriptStatusApproved,
			"approved_by_id": member.ID,
			"approval_notes": req.Notes,
			"approved_at":    now,
		}); err != nil {
			return err
		}

		production, err := s.pipelineRepo.FindProductionByScriptID(ctx, tx, scriptID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return nil
			}
			return err
		}
		return s.advanceProduction(ctx, tx, production, model.StageIllustration, model.PercentScriptApproved, nil)
	})
	if err != nil {
		logger.Error("Transaction failed for ApproveScript", "error", err, "script_id", scriptID)
		return nil, model.ErrInternalServer
	}

	script.Status = model.ScriptStatusApproved
	script.ApprovedByID = &member.ID
	script.ApprovalNotes = req.Notes
	script.ApprovedAt = &now
	return script, nil
}

func (s *pipelineService) RejectScript(ctx context.Context, actor *model.User, scriptID uint, req *model.ApproveScriptRequest) (*model.Script, error) {
	logger := middleware.GetLogger(ctx)

	if _, err := s.requireMember(ctx, actor, model.PermApproveScript); err != nil {
		return nil, err
	}

	script, err := s.pipelineRepo.FindScriptByID(ctx, s.db, scriptID)
	if err != nil {
		return nil, err
	}
	if script.Status != model.ScriptStatusPendingReview {
		return nil, model.NewAppError("INVALID_SCRIPT_STATE", "النص ليس قيد المراجعة.", "", model.ErrConflict)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.pipelineRepo.UpdateScript(ctx, tx, scriptID, map[string]interface{}{
			"status":         model.ScriptStatusRejected,
			"approval_notes": req.Notes,
		})
	})
	if err != nil {
		logger.Error("Transaction failed for RejectScript", "error", err, "script_id", scriptID)
		return nil, model.ErrInternalServer
	}

	script.Status = model.ScriptStatusRejected
	script.ApprovalNotes = req.Notes
	return script, nil
}

func (s *pipelineService) CreateIllustration(ctx context.Context, actor *model.User, req *model.CreateIllustrationRequest) (*model.Illustration, error) {
	logger := middleware.GetLogger(ctx)

	member, err := s.requireMember(ctx, actor, model.PermUploadIllustration)
	if err != nil {
		return nil, err
	}
	if err := s.requireApprovedScript(ctx, req.ScriptID); err != nil {
		return nil, err
	}

	illustration := &model.Illustration{
		Title:            req.Title,
		Description:      req.Description,
		SceneDescription: req.SceneDescription,
		ScriptID:         req.ScriptID,
		SceneNumber:      req.SceneNumber,
		ArtistID:         member.ID,
		Status:           model.AssetStatusDraft,
		ArtStyle:         req.ArtStyle,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.pipelineRepo.CreateIllustration(ctx, tx, illustration)
	})
	if err != nil {
		logger.Error("Transaction failed for CreateIllustration", "error", err, "script_id", req.ScriptID)
		return nil, model.ErrInternalServer
	}
	return illustration, nil
}

func (s *pipelineService) AttachIllustrationFile(ctx context.Context, actor *model.User, illustrationID uint, kind, filePath string) (*model.Illustration, error) {
	logger := middleware.GetLogger(ctx)

	member, err := s.requireMember(ctx, actor, model.PermUploadIllustration)
	if err != nil {
		return nil, err
	}

	illustration, err := s.pipelineRepo.FindIllustrationByID(ctx, s.db, illustrationID)
	if err != nil {
		return nil, err
	}
	if illustration.ArtistID != member.ID {
		return nil, model.NewAppError("NOT_ASSET_CREATOR", "يمكن لمنشئ العمل فقط رفع ملفاته.", "", model.ErrForbidden)
	}

	updates := map[string]interface{}{}
	switch kind {
	case FileKindSketch:
		updates["sketch_file"] = filePath
		updates["status"] = model.AssetStatusSketchUploaded
		illustration.SketchFile = filePath
		illustration.Status = model.AssetStatusSketchUploaded
	case FileKindThumbnail:
		updates["thumbnail_file"] = filePath
		illustration.ThumbnailFile = filePath
	case FileKindFinal:
		now := time.Now()
		updates["final_file"] = filePath
		updates["status"] = model.AssetStatusCompleted
		updates["completed_at"] = now
		illustration.FinalFile = filePath
		illustration.Status = model.AssetStatusCompleted
		illustration.CompletedAt = &now
	default:
		return nil, model.NewAppError("INVALID_FILE_KIND", "نوع الملف غير مدعوم.", "kind", model.ErrInvalidInput)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.pipelineRepo.UpdateIllustration(ctx, tx, illustrationID, updates)
	})
	if err != nil {
		logger.Error("Transaction failed for AttachIllustrationFile", "error", err, "illustration_id", illustrationID)
		return nil, model.ErrInternalServer
	}
	return illustration, nil
}

func (s *pipelineService) CreateVoiceRecording(ctx context.Context, actor *model.User, req *model.CreateVoiceRecordingRequest) (*model.VoiceRecording, error) {
	logger := middleware.GetLogger(ctx)

	member, err := s.requireMember(ctx, actor, model.PermUploadVoice)
	if err != nil {
		return nil, err
	}
	if err := s.requireApprovedScript(ctx, req.ScriptID); err != nil {
		return nil, err
	}

	recording := &model.VoiceRecording{
		Title:        req.Title,
		ScriptText:   req.ScriptText,
		ScriptID:     req.ScriptID,
		SceneNumber:  req.SceneNumber,
		VoiceActorID: member.ID,
		Status:       model.AssetStatusDraft,
		Language:     req.Language,
	}
	if recording.Language == "" {
		recording.Language = "ar"
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.pipelineRepo.CreateVoiceRecording(ctx, tx, recording)
	})
	if err != nil {
		logger.Error("Transaction failed for CreateVoiceRecording", "error", err, "script_id", req.ScriptID)
		return nil, model.ErrInternalServer
	}
	return recording, nil
}

func (s *pipelineService) AttachVoiceAudio(ctx context.Context, actor *model.User, recordingID uint, filePath string, fileSize int64) (*model.VoiceRecording, error) {
	logger := middleware.GetLogger(ctx)

	member, err := s.requireMember(ctx, actor, model.PermUploadVoice)
	if err != nil {
		return nil, err
	}

	recording, err := s.pipelineRepo.FindVoiceRecordingByID(ctx, s.db, recordingID)
	if err != nil {
		return nil, err
	}
	if recording.VoiceActorID != member.ID {
		return nil, model.NewAppError("NOT_ASSET_CREATOR", "يمكن لمنشئ العمل فقط رفع ملفاته.", "", model.ErrForbidden)
	}

	now := time.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.pipelineRepo.UpdateVoiceRecording(ctx, tx, recordingID, map[string]interface{}{
			"audio_file":  filePath,
			"file_size":   fileSize,
			"status":      model.AssetStatusRecorded,
			"recorded_at": now,
		})
	})
	if err != nil {
		logger.Error("Transaction failed for AttachVoiceAudio", "error", err, "recording_id", recordingID)
		return nil, model.ErrInternalServer
	}

	recording.AudioFile = filePath
	recording.FileSize = fileSize
	recording.Status = model.AssetStatusRecorded
	recording.RecordedAt = &now
	return recording, nil
}

func (s *pipelineService) CreateAnimation(ctx context.Context, actor *model.User, req *model.CreateAnimationRequest) (*model.Animation, error) {
	logger := middleware.GetLogger(ctx)

	member, err := s.requireMember(ctx, actor, model.PermUploadAnimation)
	if err != nil {
		return nil, err
	}
	if err := s.requireApprovedScript(ctx, req.ScriptID); err != nil {
		return nil, err
	}

	animation := &model.Animation{
		Title:       req.Title,
		Description: req.Description,
		ScriptID:    req.ScriptID,
		SceneNumber: req.SceneNumber,
		AnimatorID:  member.ID,
		Status:      model.AssetStatusDraft,
		Style:       req.Style,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.pipelineRepo.CreateAnimation(ctx, tx, animation)
	})
	if err != nil {
		logger.Error("Transaction failed for CreateAnimation", "error", err, "script_id", req.ScriptID)
		return nil, model.ErrInternalServer
	}
	return animation, nil
}

func (s *pipelineService) AttachAnimationFile(ctx context.Context, actor *model.User, animationID uint, kind, filePath string, fileSize int64) (*model.Animation, error) {
	logger := middleware.GetLogger(ctx)

	member, err := s.requireMember(ctx, actor, model.PermUploadAnimation)
	if err != nil {
		return nil, err
	}

	animation, err := s.pipelineRepo.FindAnimationByID(ctx, s.db, animationID)
	if err != nil {
		return nil, err
	}
	if animation.AnimatorID != member.ID {
		return nil, model.NewAppError("NOT_ASSET_CREATOR", "يمكن لمنشئ العمل فقط رفع ملفاته.", "", model.ErrForbidden)
	}

	updates := map[string]interface{}{}
	switch kind {
	case FileKindStoryboard:
		updates["storyboard_file"] = filePath
		updates["status"] = model.AssetStatusStoryboardUploaded
		animation.StoryboardFile = filePath
		animation.Status = model.AssetStatusStoryboardUploaded
	case FileKindPreview:
		updates["preview_file"] = filePath
		updates["status"] = model.AssetStatusInProgress
		animation.PreviewFile = filePath
		animation.Status = model.AssetStatusInProgress
	case FileKindFinal:
		now := time.Now()
		updates["final_file"] = filePath
		updates["file_size"] = fileSize
		updates["status"] = model.AssetStatusCompleted
		updates["completed_at"] = now
		animation.FinalFile = filePath
		animation.FileSize = fileSize
		animation.Status = model.AssetStatusCompleted
		animation.CompletedAt = &now
	default:
		return nil, model.NewAppError("INVALID_FILE_KIND", "نوع الملف غير مدعوم.", "kind", model.ErrInvalidInput)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.pipelineRepo.UpdateAnimation(ctx, tx, animationID, updates)
	})
	if err != nil {
		logger.Error("Transaction failed for AttachAnimationFile", "error", err, "animation_id", animationID)
		return nil, model.ErrInternalServer
	}
	return animation, nil
}

// Publish records one publication per requested platform and moves the
// production to published at 100%. Publishing is deliberately not gated on
// upstream assets; an approved script is not required either.
func (s *pipelineService) Publish(ctx context.Context, actor *model.User, productionID uint, req *model.PublishRequest) (*model.PublishResponse, error) {
	logger := middleware.GetLogger(ctx)

	if _, err := s.requireMember(ctx, actor, model.PermPublishContent); err != nil {
		return nil, err
	}

	production, err := s.pipelineRepo.FindProductionByID(ctx, s.db, productionID)
	if err != nil {
		return nil, err
	}
	if production.OverallStatus == model.StatusCancelled {
		return nil, model.NewAppError("PRODUCTION_CANCELLED", "تم إلغاء هذا الإنتاج.", "", model.ErrConflict)
	}

	now := time.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, target := range req.Platforms {
			if _, err := s.pipelineRepo.FindPlatformByID(ctx, tx, target.PlatformID); err != nil {
				if errors.Is(err, model.ErrNotFound) {
					return model.NewAppError("PLATFORM_NOT_FOUND", "منصة النشر غير موجودة.", "platform_id", model.ErrNotFound)
				}
				return err
			}
			publication := &model.Publication{
				ProductionID: productionID,
				PlatformID:   target.PlatformID,
				PublishedURL: target.URL,
				PublishedAt:  now,
				Status:       model.StatusPublished,
			}
			if err := s.pipelineRepo.CreatePublication(ctx, tx, publication); err != nil {
				return err
			}
		}
		return s.advanceProduction(ctx, tx, production, model.StagePublished, model.PercentPublished, map[string]interface{}{
			"overall_status": model.StatusPublished,
			"published_at":   now,
		})
	})
	if err != nil {
		var appErr *model.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		logger.Error("Transaction failed for Publish", "error", err, "production_id", productionID)
		return nil, model.ErrInternalServer
	}

	return &model.PublishResponse{
		Message:          "تم نشر المحتوى بنجاح.",
		PublicationCount: len(req.Platforms),
	}, nil
}

func (s *pipelineService) GetPipelineStatus(ctx context.Context, actor *model.User, productionID uint) (*model.PipelineStatus, error) {
	if _, err := s.requireMember(ctx, actor, ""); err != nil {
		return nil, err
	}
	production, err := s.pipelineRepo.FindProductionByID(ctx, s.db, productionID)
	if err != nil {
		return nil, err
	}

	status := &model.PipelineStatus{Production: production}

	if production.ScriptID != nil {
		script, err := s.pipelineRepo.FindScriptByID(ctx, s.db, *production.ScriptID)
		if err != nil && !errors.Is(err, model.ErrNotFound) {
			return nil, model.ErrInternalServer
		}
		if script != nil {
			status.Script = model.PipelineStageStatus{Status: script.Status, Count: 1}
			if script.Status == model.ScriptStatusApproved {
				status.Script.CompletedCount = 1
			}

			families := []struct {
				dst   *model.PipelineStageStatus
				count func(context.Context, *gorm.DB, uint) (int64, int64, error)
			}{
				{&status.Illustration, s.pipelineRepo.CountIllustrations},
				{&status.Voice, s.pipelineRepo.CountVoiceRecordings},
				{&status.Animation, s.pipelineRepo.CountAnimations},
			}
			for _, f := range families {
				total, completed, err := f.count(ctx, s.db, script.ID)
				if err != nil {
					return nil, model.ErrInternalServer
				}
				f.dst.Count = int(total)
				f.dst.CompletedCount = int(completed)
				switch {
				case total == 0:
					f.dst.Status = "not_started"
				case completed == total:
					f.dst.Status = model.AssetStatusCompleted
				default:
					f.dst.Status = model.AssetStatusInProgress
				}
			}
		}
	} else {
		status.Script = model.PipelineStageStatus{Status: "not_started"}
		status.Illustration = model.PipelineStageStatus{Status: "not_started"}
		status.Voice = model.PipelineStageStatus{Status: "not_started"}
		status.Animation = model.PipelineStageStatus{Status: "not_started"}
	}

	return status, nil
}

func (s *pipelineService) ListPlatforms(ctx context.Context) ([]*model.PublishingPlatform, error) {
	platforms, err := s.pipelineRepo.ListPlatforms(ctx, s.db)
	if err != nil {
		return nil, model.ErrInternalServer
	}
	return platforms, nil
}

// advanceProduction moves a production to a later stage and raises its
// completion percentage to pct if that is higher than the stored value.
func (s *pipelineService) advanceProduction(ctx context.Context, tx *gorm.DB, production *model.ContentProduction, stage model.ProductionStage, pct float64, extra map[string]interface{}) error {
	updates := map[string]interface{}{"current_stage": stage}
	if pct > production.CompletionPercentage {
		updates["completion_percentage"] = pct
	}
	for k, v := range extra {
		updates[k] = v
	}
	return s.pipelineRepo.UpdateProduction(ctx, tx, production.ID, updates)
}

// requireMember resolves the actor's active team membership and checks one
// permission. Asset authorship needs a member row, so even superusers must
// be on the team; they just skip the permission check.
// requireMember loads the actor's team membership and, when perm is
// non-empty, checks that permission. An empty perm means membership alone
// grants access. Superusers skip the permission check but still need a
// membership row, since assets carry member authorship.
func (s *pipelineService) requireMember(ctx context.Context, actor *model.User, perm string) (*model.TeamMember, error) {
	if actor == nil {
		return nil, model.ErrUnauthorized
	}
	member, err := s.teamRepo.FindMemberByUserID(ctx, s.db, actor.ID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("NOT_TEAM_MEMBER", "يجب أن تكون عضوًا في فريق الإنتاج.", "", model.ErrForbidden)
		}
		return nil, model.ErrInternalServer
	}
	if perm == "" || actor.IsSuperuser {
		return member, nil
	}
	if !member.Role.HasPermission(perm) {
		return nil, model.NewAppError("PERMISSION_DENIED", "ليست لديك صلاحية لهذا الإجراء.", "", model.ErrForbidden)
	}
	return member, nil
}

func (s *pipelineService) requireApprovedScript(ctx context.Context, scriptID uint) error {
	script, err := s.pipelineRepo.FindScriptByID(ctx, s.db, scriptID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.NewAppError("SCRIPT_NOT_FOUND", "النص غير موجود.", "script_id", model.ErrNotFound)
		}
		return model.ErrInternalServer
	}
	if script.Status != model.ScriptStatusApproved {
		return model.NewAppError("SCRIPT_NOT_APPROVED", "يجب اعتماد النص أولًا.", "script_id", model.ErrConflict)
	}
	return nil
}
