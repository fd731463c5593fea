package model

import (
	"time"

	"gorm.io/datatypes"
)

// Production stages, in lifecycle order. Transitions advance through the
// list; completion percentage never decreases as the stage moves forward.
type ProductionStage string

const (
	StageIdea           ProductionStage = "idea"
	StageScripting      ProductionStage = "scripting"
	StageIllustration   ProductionStage = "illustration"
	StageVoiceRecording ProductionStage = "voice_recording"
	StageAnimation      ProductionStage = "animation"
	StageReview         ProductionStage = "review"
	StagePublished      ProductionStage = "published"
)

// Overall production statuses.
const (
	StatusInProduction = "in_production"
	StatusPublished    = "published"
	StatusCancelled    = "cancelled"
)

// Script lifecycle states.
const (
	ScriptStatusDraft         = "draft"
	ScriptStatusPendingReview = "pending_review"
	ScriptStatusApproved      = "approved"
	ScriptStatusRejected      = "rejected"
)

// Asset sub-statuses set by file uploads.
const (
	AssetStatusDraft              = "draft"
	AssetStatusSketchUploaded     = "sketch_uploaded"
	AssetStatusStoryboardUploaded = "storyboard_uploaded"
	AssetStatusInProgress         = "in_progress"
	AssetStatusRecorded           = "recorded"
	AssetStatusCompleted          = "completed"
)

// Completion percentage milestones.
const (
	PercentScriptApproved = 20.0
	PercentPublished      = 100.0
)

type ContentProduction struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	CharacterID *uint  `gorm:"index" json:"character_id,omitempty"`
	ScriptID    *uint  `json:"script_id,omitempty"`
	CreatedByID uint   `gorm:"not null" json:"created_by_id"`

	CurrentStage         ProductionStage `gorm:"size:50;default:idea" json:"current_stage"`
	OverallStatus        string          `gorm:"size:50;default:in_production;index" json:"overall_status"`
	CompletionPercentage float64         `gorm:"default:0" json:"completion_percentage"`
	Priority             string          `gorm:"size:20;default:medium" json:"priority"`
	TargetAudience       string          `gorm:"size:100" json:"target_audience,omitempty"`

	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Character    *Character    `gorm:"foreignKey:CharacterID" json:"-"`
	Script       *Script       `gorm:"foreignKey:ScriptID" json:"-"`
	Publications []Publication `gorm:"foreignKey:ProductionID" json:"-"`
}

func (ContentProduction) TableName() string { return "content_productions" }

type Script struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Content     string `gorm:"type:text;not null" json:"content"`
	Summary     string `gorm:"type:text" json:"summary,omitempty"`
	CharacterID *uint  `gorm:"index" json:"character_id,omitempty"`
	WriterID    uint   `gorm:"not null" json:"writer_id"`

	Status            string `gorm:"size:50;default:draft" json:"status"`
	WordCount         int    `json:"word_count"`
	EstimatedDuration int    `json:"estimated_duration,omitempty"`

	ApprovedByID  *uint      `json:"approved_by_id,omitempty"`
	ApprovalNotes string     `gorm:"type:text" json:"approval_notes,omitempty"`
	SubmittedAt   *time.Time `json:"submitted_at,omitempty"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Writer *TeamMember `gorm:"foreignKey:WriterID" json:"-"`
}

func (Script) TableName() string { return "scripts" }

type Illustration struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	Title            string `gorm:"size:200;not null" json:"title"`
	Description      string `gorm:"type:text" json:"description,omitempty"`
	SceneDescription string `gorm:"type:text" json:"scene_description,omitempty"`
	ScriptID         uint   `gorm:"not null;index" json:"script_id"`
	SceneNumber      *int   `json:"scene_number,omitempty"`
	ArtistID         uint   `gorm:"not null" json:"artist_id"`

	Status        string     `gorm:"size:50;default:draft" json:"status"`
	ArtStyle      string     `gorm:"size:100" json:"art_style,omitempty"`
	SketchFile    string     `gorm:"size:500" json:"sketch_file,omitempty"`
	FinalFile     string     `gorm:"size:500" json:"final_file,omitempty"`
	ThumbnailFile string     `gorm:"size:500" json:"thumbnail_file,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Artist *TeamMember `gorm:"foreignKey:ArtistID" json:"-"`
}

func (Illustration) TableName() string { return "illustrations" }

type VoiceRecording struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Title        string `gorm:"size:200;not null" json:"title"`
	ScriptText   string `gorm:"type:text" json:"script_text,omitempty"`
	ScriptID     uint   `gorm:"not null;index" json:"script_id"`
	SceneNumber  *int   `json:"scene_number,omitempty"`
	VoiceActorID uint   `gorm:"not null" json:"voice_actor_id"`

	Status     string     `gorm:"size:50;default:draft" json:"status"`
	Language   string     `gorm:"size:10;default:ar" json:"language"`
	AudioFile  string     `gorm:"size:500" json:"audio_file,omitempty"`
	Duration   int        `json:"duration,omitempty"`
	FileSize   int64      `json:"file_size,omitempty"`
	RecordedAt *time.Time `json:"recorded_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	VoiceActor *TeamMember `gorm:"foreignKey:VoiceActorID" json:"-"`
}

func (VoiceRecording) TableName() string { return "voice_recordings" }

type Animation struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	ScriptID    uint   `gorm:"not null;index" json:"script_id"`
	SceneNumber *int   `json:"scene_number,omitempty"`
	AnimatorID  uint   `gorm:"not null" json:"animator_id"`

	Status         string     `gorm:"size:50;default:draft" json:"status"`
	Style          string     `gorm:"size:100" json:"style,omitempty"`
	StoryboardFile string     `gorm:"size:500" json:"storyboard_file,omitempty"`
	PreviewFile    string     `gorm:"size:500" json:"preview_file,omitempty"`
	FinalFile      string     `gorm:"size:500" json:"final_file,omitempty"`
	FileSize       int64      `json:"file_size,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Animator *TeamMember `gorm:"foreignKey:AnimatorID" json:"-"`
}

func (Animation) TableName() string { return "animations" }

type PublishingPlatform struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description  string         `gorm:"type:text" json:"description,omitempty"`
	PlatformType string         `gorm:"size:50" json:"platform_type,omitempty"`
	APIConfig    datatypes.JSON `json:"api_config,omitempty"`
	IsActive     bool           `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time      `json:"created_at"`
}

func (PublishingPlatform) TableName() string { return "publishing_platforms" }

// Publication is the immutable record of one publish event on one platform.
type Publication struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ProductionID uint      `gorm:"not null;index" json:"production_id"`
	PlatformID   uint      `gorm:"not null" json:"platform_id"`
	PublishedURL string    `gorm:"size:500" json:"published_url,omitempty"`
	PublishedAt  time.Time `json:"published_at"`
	Status       string    `gorm:"size:50;default:published" json:"status"`
	CreatedAt    time.Time `json:"created_at"`

	Platform *PublishingPlatform `gorm:"foreignKey:PlatformID" json:"-"`
}

func (Publication) TableName() string { return "publications" }

// Pipeline DTOs.

type CreateProductionRequest struct {
	Title          string `json:"title" validate:"required,max=200"`
	Description    string `json:"description"`
	CharacterID    *uint  `json:"character_id,omitempty"`
	Priority       string `json:"priority" validate:"omitempty,oneof=low medium high"`
	TargetAudience string `json:"target_audience" validate:"omitempty,max=100"`
}

type CreateScriptRequest struct {
	Title             string `json:"title" validate:"required,max=200"`
	Content           string `json:"content" validate:"required"`
	Summary           string `json:"summary"`
	CharacterID       *uint  `json:"character_id,omitempty"`
	EstimatedDuration int    `json:"estimated_duration" validate:"omitempty,min=0"`
}

type ApproveScriptRequest struct {
	Notes string `json:"notes"`
}

type CreateIllustrationRequest struct {
	Title            string `json:"title" validate:"required,max=200"`
	Description      string `json:"description"`
	SceneDescription string `json:"scene_description"`
	ScriptID         uint   `json:"script_id" validate:"required"`
	SceneNumber      *int   `json:"scene_number,omitempty"`
	ArtStyle         string `json:"art_style" validate:"omitempty,max=100"`
}

type CreateVoiceRecordingRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	ScriptText  string `json:"script_text" validate:"required"`
	ScriptID    uint   `json:"script_id" validate:"required"`
	SceneNumber *int   `json:"scene_number,omitempty"`
	Language    string `json:"language" validate:"omitempty,max=10"`
}

type CreateAnimationRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description"`
	ScriptID    uint   `json:"script_id" validate:"required"`
	SceneNumber *int   `json:"scene_number,omitempty"`
	Style       string `json:"style" validate:"omitempty,max=100"`
}

type PublishTarget struct {
	PlatformID uint   `json:"platform_id" validate:"required"`
	URL        string `json:"url" validate:"omitempty,max=500"`
}

type PublishRequest struct {
	Platforms []PublishTarget `json:"platforms" validate:"required,min=1,dive"`
}

type PublishResponse struct {
	Message          string `json:"message"`
	PublicationCount int    `json:"publication_count"`
}

// PipelineStageStatus summarizes one stage family for the pipeline rollup.
type PipelineStageStatus struct {
	Status         string `json:"status"`
	Count          int    `json:"count"`
	CompletedCount int    `json:"completed_count"`
}

type PipelineStatus struct {
	Production   *ContentProduction  `json:"production"`
	Script       PipelineStageStatus `json:"script"`
	Illustration PipelineStageStatus `json:"illustration"`
	Voice        PipelineStageStatus `json:"voice"`
	Animation    PipelineStageStatus `json:"animation"`
}

// ProductionFilter narrows ListProductions.
type ProductionFilter struct {
	Status      string
	CharacterID *uint
}

type UploadResponse struct {
	Message  string `json:"message"`
	FilePath string `json:"file_path"`
}
