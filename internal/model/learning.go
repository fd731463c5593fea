package model

import (
	"time"

	"gorm.io/datatypes"
)

// CompanionCharacter is the animated guide a learner picks for their journey.
type CompanionCharacter struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	ArabicName   string    `gorm:"size:100;not null" json:"arabic_name"`
	Description  string    `gorm:"type:text" json:"description,omitempty"`
	ImageURL     string    `gorm:"size:500" json:"image_url,omitempty"`
	AnimationURL string    `gorm:"size:500" json:"animation_url,omitempty"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

func (CompanionCharacter) TableName() string { return "companion_characters" }

type LearningPath struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:100;not null" json:"name"`
	ArabicName  string `gorm:"size:100;not null" json:"arabic_name"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	CoverImage  string `gorm:"size:500" json:"cover_image,omitempty"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`
	SortOrder   int    `gorm:"default:0" json:"sort_order"`

	Lessons []Lesson `gorm:"foreignKey:PathID" json:"-"`
}

func (LearningPath) TableName() string { return "learning_paths" }

type Lesson struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	PathID      uint           `gorm:"not null;index" json:"path_id"`
	CharacterID *uint          `json:"character_id,omitempty"`
	Title       string         `gorm:"size:200;not null" json:"title"`
	ArabicTitle string         `gorm:"size:200" json:"arabic_title,omitempty"`
	Description string         `gorm:"type:text" json:"description,omitempty"`
	Content     datatypes.JSON `gorm:"not null" json:"content"`
	Duration    int            `json:"duration,omitempty"`
	HasQuiz     bool           `gorm:"default:false" json:"has_quiz"`
	SortOrder   int            `gorm:"default:0;index" json:"sort_order"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`

	Path      *LearningPath `gorm:"foreignKey:PathID" json:"-"`
	Character *Character    `gorm:"foreignKey:CharacterID" json:"-"`
}

func (Lesson) TableName() string { return "lessons" }

// UserLessonProgress is the single row per (user, lesson) recording the best
// known state of that lesson attempt.
type UserLessonProgress struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"not null;index:idx_user_lesson,unique" json:"user_id"`
	LessonID    uint       `gorm:"not null;index:idx_user_lesson,unique" json:"lesson_id"`
	IsCompleted bool       `gorm:"default:false" json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Score       *float64   `json:"score,omitempty"`
	TimeSpent   *int       `json:"time_spent,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Lesson *Lesson `gorm:"foreignKey:LessonID" json:"-"`
}

func (UserLessonProgress) TableName() string { return "user_lesson_progress" }

// LessonProgressPatch enumerates the optional fields a progress submission
// may carry. Only non-nil fields are applied to the stored row.
type LessonProgressPatch struct {
	Score     *float64 `json:"score,omitempty" validate:"omitempty,min=0,max=100"`
	TimeSpent *int     `json:"time_spent,omitempty" validate:"omitempty,min=0"`
}

// LessonProgressResult is returned after a progress submission so the client
// can show XP and level-up feedback without a second round trip.
type LessonProgressResult struct {
	Progress  *UserLessonProgress `json:"progress"`
	XPAwarded int                 `json:"xp_awarded"`
	CurrentXP int                 `json:"current_xp"`
	LeveledUp bool                `json:"leveled_up"`
	LevelID   *uint               `json:"level_id,omitempty"`
}

type SkipQuizRequest struct {
	QuizAttempts int `json:"quiz_attempts" validate:"min=0"`
}

type SkipQuizResponse struct {
	CanSkip         bool   `json:"can_skip"`
	UnlockedLessons []uint `json:"unlocked_lessons"`
	Message         string `json:"message"`
}

type LessonBrief struct {
	ID                  uint   `json:"id"`
	Title               string `json:"title"`
	ArabicTitle         string `json:"arabic_title,omitempty"`
	Description         string `json:"description,omitempty"`
	Duration            int    `json:"duration,omitempty"`
	HasQuiz             bool   `json:"has_quiz"`
	CharacterName       string `json:"character_name,omitempty"`
	CharacterArabicName string `json:"character_arabic_name,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
