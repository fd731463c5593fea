package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Character is a historical figure whose story the app teaches.
type Character struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:200;not null;index" json:"name"`
	ArabicName  string `gorm:"size:200;not null" json:"arabic_name"`
	EnglishName string `gorm:"size:200" json:"english_name,omitempty"`

	Title       string `gorm:"size:300" json:"title,omitempty"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	BirthYear   *int   `json:"birth_year,omitempty"`
	DeathYear   *int   `json:"death_year,omitempty"`
	Era         string `gorm:"size:100;index" json:"era,omitempty"`
	Category    string `gorm:"size:100;index" json:"category,omitempty"`
	SubCategory string `gorm:"size:100" json:"sub_category,omitempty"`
	Slug        string `gorm:"size:200;uniqueIndex" json:"slug,omitempty"`

	FullStory       string         `gorm:"type:text" json:"full_story,omitempty"`
	KeyAchievements datatypes.JSON `json:"key_achievements,omitempty"`
	Lessons         datatypes.JSON `json:"lessons,omitempty"`
	Quotes          datatypes.JSON `json:"quotes,omitempty"`

	ProfileImage string         `gorm:"size:500" json:"profile_image,omitempty"`
	Gallery      datatypes.JSON `json:"gallery,omitempty"`
	AudioStories datatypes.JSON `json:"audio_stories,omitempty"`

	TimelineEvents datatypes.JSON `json:"timeline_events,omitempty"`
	BirthPlace     string         `gorm:"size:200" json:"birth_place,omitempty"`
	DeathPlace     string         `gorm:"size:200" json:"death_place,omitempty"`
	Locations      datatypes.JSON `json:"locations,omitempty"`

	RelatedCharacters datatypes.JSON `json:"related_characters,omitempty"`

	ViewsCount  int `gorm:"default:0" json:"views_count"`
	LikesCount  int `gorm:"default:0" json:"likes_count"`
	SharesCount int `gorm:"default:0" json:"shares_count"`

	IsActive           bool   `gorm:"default:true" json:"is_active"`
	IsFeatured         bool   `gorm:"default:false" json:"is_featured"`
	IsVerified         bool   `gorm:"default:false" json:"is_verified"`
	VerificationSource string `gorm:"size:500" json:"verification_source,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Character) TableName() string { return "islamic_characters" }

type CreateCharacterRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	ArabicName  string `json:"arabic_name" validate:"required,max=200"`
	EnglishName string `json:"english_name" validate:"omitempty,max=200"`
	Title       string `json:"title" validate:"omitempty,max=300"`
	Description string `json:"description"`
	Era         string `json:"era" validate:"omitempty,max=100"`
	Category    string `json:"category" validate:"omitempty,max=100"`
	Slug        string `json:"slug" validate:"omitempty,max=200"`
	FullStory   string `json:"full_story"`
}

// AdminCharacterPatch enumerates the fields an admin may change on a
// character. Only non-nil fields are applied.
type AdminCharacterPatch struct {
	IsActive   *bool `json:"is_active,omitempty"`
	IsFeatured *bool `json:"is_featured,omitempty"`
}

// CharacterListQuery captures the supported list filters; its values feed
// the cache key for the read-through character list.
type CharacterListQuery struct {
	Category string
	Era      string
	Page     int
	Limit    int
}

// UserProgress tracks a user's reading progress through one character story.
type UserProgress struct {
	ID          uint `gorm:"primaryKey" json:"id"`
	UserID      uint `gorm:"not null;index" json:"user_id"`
	CharacterID uint `gorm:"not null;index" json:"character_id"`

	CurrentChapter       int     `gorm:"default:0" json:"current_chapter"`
	TotalChapters        int     `json:"total_chapters,omitempty"`
	CompletionPercentage float64 `gorm:"default:0" json:"completion_percentage"`
	IsCompleted          bool    `gorm:"default:false" json:"is_completed"`

	Bookmarked bool   `gorm:"default:false" json:"bookmarked"`
	Notes      string `gorm:"type:text" json:"notes,omitempty"`
	Rating     *int   `json:"rating,omitempty"`
	TimeSpent  int    `gorm:"default:0" json:"time_spent"`

	StartedAt   time.Time  `gorm:"autoCreateTime" json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	User      *User      `gorm:"foreignKey:UserID" json:"-"`
	Character *Character `gorm:"foreignKey:CharacterID" json:"-"`
}

func (UserProgress) TableName() string { return "user_progress" }
