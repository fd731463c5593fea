package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Level is an XP threshold in the gamification ladder. Levels are ordered by
// XPRequired; a user holding level N is promoted to the next level once their
// accumulated XP meets its threshold.
type Level struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:100;not null" json:"name"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	XPRequired  int    `gorm:"not null;default:0;index" json:"xp_required"`
	BadgeIcon   string `gorm:"size:200" json:"badge_icon,omitempty"`
	Color       string `gorm:"size:20" json:"color,omitempty"`
	SortOrder   int    `gorm:"default:0" json:"sort_order"`
}

func (Level) TableName() string { return "levels" }

type User struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	Username       string `gorm:"size:100;uniqueIndex" json:"username"`
	Email          string `gorm:"size:255;uniqueIndex" json:"email"`
	FullName       string `gorm:"size:200" json:"full_name,omitempty"`
	HashedPassword string `gorm:"size:255" json:"-"`
	IsActive       bool   `gorm:"default:true" json:"is_active"`
	IsSuperuser    bool   `gorm:"default:false" json:"is_superuser"`
	IsGuest        bool   `gorm:"default:false" json:"is_guest"`

	// Preferences
	Language string `gorm:"size:10;default:ar" json:"language"`
	Theme    string `gorm:"size:20;default:light" json:"theme"`

	// Learning preferences
	CompanionCharacterID *uint  `json:"companion_character_id,omitempty"`
	SelectedPath         string `gorm:"size:100" json:"selected_path,omitempty"`

	// Gamification
	Achievements datatypes.JSON `json:"achievements,omitempty"`
	Badges       datatypes.JSON `json:"badges,omitempty"`

	// Level system
	CurrentXP  int   `gorm:"default:0" json:"current_xp"`
	LevelID    *uint `json:"level_id,omitempty"`
	StreakDays int   `gorm:"default:0" json:"streak_days"`

	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	LastActive *time.Time     `json:"last_active,omitempty"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	Level              *Level              `gorm:"foreignKey:LevelID" json:"-"`
	CompanionCharacter *CompanionCharacter `gorm:"foreignKey:CompanionCharacterID" json:"-"`
}

func (User) TableName() string { return "users" }

// Auth DTOs.

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	FullName string `json:"full_name" validate:"omitempty,max=200"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        UserResponse `json:"user"`
}

type UserResponse struct {
	ID          uint      `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	FullName    string    `json:"full_name,omitempty"`
	IsActive    bool      `json:"is_active"`
	IsSuperuser bool      `json:"is_superuser"`
	IsGuest     bool      `json:"is_guest"`
	CurrentXP   int       `json:"current_xp"`
	LevelID     *uint     `json:"level_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FullName:    u.FullName,
		IsActive:    u.IsActive,
		IsSuperuser: u.IsSuperuser,
		IsGuest:     u.IsGuest,
		CurrentXP:   u.CurrentXP,
		LevelID:     u.LevelID,
		CreatedAt:   u.CreatedAt,
	}
}

// AdminUserPatch enumerates the fields an admin may change on a user. Only
// non-nil fields are applied.
type AdminUserPatch struct {
	FullName    *string `json:"full_name,omitempty" validate:"omitempty,max=200"`
	IsActive    *bool   `json:"is_active,omitempty"`
	IsSuperuser *bool   `json:"is_superuser,omitempty"`
}
