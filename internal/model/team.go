package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Permission names attached to a role. Checked before every mutating
// pipeline operation.
const (
	PermCreateCharacter    = "CREATE_CHARACTER"
	PermCreateScript       = "CREATE_SCRIPT"
	PermApproveScript      = "APPROVE_SCRIPT"
	PermUploadIllustration = "UPLOAD_ILLUSTRATION"
	PermUploadVoice        = "UPLOAD_VOICE"
	PermUploadAnimation    = "UPLOAD_ANIMATION"
	PermApproveAnimation   = "APPROVE_ANIMATION"
	PermPublishContent     = "PUBLISH_CONTENT"
)

type Role struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description,omitempty"`
	Permissions datatypes.JSON `json:"permissions,omitempty"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
}

func (Role) TableName() string { return "roles" }

// HasPermission reports whether the role's permission list contains perm.
func (r *Role) HasPermission(perm string) bool {
	if r == nil || !r.IsActive || len(r.Permissions) == 0 {
		return false
	}
	var perms []string
	if err := json.Unmarshal(r.Permissions, &perms); err != nil {
		return false
	}
	for _, p := range perms {
		if p == perm {
			return true
		}
	}
	return false
}

// TeamMember links a user to a content-production role.
type TeamMember struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	RoleID     uint      `gorm:"not null" json:"role_id"`
	Department string    `gorm:"size:100" json:"department,omitempty"`
	Bio        string    `gorm:"type:text" json:"bio,omitempty"`
	AvatarURL  string    `gorm:"size:500" json:"avatar_url,omitempty"`
	IsActive   bool      `gorm:"default:true" json:"is_active"`
	JoinedAt   time.Time `gorm:"autoCreateTime" json:"joined_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
	Role *Role `gorm:"foreignKey:RoleID" json:"-"`
}

func (TeamMember) TableName() string { return "team_members" }
