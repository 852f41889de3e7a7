package models

import (
	"time"

	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/roles"
	"gorm.io/gorm"
)

// User represents a login-capable account in the system
type User struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	Email         string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash  string         `json:"-"`
	Name          string         `json:"name"`
	Role          roles.Role     `gorm:"type:varchar(20);default:'USER'" json:"role"`
	IsBoardMember bool           `gorm:"default:false" json:"is_board_member"`
	Active        bool           `gorm:"default:true" json:"active"`

	// Relationships
	Member *Member `gorm:"foreignKey:UserID" json:"member,omitempty"`
}
