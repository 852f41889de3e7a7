package models

import (
	"time"

	"gorm.io/gorm"
)

// MembershipType categorizes how someone belongs to the association
type MembershipType string

const (
	MembershipRegular   MembershipType = "REGULAR"
	MembershipFamily    MembershipType = "FAMILY"
	MembershipStudent   MembershipType = "STUDENT"
	MembershipSupporter MembershipType = "SUPPORTER"
)

// Member is an approved, numbered association member. A member may exist
// without a linked User until account creation is triggered.
type Member struct {
	ID             uint           `gorm:"primarykey" json:"id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	MemberNumber   string         `gorm:"uniqueIndex;not null" json:"member_number"` // M<year>-<seq>
	FirstName      string         `gorm:"not null" json:"first_name"`
	LastName       string         `gorm:"not null" json:"last_name"`
	Email          string         `gorm:"uniqueIndex;not null" json:"email"`
	Phone          string         `json:"phone,omitempty"`
	MembershipType MembershipType `gorm:"type:varchar(20);default:'REGULAR'" json:"membership_type"`
	Active         bool           `gorm:"default:true" json:"active"`
	JoinedAt       time.Time      `json:"joined_at"`
	UserID         *uint          `gorm:"index" json:"user_id,omitempty"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// ValidMembershipType reports whether t is a known membership type.
func ValidMembershipType(t MembershipType) bool {
	switch t {
	case MembershipRegular, MembershipFamily, MembershipStudent, MembershipSupporter:
		return true
	}
	return false
}
