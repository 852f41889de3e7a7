package models

import (
	"time"

	"gorm.io/gorm"
)

// RequestStatus is the lifecycle state of a membership request
type RequestStatus string

const (
	StatusPending       RequestStatus = "PENDING"
	StatusUnderReview   RequestStatus = "UNDER_REVIEW"
	StatusInfoRequested RequestStatus = "ADDITIONAL_INFO_REQUESTED"
	StatusApproved      RequestStatus = "APPROVED"
	StatusRejected      RequestStatus = "REJECTED"
)

// Terminal reports whether s is an absorbing state.
func (s RequestStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// ValidRequestStatus reports whether s is a known status.
func ValidRequestStatus(s RequestStatus) bool {
	switch s {
	case StatusPending, StatusUnderReview, StatusInfoRequested, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// ApprovalTrack distinguishes requests decided by a single board member
// from those that go through a full board vote.
type ApprovalTrack string

const (
	TrackStandard  ApprovalTrack = "STANDARD"
	TrackBoardVote ApprovalTrack = "BOARD_VOTE"
)

// MembershipRequest is an application to join the association.
// Once APPROVED the record is immutable apart from its Member link.
type MembershipRequest struct {
	ID             uint           `gorm:"primarykey" json:"id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	RequestNumber  string         `gorm:"uniqueIndex;not null" json:"request_number"` // REQ-<year>-<seq>
	ReferenceToken string         `gorm:"uniqueIndex;not null" json:"-"`              // applicant's proof of ownership

	FirstName      string         `gorm:"not null" json:"first_name"`
	LastName       string         `gorm:"not null" json:"last_name"`
	Email          string         `gorm:"index;not null" json:"email"`
	Phone          string         `json:"phone,omitempty"`
	AddressLine    string         `json:"address_line"`
	PostalCode     string         `json:"postal_code"`
	City           string         `json:"city"`
	Country        string         `gorm:"default:'Sweden'" json:"country"`
	Motivation     string         `gorm:"type:text" json:"motivation"`
	MembershipType MembershipType `gorm:"type:varchar(20);default:'REGULAR'" json:"membership_type"`

	Status        RequestStatus `gorm:"type:varchar(30);default:'PENDING';index" json:"status"`
	ApprovalTrack ApprovalTrack `gorm:"type:varchar(20);default:'STANDARD'" json:"approval_track"`
	AdminNotes    string        `gorm:"type:text" json:"admin_notes,omitempty"`
	ReviewedByID  *uint         `json:"reviewed_by_id,omitempty"`
	ReviewedAt    *time.Time    `json:"reviewed_at,omitempty"`
	MemberID      *uint         `gorm:"index" json:"member_id,omitempty"`

	Member        *Member                `gorm:"foreignKey:MemberID" json:"member,omitempty"`
	StatusHistory []RequestStatusHistory `gorm:"foreignKey:RequestID" json:"status_history,omitempty"`
}

// RequestStatusHistory records a single status transition of a request.
type RequestStatusHistory struct {
	ID         uint          `gorm:"primarykey" json:"id"`
	CreatedAt  time.Time     `json:"created_at"`
	RequestID  uint          `gorm:"index;not null" json:"request_id"`
	FromStatus RequestStatus `gorm:"type:varchar(30)" json:"from_status"`
	ToStatus   RequestStatus `gorm:"type:varchar(30)" json:"to_status"`
	ActorID    *uint         `json:"actor_id,omitempty"`
	Notes      string        `gorm:"type:text" json:"notes,omitempty"`
}
