package models

import (
	"time"

	"gorm.io/gorm"
)

// Translated holds the three site languages for a piece of text.
// Embedded with a gorm prefix so each entity gets its own columns.
type Translated struct {
	Sv string `json:"sv"`
	En string `json:"en"`
	Km string `json:"km"`
}

// Page is a static site page (about, bylaws, contact, ...)
type Page struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Slug      string         `gorm:"uniqueIndex;not null" json:"slug"`
	Title     Translated     `gorm:"embedded;embeddedPrefix:title_" json:"title"`
	Body      Translated     `gorm:"embedded;embeddedPrefix:body_" json:"body"`
	AuthorID  uint           `gorm:"index" json:"author_id"`
	Published bool           `gorm:"default:false;index" json:"published"`
}

// Post is a news/blog entry
type Post struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Slug        string         `gorm:"uniqueIndex;not null" json:"slug"`
	Title       Translated     `gorm:"embedded;embeddedPrefix:title_" json:"title"`
	Body        Translated     `gorm:"embedded;embeddedPrefix:body_" json:"body"`
	AuthorID    uint           `gorm:"index" json:"author_id"`
	Published   bool           `gorm:"default:false;index" json:"published"`
	PublishedAt *time.Time     `json:"published_at,omitempty"`
}

// Event is a calendar event (Khmer New Year, Pchum Ben, AGM, ...)
type Event struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Slug        string         `gorm:"uniqueIndex;not null" json:"slug"`
	Title       Translated     `gorm:"embedded;embeddedPrefix:title_" json:"title"`
	Description Translated     `gorm:"embedded;embeddedPrefix:desc_" json:"description"`
	Location    string         `json:"location"`
	StartsAt    time.Time      `gorm:"index" json:"starts_at"`
	EndsAt      *time.Time     `json:"ends_at,omitempty"`
	AuthorID    uint           `gorm:"index" json:"author_id"`
	Published   bool           `gorm:"default:false;index" json:"published"`
}

// Service is an offering the association provides (translation help,
// cultural classes, ...)
type Service struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Slug         string         `gorm:"uniqueIndex;not null" json:"slug"`
	Title        Translated     `gorm:"embedded;embeddedPrefix:title_" json:"title"`
	Description  Translated     `gorm:"embedded;embeddedPrefix:desc_" json:"description"`
	ContactEmail string         `json:"contact_email,omitempty"`
	AuthorID     uint           `gorm:"index" json:"author_id"`
	Published    bool           `gorm:"default:false;index" json:"published"`
}
