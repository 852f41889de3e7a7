package models

import "gorm.io/gorm"

// Sequence backs year-scoped sequential numbering (request and member
// numbers). Updated atomically with an upsert in the membership package.
type Sequence struct {
	Name  string `gorm:"primaryKey;type:varchar(40)"`
	Year  int    `gorm:"primaryKey"`
	Value int64  `gorm:"not null"`
}

// AllModels returns all models for migration
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Member{},
		&MembershipRequest{},
		&RequestStatusHistory{},
		&ActivityLog{},
		&Sequence{},
		&Page{},
		&Post{},
		&Event{},
		&Service{},
	}
}

// AutoMigrate runs GORM auto-migration for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}
