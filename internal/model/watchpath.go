package model

import "gorm.io/gorm"

// WatchPath is a user-registered extra path to observe, persisted so
// registrations survive daemon restarts.
type WatchPath struct {
	gorm.Model
	Path      string `gorm:"uniqueIndex;not null"`
	Recursive bool   `gorm:"not null;default:true"`
}
