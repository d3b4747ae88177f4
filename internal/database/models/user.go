package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a practitioner account. It owns exactly one Settings row and any
// number of patients.
type User struct {
	ID           string    `gorm:"type:varchar(36);primaryKey"`
	Name         string    `gorm:"not null"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Relationships
	Settings *Settings `gorm:"foreignKey:UserID"`
}

// TableName overrides the table name
func (User) TableName() string {
	return "users"
}

// BeforeCreate hook to generate UUID if not set
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
