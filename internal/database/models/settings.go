package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Defaults applied to the Settings row created alongside every new user.
const (
	DefaultTimezone             = "America/Sao_Paulo"
	DefaultCurrency             = "BRL"
	DefaultTheme                = "light"
	DefaultSessionDuration      = 50
	DefaultNotificationsEnabled = true
)

// Settings holds per-user preferences.
type Settings struct {
	ID                   string    `gorm:"type:varchar(36);primaryKey"`
	UserID               string    `gorm:"type:varchar(36);uniqueIndex;not null"`
	Timezone             string    `gorm:"not null;default:America/Sao_Paulo"`
	Currency             string    `gorm:"not null;default:BRL"`
	Theme                string    `gorm:"not null;default:light"`
	DefaultSessionValue  float64   `gorm:"not null;default:0"`
	NotificationsEnabled bool      `gorm:"not null;default:true"`
	SessionDuration      int       `gorm:"not null;default:50"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// TableName overrides the table name
func (Settings) TableName() string {
	return "settings"
}

// BeforeCreate hook to generate UUID if not set
func (s *Settings) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// NewDefaultSettings returns the preferences every account starts with.
func NewDefaultSettings() *Settings {
	return &Settings{
		Timezone:             DefaultTimezone,
		Currency:             DefaultCurrency,
		Theme:                DefaultTheme,
		DefaultSessionValue:  0,
		NotificationsEnabled: DefaultNotificationsEnabled,
		SessionDuration:      DefaultSessionDuration,
	}
}
