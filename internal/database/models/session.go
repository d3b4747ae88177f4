package models

import (
	"database/sql/driver"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionStatus represents the lifecycle state of a therapy session
type SessionStatus string

const (
	SessionStatusScheduled SessionStatus = "scheduled"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusCanceled  SessionStatus = "canceled"
)

// Scan implements the sql.Scanner interface for SessionStatus
func (s *SessionStatus) Scan(value interface{}) error {
	if value == nil {
		*s = SessionStatusScheduled
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*s = SessionStatus(v)
	case string:
		*s = SessionStatus(v)
	default:
		return errors.New("invalid session status type")
	}
	return nil
}

// Value implements the driver.Valuer interface for SessionStatus
func (s SessionStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// IsValid returns true for the three known statuses
func (s SessionStatus) IsValid() bool {
	switch s {
	case SessionStatusScheduled, SessionStatusCompleted, SessionStatusCanceled:
		return true
	}
	return false
}

// Session is an appointment between a user and one of their patients.
type Session struct {
	ID        string         `gorm:"type:varchar(36);primaryKey"`
	UserID    string         `gorm:"type:varchar(36);not null;index"`
	PatientID string         `gorm:"type:varchar(36);not null;index"`
	StartTime time.Time      `gorm:"not null"`
	EndTime   time.Time      `gorm:"not null"`
	Value     float64        `gorm:"not null;default:0"`
	Notes     *string
	Status    SessionStatus  `gorm:"not null;default:scheduled"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// TableName overrides the table name
func (Session) TableName() string {
	return "sessions"
}

// BeforeCreate hook to generate UUID if not set
func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Status == "" {
		s.Status = SessionStatusScheduled
	}
	return nil
}

// Duration returns the scheduled length of the session.
func (s *Session) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}
