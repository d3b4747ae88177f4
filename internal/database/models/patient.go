package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Patient belongs to exactly one user. Deleting a patient only stamps
// DeletedAt; default-scoped queries skip stamped rows.
type Patient struct {
	ID        string         `gorm:"type:varchar(36);primaryKey"`
	UserID    string         `gorm:"type:varchar(36);not null;index"`
	Name      string         `gorm:"not null;index"`
	Email     *string
	Phone     *string
	CPF       *string        `gorm:"column:cpf"`
	BirthDate *time.Time
	Address   *string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// TableName overrides the table name
func (Patient) TableName() string {
	return "patients"
}

// BeforeCreate hook to generate UUID if not set
func (p *Patient) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// IsDeleted reports whether the patient carries a soft-delete marker.
func (p *Patient) IsDeleted() bool {
	return p.DeletedAt.Valid
}

// GetUserID returns the owning user's id.
func (p *Patient) GetUserID() string {
	return p.UserID
}
