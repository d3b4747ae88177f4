package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/psyflow/backend-go/internal/database/models"
)

// SessionRepository defines the interface for session data operations
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	FindByID(ctx context.Context, id, ownerID string) (*models.Session, error)
	// ListByPatient returns the sessions of an active patient, newest first.
	ListByPatient(ctx context.Context, patientID, ownerID string) ([]models.Session, error)
	Update(ctx context.Context, id, ownerID string, fields map[string]any) (int64, error)
	Delete(ctx context.Context, id, ownerID string) (int64, error)
}

type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new session repository instance
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *models.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *sessionRepository) FindByID(ctx context.Context, id, ownerID string) (*models.Session, error) {
	var session models.Session
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) ListByPatient(ctx context.Context, patientID, ownerID string) ([]models.Session, error) {
	sessions := []models.Session{}
	err := r.db.WithContext(ctx).
		Joins("JOIN patients ON patients.id = sessions.patient_id AND patients.deleted_at IS NULL").
		Where("sessions.user_id = ? AND sessions.patient_id = ?", ownerID, patientID).
		Order("sessions.start_time DESC").
		Find(&sessions).Error
	return sessions, err
}

func (r *sessionRepository) Update(ctx context.Context, id, ownerID string, fields map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ? AND user_id = ?", id, ownerID).
		Updates(fields)
	return result.RowsAffected, result.Error
}

func (r *sessionRepository) Delete(ctx context.Context, id, ownerID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		Delete(&models.Session{})
	return result.RowsAffected, result.Error
}
