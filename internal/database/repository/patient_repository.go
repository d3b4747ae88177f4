package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/psyflow/backend-go/internal/database/models"
)

// PatientRepository defines the interface for patient data operations.
// Every method except FindByIDUnscoped is scoped by the owning user's id and
// skips soft-deleted rows.
type PatientRepository interface {
	Create(ctx context.Context, patient *models.Patient) error
	FindByID(ctx context.Context, id, ownerID string) (*models.Patient, error)
	FindAllActive(ctx context.Context, ownerID string) ([]models.Patient, error)
	Update(ctx context.Context, id, ownerID string, fields map[string]any) (int64, error)
	Delete(ctx context.Context, id, ownerID string) (int64, error)

	// FindByIDUnscoped loads a row by raw id, including soft-deleted ones.
	// Internal use only; it is not owner-scoped.
	FindByIDUnscoped(ctx context.Context, id string) (*models.Patient, error)
}

type patientRepository struct {
	db *gorm.DB
}

// NewPatientRepository creates a new patient repository instance
func NewPatientRepository(db *gorm.DB) PatientRepository {
	return &patientRepository{db: db}
}

func (r *patientRepository) Create(ctx context.Context, patient *models.Patient) error {
	err := r.db.WithContext(ctx).Create(patient).Error
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return ErrUserNotFound
	}
	return err
}

func (r *patientRepository) FindByID(ctx context.Context, id, ownerID string) (*models.Patient, error) {
	var patient models.Patient
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		First(&patient).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return &patient, nil
}

func (r *patientRepository) FindAllActive(ctx context.Context, ownerID string) ([]models.Patient, error) {
	patients := []models.Patient{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("name ASC").
		Find(&patients).Error
	return patients, err
}

func (r *patientRepository) Update(ctx context.Context, id, ownerID string, fields map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Patient{}).
		Where("id = ? AND user_id = ?", id, ownerID).
		Updates(fields)
	return result.RowsAffected, result.Error
}

// Delete stamps deleted_at; the row stays in the table.
func (r *patientRepository) Delete(ctx context.Context, id, ownerID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		Delete(&models.Patient{})
	return result.RowsAffected, result.Error
}

func (r *patientRepository) FindByIDUnscoped(ctx context.Context, id string) (*models.Patient, error) {
	var patient models.Patient
	err := r.db.WithContext(ctx).
		Unscoped().
		Where("id = ?", id).
		First(&patient).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return &patient, nil
}
