package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/psyflow/backend-go/internal/apperr"
	"github.com/psyflow/backend-go/internal/database/models"
	"github.com/psyflow/backend-go/internal/database/repository"
)

// DateLayout is the calendar-date form used for birth dates.
const DateLayout = "2006-01-02"

const msgPatientNotFound = "patient not found"

// PatientInput carries the fields of a new patient. Optional fields left nil
// or empty are stored as NULL.
type PatientInput struct {
	UserID    string
	Name      string
	Email     *string
	Phone     *string
	CPF       *string
	BirthDate *string
	Address   *string
}

// PatientPatch lists the fields an update may touch; nil means unchanged.
// Ownership is not part of the patch.
type PatientPatch struct {
	Name      *string
	Email     *string
	Phone     *string
	CPF       *string
	BirthDate *string
	Address   *string
}

// PatientService defines the interface for patient business logic
type PatientService interface {
	CreatePatient(ctx context.Context, in PatientInput) (*models.Patient, error)
	ListPatients(ctx context.Context, ownerID string) ([]models.Patient, error)
	GetPatient(ctx context.Context, id, ownerID string) (*models.Patient, error)
	UpdatePatient(ctx context.Context, id, ownerID string, patch PatientPatch) (*models.Patient, error)
	DeletePatient(ctx context.Context, id, ownerID string) (*models.Patient, error)
}

type patientService struct {
	patientRepo repository.PatientRepository
	logger      *slog.Logger
}

// NewPatientService creates a new patient service instance
func NewPatientService(patientRepo repository.PatientRepository, logger *slog.Logger) PatientService {
	return &patientService{
		patientRepo: patientRepo,
		logger:      logger,
	}
}

func (s *patientService) CreatePatient(ctx context.Context, in PatientInput) (*models.Patient, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("patient name is required")
	}
	if in.UserID == "" {
		return nil, apperr.Validation("user id is required")
	}

	birthDate, err := parseBirthDate(in.BirthDate)
	if err != nil {
		return nil, err
	}

	patient := &models.Patient{
		UserID:    in.UserID,
		Name:      name,
		Email:     nullable(in.Email),
		Phone:     nullable(in.Phone),
		CPF:       nullable(in.CPF),
		BirthDate: birthDate,
		Address:   nullable(in.Address),
	}

	if err := s.patientRepo.Create(ctx, patient); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		s.logger.Error("❌ [PatientService] Failed to create patient", "user_id", in.UserID, "error", err)
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}

	s.logger.Info("✅ [PatientService] Patient created", "patient_id", patient.ID, "user_id", patient.UserID)
	return patient, nil
}

func (s *patientService) ListPatients(ctx context.Context, ownerID string) ([]models.Patient, error) {
	if ownerID == "" {
		return nil, apperr.Validation("user id is required")
	}

	patients, err := s.patientRepo.FindAllActive(ctx, ownerID)
	if err != nil {
		s.logger.Error("❌ [PatientService] Failed to list patients", "user_id", ownerID, "error", err)
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}

func (s *patientService) GetPatient(ctx context.Context, id, ownerID string) (*models.Patient, error) {
	patient, err := s.patientRepo.FindByID(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrPatientNotFound) {
			return nil, apperr.NotFound(msgPatientNotFound)
		}
		return nil, fmt.Errorf("failed to load patient: %w", err)
	}
	return patient, nil
}

func (s *patientService) UpdatePatient(ctx context.Context, id, ownerID string, patch PatientPatch) (*models.Patient, error) {
	fields, err := patch.fields()
	if err != nil {
		return nil, err
	}

	if len(fields) > 0 {
		rows, err := s.patientRepo.Update(ctx, id, ownerID, fields)
		if err != nil {
			s.logger.Error("❌ [PatientService] Failed to update patient", "patient_id", id, "error", err)
			return nil, fmt.Errorf("failed to update patient: %w", err)
		}
		if rows == 0 {
			return nil, apperr.NotFound(msgPatientNotFound)
		}
		s.logger.Info("✏️ [PatientService] Patient updated", "patient_id", id, "fields", len(fields))
	}

	return s.GetPatient(ctx, id, ownerID)
}

func (s *patientService) DeletePatient(ctx context.Context, id, ownerID string) (*models.Patient, error) {
	rows, err := s.patientRepo.Delete(ctx, id, ownerID)
	if err != nil {
		s.logger.Error("❌ [PatientService] Failed to delete patient", "patient_id", id, "error", err)
		return nil, fmt.Errorf("failed to delete patient: %w", err)
	}
	if rows == 0 {
		return nil, apperr.NotFound(msgPatientNotFound)
	}

	patient, err := s.patientRepo.FindByIDUnscoped(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload deleted patient: %w", err)
	}
	if patient.GetUserID() != ownerID {
		return nil, apperr.NotFound(msgPatientNotFound)
	}

	s.logger.Info("🗑️ [PatientService] Patient deleted", "patient_id", id, "user_id", ownerID)
	return patient, nil
}

func (p PatientPatch) fields() (map[string]any, error) {
	fields := map[string]any{}

	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, apperr.Validation("patient name cannot be empty")
		}
		fields["name"] = name
	}
	if p.BirthDate != nil {
		birthDate, err := parseBirthDate(p.BirthDate)
		if err != nil {
			return nil, err
		}
		if birthDate != nil {
			fields["birth_date"] = *birthDate
		} else {
			fields["birth_date"] = nil
		}
	}

	setNullable(fields, "email", p.Email)
	setNullable(fields, "phone", p.Phone)
	setNullable(fields, "cpf", p.CPF)
	setNullable(fields, "address", p.Address)

	return fields, nil
}

// parseBirthDate accepts YYYY-MM-DD or an RFC 3339 timestamp and keeps only
// the calendar date. Nil or empty input means no birth date.
func parseBirthDate(raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	s := strings.TrimSpace(*raw)
	if s == "" {
		return nil, nil
	}

	t, err := time.Parse(DateLayout, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, apperr.Validation("birth date must be a valid date (YYYY-MM-DD)")
		}
	}

	date := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &date, nil
}

// nullable turns blank optional text into nil.
func nullable(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func setNullable(fields map[string]any, column string, value *string) {
	if value == nil {
		return
	}
	if v := nullable(value); v != nil {
		fields[column] = *v
		return
	}
	fields[column] = nil
}
