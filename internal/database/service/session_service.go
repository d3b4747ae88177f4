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

const msgSessionNotFound = "session not found"

// SessionInput carries the fields of a new session. Times are RFC 3339.
type SessionInput struct {
	UserID    string
	PatientID string
	StartTime string
	EndTime   string
	Value     *float64 // nil uses the owner's default session value
	Notes     *string
	Status    *string
}

// SessionPatch lists the fields an update may touch; nil means unchanged.
// Owner and patient are fixed at creation.
type SessionPatch struct {
	StartTime *string
	EndTime   *string
	Value     *float64
	Notes     *string
	Status    *string
}

// SessionService defines the interface for therapy session business logic
type SessionService interface {
	CreateSession(ctx context.Context, in SessionInput) (*models.Session, error)
	ListSessions(ctx context.Context, patientID, ownerID string) ([]models.Session, error)
	GetSession(ctx context.Context, id, ownerID string) (*models.Session, error)
	UpdateSession(ctx context.Context, id, ownerID string, patch SessionPatch) (*models.Session, error)
	DeleteSession(ctx context.Context, id, ownerID string) error
}

type sessionService struct {
	sessionRepo  repository.SessionRepository
	patientRepo  repository.PatientRepository
	settingsRepo repository.SettingsRepository
	logger       *slog.Logger
}

// NewSessionService creates a new session service instance
func NewSessionService(
	sessionRepo repository.SessionRepository,
	patientRepo repository.PatientRepository,
	settingsRepo repository.SettingsRepository,
	logger *slog.Logger,
) SessionService {
	return &sessionService{
		sessionRepo:  sessionRepo,
		patientRepo:  patientRepo,
		settingsRepo: settingsRepo,
		logger:       logger,
	}
}

func (s *sessionService) CreateSession(ctx context.Context, in SessionInput) (*models.Session, error) {
	if in.UserID == "" || in.PatientID == "" {
		return nil, apperr.Validation("user id and patient id are required")
	}

	start, err := parseSessionTime("start time", in.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := parseSessionTime("end time", in.EndTime)
	if err != nil {
		return nil, err
	}
	if !end.After(start) {
		return nil, apperr.Validation("end time must be after start time")
	}

	status := models.SessionStatusScheduled
	if in.Status != nil {
		if status, err = parseStatus(*in.Status); err != nil {
			return nil, err
		}
	}

	if _, err := s.patientRepo.FindByID(ctx, in.PatientID, in.UserID); err != nil {
		if errors.Is(err, repository.ErrPatientNotFound) {
			return nil, apperr.NotFound(msgPatientNotFound)
		}
		return nil, fmt.Errorf("failed to load patient: %w", err)
	}

	var value float64
	if in.Value != nil {
		if *in.Value < 0 {
			return nil, apperr.Validation("session value cannot be negative")
		}
		value = *in.Value
	} else {
		settings, err := s.settingsRepo.FindByUserID(ctx, in.UserID)
		if err != nil && !errors.Is(err, repository.ErrSettingsNotFound) {
			return nil, fmt.Errorf("failed to load settings: %w", err)
		}
		if settings != nil {
			value = settings.DefaultSessionValue
		}
	}

	session := &models.Session{
		UserID:    in.UserID,
		PatientID: in.PatientID,
		StartTime: start,
		EndTime:   end,
		Value:     value,
		Notes:     nullable(in.Notes),
		Status:    status,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		s.logger.Error("❌ [SessionService] Failed to create session", "patient_id", in.PatientID, "error", err)
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("✅ [SessionService] Session created",
		"session_id", session.ID,
		"patient_id", session.PatientID,
		"user_id", session.UserID,
		"duration", session.Duration(),
	)
	return session, nil
}

func (s *sessionService) ListSessions(ctx context.Context, patientID, ownerID string) ([]models.Session, error) {
	if ownerID == "" || patientID == "" {
		return nil, apperr.Validation("user id and patient id are required")
	}

	sessions, err := s.sessionRepo.ListByPatient(ctx, patientID, ownerID)
	if err != nil {
		s.logger.Error("❌ [SessionService] Failed to list sessions", "patient_id", patientID, "error", err)
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

func (s *sessionService) GetSession(ctx context.Context, id, ownerID string) (*models.Session, error) {
	session, err := s.sessionRepo.FindByID(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, apperr.NotFound(msgSessionNotFound)
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return session, nil
}

func (s *sessionService) UpdateSession(ctx context.Context, id, ownerID string, patch SessionPatch) (*models.Session, error) {
	current, err := s.GetSession(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}

	start, end := current.StartTime, current.EndTime
	if patch.StartTime != nil {
		if start, err = parseSessionTime("start time", *patch.StartTime); err != nil {
			return nil, err
		}
		fields["start_time"] = start
	}
	if patch.EndTime != nil {
		if end, err = parseSessionTime("end time", *patch.EndTime); err != nil {
			return nil, err
		}
		fields["end_time"] = end
	}
	if !end.After(start) {
		return nil, apperr.Validation("end time must be after start time")
	}

	if patch.Value != nil {
		if *patch.Value < 0 {
			return nil, apperr.Validation("session value cannot be negative")
		}
		fields["value"] = *patch.Value
	}
	if patch.Status != nil {
		status, err := parseStatus(*patch.Status)
		if err != nil {
			return nil, err
		}
		fields["status"] = status
	}
	setNullable(fields, "notes", patch.Notes)

	if len(fields) == 0 {
		return current, nil
	}

	rows, err := s.sessionRepo.Update(ctx, id, ownerID, fields)
	if err != nil {
		s.logger.Error("❌ [SessionService] Failed to update session", "session_id", id, "error", err)
		return nil, fmt.Errorf("failed to update session: %w", err)
	}
	if rows == 0 {
		return nil, apperr.NotFound(msgSessionNotFound)
	}

	s.logger.Info("✏️ [SessionService] Session updated", "session_id", id, "fields", len(fields))
	return s.GetSession(ctx, id, ownerID)
}

func (s *sessionService) DeleteSession(ctx context.Context, id, ownerID string) error {
	rows, err := s.sessionRepo.Delete(ctx, id, ownerID)
	if err != nil {
		s.logger.Error("❌ [SessionService] Failed to delete session", "session_id", id, "error", err)
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if rows == 0 {
		return apperr.NotFound(msgSessionNotFound)
	}

	s.logger.Info("🗑️ [SessionService] Session deleted", "session_id", id, "user_id", ownerID)
	return nil
}

func parseSessionTime(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, apperr.Validation(field + " is required")
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, apperr.Validation(field + " must be an RFC 3339 timestamp")
	}
	return t.UTC(), nil
}

func parseStatus(raw string) (models.SessionStatus, error) {
	status := models.SessionStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !status.IsValid() {
		return "", apperr.Validation("status must be one of scheduled, completed or canceled")
	}
	return status, nil
}
