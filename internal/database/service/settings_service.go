package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/psyflow/backend-go/internal/apperr"
	"github.com/psyflow/backend-go/internal/database/models"
	"github.com/psyflow/backend-go/internal/database/repository"
)

const msgSettingsNotFound = "settings not found for this user"

// SettingsPatch lists the settings an update may touch; nil means unchanged.
type SettingsPatch struct {
	Timezone             *string
	Currency             *string
	Theme                *string
	DefaultSessionValue  *float64
	NotificationsEnabled *bool
	SessionDuration      *int
}

// SettingsService defines the interface for per-user preferences
type SettingsService interface {
	GetSettings(ctx context.Context, ownerID string) (*models.Settings, error)
	UpdateSettings(ctx context.Context, ownerID string, patch SettingsPatch) (*models.Settings, error)
}

type settingsService struct {
	settingsRepo repository.SettingsRepository
	logger       *slog.Logger
}

// NewSettingsService creates a new settings service instance
func NewSettingsService(settingsRepo repository.SettingsRepository, logger *slog.Logger) SettingsService {
	return &settingsService{
		settingsRepo: settingsRepo,
		logger:       logger,
	}
}

func (s *settingsService) GetSettings(ctx context.Context, ownerID string) (*models.Settings, error) {
	settings, err := s.settingsRepo.FindByUserID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrSettingsNotFound) {
			s.logger.Warn("⚠️ [SettingsService] Settings missing", "user_id", ownerID)
			return nil, apperr.NotFound(msgSettingsNotFound)
		}
		s.logger.Error("❌ [SettingsService] Failed to load settings", "user_id", ownerID, "error", err)
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}

func (s *settingsService) UpdateSettings(ctx context.Context, ownerID string, patch SettingsPatch) (*models.Settings, error) {
	fields, err := patch.fields()
	if err != nil {
		return nil, err
	}

	if len(fields) > 0 {
		rows, err := s.settingsRepo.Update(ctx, ownerID, fields)
		if err != nil {
			s.logger.Error("❌ [SettingsService] Failed to update settings", "user_id", ownerID, "error", err)
			return nil, fmt.Errorf("failed to update settings: %w", err)
		}
		if rows == 0 {
			return nil, apperr.NotFound(msgSettingsNotFound)
		}
		s.logger.Info("✏️ [SettingsService] Settings updated", "user_id", ownerID, "fields", len(fields))
	}

	return s.GetSettings(ctx, ownerID)
}

func (p SettingsPatch) fields() (map[string]any, error) {
	fields := map[string]any{}

	if p.DefaultSessionValue != nil {
		if *p.DefaultSessionValue < 0 {
			return nil, apperr.Validation("default session value cannot be negative")
		}
		fields["default_session_value"] = *p.DefaultSessionValue
	}
	if p.SessionDuration != nil {
		if *p.SessionDuration <= 0 {
			return nil, apperr.Validation("session duration must be positive")
		}
		fields["session_duration"] = *p.SessionDuration
	}
	if p.NotificationsEnabled != nil {
		fields["notifications_enabled"] = *p.NotificationsEnabled
	}

	for column, value := range map[string]*string{
		"timezone": p.Timezone,
		"currency": p.Currency,
		"theme":    p.Theme,
	} {
		if value == nil {
			continue
		}
		v := strings.TrimSpace(*value)
		if v == "" {
			return nil, apperr.Validation(column + " cannot be empty")
		}
		fields[column] = v
	}

	return fields, nil
}
