package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/psyflow/backend-go/internal/database/models"
)

// SettingsRepository defines the interface for per-user settings
type SettingsRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.Settings, error)
	// Update applies column/value pairs and reports the affected row count.
	Update(ctx context.Context, userID string, fields map[string]any) (int64, error)
}

type settingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository creates a new settings repository instance
func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) FindByUserID(ctx context.Context, userID string) (*models.Settings, error) {
	var settings models.Settings
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&settings).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettingsNotFound
		}
		return nil, err
	}
	return &settings, nil
}

func (r *settingsRepository) Update(ctx context.Context, userID string, fields map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Settings{}).
		Where("user_id = ?", userID).
		Updates(fields)
	return result.RowsAffected, result.Error
}
