package handler

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/psyflow/backend-go/internal/database/service"
	"github.com/psyflow/backend-go/internal/dispatch"
)

// SettingsHandler serves the settings:* operations
type SettingsHandler struct {
	service service.SettingsService
	logger  *slog.Logger
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(service service.SettingsService, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{
		service: service,
		logger:  logger,
	}
}

type SettingsFields struct {
	Timezone             *string  `json:"timezone"`
	Currency             *string  `json:"currency"`
	Theme                *string  `json:"theme"`
	DefaultSessionValue  *float64 `json:"defaultSessionValue"`
	NotificationsEnabled *bool    `json:"notificationsEnabled"`
	SessionDuration      *int     `json:"sessionDuration"`
}

type UpdateSettingsRequest struct {
	UserID string         `json:"userId"`
	Data   SettingsFields `json:"data"`
}

// Mount registers the handler's operations.
func (h *SettingsHandler) Mount(r *dispatch.Registry) {
	r.Handle("settings:get", h.Get)
	r.Handle("settings:update", h.Update)
	h.logger.Debug("🔗 [SettingsHandler] Operations mounted")
}

func (h *SettingsHandler) Get(ctx context.Context, payload json.RawMessage) (any, error) {
	var owner OwnerRef
	if err := dispatch.Decode(payload, &owner); err != nil {
		return nil, err
	}
	if err := requireOwner(owner.UserID); err != nil {
		return nil, err
	}

	settings, err := h.service.GetSettings(ctx, owner.UserID)
	if err != nil {
		return nil, err
	}
	return NewSettingsDTO(settings), nil
}

func (h *SettingsHandler) Update(ctx context.Context, payload json.RawMessage) (any, error) {
	var req UpdateSettingsRequest
	if err := dispatch.Decode(payload, &req); err != nil {
		return nil, err
	}
	if err := requireOwner(req.UserID); err != nil {
		return nil, err
	}

	settings, err := h.service.UpdateSettings(ctx, req.UserID, service.SettingsPatch{
		Timezone:             req.Data.Timezone,
		Currency:             req.Data.Currency,
		Theme:                req.Data.Theme,
		DefaultSessionValue:  req.Data.DefaultSessionValue,
		NotificationsEnabled: req.Data.NotificationsEnabled,
		SessionDuration:      req.Data.SessionDuration,
	})
	if err != nil {
		return nil, err
	}
	return NewSettingsDTO(settings), nil
}
