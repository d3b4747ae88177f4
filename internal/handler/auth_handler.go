package handler

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/psyflow/backend-go/internal/database/service"
	"github.com/psyflow/backend-go/internal/dispatch"
)

// AuthHandler serves the auth:* operations
type AuthHandler struct {
	service service.AuthService
	logger  *slog.Logger
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(service service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger,
	}
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Mount registers the handler's operations.
func (h *AuthHandler) Mount(r *dispatch.Registry) {
	r.Handle("auth:register", h.Register)
	r.Handle("auth:login", h.Login)
	h.logger.Debug("🔗 [AuthHandler] Operations mounted")
}

// Register handles user registration
func (h *AuthHandler) Register(ctx context.Context, payload json.RawMessage) (any, error) {
	var req RegisterRequest
	if err := dispatch.Decode(payload, &req); err != nil {
		return nil, err
	}

	user, err := h.service.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return NewUserDTO(user), nil
}

// Login handles user login
func (h *AuthHandler) Login(ctx context.Context, payload json.RawMessage) (any, error) {
	var req LoginRequest
	if err := dispatch.Decode(payload, &req); err != nil {
		return nil, err
	}

	user, err := h.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return NewUserDTO(user), nil
}
