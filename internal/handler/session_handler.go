package handler

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/psyflow/backend-go/internal/apperr"
	"github.com/psyflow/backend-go/internal/database/service"
	"github.com/psyflow/backend-go/internal/dispatch"
)

// SessionHandler serves the sessions:* operations
type SessionHandler struct {
	service service.SessionService
	logger  *slog.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(service service.SessionService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		service: service,
		logger:  logger,
	}
}

type CreateSessionRequest struct {
	UserID    string   `json:"userId"`
	PatientID string   `json:"patientId"`
	StartTime string   `json:"startTime"`
	EndTime   string   `json:"endTime"`
	Value     *float64 `json:"value"`
	Notes     *string  `json:"notes"`
	Status    *string  `json:"status"`
}

type ListSessionsRequest struct {
	UserID    string `json:"userId"`
	PatientID string `json:"patientId"`
}

// SessionFields is the data object of sessions:update. Owner and patient
// are not updatable. A null notes value clears the notes.
type SessionFields struct {
	StartTime *string        `json:"startTime"`
	EndTime   *string        `json:"endTime"`
	Value     *float64       `json:"value"`
	Notes     OptionalString `json:"notes"`
	Status    *string        `json:"status"`
}

type UpdateSessionRequest struct {
	EntityRef
	Data SessionFields `json:"data"`
}

type DeleteSessionResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// Mount registers the handler's operations.
func (h *SessionHandler) Mount(r *dispatch.Registry) {
	r.Handle("sessions:create", h.Create)
	r.Handle("sessions:list", h.List)
	r.Handle("sessions:get", h.Get)
	r.Handle("sessions:update", h.Update)
	r.Handle("sessions:delete", h.Delete)
	h.logger.Debug("🔗 [SessionHandler] Operations mounted")
}

func (h *SessionHandler) Create(ctx context.Context, payload json.RawMessage) (any, error) {
	var req CreateSessionRequest
	if err := dispatch.Decode(payload, &req); err != nil {
		return nil, err
	}
	if err := requireOwner(req.UserID); err != nil {
		return nil, err
	}

	session, err := h.service.CreateSession(ctx, service.SessionInput{
		UserID:    req.UserID,
		PatientID: req.PatientID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Value:     req.Value,
		Notes:     req.Notes,
		Status:    req.Status,
	})
	if err != nil {
		return nil, err
	}
	return NewSessionDTO(session), nil
}

func (h *SessionHandler) List(ctx context.Context, payload json.RawMessage) (any, error) {
	var req ListSessionsRequest
	if err := dispatch.Decode(payload, &req); err != nil {
		return nil, err
	}
	if req.UserID == "" || req.PatientID == "" {
		return nil, apperr.Validation("userId and patientId are required")
	}

	sessions, err := h.service.ListSessions(ctx, req.PatientID, req.UserID)
	if err != nil {
		return nil, err
	}
	return NewSessionDTOs(sessions), nil
}

func (h *SessionHandler) Get(ctx context.Context, payload json.RawMessage) (any, error) {
	var ref EntityRef
	if err := dispatch.Decode(payload, &ref); err != nil {
		return nil, err
	}
	if err := ref.validate(); err != nil {
		return nil, err
	}

	session, err := h.service.GetSession(ctx, ref.ID, ref.UserID)
	if err != nil {
		return nil, err
	}
	return NewSessionDTO(session), nil
}

func (h *SessionHandler) Update(ctx context.Context, payload json.RawMessage) (any, error) {
	var req UpdateSessionRequest
	if err := dispatch.Decode(payload, &req); err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	session, err := h.service.UpdateSession(ctx, req.ID, req.UserID, service.SessionPatch{
		StartTime: req.Data.StartTime,
		EndTime:   req.Data.EndTime,
		Value:     req.Data.Value,
		Notes:     req.Data.Notes.patch(),
		Status:    req.Data.Status,
	})
	if err != nil {
		return nil, err
	}
	return NewSessionDTO(session), nil
}

func (h *SessionHandler) Delete(ctx context.Context, payload json.RawMessage) (any, error) {
	var ref EntityRef
	if err := dispatch.Decode(payload, &ref); err != nil {
		return nil, err
	}
	if err := ref.validate(); err != nil {
		return nil, err
	}

	if err := h.service.DeleteSession(ctx, ref.ID, ref.UserID); err != nil {
		return nil, err
	}
	return DeleteSessionResponse{ID: ref.ID, Deleted: true}, nil
}
