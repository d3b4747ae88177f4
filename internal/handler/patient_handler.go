package handler

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/psyflow/backend-go/internal/database/service"
	"github.com/psyflow/backend-go/internal/dispatch"
)

// PatientHandler serves the patients:* operations
type PatientHandler struct {
	service service.PatientService
	logger  *slog.Logger
}

// NewPatientHandler creates a new patient handler
func NewPatientHandler(service service.PatientService, logger *slog.Logger) *PatientHandler {
	return &PatientHandler{
		service: service,
		logger:  logger,
	}
}

type CreatePatientRequest struct {
	UserID    string  `json:"userId"`
	Name      string  `json:"name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	CPF       *string `json:"cpf"`
	BirthDate *string `json:"birthDate"`
	Address   *string `json:"address"`
}

// PatientFields is the data object of patients:update. A userId inside it
// is ignored; ownership never changes. A null value clears the field.
type PatientFields struct {
	Name      OptionalString `json:"name"`
	Email     OptionalString `json:"email"`
	Phone     OptionalString `json:"phone"`
	CPF       OptionalString `json:"cpf"`
	BirthDate OptionalString `json:"birthDate"`
	Address   OptionalString `json:"address"`
}

type UpdatePatientRequest struct {
	EntityRef
	Data PatientFields `json:"data"`
}

// Mount registers the handler's operations.
func (h *PatientHandler) Mount(r *dispatch.Registry) {
	r.Handle("patients:create", h.Create)
	r.Handle("patients:list", h.List)
	r.Handle("patients:get", h.Get)
	r.Handle("patients:update", h.Update)
	r.Handle("patients:delete", h.Delete)
	h.logger.Debug("🔗 [PatientHandler] Operations mounted")
}

func (h *PatientHandler) Create(ctx context.Context, payload json.RawMessage) (any, error) {
	var req CreatePatientRequest
	if err := dispatch.Decode(payload, &req); err != nil {
		return nil, err
	}
	if err := requireOwner(req.UserID); err != nil {
		return nil, err
	}

	patient, err := h.service.CreatePatient(ctx, service.PatientInput{
		UserID:    req.UserID,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		CPF:       req.CPF,
		BirthDate: req.BirthDate,
		Address:   req.Address,
	})
	if err != nil {
		return nil, err
	}
	return NewPatientDTO(patient), nil
}

func (h *PatientHandler) List(ctx context.Context, payload json.RawMessage) (any, error) {
	var owner OwnerRef
	if err := dispatch.Decode(payload, &owner); err != nil {
		return nil, err
	}
	if err := requireOwner(owner.UserID); err != nil {
		return nil, err
	}

	patients, err := h.service.ListPatients(ctx, owner.UserID)
	if err != nil {
		return nil, err
	}
	return NewPatientDTOs(patients), nil
}

func (h *PatientHandler) Get(ctx context.Context, payload json.RawMessage) (any, error) {
	var ref EntityRef
	if err := dispatch.Decode(payload, &ref); err != nil {
		return nil, err
	}
	if err := ref.validate(); err != nil {
		return nil, err
	}

	patient, err := h.service.GetPatient(ctx, ref.ID, ref.UserID)
	if err != nil {
		return nil, err
	}
	return NewPatientDTO(patient), nil
}

func (h *PatientHandler) Update(ctx context.Context, payload json.RawMessage) (any, error) {
	var req UpdatePatientRequest
	if err := dispatch.Decode(payload, &req); err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	patient, err := h.service.UpdatePatient(ctx, req.ID, req.UserID, service.PatientPatch{
		Name:      req.Data.Name.patch(),
		Email:     req.Data.Email.patch(),
		Phone:     req.Data.Phone.patch(),
		CPF:       req.Data.CPF.patch(),
		BirthDate: req.Data.BirthDate.patch(),
		Address:   req.Data.Address.patch(),
	})
	if err != nil {
		return nil, err
	}
	return NewPatientDTO(patient), nil
}

func (h *PatientHandler) Delete(ctx context.Context, payload json.RawMessage) (any, error) {
	var ref EntityRef
	if err := dispatch.Decode(payload, &ref); err != nil {
		return nil, err
	}
	if err := ref.validate(); err != nil {
		return nil, err
	}

	patient, err := h.service.DeletePatient(ctx, ref.ID, ref.UserID)
	if err != nil {
		return nil, err
	}
	return NewPatientDTO(patient), nil
}
