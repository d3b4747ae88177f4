package handler

import (
	"encoding/json"
	"time"

	"github.com/psyflow/backend-go/internal/apperr"
	"github.com/psyflow/backend-go/internal/database/models"
	"github.com/psyflow/backend-go/internal/database/service"
)

// TimestampLayout renders instants as ISO-8601 UTC with milliseconds.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

func formatOptionalTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

// Wire DTOs. Nullable fields are pointers without omitempty so they always
// appear, as null when unset.

type UserDTO struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Email     string       `json:"email"`
	CreatedAt string       `json:"createdAt"`
	UpdatedAt string       `json:"updatedAt"`
	Settings  *SettingsDTO `json:"settings,omitempty"`
}

type SettingsDTO struct {
	ID                   string  `json:"id"`
	UserID               string  `json:"userId"`
	Timezone             string  `json:"timezone"`
	Currency             string  `json:"currency"`
	Theme                string  `json:"theme"`
	DefaultSessionValue  float64 `json:"defaultSessionValue"`
	NotificationsEnabled bool    `json:"notificationsEnabled"`
	SessionDuration      int     `json:"sessionDuration"`
	CreatedAt            string  `json:"createdAt"`
	UpdatedAt            string  `json:"updatedAt"`
}

type PatientDTO struct {
	ID        string  `json:"id"`
	UserID    string  `json:"userId"`
	Name      string  `json:"name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	CPF       *string `json:"cpf"`
	BirthDate *string `json:"birthDate"`
	Address   *string `json:"address"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
	DeletedAt *string `json:"deletedAt"`
}

type SessionDTO struct {
	ID              string  `json:"id"`
	UserID          string  `json:"userId"`
	PatientID       string  `json:"patientId"`
	StartTime       string  `json:"startTime"`
	EndTime         string  `json:"endTime"`
	DurationMinutes int     `json:"durationMinutes"`
	Value           float64 `json:"value"`
	Notes           *string `json:"notes"`
	Status          string  `json:"status"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
}

// NewUserDTO never carries the password hash.
func NewUserDTO(u *models.User) UserDTO {
	dto := UserDTO{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: formatTime(u.CreatedAt),
		UpdatedAt: formatTime(u.UpdatedAt),
	}
	if u.Settings != nil {
		settings := NewSettingsDTO(u.Settings)
		dto.Settings = &settings
	}
	return dto
}

func NewSettingsDTO(s *models.Settings) SettingsDTO {
	return SettingsDTO{
		ID:                   s.ID,
		UserID:               s.UserID,
		Timezone:             s.Timezone,
		Currency:             s.Currency,
		Theme:                s.Theme,
		DefaultSessionValue:  s.DefaultSessionValue,
		NotificationsEnabled: s.NotificationsEnabled,
		SessionDuration:      s.SessionDuration,
		CreatedAt:            formatTime(s.CreatedAt),
		UpdatedAt:            formatTime(s.UpdatedAt),
	}
}

func NewPatientDTO(p *models.Patient) PatientDTO {
	dto := PatientDTO{
		ID:        p.ID,
		UserID:    p.UserID,
		Name:      p.Name,
		Email:     p.Email,
		Phone:     p.Phone,
		CPF:       p.CPF,
		Address:   p.Address,
		CreatedAt: formatTime(p.CreatedAt),
		UpdatedAt: formatTime(p.UpdatedAt),
	}
	if p.BirthDate != nil {
		date := p.BirthDate.UTC().Format(service.DateLayout)
		dto.BirthDate = &date
	}
	if p.IsDeleted() {
		dto.DeletedAt = formatOptionalTime(&p.DeletedAt.Time)
	}
	return dto
}

func NewPatientDTOs(patients []models.Patient) []PatientDTO {
	out := make([]PatientDTO, 0, len(patients))
	for i := range patients {
		out = append(out, NewPatientDTO(&patients[i]))
	}
	return out
}

func NewSessionDTO(s *models.Session) SessionDTO {
	return SessionDTO{
		ID:              s.ID,
		UserID:          s.UserID,
		PatientID:       s.PatientID,
		StartTime:       formatTime(s.StartTime),
		EndTime:         formatTime(s.EndTime),
		DurationMinutes: int(s.Duration().Minutes()),
		Value:           s.Value,
		Notes:           s.Notes,
		Status:          string(s.Status),
		CreatedAt:       formatTime(s.CreatedAt),
		UpdatedAt:       formatTime(s.UpdatedAt),
	}
}

func NewSessionDTOs(sessions []models.Session) []SessionDTO {
	out := make([]SessionDTO, 0, len(sessions))
	for i := range sessions {
		out = append(out, NewSessionDTO(&sessions[i]))
	}
	return out
}

// OwnerRef identifies the calling user. The UI sends either a bare id
// string or an object with a userId field.
type OwnerRef struct {
	UserID string
}

func (o *OwnerRef) UnmarshalJSON(b []byte) error {
	var bare string
	if err := json.Unmarshal(b, &bare); err == nil {
		o.UserID = bare
		return nil
	}

	var obj struct {
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	o.UserID = obj.UserID
	return nil
}

// OptionalString is a patch field that tells an absent key apart from an
// explicit null. Null clears the field, the same as an empty string.
type OptionalString struct {
	Set   bool
	Value *string
}

func (o *OptionalString) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}

	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// patch returns nil for an absent key and "" for a null one.
func (o OptionalString) patch() *string {
	if !o.Set {
		return nil
	}
	if o.Value == nil {
		empty := ""
		return &empty
	}
	return o.Value
}

// EntityRef addresses one owned record.
type EntityRef struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
}

func (r EntityRef) validate() error {
	if r.ID == "" || r.UserID == "" {
		return apperr.Validation("id and userId are required")
	}
	return nil
}

func requireOwner(userID string) error {
	if userID == "" {
		return apperr.Validation("userId is required")
	}
	return nil
}
