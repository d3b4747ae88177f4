// Package dispatch routes named operations to handlers and wraps every
// outcome in the {success, data | error} envelope.
//
// Invoke is the only boundary the UI talks to. Nothing raised below it,
// including panics, escapes: operational errors keep their message and
// everything else is reported as "internal error".
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/psyflow/backend-go/internal/apperr"
)

// HandlerFunc decodes a payload, calls one service method and returns a
// value that marshals to plain JSON.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) (any, error)

// Response is the envelope returned for every invocation.
type Response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`

	// Kind classifies a failure for transports that map it to a status code.
	Kind apperr.Kind `json:"-"`
}

// Registry holds the operation table.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	logger   *slog.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		handlers: make(map[string]HandlerFunc),
		logger:   logger,
	}
}

// Handle registers fn under name. Registering a name twice panics.
func (r *Registry) Handle(name string, fn HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[name]; exists {
		panic(fmt.Sprintf("dispatch: operation %q registered twice", name))
	}
	r.handlers[name] = fn
}

// Operations returns the registered operation names in sorted order.
func (r *Registry) Operations() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke runs the named operation and always returns an envelope.
func (r *Registry) Invoke(ctx context.Context, name string, payload json.RawMessage) (resp Response) {
	if RequestID(ctx) == "" {
		ctx = WithRequestID(ctx, NewRequestID())
	}
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			resp = r.fail(ctx, name, payload, fmt.Errorf("panic: %v", rec))
		}
	}()

	r.mu.RLock()
	fn, ok := r.handlers[name]
	r.mu.RUnlock()
	if !ok {
		return r.fail(ctx, name, payload, apperr.NotFound(fmt.Sprintf("unknown operation: %s", name)))
	}

	result, err := fn(ctx, payload)
	if err != nil {
		return r.fail(ctx, name, payload, err)
	}

	data, err := json.Marshal(result)
	if err != nil {
		return r.fail(ctx, name, payload, fmt.Errorf("failed to encode result: %w", err))
	}

	r.logger.Debug("📨 [Dispatch] Operation completed",
		"operation", name,
		"request_id", RequestID(ctx),
		"duration", time.Since(start),
	)

	return Response{Success: true, Data: data}
}

func (r *Registry) fail(ctx context.Context, name string, payload json.RawMessage, err error) Response {
	kind := apperr.KindOf(err)

	attrs := append([]any{
		"operation", name,
		"request_id", RequestID(ctx),
		"kind", kind,
		"error", err,
	}, payloadIDs(payload)...)

	message := err.Error()
	if apperr.IsOperational(err) {
		r.logger.Warn("⚠️ [Dispatch] Operation failed", attrs...)
	} else {
		r.logger.Error("❌ [Dispatch] Operation failed", attrs...)
		message = apperr.Internal(err).Message
	}

	return Response{Success: false, Error: message, Kind: kind}
}

// payloadIDs extracts identifiers worth logging. Only id fields are read, so
// credentials in the payload never reach the log.
func payloadIDs(payload json.RawMessage) []any {
	if len(payload) == 0 {
		return nil
	}

	var bare string
	if err := json.Unmarshal(payload, &bare); err == nil {
		return []any{"user_id", bare}
	}

	var ids struct {
		ID        string `json:"id"`
		UserID    string `json:"userId"`
		PatientID string `json:"patientId"`
	}
	if err := json.Unmarshal(payload, &ids); err != nil {
		return nil
	}

	var attrs []any
	if ids.ID != "" {
		attrs = append(attrs, "id", ids.ID)
	}
	if ids.UserID != "" {
		attrs = append(attrs, "user_id", ids.UserID)
	}
	if ids.PatientID != "" {
		attrs = append(attrs, "patient_id", ids.PatientID)
	}
	return attrs
}

// Decode unmarshals payload into v. A missing or malformed payload is a
// validation error.
func Decode(payload json.RawMessage, v any) error {
	if len(payload) == 0 || string(payload) == "null" {
		return apperr.Validation("payload is required")
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return &apperr.Error{Kind: apperr.KindValidation, Message: "malformed payload", Err: err}
	}
	return nil
}
