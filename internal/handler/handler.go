// Package handler adapts the domain services to named dispatch operations.
// Each handler decodes the UI payload, calls exactly one service method and
// returns a typed wire DTO.
package handler

import (
	"log/slog"

	"github.com/psyflow/backend-go/internal/dispatch"
)

// Mounter is implemented by every handler in this package.
type Mounter interface {
	Mount(r *dispatch.Registry)
}

// NewRegistry builds a registry with every given handler mounted.
func NewRegistry(logger *slog.Logger, handlers ...Mounter) *dispatch.Registry {
	r := dispatch.NewRegistry(logger)
	for _, h := range handlers {
		h.Mount(r)
	}
	logger.Info("✅ [Dispatch] Operations registered", "count", len(r.Operations()))
	return r
}
