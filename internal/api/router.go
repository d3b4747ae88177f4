package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/psyflow/backend-go/internal/apperr"
	"github.com/psyflow/backend-go/internal/dispatch"
	"github.com/psyflow/backend-go/internal/middleware"
)

// RPCRequest is the body of POST /api/v1/rpc.
type RPCRequest struct {
	Operation string          `json:"operation" binding:"required"`
	Payload   json.RawMessage `json:"payload"`
}

// SetupRouter exposes the dispatch registry over local HTTP. Every answer
// from the invoke endpoints is an envelope; the status code mirrors the
// error kind.
func SetupRouter(registry *dispatch.Registry, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger))
	r.SetTrustedProxies(nil)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		v1.GET("/operations", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"operations": registry.Operations()})
		})

		v1.POST("/invoke/:operation", func(c *gin.Context) {
			payload, err := c.GetRawData()
			if err != nil {
				respond(c, dispatch.Response{Error: "failed to read request body", Kind: apperr.KindValidation})
				return
			}
			respond(c, registry.Invoke(c.Request.Context(), c.Param("operation"), payload))
		})

		v1.POST("/rpc", func(c *gin.Context) {
			var req RPCRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				respond(c, dispatch.Response{Error: "request must be {operation, payload}", Kind: apperr.KindValidation})
				return
			}
			respond(c, registry.Invoke(c.Request.Context(), req.Operation, req.Payload))
		})
	}

	return r
}

func respond(c *gin.Context, resp dispatch.Response) {
	c.JSON(apperr.HTTPStatus(resp.Kind), resp)
}
