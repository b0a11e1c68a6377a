package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/lineup/internal/catalog"
	"github.com/stwalsh4118/lineup/internal/db"
)

// HealthResponse represents the response from the health check endpoint
type HealthResponse struct {
	Status   string                 `json:"status"`
	Database string                 `json:"database"`
	Catalog  string                 `json:"catalog,omitempty"`
	Time     string                 `json:"time"`
	Details  map[string]interface{} `json:"details,omitempty"`
}

// HealthHandler handles health check requests
type HealthHandler struct {
	db      *db.DB
	breaker *catalog.Breaker
}

// NewHealthHandler creates a new health check handler. breaker may be nil.
func NewHealthHandler(database *db.DB, breaker *catalog.Breaker) *HealthHandler {
	return &HealthHandler{db: database, breaker: breaker}
}

// Check handles the health check endpoint
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:  "ok",
		Time:    time.Now().UTC().Format(time.RFC3339),
		Details: make(map[string]interface{}),
	}

	// Check database connectivity
	if err := h.db.Health(ctx); err != nil {
		response.Status = "degraded"
		response.Database = "unhealthy"
		response.Details["database_error"] = err.Error()
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}

	response.Database = "healthy"

	// An open breaker degrades generation but the API keeps serving
	if h.breaker != nil {
		state := h.breaker.State()
		response.Catalog = state.String()
		if state != catalog.BreakerClosed {
			response.Status = "degraded"
			response.Details["catalog_failures"] = h.breaker.Failures()
		}
	}

	c.JSON(http.StatusOK, response)
}

// SetupHealthRoutes registers health check routes
func SetupHealthRoutes(apiGroup *gin.RouterGroup, database *db.DB, breaker *catalog.Breaker) {
	handler := NewHealthHandler(database, breaker)
	apiGroup.GET("/health", handler.Check)
}
