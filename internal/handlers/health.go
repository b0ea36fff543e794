package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-tracker-api/internal/constants"
	apierrors "github.com/yukikurage/task-tracker-api/internal/errors"
	"gorm.io/gorm"
)

const healthCheckTimeout = 2 * time.Second

// APIInfoResponse describes the API and its endpoints
type APIInfoResponse struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	Description string            `json:"description"`
	Endpoints   map[string]string `json:"endpoints"`
}

// HealthResponse reports service and database health
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Database  string    `json:"database"`
}

type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Info returns the API name, version and endpoint map
func (h *HealthHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, APIInfoResponse{
		Name:        constants.APIName,
		Version:     constants.APIVersion,
		Description: constants.APIDescription,
		Endpoints: map[string]string{
			"GET /":                                 "API information",
			"GET /health":                           "Health check",
			"POST /api/v1/tasks":                    "Create a new task",
			"GET /api/v1/tasks":                     "List tasks with filtering, sorting and pagination",
			"GET /api/v1/tasks/{id}":                "Get a specific task",
			"PUT /api/v1/tasks/{id}":                "Update a task",
			"PATCH /api/v1/tasks/{id}":              "Update a task",
			"DELETE /api/v1/tasks/{id}":             "Delete a task",
			"GET /api/v1/tasks/status/{status}":     "Get tasks by status",
			"GET /api/v1/tasks/priority/{priority}": "Get tasks by priority",
			"GET /api/v1/tasks/search":              "Search tasks by title/description",
			"POST /api/v1/tasks/bulk-update":        "Bulk update multiple tasks",
			"POST /api/v1/tasks/bulk-delete":        "Bulk delete multiple tasks",
		},
	})
}

// Health pings the database and reports the result
func (h *HealthHandler) Health(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   constants.APIVersion,
		Database:  "ok",
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	if err := h.ping(ctx); err != nil {
		_ = c.Error(err)
		response.Status = "unhealthy"
		response.Database = "unreachable"
		apierrors.ServiceUnavailableWithDetails(c, "Database unreachable", response)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *HealthHandler) ping(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
