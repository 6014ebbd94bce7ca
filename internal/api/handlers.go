package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"

	"github.com/Jonathon-AR/resollectAssignment/internal/models"
	"github.com/Jonathon-AR/resollectAssignment/internal/services"
	"github.com/Jonathon-AR/resollectAssignment/internal/validation"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	taskService *services.TaskService
}

// NewHandlers creates a new handlers instance
func NewHandlers(taskService *services.TaskService) *Handlers {
	return &Handlers{
		taskService: taskService,
	}
}

// ListTasksHandler handles GET /
func (h *Handlers) ListTasksHandler(c *gin.Context) {
	var status *models.TaskStatus
	if value, ok := c.GetQuery("status"); ok {
		s := models.TaskStatus(value)
		status = &s
	}

	tasks, err := h.taskService.ListTasks(c.Request.Context(), status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tasks)
}

// CreateTaskHandler handles POST /
func (h *Handlers) CreateTaskHandler(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		respondError(c, validation.NewValidationError(validation.BodyField, "failed to read request body"))
		return
	}
	if err := validation.ValidateCreateTask(body); err != nil {
		respondError(c, err)
		return
	}

	var req models.CreateTaskRequest
	if err := binding.JSON.BindBody(body, &req); err != nil {
		respondError(c, validation.NewValidationError(validation.BodyField, err.Error()))
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, task)
}

// GetTaskHandler handles GET /:id/
func (h *Handlers) GetTaskHandler(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		respondError(c, services.ErrNotFound)
		return
	}

	task, err := h.taskService.GetTask(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// UpdateTaskHandler handles PATCH /:id/
func (h *Handlers) UpdateTaskHandler(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		respondError(c, services.ErrNotFound)
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		respondError(c, validation.NewValidationError(validation.BodyField, "failed to read request body"))
		return
	}
	if err := validation.ValidateUpdateTask(body); err != nil {
		respondError(c, err)
		return
	}

	var req models.UpdateTaskRequest
	if err := binding.JSON.BindBody(body, &req); err != nil {
		respondError(c, validation.NewValidationError(validation.BodyField, err.Error()))
		return
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// CompleteTaskHandler handles POST /:id/complete/
func (h *Handlers) CompleteTaskHandler(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		respondError(c, services.ErrNotFound)
		return
	}

	task, err := h.taskService.CompleteTask(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// DeleteTaskHandler handles DELETE /:id/
func (h *Handlers) DeleteTaskHandler(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		respondError(c, services.ErrNotFound)
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// HealthHandler handles GET /health
func (h *Handlers) HealthHandler(c *gin.Context) {
	if err := h.taskService.Ping(c.Request.Context()); err != nil {
		log.Printf("WARNING: Health check failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// taskID returns the :id path parameter if it is a canonical lowercase UUID
func taskID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if len(id) != 36 {
		return "", false
	}
	parsed, err := uuid.Parse(id)
	if err != nil || parsed.String() != id {
		return "", false
	}
	return id, true
}

// respondError writes the JSON error body matching err
func respondError(c *gin.Context, err error) {
	var verr *validation.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "validation failed", Fields: verr.Fields})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: services.ErrNotFound.Error()})
	case errors.Is(err, services.ErrNotOngoing):
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: services.ErrNotOngoing.Error()})
	case errors.Is(err, services.ErrStoreUnavailable):
		log.Printf("ERROR: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: services.ErrStoreUnavailable.Error()})
	default:
		log.Printf("ERROR: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "internal server error"})
	}
}
