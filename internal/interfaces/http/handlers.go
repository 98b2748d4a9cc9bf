package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/flowchain/approval-engine/internal/application/service"
	"github.com/flowchain/approval-engine/internal/domain/entity"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	services Services
	logger   Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, logger Logger) *Handlers {
	return &Handlers{
		services: services,
		logger:   logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// OutcomeRequest is the body of POST /requests/:id/outcome.
type OutcomeRequest struct {
	WorkflowID string                  `json:"workflow_id"`
	Outcome    entity.TriggerCondition `json:"outcome"`
}

// BatchRequest is the body of POST /batch.
type BatchRequest struct {
	Commands []service.Command `json:"commands"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// CreateWorkflow handles POST /api/v1/workflows
func (h *Handlers) CreateWorkflow(c *gin.Context) {
	var input service.CreateWorkflowInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}

	workflow, err := h.services.Versions.CreateWorkflow(c.Request.Context(), input)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: workflow})
}

// ListWorkflows handles GET /api/v1/workflows
func (h *Handlers) ListWorkflows(c *gin.Context) {
	businessUnitID := c.Query("business_unit_id")
	includeArchived := c.Query("include_archived") == "true"

	workflows, err := h.services.Versions.ListWorkflows(c.Request.Context(), businessUnitID, includeArchived)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: workflows})
}

// GetWorkflow handles GET /api/v1/workflows/:id
func (h *Handlers) GetWorkflow(c *gin.Context) {
	workflow, err := h.services.Versions.GetWorkflow(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: workflow})
}

// DeleteWorkflow handles DELETE /api/v1/workflows/:id
func (h *Handlers) DeleteWorkflow(c *gin.Context) {
	if err := h.services.Versions.DeleteWorkflow(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// ListVersions handles GET /api/v1/workflows/:id/versions
func (h *Handlers) ListVersions(c *gin.Context) {
	family, err := h.services.Versions.ListVersions(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: family})
}

// CreateVersion handles POST /api/v1/workflows/:id/versions
func (h *Handlers) CreateVersion(c *gin.Context) {
	var input service.CreateVersionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}

	version, err := h.services.Versions.CreateVersion(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: version})
}

// ActivateWorkflow handles POST /api/v1/workflows/:id/activate
func (h *Handlers) ActivateWorkflow(c *gin.Context) {
	workflow, err := h.services.Versions.Activate(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: workflow})
}

// SetWorkflowDraft handles POST /api/v1/workflows/:id/draft
func (h *Handlers) SetWorkflowDraft(c *gin.Context) {
	workflow, err := h.services.Versions.SetDraft(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: workflow})
}

// ArchiveWorkflow handles POST /api/v1/workflows/:id/archive
func (h *Handlers) ArchiveWorkflow(c *gin.Context) {
	if err := h.services.Versions.Archive(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// UnarchiveWorkflow handles POST /api/v1/workflows/:id/unarchive
func (h *Handlers) UnarchiveWorkflow(c *gin.Context) {
	if err := h.services.Versions.Unarchive(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// RestoreVersion handles POST /api/v1/workflows/:id/restore
func (h *Handlers) RestoreVersion(c *gin.Context) {
	workflow, err := h.services.Versions.RestoreVersion(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: workflow})
}

// ListAvailableTargets handles GET /api/v1/workflows/:id/available-targets
func (h *Handlers) ListAvailableTargets(c *gin.Context) {
	targets, err := h.services.Resolver.ListAvailableTargets(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: targets})
}

// GetChain handles GET /api/v1/workflows/:id/chain
func (h *Handlers) GetChain(c *gin.Context) {
	nodes, err := h.services.Transitions.GetChain(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: nodes})
}

// CreateTransition handles POST /api/v1/transitions
func (h *Handlers) CreateTransition(c *gin.Context) {
	var input service.TransitionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}

	transition, err := h.services.Transitions.CreateTransition(c.Request.Context(), input)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: transition})
}

// UpdateTransition handles PUT /api/v1/transitions/:id
func (h *Handlers) UpdateTransition(c *gin.Context) {
	var input service.TransitionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}

	transition, err := h.services.Transitions.UpdateTransition(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: transition})
}

// DeleteTransition handles DELETE /api/v1/transitions/:id
func (h *Handlers) DeleteTransition(c *gin.Context) {
	if err := h.services.Transitions.DeleteTransition(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// GetRequest handles GET /api/v1/requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	request, err := h.services.Progress.GetRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: request})
}

// GetProgress handles GET /api/v1/requests/:id/progress
func (h *Handlers) GetProgress(c *gin.Context) {
	progress, err := h.services.Progress.GetProgress(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: progress})
}

// EvaluateOutcome handles POST /api/v1/requests/:id/outcome
func (h *Handlers) EvaluateOutcome(c *gin.Context) {
	var req OutcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	decision, err := h.services.Transitions.EvaluateOutcome(c.Request.Context(), c.Param("id"), req.WorkflowID, req.Outcome)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: decision})
}

// CreateRole handles POST /api/v1/roles
func (h *Handlers) CreateRole(c *gin.Context) {
	var input service.CreateRoleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}

	role, err := h.services.Roles.CreateRole(c.Request.Context(), input)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: role})
}

// ListRoles handles GET /api/v1/roles
func (h *Handlers) ListRoles(c *gin.Context) {
	roles, err := h.services.Roles.ListRoles(c.Request.Context(), c.Query("business_unit_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: roles})
}

// GetRole handles GET /api/v1/roles/:id
func (h *Handlers) GetRole(c *gin.Context) {
	role, err := h.services.Roles.GetRole(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: role})
}

// DeleteRole handles DELETE /api/v1/roles/:id
func (h *Handlers) DeleteRole(c *gin.Context) {
	if err := h.services.Roles.DeleteRole(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// ApplyBatch handles POST /api/v1/batch
func (h *Handlers) ApplyBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	results := h.services.Batch.ApplyBatch(c.Request.Context(), req.Commands)
	c.JSON(http.StatusOK, Response{Success: true, Data: results})
}

func (h *Handlers) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Error:   "invalid request body: " + err.Error(),
	})
}

// writeError maps the domain error taxonomy onto HTTP status codes. Unknown
// errors stay opaque to the client.
func (h *Handlers) writeError(c *gin.Context, err error) {
	var (
		validationErr *entity.ValidationError
		notFoundErr   *entity.NotFoundError
		circularErr   *entity.CircularChainError
		duplicateErr  *entity.DuplicateTriggerError
		inUseErr      *entity.DependencyInUseError
		invariantErr  *entity.InvariantViolationError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, Response{Success: false, Error: err.Error()})
	case errors.As(err, &circularErr), errors.As(err, &duplicateErr), errors.As(err, &inUseErr):
		c.JSON(http.StatusConflict, Response{Success: false, Error: err.Error()})
	case errors.As(err, &invariantErr):
		h.logger.Error("Invariant violation", "error", err, "path", c.Request.URL.Path)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: err.Error()})
	default:
		h.logger.Error("Request failed", "error", err, "path", c.Request.URL.Path)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "internal error"})
	}
}
