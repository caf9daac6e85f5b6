package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/portal-colegio-api/internal/authz"
	"github.com/noah-isme/portal-colegio-api/internal/dto"
	"github.com/noah-isme/portal-colegio-api/internal/models"
	appErrors "github.com/noah-isme/portal-colegio-api/pkg/errors"
	"github.com/noah-isme/portal-colegio-api/pkg/response"
)

type procedureService interface {
	List(ctx context.Context, actor authz.Actor, query dto.ProcedureListQuery) ([]models.Procedure, error)
	ListForStudent(ctx context.Context, actor authz.Actor, studentID int64, query dto.ProcedureListQuery) ([]models.Procedure, error)
	Get(ctx context.Context, actor authz.Actor, id int64) (*models.Procedure, error)
	Create(ctx context.Context, actor authz.Actor, req dto.CreateProcedureRequest) (*models.Procedure, error)
	Update(ctx context.Context, actor authz.Actor, id int64, req dto.UpdateProcedureRequest) (*dto.ProcedureUpdateResponse, error)
	Delete(ctx context.Context, actor authz.Actor, id int64) error
}

// ProcedureHandler serves procedure endpoints for every role family. The
// service scopes results by the actor, so the same list handler backs the
// admin and teacher queues.
type ProcedureHandler struct {
	service procedureService
}

// NewProcedureHandler constructs the handler.
func NewProcedureHandler(svc procedureService) *ProcedureHandler {
	return &ProcedureHandler{service: svc}
}

// List godoc
// @Summary List procedures visible to the caller
// @Tags Procedures
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param procedure_type query string false "Type code"
// @Param student_id query int false "Student"
// @Param assigned_to query int false "Assignee"
// @Param unassigned query bool false "Only unassigned"
// @Param search query string false "Student name or description"
// @Param from query string false "Created from (YYYY-MM-DD)"
// @Param to query string false "Created to (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/procedures [get]
// @Router /teacher/procedures [get]
func (h *ProcedureHandler) List(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var query dto.ProcedureListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid query parameters"))
		return
	}
	procedures, err := h.service.List(c.Request.Context(), actor, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, procedures, nil)
}

// Get godoc
// @Summary Get procedure
// @Tags Procedures
// @Produce json
// @Param id path int true "Procedure ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/procedures/{id} [get]
func (h *ProcedureHandler) Get(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	procedure, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, procedure, nil)
}

// Create godoc
// @Summary Open a procedure
// @Tags Procedures
// @Accept json
// @Produce json
// @Param payload body dto.CreateProcedureRequest true "Procedure"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/procedures [post]
func (h *ProcedureHandler) Create(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CreateProcedureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid procedure payload"))
		return
	}
	procedure, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, procedure)
}

// Update godoc
// @Summary Update procedure
// @Description Partial update. Assignment is applied first, then the status change or notes.
// @Tags Procedures
// @Accept json
// @Produce json
// @Param id path int true "Procedure ID"
// @Param payload body dto.UpdateProcedureRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/procedures/{id} [patch]
func (h *ProcedureHandler) Update(c *gin.Context) {
	var req dto.UpdateProcedureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid procedure payload"))
		return
	}
	h.update(c, req)
}

// TeacherUpdate godoc
// @Summary Update an assigned procedure
// @Description Teachers may change status and notes only; assigned_to is rejected.
// @Tags Procedures
// @Accept json
// @Produce json
// @Param id path int true "Procedure ID"
// @Param payload body teacherUpdateRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /teacher/procedures/{id} [patch]
func (h *ProcedureHandler) TeacherUpdate(c *gin.Context) {
	var req teacherUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid procedure payload"))
		return
	}
	if req.AssignedTo.Set {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "teachers cannot change the assignment"))
		return
	}
	h.update(c, dto.UpdateProcedureRequest{Status: req.Status, Notes: req.Notes})
}

type teacherUpdateRequest struct {
	Status     *models.ProcedureStatus `json:"status,omitempty"`
	Notes      *string                 `json:"notes,omitempty"`
	AssignedTo dto.OptionalInt64       `json:"assigned_to" swaggerignore:"true"`
}

func (h *ProcedureHandler) update(c *gin.Context, req dto.UpdateProcedureRequest) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	res, err := h.service.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Delete godoc
// @Summary Delete procedure
// @Tags Procedures
// @Param id path int true "Procedure ID"
// @Success 204
// @Security BearerAuth
// @Router /admin/procedures/{id} [delete]
func (h *ProcedureHandler) Delete(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListForStudent godoc
// @Summary Procedures of a linked student
// @Tags Parent
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /parent/students/{id}/procedures [get]
func (h *ProcedureHandler) ListForStudent(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	studentID, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var query dto.ProcedureListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid query parameters"))
		return
	}
	procedures, err := h.service.ListForStudent(c.Request.Context(), actor, studentID, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, procedures, nil)
}

// CreateForStudent godoc
// @Summary Request a procedure for a linked student
// @Tags Parent
// @Accept json
// @Produce json
// @Param id path int true "Student ID"
// @Param payload body dto.CreateProcedureRequest true "Procedure (student_id is taken from the path)"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /parent/students/{id}/procedures [post]
func (h *ProcedureHandler) CreateForStudent(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	studentID, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CreateProcedureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid procedure payload"))
		return
	}
	req.StudentID = studentID
	procedure, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, procedure)
}
