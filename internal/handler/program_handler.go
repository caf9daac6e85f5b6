package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/portal-colegio-api/internal/authz"
	"github.com/noah-isme/portal-colegio-api/internal/dto"
	"github.com/noah-isme/portal-colegio-api/internal/models"
	"github.com/noah-isme/portal-colegio-api/pkg/response"
)

type programService interface {
	List(ctx context.Context, activeOnly bool) ([]models.Program, error)
	Get(ctx context.Context, id int64) (*models.Program, error)
	Create(ctx context.Context, actor authz.Identity, req dto.ProgramRequest) (*models.Program, error)
	Update(ctx context.Context, actor authz.Identity, id int64, req dto.ProgramRequest) (*models.Program, error)
	Delete(ctx context.Context, actor authz.Identity, id int64) error
}

// ProgramHandler manages academic programs.
type ProgramHandler struct {
	programs programService
}

// NewProgramHandler constructs the handler.
func NewProgramHandler(programs programService) *ProgramHandler {
	return &ProgramHandler{programs: programs}
}

// List godoc
// @Summary List programs
// @Tags Programs
// @Produce json
// @Param active query bool false "Only active programs"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/programs [get]
func (h *ProgramHandler) List(c *gin.Context) {
	activeOnly, _ := strconv.ParseBool(c.Query("active"))
	programs, err := h.programs.List(c.Request.Context(), activeOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, programs, nil)
}

// Get godoc
// @Summary Get program
// @Tags Programs
// @Produce json
// @Param id path int true "Program ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/programs/{id} [get]
func (h *ProgramHandler) Get(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	program, err := h.programs.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, program, nil)
}

// Create godoc
// @Summary Create program
// @Tags Programs
// @Accept json
// @Produce json
// @Param payload body dto.ProgramRequest true "Program"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/programs [post]
func (h *ProgramHandler) Create(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.ProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid program payload"))
		return
	}
	program, err := h.programs.Create(c.Request.Context(), identity, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, program)
}

// Update godoc
// @Summary Update program
// @Tags Programs
// @Accept json
// @Produce json
// @Param id path int true "Program ID"
// @Param payload body dto.ProgramRequest true "Program"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/programs/{id} [put]
func (h *ProgramHandler) Update(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.ProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid program payload"))
		return
	}
	program, err := h.programs.Update(c.Request.Context(), identity, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, program, nil)
}

// Delete godoc
// @Summary Delete program
// @Tags Programs
// @Param id path int true "Program ID"
// @Success 204
// @Security BearerAuth
// @Router /admin/programs/{id} [delete]
func (h *ProgramHandler) Delete(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.programs.Delete(c.Request.Context(), identity, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
