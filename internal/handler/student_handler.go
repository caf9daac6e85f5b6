package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/portal-colegio-api/internal/authz"
	"github.com/noah-isme/portal-colegio-api/internal/dto"
	"github.com/noah-isme/portal-colegio-api/internal/models"
	"github.com/noah-isme/portal-colegio-api/pkg/response"
)

type studentService interface {
	List(ctx context.Context, query dto.StudentListQuery) ([]models.Student, *models.Pagination, error)
	ListForParent(ctx context.Context, actor authz.Identity) ([]models.Student, *models.Pagination, error)
	Get(ctx context.Context, id int64) (*models.Student, error)
	Create(ctx context.Context, actor authz.Identity, req dto.CreateStudentRequest) (*models.Student, error)
	Update(ctx context.Context, actor authz.Identity, id int64, req dto.UpdateStudentRequest) (*models.Student, error)
	Delete(ctx context.Context, actor authz.Identity, id int64) error
	Parents(ctx context.Context, studentID int64) ([]models.ParentLink, error)
	LinkParent(ctx context.Context, actor authz.Identity, studentID, parentID int64) error
	UnlinkParent(ctx context.Context, actor authz.Identity, studentID, parentID int64) error
}

// StudentHandler exposes student endpoints.
type StudentHandler struct {
	students studentService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students studentService) *StudentHandler {
	return &StudentHandler{students: students}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Param search query string false "Search by name or email"
// @Param status query string false "VIGENTE, ATRASADO or RETIRADO"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Param sort_by query string false "full_name, status or created_at"
// @Param sort_order query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/students [get]
func (h *StudentHandler) List(c *gin.Context) {
	var query dto.StudentListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid query parameters"))
		return
	}
	students, pagination, err := h.students.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// Mine godoc
// @Summary Students linked to the calling parent
// @Tags Parent
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /parent/students [get]
func (h *StudentHandler) Mine(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	students, pagination, err := h.students.ListForParent(c.Request.Context(), identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// Get godoc
// @Summary Get student
// @Tags Students
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	student, err := h.students.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Create godoc
// @Summary Create student
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body dto.CreateStudentRequest true "Student"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid student payload"))
		return
	}
	student, err := h.students.Create(c.Request.Context(), identity, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Update godoc
// @Summary Update student
// @Tags Students
// @Accept json
// @Produce json
// @Param id path int true "Student ID"
// @Param payload body dto.UpdateStudentRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/students/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
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
	var req dto.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid student payload"))
		return
	}
	student, err := h.students.Update(c.Request.Context(), identity, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Delete godoc
// @Summary Delete student
// @Tags Students
// @Param id path int true "Student ID"
// @Success 204
// @Security BearerAuth
// @Router /admin/students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
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
	if err := h.students.Delete(c.Request.Context(), identity, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Parents godoc
// @Summary Parents linked to a student
// @Tags Students
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/students/{id}/parents [get]
func (h *StudentHandler) Parents(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	links, err := h.students.Parents(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, links, nil)
}

// LinkParent godoc
// @Summary Link a parent to a student
// @Tags Students
// @Param id path int true "Student ID"
// @Param parentId path int true "Parent user ID"
// @Success 204
// @Failure 422 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/students/{id}/parents/{parentId} [post]
func (h *StudentHandler) LinkParent(c *gin.Context) {
	h.parentLink(c, h.students.LinkParent)
}

// UnlinkParent godoc
// @Summary Remove a parent link
// @Tags Students
// @Param id path int true "Student ID"
// @Param parentId path int true "Parent user ID"
// @Success 204
// @Security BearerAuth
// @Router /admin/students/{id}/parents/{parentId} [delete]
func (h *StudentHandler) UnlinkParent(c *gin.Context) {
	h.parentLink(c, h.students.UnlinkParent)
}

func (h *StudentHandler) parentLink(c *gin.Context, apply func(context.Context, authz.Identity, int64, int64) error) {
	identity, err := identityFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	studentID, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	parentID, err := int64Param(c, "parentId")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := apply(c.Request.Context(), identity, studentID, parentID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
