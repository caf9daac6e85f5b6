package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/portal-colegio-api/internal/models"
	"github.com/noah-isme/portal-colegio-api/pkg/response"
)

type auditLogService interface {
	List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLog, error)
}

// AuditHandler exposes the audit trail.
type AuditHandler struct {
	audit auditLogService
}

// NewAuditHandler constructs the handler.
func NewAuditHandler(audit auditLogService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

type auditQuery struct {
	EntityType string `form:"entity_type"`
	Action     string `form:"action"`
	Limit      int    `form:"limit"`
}

// List godoc
// @Summary Browse audit logs
// @Tags Audit
// @Produce json
// @Param entity_type query string false "procedure, invoice, student, user, program or session"
// @Param action query string false "CREATE, UPDATE or DELETE"
// @Param limit query int false "Max rows"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/audit-logs [get]
func (h *AuditHandler) List(c *gin.Context) {
	var query auditQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid query parameters"))
		return
	}
	entries, err := h.audit.List(c.Request.Context(), models.AuditLogFilter{
		EntityType: query.EntityType,
		Action:     query.Action,
		Limit:      query.Limit,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}
