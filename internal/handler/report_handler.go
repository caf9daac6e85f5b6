package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/portal-colegio-api/internal/authz"
	"github.com/noah-isme/portal-colegio-api/internal/dto"
	"github.com/noah-isme/portal-colegio-api/pkg/response"
)

type reportService interface {
	Report(ctx context.Context, kind dto.ReportKind, query dto.ReportQuery) (*dto.ReportResult, error)
	Export(ctx context.Context, actor authz.Identity, kind dto.ReportKind, query dto.ReportQuery) (*dto.ReportFile, error)
}

// ReportHandler exposes reporting endpoints.
type ReportHandler struct {
	reports reportService
}

// NewReportHandler constructs handler.
func NewReportHandler(reports reportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Report godoc
// @Summary Filtered report
// @Tags Reports
// @Produce json
// @Param kind path string true "students, invoices or procedures"
// @Param status query string false "Status filter"
// @Param student_id query int false "Student"
// @Param from query string false "From date"
// @Param to query string false "To date"
// @Param search query string false "Search"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/reports/{kind} [get]
func (h *ReportHandler) Report(c *gin.Context) {
	var query dto.ReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid query parameters"))
		return
	}
	result, err := h.reports.Report(c.Request.Context(), dto.ReportKind(c.Param("kind")), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil, map[string]interface{}{"truncated": result.Truncated})
}

// Export godoc
// @Summary Download a report
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param kind path string true "students, invoices or procedures"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/export/{kind} [get]
func (h *ReportHandler) Export(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var query dto.ReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid query parameters"))
		return
	}
	file, err := h.reports.Export(c.Request.Context(), identity, dto.ReportKind(c.Param("kind")), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Download(c, file.Filename, file.ContentType, file.Content)
}
