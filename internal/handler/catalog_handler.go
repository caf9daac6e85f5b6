package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/portal-colegio-api/internal/models"
	"github.com/noah-isme/portal-colegio-api/pkg/response"
)

type catalogService interface {
	List(ctx context.Context) ([]models.ProcedureType, error)
}

// CatalogHandler serves the procedure type catalog.
type CatalogHandler struct {
	catalog catalogService
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(catalog catalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ProcedureTypes godoc
// @Summary Procedure type catalog
// @Tags Procedures
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /procedure-types [get]
func (h *CatalogHandler) ProcedureTypes(c *gin.Context) {
	types, err := h.catalog.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, types, nil)
}
