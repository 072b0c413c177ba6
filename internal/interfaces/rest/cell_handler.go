package rest

import (
	"net/http"

	"github.com/fieldgrid/backend/internal/application/services"
	"github.com/fieldgrid/backend/internal/domain/models"
	"github.com/fieldgrid/backend/pkg/constants"
	"github.com/gin-gonic/gin"
)

// CellHandler handles cell write endpoints
type CellHandler struct {
	services *services.ServiceManager
}

// NewCellHandler creates a new CellHandler
func NewCellHandler(svcMgr *services.ServiceManager) *CellHandler {
	return &CellHandler{services: svcMgr}
}

// UpdateCell handles PUT /api/sheets/:id/cells
func (h *CellHandler) UpdateCell(c *gin.Context) {
	var req services.UpdateCellRequest
	if !BindJSON(c, &req) {
		return
	}

	cell, err := h.services.Cells.UpdateCell(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.FieldMessage: "Cell updated", "cell": cell})
}

// BulkUpdateCells handles POST /api/sheets/:id/cells/bulk. The batch is
// atomic: either every update lands or none do.
func (h *CellHandler) BulkUpdateCells(c *gin.Context) {
	var req struct {
		Updates []models.CellUpdate `json:"updates" binding:"required"`
	}
	if !BindJSON(c, &req) {
		return
	}

	// The batch is opaque to callers: success plus a count, no per-item detail
	cells, err := h.services.Cells.BulkUpdateCells(c.Request.Context(), c.Param("id"), req.Updates)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		constants.FieldMessage: "Cells updated",
		"success":              true,
		"count":                len(cells),
	})
}
