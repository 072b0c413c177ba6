package rest

import (
	"net/http"

	"github.com/fieldgrid/backend/internal/application/services"
	"github.com/fieldgrid/backend/internal/domain/models"
	"github.com/fieldgrid/backend/pkg/constants"
	"github.com/gin-gonic/gin"
)

// ColumnHandler handles column definition endpoints
type ColumnHandler struct {
	services *services.ServiceManager
}

// NewColumnHandler creates a new ColumnHandler
func NewColumnHandler(svcMgr *services.ServiceManager) *ColumnHandler {
	return &ColumnHandler{services: svcMgr}
}

// ListColumns handles GET /api/sheets/:id/columns
func (h *ColumnHandler) ListColumns(c *gin.Context) {
	HandleDriftEnvelope(c, "columns", []interface{}{}, func() (interface{}, error) {
		return h.services.Columns.ListColumns(c.Request.Context(), c.Param("id"))
	})
}

// AddColumn handles POST /api/sheets/:id/columns
func (h *ColumnHandler) AddColumn(c *gin.Context) {
	var spec services.ColumnSpec
	if !BindJSON(c, &spec) {
		return
	}

	user := GetUserFromContext(c)
	col, err := h.services.Columns.AddColumn(c.Request.Context(), c.Param("id"), spec, user.ID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{constants.FieldMessage: "Column added", "column": col})
}

// UpdateColumns handles PUT /api/sheets/:id/columns. The body is the
// complete desired column set; columns missing from it are deleted along
// with their cells.
func (h *ColumnHandler) UpdateColumns(c *gin.Context) {
	var req struct {
		Columns []*models.Column `json:"columns" binding:"required"`
	}
	if !BindJSON(c, &req) {
		return
	}

	user := GetUserFromContext(c)
	columns, err := h.services.Columns.UpdateColumns(c.Request.Context(), c.Param("id"), req.Columns, user.ID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.FieldMessage: "Columns updated", "columns": columns})
}
