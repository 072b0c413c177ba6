package rest

import (
	"net/http"

	"github.com/fieldgrid/backend/internal/application/services"
	"github.com/fieldgrid/backend/pkg/constants"
	"github.com/gin-gonic/gin"
)

// RowHandler handles row endpoints and row search
type RowHandler struct {
	services *services.ServiceManager
}

// NewRowHandler creates a new RowHandler
func NewRowHandler(svcMgr *services.ServiceManager) *RowHandler {
	return &RowHandler{services: svcMgr}
}

// ListRows handles GET /api/sheets/:id/rows
func (h *RowHandler) ListRows(c *gin.Context) {
	HandleDriftEnvelope(c, "rows", []interface{}{}, func() (interface{}, error) {
		return h.services.Rows.GetSheetRows(c.Request.Context(), c.Param("id"))
	})
}

// AddRow handles POST /api/sheets/:id/rows
func (h *RowHandler) AddRow(c *gin.Context) {
	user := GetUserFromContext(c)
	row, err := h.services.Rows.AddRow(c.Request.Context(), c.Param("id"), user.ID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{constants.FieldMessage: "Row added", "row": row})
}

// DeleteRow handles DELETE /api/sheets/:id/rows/:rowId
func (h *RowHandler) DeleteRow(c *gin.Context) {
	user := GetUserFromContext(c)
	HandleDeleteEnvelope(c, "Row deleted", func() error {
		return h.services.Rows.DeleteRow(c.Request.Context(), c.Param("rowId"), user.ID)
	})
}

// SearchRows handles POST /api/sheets/:id/search
func (h *RowHandler) SearchRows(c *gin.Context) {
	var req services.SearchRequest
	if !BindJSON(c, &req) {
		return
	}

	ids, err := h.services.Search.SearchRows(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"row_ids": ids, "count": len(ids)})
}
