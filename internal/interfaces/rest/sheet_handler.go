package rest

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/fieldgrid/backend/internal/application/services"
	"github.com/fieldgrid/backend/pkg/constants"
	"github.com/fieldgrid/backend/pkg/errors"
	"github.com/gin-gonic/gin"
)

// SheetHandler handles sheet lifecycle, stats, public links and history
type SheetHandler struct {
	services *services.ServiceManager
}

// NewSheetHandler creates a new SheetHandler
func NewSheetHandler(svcMgr *services.ServiceManager) *SheetHandler {
	return &SheetHandler{services: svcMgr}
}

// ListSheets handles GET /api/sheets
func (h *SheetHandler) ListSheets(c *gin.Context) {
	user := GetUserFromContext(c)
	HandleDriftEnvelope(c, "sheets", []interface{}{}, func() (interface{}, error) {
		return h.services.Sheets.ListSheets(c.Request.Context(), user.ID)
	})
}

// CreateSheet handles POST /api/sheets
func (h *SheetHandler) CreateSheet(c *gin.Context) {
	var req struct {
		Name        string          `json:"name" binding:"required"`
		Description string          `json:"description"`
		Settings    json.RawMessage `json:"settings"`
	}
	if !BindJSON(c, &req) {
		return
	}

	user := GetUserFromContext(c)
	sheet, err := h.services.Sheets.CreateSheet(c.Request.Context(), req.Name, req.Description, user.ID, req.Settings)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{constants.FieldMessage: "Sheet created", "sheet": sheet})
}

// GetSheet handles GET /api/sheets/:id
func (h *SheetHandler) GetSheet(c *gin.Context) {
	HandleGetEnvelope(c, "sheet", func() (interface{}, error) {
		return h.services.Sheets.GetSheet(c.Request.Context(), c.Param("id"))
	})
}

// UpdateSheet handles PUT /api/sheets/:id
func (h *SheetHandler) UpdateSheet(c *gin.Context) {
	var req struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Settings    json.RawMessage `json:"settings"`
	}
	if !BindJSON(c, &req) {
		return
	}

	user := GetUserFromContext(c)
	sheet, err := h.services.Sheets.UpdateSheet(c.Request.Context(), c.Param("id"),
		req.Name, req.Description, req.Settings, user.ID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.FieldMessage: "Sheet updated", "sheet": sheet})
}

// DeleteSheet handles DELETE /api/sheets/:id
func (h *SheetHandler) DeleteSheet(c *gin.Context) {
	HandleDeleteEnvelope(c, "Sheet deleted", func() error {
		return h.services.Sheets.DeleteSheet(c.Request.Context(), c.Param("id"))
	})
}

// GetStats handles GET /api/sheets/:id/stats. A sheet without a stats row
// yet reports null, and a missing stats view reports tableExists false;
// neither is an error.
func (h *SheetHandler) GetStats(c *gin.Context) {
	HandleDriftEnvelope(c, "stats", nil, func() (interface{}, error) {
		stats, err := h.services.Sheets.GetStats(c.Request.Context(), c.Param("id"))
		if err != nil {
			return nil, err
		}
		if stats == nil {
			return nil, nil
		}
		return stats, nil
	})
}

// GetHistory handles GET /api/sheets/:id/history
func (h *SheetHandler) GetHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	HandleGetEnvelope(c, "history", func() (interface{}, error) {
		return h.services.Sheets.GetHistory(c.Request.Context(), c.Param("id"), limit)
	})
}

// CreateLink handles POST /api/sheets/:id/links
func (h *SheetHandler) CreateLink(c *gin.Context) {
	var req struct {
		CanView     bool       `json:"can_view"`
		CanEdit     bool       `json:"can_edit"`
		CanDownload bool       `json:"can_download"`
		ExpiresAt   *time.Time `json:"expires_at"`
	}
	if !BindJSON(c, &req) {
		return
	}

	user := GetUserFromContext(c)
	link, err := h.services.Sheets.CreatePublicLink(c.Request.Context(), c.Param("id"), user.ID,
		services.LinkPermissions{CanView: req.CanView, CanEdit: req.CanEdit, CanDownload: req.CanDownload},
		req.ExpiresAt)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{constants.FieldMessage: "Link created", "link": link})
}

// ListLinks handles GET /api/sheets/:id/links
func (h *SheetHandler) ListLinks(c *gin.Context) {
	HandleGetEnvelope(c, "links", func() (interface{}, error) {
		return h.services.Sheets.ListPublicLinks(c.Request.Context(), c.Param("id"))
	})
}

// DeleteLink handles DELETE /api/sheets/:id/links/:linkId
func (h *SheetHandler) DeleteLink(c *gin.Context) {
	HandleDeleteEnvelope(c, "Link deleted", func() error {
		return h.services.Sheets.DeletePublicLink(c.Request.Context(), c.Param("linkId"))
	})
}

// ResolvePublicLink handles GET /api/public/:accessKey. No authentication;
// the access key is the credential. Returns the sheet with its columns and
// rows, trimmed to what the link permits.
func (h *SheetHandler) ResolvePublicLink(c *gin.Context) {
	ctx := c.Request.Context()

	link, err := h.services.Sheets.ResolvePublicLink(ctx, c.Param("accessKey"))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	if !link.CanView {
		RespondAppError(c, errors.NewPermissionError("view", "sheet"))
		return
	}

	sheet, err := h.services.Sheets.GetSheet(ctx, link.SheetID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	columns, err := h.services.Columns.ListColumns(ctx, link.SheetID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	rows, err := h.services.Rows.GetSheetRows(ctx, link.SheetID)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sheet":   sheet,
		"columns": columns,
		"rows":    rows,
		"link": gin.H{
			constants.FieldCanView:     link.CanView,
			constants.FieldCanEdit:     link.CanEdit,
			constants.FieldCanDownload: link.CanDownload,
		},
	})
}
