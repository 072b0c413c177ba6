package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/fieldgrid/backend/internal/application/services"
	"github.com/fieldgrid/backend/pkg/constants"
	"github.com/fieldgrid/backend/pkg/errors"
	"github.com/fieldgrid/backend/pkg/utils"
	"github.com/gin-gonic/gin"
)

// AdminHandler handles administrative maintenance endpoints
type AdminHandler struct {
	services *services.ServiceManager
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(svcMgr *services.ServiceManager) *AdminHandler {
	return &AdminHandler{services: svcMgr}
}

// PurgeRows handles POST /api/admin/purge-rows. Hard-deletes rows that
// have been soft-deleted longer than the retention window, without
// waiting for the nightly sweep. An optional sheet_id limits the scope,
// an optional older_than_days overrides the configured retention.
func (h *AdminHandler) PurgeRows(c *gin.Context) {
	var req struct {
		SheetID       string `json:"sheet_id"`
		OlderThanDays *int   `json:"older_than_days"`
	}
	if !BindJSON(c, &req) {
		return
	}
	if req.SheetID != "" && !utils.IsValidUUID(req.SheetID) {
		RespondAppError(c, errors.NewValidationError("sheet_id", "not a valid id"))
		return
	}

	days := constants.DefaultRowPurgeAfterDays
	if v := c.Query("older_than_days"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			days = parsed
		}
	}
	if req.OlderThanDays != nil {
		days = *req.OlderThanDays
	}

	cutoff := time.Now().AddDate(0, 0, -days)
	purged, err := h.services.Rows.PurgeDeletedRows(c.Request.Context(), req.SheetID, cutoff)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		constants.FieldMessage: "Purge complete",
		"purged":               purged,
		"cutoff":               cutoff,
	})
}
