package rest

import (
	"net/http"

	"github.com/fieldgrid/backend/internal/application/services"
	"github.com/fieldgrid/backend/internal/domain/models"
	"github.com/fieldgrid/backend/pkg/constants"
	"github.com/gin-gonic/gin"
)

// MaterialHandler handles material inventory endpoints
type MaterialHandler struct {
	services *services.ServiceManager
}

// NewMaterialHandler creates a new MaterialHandler
func NewMaterialHandler(svcMgr *services.ServiceManager) *MaterialHandler {
	return &MaterialHandler{services: svcMgr}
}

// ListItems handles GET /api/material/items
func (h *MaterialHandler) ListItems(c *gin.Context) {
	HandleDriftEnvelope(c, "items", []interface{}{}, func() (interface{}, error) {
		return h.services.Material.ListItems(c.Request.Context(), c.Query("category"))
	})
}

// GetItem handles GET /api/material/items/:itemId
func (h *MaterialHandler) GetItem(c *gin.Context) {
	HandleGetEnvelope(c, "item", func() (interface{}, error) {
		return h.services.Material.GetItem(c.Request.Context(), c.Param("itemId"))
	})
}

// CreateItem handles POST /api/material/items
func (h *MaterialHandler) CreateItem(c *gin.Context) {
	var item models.MaterialItem
	if !BindJSON(c, &item) {
		return
	}

	user := GetUserFromContext(c)
	created, err := h.services.Material.CreateItem(c.Request.Context(), &item, user.ID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{constants.FieldMessage: "Item created", "item": created})
}

// UpdateItem handles PUT /api/material/items/:itemId
func (h *MaterialHandler) UpdateItem(c *gin.Context) {
	var item models.MaterialItem
	if !BindJSON(c, &item) {
		return
	}
	item.ID = c.Param("itemId")

	updated, err := h.services.Material.UpdateItem(c.Request.Context(), &item)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.FieldMessage: "Item updated", "item": updated})
}

// DeleteItem handles DELETE /api/material/items/:itemId
func (h *MaterialHandler) DeleteItem(c *gin.Context) {
	HandleDeleteEnvelope(c, "Item deleted", func() error {
		return h.services.Material.DeleteItem(c.Request.Context(), c.Param("itemId"))
	})
}
