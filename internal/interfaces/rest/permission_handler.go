package rest

import (
	"net/http"

	"github.com/fieldgrid/backend/internal/application/services"
	"github.com/fieldgrid/backend/pkg/constants"
	"github.com/gin-gonic/gin"
)

// PermissionHandler handles access grant endpoints for every resource
// family through one set of routes parameterized by :family.
type PermissionHandler struct {
	services *services.ServiceManager
}

// NewPermissionHandler creates a new PermissionHandler
func NewPermissionHandler(svcMgr *services.ServiceManager) *PermissionHandler {
	return &PermissionHandler{services: svcMgr}
}

// ListGrants handles GET /api/permissions/:family/:resourceId
func (h *PermissionHandler) ListGrants(c *gin.Context) {
	HandleGetEnvelope(c, "grants", func() (interface{}, error) {
		return h.services.Permissions.ListGrants(c.Request.Context(),
			c.Param("family"), c.Param("resourceId"))
	})
}

// CreateGrant handles POST /api/permissions/:family/:resourceId
func (h *PermissionHandler) CreateGrant(c *gin.Context) {
	var req services.GrantRequest
	if !BindJSON(c, &req) {
		return
	}

	user := GetUserFromContext(c)
	grant, err := h.services.Permissions.Grant(c.Request.Context(),
		c.Param("family"), c.Param("resourceId"), req, user.ID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{constants.FieldMessage: "Grant created", "grant": grant})
}

// UpdateGrant handles PUT /api/permissions/:family/grants/:grantId
func (h *PermissionHandler) UpdateGrant(c *gin.Context) {
	var req struct {
		Level string          `json:"permission_level"`
		Flags map[string]bool `json:"flags"`
	}
	if !BindJSON(c, &req) {
		return
	}

	grant, err := h.services.Permissions.UpdateGrant(c.Request.Context(),
		c.Param("family"), c.Param("grantId"), req.Level, req.Flags)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.FieldMessage: "Grant updated", "grant": grant})
}

// DeleteGrant handles DELETE /api/permissions/:family/grants/:grantId
func (h *PermissionHandler) DeleteGrant(c *gin.Context) {
	HandleDeleteEnvelope(c, "Grant revoked", func() error {
		return h.services.Permissions.Revoke(c.Request.Context(),
			c.Param("family"), c.Param("grantId"))
	})
}
