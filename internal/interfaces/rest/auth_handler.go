package rest

import (
	"net/http"
	"time"

	"github.com/fieldgrid/backend/internal/application/services"
	"github.com/fieldgrid/backend/pkg/constants"
	"github.com/fieldgrid/backend/pkg/errors"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles authentication and account endpoints
type AuthHandler struct {
	services *services.ServiceManager
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(svcMgr *services.ServiceManager) *AuthHandler {
	return &AuthHandler{services: svcMgr}
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if !BindJSON(c, &req) {
		return
	}

	result, err := h.services.Auth.Login(c.Request.Context(), req.Email, req.Password,
		c.ClientIP(), c.GetHeader("User-Agent"))
	if err != nil {
		RespondAppError(c, err)
		return
	}

	// Browser clients authenticate via cookie, API clients via Bearer
	maxAge := int(time.Until(result.ExpiresAt).Seconds())
	c.SetCookie(constants.SessionCookieName, result.Token, maxAge, "/", "", false, true)

	c.JSON(http.StatusOK, gin.H{
		"token":      result.Token,
		"user":       result.User,
		"expires_at": result.ExpiresAt,
	})
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	token := c.GetString("token")
	if err := h.services.Auth.Logout(c.Request.Context(), token); err != nil {
		RespondAppError(c, err)
		return
	}
	c.SetCookie(constants.SessionCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{constants.FieldMessage: "Logged out"})
}

// GetMe handles GET /api/auth/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	user := GetUserFromContext(c)
	if user == nil {
		RespondAppError(c, errors.NewUnauthorizedError("User not authenticated"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Register handles POST /api/auth/register (admin only)
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
		IsAdmin  bool   `json:"is_admin"`
	}
	if !BindJSON(c, &req) {
		return
	}

	user, err := h.services.Auth.CreateUser(c.Request.Context(), services.CreateUserRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		IsAdmin:  req.IsAdmin,
	})
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{constants.FieldMessage: "User created", "user": user})
}

// GetUsers handles GET /api/auth/users
func (h *AuthHandler) GetUsers(c *gin.Context) {
	HandleGetEnvelope(c, "users", func() (interface{}, error) {
		return h.services.Auth.GetUsers(c.Request.Context())
	})
}
