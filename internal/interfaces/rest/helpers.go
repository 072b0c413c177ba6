package rest

import (
	"log"
	"net/http"

	"github.com/fieldgrid/backend/pkg/auth"
	"github.com/fieldgrid/backend/pkg/constants"
	"github.com/fieldgrid/backend/pkg/errors"
	"github.com/gin-gonic/gin"
)

// GetUserFromContext extracts the authenticated user from gin.Context
func GetUserFromContext(c *gin.Context) *auth.UserSession {
	userInterface, exists := c.Get(constants.ContextKeyUser)
	if !exists {
		return nil
	}
	user := userInterface.(auth.UserSession)
	return &user
}

// RespondAppError sends a standardised JSON error response using pkg/errors
func RespondAppError(c *gin.Context, err error) {
	code := errors.GetHTTPStatus(err)
	errorCode := errors.GetErrorCode(err)
	message := err.Error()

	if code >= 500 {
		log.Printf("❌ ERROR [%d] %s %s: %s", code, c.Request.Method, c.Request.URL.Path, message)
	}

	c.JSON(code, gin.H{
		constants.ResponseError: message, // Legacy
		"message":               message, // Standard
		"code":                  errorCode,
		"data":                  nil,
	})
}

// BindJSON binds JSON and returns true if successful. If failed, it sends bad request error.
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		RespondAppError(c, errors.NewValidationError("body", err.Error()))
		return false
	}
	return true
}

// HandleGetEnvelope executes a read action and returns the result wrapped in a JSON key
// Response: { [key]: result }
func HandleGetEnvelope(c *gin.Context, key string, action func() (interface{}, error)) {
	result, err := action()
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{key: result})
}

// HandleDriftEnvelope is HandleGetEnvelope for reads that tolerate missing
// storage objects. When the underlying table or view does not exist yet
// the response is 200 with tableExists false and an empty result, so
// clients render an empty grid instead of an error page.
func HandleDriftEnvelope(c *gin.Context, key string, empty interface{}, action func() (interface{}, error)) {
	result, err := action()
	if err != nil {
		if errors.IsSchemaDrift(err) {
			log.Printf("⚠️ Schema drift on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
			c.JSON(http.StatusOK, gin.H{"tableExists": false, key: empty})
			return
		}
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tableExists": true, key: result})
}

// HandleDeleteEnvelope executes a delete action and returns a success message
// Response: { constants.FieldMessage: successMsg }
func HandleDeleteEnvelope(c *gin.Context, successMsg string, action func() error) {
	if err := action(); err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.FieldMessage: successMsg})
}
