package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/jwalitptl/clinic-console/pkg/errors"
)

// Response wraps all API responses. Message carries the user-facing
// confirmation for writes; Notices carries non-fatal failures that happened
// alongside the request.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	Notices []string    `json:"notices,omitempty"`
}

// Error represents API error
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RespondWithSuccess sends a 200 response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithMessage sends a success response with a confirmation message
func RespondWithMessage(c *gin.Context, status int, message string, data interface{}, notices ...string) {
	c.JSON(status, Response{
		Success: true,
		Message: message,
		Data:    data,
		Notices: notices,
	})
}

// RespondWithError sends an error response
func RespondWithError(c *gin.Context, err error) {
	statusCode := http.StatusInternalServerError
	message := "Internal server error"

	if appErr, ok := apperrors.As(err); ok {
		statusCode = appErr.StatusCode()
		message = appErr.Message
	}

	c.JSON(statusCode, Response{
		Success: false,
		Error: &Error{
			Code:    statusCode,
			Message: message,
		},
	})
}

// AbortWithError sends an error response and stops the handler chain
func AbortWithError(c *gin.Context, err error) {
	RespondWithError(c, err)
	c.Abort()
}
