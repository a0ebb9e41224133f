package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/clinicore/intake-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Success bool                 `json:"success"`
	Data    interface{}          `json:"data,omitempty"`
	Error   string               `json:"error,omitempty"`
	Errors  []errors.FieldError  `json:"errors,omitempty"`
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithCreated sends a 201 response
func RespondWithCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithError maps an error to its HTTP status and the error envelope.
// Internal details are never exposed to the client.
func RespondWithError(c *gin.Context, err error) {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "internal server error",
		})
		return
	}

	status := statusFor(appErr.Kind)
	resp := Response{
		Success: false,
		Error:   appErr.Message,
	}
	if appErr.Kind == errors.KindValidation {
		resp.Errors = appErr.Fields
	}
	if appErr.Kind == errors.KindInternal {
		resp.Error = "internal server error"
	}

	c.JSON(status, resp)
}

func statusFor(kind errors.Kind) int {
	switch kind {
	case errors.KindValidation:
		return http.StatusBadRequest
	case errors.KindAuthentication:
		return http.StatusUnauthorized
	case errors.KindAuthorization:
		return http.StatusForbidden
	case errors.KindNotFound:
		return http.StatusNotFound
	case errors.KindStateTransition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
