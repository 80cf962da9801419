package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/useradmin/userapi/shared/validation"
)

type BadRequestErrorResponse struct {
	Message string                  `json:"message"`
	Details []validation.FieldError `json:"details"`
}

// ValidateRequest runs the shared validator over a bound request body.
func ValidateRequest(obj any) []validation.FieldError {
	return validation.Struct(obj)
}

func RespondWithValidationError(c *gin.Context, validationErrors []validation.FieldError) {
	c.JSON(http.StatusBadRequest, BadRequestErrorResponse{
		Message: "Invalid request data",
		Details: validationErrors,
	})
}

func RespondWithError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"message": message,
	})
}
