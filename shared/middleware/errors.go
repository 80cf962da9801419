package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/useradmin/userapi/shared/errs"
)

// StatusFor maps a service error onto an HTTP status code. Unknown errors
// become 500.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, errs.ErrValidation),
		errors.Is(err, errs.ErrInvalidCredential),
		errors.Is(err, errs.ErrRevoked):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithServiceError writes err with the status from StatusFor. The
// message of an unexpected error is not exposed.
func RespondWithServiceError(c *gin.Context, err error) {
	code := StatusFor(err)
	if code == http.StatusInternalServerError {
		_ = c.Error(err)
		RespondWithError(c, code, "Internal server error")
		return
	}
	RespondWithError(c, code, err.Error())
}
