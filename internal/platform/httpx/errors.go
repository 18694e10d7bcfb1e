package httpx

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/optimwalls/Optimwalls/internal/shared"
)

// RespondError maps domain errors to HTTP problem responses. Unexpected
// errors collapse to an opaque 500; the caller is responsible for logging
// them with full detail.
func RespondError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Error()
		}
		ValidationProblem(w, fields)
		return
	}

	var perm *shared.PermissionError
	switch {
	case errors.Is(err, shared.ErrInvalidCredentials):
		// Generic message: must not reveal which credential factor failed.
		Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid credentials")
	case errors.Is(err, shared.ErrUnauthenticated):
		Problem(w, http.StatusUnauthorized, "Unauthorized", "not authenticated")
	case errors.As(err, &perm):
		Problem(w, http.StatusForbidden, "Forbidden", perm.Error())
	case errors.Is(err, shared.ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", "permission denied")
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrConflict):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
