package httpx

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jewelms/jewelms/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var vErr *shared.ValidationError
	var sErr *shared.StockError
	var fieldErrs validator.ValidationErrors
	switch {
	case errors.As(err, &fieldErrs):
		Problem(w, http.StatusBadRequest, "Validation Failed", fieldErrs.Error())
	case errors.As(err, &vErr):
		Problem(w, http.StatusBadRequest, "Validation Failed", shared.UserSafeMessage(err))
	case errors.As(err, &sErr):
		// Stock violations abort the whole transaction; surface as a
		// client error naming the offending product.
		Problem(w, http.StatusUnprocessableEntity, "Insufficient Stock", sErr.Error())
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", shared.UserSafeMessage(err))
	case errors.Is(err, shared.ErrImmutable):
		Problem(w, http.StatusForbidden, "Immutable Record", shared.UserSafeMessage(err))
	case errors.Is(err, shared.ErrConflict), errors.Is(err, shared.ErrIdempotencyConflict):
		Problem(w, http.StatusConflict, "Conflict", shared.UserSafeMessage(err))
	case errors.Is(err, shared.ErrInvalidCredentials), errors.Is(err, shared.ErrNoSession):
		Problem(w, http.StatusUnauthorized, "Unauthorized", shared.UserSafeMessage(err))
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
