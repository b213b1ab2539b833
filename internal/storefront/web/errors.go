package web

import (
	"errors"
	"net/http"

	cartapp "github.com/dwikikusuma/storefront/internal/cart/app"
	catalogapp "github.com/dwikikusuma/storefront/internal/catalog/app"
)

var errPageNotFound = errors.New("page not found")

// httpStatusFromError maps application errors to an HTTP status, a stable
// error code and a message that is safe to show.
func httpStatusFromError(err error) (int, string, string) {
	switch {
	case errors.Is(err, cartapp.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_ARGUMENT", "invalid request"
	case errors.Is(err, errPageNotFound):
		return http.StatusNotFound, "NOT_FOUND", "not found"
	case errors.Is(err, catalogapp.ErrCatalogUnavailable):
		return http.StatusServiceUnavailable, "UNAVAILABLE", "catalog unavailable"
	default:
		return http.StatusInternalServerError, "INTERNAL", "internal error"
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, msg := httpStatusFromError(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", "err", err, "path", r.URL.Path, "code", code)
	}
	http.Error(w, msg, status)
}
