package geocode

import (
	"errors"
	"net/http"

	"github.com/noah-isme/backend-resto/internal/common"
)

// Handler exposes address lookup to the storefront.
type Handler struct {
	Svc *Service
}

// Search handles GET /api/v1/geocode?address=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	p, err := h.Svc.Lookup(r.Context(), r.URL.Query().Get("address"))
	switch {
	case err == nil:
		common.Data(w, http.StatusOK, p)
	case errors.Is(err, ErrEmptyAddress):
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", "address is required", nil)
	case errors.Is(err, ErrNoResults):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "📍 Dirección no encontrada en mapa.", nil)
	default:
		common.JSONError(w, http.StatusBadGateway, "GEOCODE_UNAVAILABLE", "address lookup unavailable", nil)
	}
}
