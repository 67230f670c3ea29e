package settings

import (
	"net/http"

	"github.com/noah-isme/backend-resto/internal/common"
)

// Handler serves the store status endpoints.
type Handler struct {
	Svc *Service
}

type setStatusRequest struct {
	IsOpen *bool `json:"is_open" validate:"required"`
}

// Status handles GET /api/v1/store/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	st, err := h.Svc.Status(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, st)
}

// SetStatus handles PUT /api/v1/admin/store/status.
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req setStatusRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	st, err := h.Svc.SetOpen(r.Context(), *req.IsOpen)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, st)
}
