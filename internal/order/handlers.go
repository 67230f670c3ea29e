package order

import (
	"errors"
	"net/http"

	"github.com/noah-isme/backend-resto/internal/common"
)

// AdminHandler exposes order management to the back office.
type AdminHandler struct {
	Svc *Service
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending cooking delivery completed cancelled"`
}

// List handles GET /api/v1/admin/orders?status=&limit=&offset=.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	p := common.ParsePage(r, 50, 200)
	page, err := h.Svc.List(r.Context(), r.URL.Query().Get("status"), p.Limit, p.Offset)
	if err != nil {
		common.WriteError(w, ToAppError(err))
		return
	}
	common.Data(w, http.StatusOK, page)
}

// Get handles GET /api/v1/admin/orders/{id}.
func (h *AdminHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := common.URLParamID(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	o, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		common.WriteError(w, ToAppError(err))
		return
	}
	common.Data(w, http.StatusOK, o)
}

// Board handles GET /api/v1/admin/orders/board.
func (h *AdminHandler) Board(w http.ResponseWriter, r *http.Request) {
	b := NewBoard(h.Svc, h.Svc)
	if err := b.Sync(r.Context()); err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, b.Columns())
}

// UpdateStatus handles PATCH /api/v1/admin/orders/{id}/status.
func (h *AdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := common.URLParamID(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	var req statusRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	o, err := h.Svc.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		common.WriteError(w, ToAppError(err))
		return
	}
	common.Data(w, http.StatusOK, o)
}

// ToAppError maps order errors to HTTP.
func ToAppError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return common.NewAppError("NOT_FOUND", "order not found", http.StatusNotFound, err)
	case errors.Is(err, ErrInvalidStatus):
		return common.NewAppError("INVALID_STATUS", "unsupported status", http.StatusUnprocessableEntity, err)
	default:
		return err
	}
}
