package cart

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-resto/internal/catalog"
	"github.com/noah-isme/backend-resto/internal/common"
)

// Handler wires cart services to HTTP.
type Handler struct {
	Svc *Service
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0,lte=99"`
}

// cartView is the cart with its running total.
type cartView struct {
	Cart
	Total string `json:"total"`
}

func view(c Cart) cartView {
	return cartView{Cart: c, Total: c.Total().StringFixed(2)}
}

// Create handles POST /api/v1/carts and hands out a new session id.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	session := NewSession()
	common.Data(w, http.StatusCreated, view(Cart{Session: session, Lines: []Line{}}))
}

// Get handles GET /api/v1/carts/{session}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.Svc.Get(r.Context(), chi.URLParam(r, "session"))
	if err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	common.Data(w, http.StatusOK, view(c))
}

// AddItem handles POST /api/v1/carts/{session}/items.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var in AddItemInput
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	c, err := h.Svc.AddItem(r.Context(), chi.URLParam(r, "session"), in)
	if err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	common.Data(w, http.StatusOK, view(c))
}

// UpdateItem handles PATCH /api/v1/carts/{session}/items/{lineId}.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req updateQuantityRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	c, err := h.Svc.UpdateQuantity(r.Context(), chi.URLParam(r, "session"), chi.URLParam(r, "lineId"), req.Quantity)
	if err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	common.Data(w, http.StatusOK, view(c))
}

// RemoveItem handles DELETE /api/v1/carts/{session}/items/{lineId}.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	c, err := h.Svc.RemoveLine(r.Context(), chi.URLParam(r, "session"), chi.URLParam(r, "lineId"))
	if err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	common.Data(w, http.StatusOK, view(c))
}

// Clear handles DELETE /api/v1/carts/{session}.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Clear(r.Context(), chi.URLParam(r, "session")); err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Quote handles POST /api/v1/carts/{session}/quote.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	var in QuoteInput
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	q, err := h.Svc.Quote(r.Context(), chi.URLParam(r, "session"), in)
	if err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	common.Data(w, http.StatusOK, q)
}

func toAppError(err error) error {
	var appErr *common.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, ErrInvalidSession):
		return common.NewAppError("INVALID_SESSION", "invalid cart session", http.StatusBadRequest, err)
	case errors.Is(err, ErrLineNotFound):
		return common.NewAppError("NOT_FOUND", "cart line not found", http.StatusNotFound, err)
	case errors.Is(err, ErrInvalidInput):
		return common.NewAppError("INVALID_INPUT", err.Error(), http.StatusUnprocessableEntity, err)
	case errors.Is(err, catalog.ErrNotFound):
		return common.NewAppError("PRODUCT_NOT_FOUND", "product not available", http.StatusNotFound, err)
	case errors.Is(err, catalog.ErrRequiredGroup), errors.Is(err, catalog.ErrInvalidInput):
		return common.NewAppError("INVALID_OPTIONS", catalog.UserMessage(err), http.StatusUnprocessableEntity, err)
	default:
		return err
	}
}
