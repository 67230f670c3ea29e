package payment

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/noah-isme/backend-resto/internal/cart"
	"github.com/noah-isme/backend-resto/internal/common"
)

// CartSource loads session carts.
type CartSource interface {
	Get(ctx context.Context, session string) (cart.Cart, error)
}

// Handler exposes the standalone "pay with MercadoPago" button.
type Handler struct {
	Svc   *Service
	Carts CartSource
}

type preferenceRequest struct {
	Session string `json:"session" validate:"required"`
	OrderID int64  `json:"order_id" validate:"gte=0"`
}

// CartLines converts cart lines for billing.
func CartLines(c cart.Cart) []Line {
	out := make([]Line, 0, len(c.Lines))
	for _, l := range c.Lines {
		out = append(out, Line{ID: l.ID, Name: l.Name, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}
	return out
}

// CreatePreference handles POST /api/v1/payments/mercadopago/preference.
func (h *Handler) CreatePreference(w http.ResponseWriter, r *http.Request) {
	var req preferenceRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	c, err := h.Carts.Get(r.Context(), req.Session)
	if err != nil {
		if errors.Is(err, cart.ErrInvalidSession) {
			common.JSONError(w, http.StatusBadRequest, "INVALID_SESSION", "invalid cart session", nil)
			return
		}
		common.WriteError(w, err)
		return
	}
	if c.Empty() {
		common.JSONError(w, http.StatusUnprocessableEntity, "EMPTY_CART", "El carrito está vacío", nil)
		return
	}
	ref := ""
	if req.OrderID > 0 {
		ref = strconv.FormatInt(req.OrderID, 10)
	}
	pref, err := h.Svc.ForCart(r.Context(), CartLines(c), ref)
	if err != nil {
		common.WriteError(w, ToAppError(err))
		return
	}
	common.Data(w, http.StatusOK, pref)
}

// ToAppError maps provider failures to HTTP.
func ToAppError(err error) error {
	if errors.Is(err, ErrNotConfigured) {
		return common.NewAppError("PAYMENT_DISABLED", "MercadoPago no está disponible", http.StatusServiceUnavailable, err)
	}
	return common.NewAppError("PAYMENT_ERROR", "Error al crear preferencia", http.StatusBadGateway, err)
}
