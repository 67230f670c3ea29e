package checkout

import (
	"errors"
	"net/http"
	"strings"

	"github.com/noah-isme/backend-resto/internal/cart"
	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/settings"
)

// Handler exposes order submission.
type Handler struct {
	Svc *Service
}

// Submit handles POST /api/v1/checkout.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	out, err := h.Svc.Submit(r.Context(), in)
	if err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	common.Data(w, http.StatusCreated, out)
}

func toAppError(err error) error {
	var appErr *common.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, ErrInvalidInput):
		msg, _, _ := strings.Cut(err.Error(), ": "+ErrInvalidInput.Error())
		return common.NewAppError("INVALID_INPUT", "⚠️ "+msg, http.StatusUnprocessableEntity, err)
	case errors.Is(err, ErrEmptyCart):
		return common.NewAppError("EMPTY_CART", "El carrito está vacío", http.StatusUnprocessableEntity, err)
	case errors.Is(err, settings.ErrStoreClosed):
		return common.NewAppError("STORE_CLOSED", "El local está cerrado", http.StatusConflict, err)
	case errors.Is(err, cart.ErrInvalidSession):
		return common.NewAppError("INVALID_SESSION", "invalid cart session", http.StatusBadRequest, err)
	default:
		return err
	}
}
