package payment

import (
	"context"
	"errors"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-resto/internal/obs"
)

// Line is the billing view of a cart or order line.
type Line struct {
	ID        string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Service builds preferences from carts and orders.
type Service struct {
	Provider Provider
	Logger   *zerolog.Logger
}

// ForCart bills each line at its unit price, as the standalone storefront
// button does before an order exists.
func (s *Service) ForCart(ctx context.Context, lines []Line, reference string) (Preference, error) {
	items := make([]Item, 0, len(lines))
	for _, l := range lines {
		items = append(items, Item{ID: l.ID, Title: l.Name, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}
	return s.create(ctx, PreferenceRequest{Items: items, ExternalReference: reference})
}

// OrderBill is a persisted order to charge.
type OrderBill struct {
	OrderID     int64
	Lines       []Line
	Discount    decimal.Decimal
	DeliveryFee decimal.Decimal
	Total       decimal.Decimal
}

// ForOrder bills a submitted order. MercadoPago rejects negative items,
// so a discounted order is billed as a single item at its total.
func (s *Service) ForOrder(ctx context.Context, bill OrderBill) (Preference, error) {
	ref := strconv.FormatInt(bill.OrderID, 10)
	var items []Item
	if bill.Discount.IsPositive() {
		items = []Item{{ID: "order-" + ref, Title: "Pedido American Burger #" + ref, Quantity: 1, UnitPrice: bill.Total}}
	} else {
		for _, l := range bill.Lines {
			items = append(items, Item{ID: l.ID, Title: l.Name, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
		}
		if bill.DeliveryFee.IsPositive() {
			items = append(items, Item{ID: "delivery", Title: "Envío a domicilio", Quantity: 1, UnitPrice: bill.DeliveryFee})
		}
	}
	return s.create(ctx, PreferenceRequest{Items: items, ExternalReference: ref})
}

func (s *Service) create(ctx context.Context, req PreferenceRequest) (Preference, error) {
	if s.Provider == nil {
		return Preference{}, ErrNotConfigured
	}
	pref, err := s.Provider.CreatePreference(ctx, req)
	switch {
	case err == nil:
		obs.Inc(obs.PaymentPreferenceTotal, "mercadopago", "ok")
	case errors.Is(err, ErrNotConfigured):
		obs.Inc(obs.PaymentPreferenceTotal, "mercadopago", "disabled")
	default:
		obs.Inc(obs.PaymentPreferenceTotal, "mercadopago", "error")
		s.logger().Error().Err(err).Str("external_reference", req.ExternalReference).Msg("payment_preference_failed")
	}
	return pref, err
}

func (s *Service) logger() *zerolog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	l := zerolog.Nop()
	return &l
}
