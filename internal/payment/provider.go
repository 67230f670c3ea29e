// Package payment creates hosted checkout links with MercadoPago.
package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrNotConfigured is returned when no access token was provided.
var ErrNotConfigured = errors.New("payment: provider not configured")

// TempReference is the external reference used before an order exists.
const TempReference = "temp_order"

// Item is a line billed on the hosted checkout.
type Item struct {
	ID        string
	Title     string
	Quantity  int
	UnitPrice decimal.Decimal
}

// PreferenceRequest is what the customer will pay for.
type PreferenceRequest struct {
	Items             []Item
	ExternalReference string
}

// Preference is the created checkout.
type Preference struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Provider abstracts the upstream payment API.
type Provider interface {
	CreatePreference(ctx context.Context, req PreferenceRequest) (Preference, error)
}
