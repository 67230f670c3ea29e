package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Poster sends JSON; resilience.Client satisfies it.
type Poster interface {
	PostJSON(ctx context.Context, url string, body, dst any) error
}

// BackURLs are where MercadoPago returns the customer.
type BackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

// NewBackURLs derives the storefront return pages from its base URL.
func NewBackURLs(publicBase string) BackURLs {
	base := strings.TrimRight(publicBase, "/")
	return BackURLs{Success: base + "/success", Failure: base + "/", Pending: base + "/"}
}

// MercadoPago creates preferences through the checkout API. The client
// must already carry the bearer token header.
type MercadoPago struct {
	Client   Poster
	BaseURL  string
	BackURLs BackURLs
	Enabled  bool
}

type mpItem struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
}

type mpPreferenceBody struct {
	Items             []mpItem `json:"items"`
	ExternalReference string   `json:"external_reference"`
	BackURLs          BackURLs `json:"back_urls"`
	AutoReturn        string   `json:"auto_return"`
}

type mpPreferenceResponse struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"`
}

// CreatePreference implements Provider.
func (m *MercadoPago) CreatePreference(ctx context.Context, req PreferenceRequest) (Preference, error) {
	if m == nil || !m.Enabled || m.Client == nil {
		return Preference{}, ErrNotConfigured
	}
	if len(req.Items) == 0 {
		return Preference{}, errors.New("payment: preference needs at least one item")
	}
	body := mpPreferenceBody{
		Items:             make([]mpItem, 0, len(req.Items)),
		ExternalReference: req.ExternalReference,
		BackURLs:          m.BackURLs,
		AutoReturn:        "approved",
	}
	if body.ExternalReference == "" {
		body.ExternalReference = TempReference
	}
	for _, it := range req.Items {
		id := it.ID
		if id == "" {
			id = "123"
		}
		body.Items = append(body.Items, mpItem{
			ID:         id,
			Title:      it.Title,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice.InexactFloat64(),
			CurrencyID: "ARS",
		})
	}
	var resp mpPreferenceResponse
	if err := m.Client.PostJSON(ctx, strings.TrimRight(m.BaseURL, "/")+"/checkout/preferences", body, &resp); err != nil {
		return Preference{}, fmt.Errorf("payment: create preference: %w", err)
	}
	if resp.InitPoint == "" {
		return Preference{}, errors.New("payment: preference without init_point")
	}
	return Preference{ID: resp.ID, URL: resp.InitPoint}, nil
}
