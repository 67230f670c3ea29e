// Package delivery lists the fixed delivery zones and their fees.
package delivery

import (
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-resto/internal/common"
)

// Delivery methods accepted at checkout.
const (
	MethodDelivery = "delivery"
	MethodPickup   = "pickup"
)

// ErrUnknownZone is returned for zone ids outside the table.
var ErrUnknownZone = errors.New("delivery: unknown zone")

// Zone is a named area with a flat delivery fee.
type Zone struct {
	ID    int             `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

var zones = []Zone{
	{ID: 1, Name: "Casco Céntrico / 4 Avenidas", Price: decimal.NewFromInt(1500)},
	{ID: 2, Name: "Barrio La Chacarita / Villa Cubas", Price: decimal.NewFromInt(2000)},
	{ID: 3, Name: "Banda de Varela", Price: decimal.NewFromInt(2500)},
	{ID: 4, Name: "Valle Viejo / San Isidro", Price: decimal.NewFromInt(3000)},
	{ID: 5, Name: "Fray Mamerto Esquiú", Price: decimal.NewFromInt(3500)},
}

// Zones returns a copy of the zone table.
func Zones() []Zone {
	out := make([]Zone, len(zones))
	copy(out, zones)
	return out
}

// Lookup finds a zone by id. Zero selects the first zone.
func Lookup(id int) (Zone, error) {
	if id == 0 {
		return zones[0], nil
	}
	for _, z := range zones {
		if z.ID == id {
			return z, nil
		}
	}
	return Zone{}, ErrUnknownZone
}

// Fee returns the fee charged for method in zone id.
func Fee(method string, id int) (decimal.Decimal, error) {
	if method != MethodDelivery {
		return decimal.Zero, nil
	}
	z, err := Lookup(id)
	if err != nil {
		return decimal.Zero, err
	}
	return z.Price, nil
}

// ListZones handles GET /api/v1/delivery/zones.
func ListZones(w http.ResponseWriter, _ *http.Request) {
	common.Data(w, http.StatusOK, Zones())
}
