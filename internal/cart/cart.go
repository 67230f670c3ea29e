// Package cart keeps per-session shopping carts and prices them.
package cart

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-resto/internal/money"
	"github.com/noah-isme/backend-resto/internal/pricing"
)

// MaxQuantity caps a single line.
const MaxQuantity = 99

// Line is one cart entry. UnitPrice already includes option prices.
type Line struct {
	ID        string           `json:"id"`
	ProductID int64            `json:"product_id"`
	Name      string           `json:"name"`
	ImageURL  string           `json:"image_url,omitempty"`
	UnitPrice decimal.Decimal  `json:"unit_price"`
	Quantity  int              `json:"quantity"`
	Options   []pricing.Option `json:"options"`
	Note      string           `json:"note,omitempty"`
	Offer     *pricing.Offer   `json:"offer,omitempty"`
}

// Cart is the state of one browsing session.
type Cart struct {
	Session   string    `json:"session"`
	Lines     []Line    `json:"lines"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LineID is the product id joined with the sorted option names, so the
// same product with the same extras always lands on the same line.
func LineID(productID int64, options []pricing.Option) string {
	names := make([]string, 0, len(options))
	for _, o := range options {
		names = append(names, o.Name)
	}
	sort.Strings(names)
	return strconv.FormatInt(productID, 10) + "-" + strings.Join(names, "-")
}

// Add merges line into an existing identical line or appends it.
// A merged line keeps its original price and note and never exceeds
// MaxQuantity.
func (c *Cart) Add(line Line) Line {
	line.Quantity = min(max(line.Quantity, 1), MaxQuantity)
	line.ID = LineID(line.ProductID, line.Options)
	for i := range c.Lines {
		if c.Lines[i].ID == line.ID {
			c.Lines[i].Quantity = min(c.Lines[i].Quantity+line.Quantity, MaxQuantity)
			return c.Lines[i]
		}
	}
	c.Lines = append(c.Lines, line)
	return line
}

// UpdateQuantity sets the quantity of a line. Values outside
// 1..MaxQuantity are ignored.
func (c *Cart) UpdateQuantity(id string, qty int) bool {
	if qty < 1 || qty > MaxQuantity {
		return false
	}
	for i := range c.Lines {
		if c.Lines[i].ID == id {
			c.Lines[i].Quantity = qty
			return true
		}
	}
	return false
}

// Remove drops a line and reports whether it existed.
func (c *Cart) Remove(id string) bool {
	for i := range c.Lines {
		if c.Lines[i].ID == id {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Lines = []Line{}
}

// Empty reports whether there is nothing to order.
func (c Cart) Empty() bool {
	return len(c.Lines) == 0
}

// Total is the sum of unit price times quantity, before promos.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return money.Round2(total)
}

// PricingLines converts the cart for pricing.Compute.
func (c Cart) PricingLines() []pricing.Line {
	out := make([]pricing.Line, 0, len(c.Lines))
	for _, l := range c.Lines {
		out = append(out, pricing.Line{
			ProductID: l.ProductID,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			Options:   l.Options,
			Note:      l.Note,
			Offer:     l.Offer,
		})
	}
	return out
}
