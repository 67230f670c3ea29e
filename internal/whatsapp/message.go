// Package whatsapp formats the order hand-off message sent to the store.
package whatsapp

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-resto/internal/money"
)

// Item is one ordered line as shown in the chat.
type Item struct {
	Quantity   int
	Name       string
	OfferLabel string
	Extras     []string
	Note       string
	Savings    decimal.Decimal
}

// Summary carries what the message needs about a submitted order.
type Summary struct {
	OrderID       int64
	Name          string
	Delivery      bool
	ZoneName      string
	Address       string
	Lat, Lng      *float64
	Items         []Item
	PromoSavings  decimal.Decimal
	Total         decimal.Decimal
	PaymentMethod string
}

// MapsLink points at the customer pin, or is empty without coordinates.
func (s Summary) MapsLink() string {
	if s.Lat == nil || s.Lng == nil {
		return ""
	}
	return fmt.Sprintf("http://maps.google.com/maps?q=%v,%v", *s.Lat, *s.Lng)
}

// Message renders the plain text body, lines separated by "\n".
func Message(s Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hola American Burger! 🍔\n\nSoy *%s*.\nPedido *#%d* (\n", s.Name, s.OrderID)
	if s.Delivery {
		b.WriteString("🛵 *ENVÍO A DOMICILIO*")
		fmt.Fprintf(&b, "\n🗺️ Zona: *%s*", s.ZoneName)
		fmt.Fprintf(&b, "\n📍 Dir: *%s*", s.Address)
		if link := s.MapsLink(); link != "" {
			fmt.Fprintf(&b, "\n📍 GPS: %s", link)
		}
	} else {
		b.WriteString("🏪 *RETIRO EN LOCAL*")
	}
	b.WriteString(")\n\n")

	lines := make([]string, 0, len(s.Items))
	for _, it := range s.Items {
		lines = append(lines, itemLine(it))
	}
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\n")

	if s.PromoSavings.IsPositive() {
		fmt.Fprintf(&b, "🎁 Ahorro Promos: -%s\n", money.FormatPrice(s.PromoSavings))
	}
	fmt.Fprintf(&b, "Total: *%s*\nPago: %s", money.FormatPrice(s.Total), strings.ToUpper(s.PaymentMethod))
	return b.String()
}

func itemLine(it Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "▪️ %dx *%s*", it.Quantity, it.Name)
	if it.OfferLabel != "" {
		fmt.Fprintf(&b, " 🎁 *[%s]*", it.OfferLabel)
	}
	if len(it.Extras) > 0 {
		b.WriteString(" + " + strings.Join(it.Extras, ", "))
	}
	if it.Note != "" {
		fmt.Fprintf(&b, " _(Nota: %s)_", it.Note)
	}
	if it.Savings.IsPositive() {
		fmt.Fprintf(&b, "\n  └ Ahorro: -$%s", money.FormatWhole(it.Savings))
	}
	return b.String()
}

// Link builds the wa.me deep link for phone with text percent-encoded.
func Link(phone, text string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	return "https://wa.me/" + digits + "?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}
