package whatsapp

import (
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestMessageDelivery(t *testing.T) {
	lat, lng := -28.4696, -65.7852
	msg := Message(Summary{
		OrderID:  42,
		Name:     "Lucía",
		Delivery: true,
		ZoneName: "Banda de Varela",
		Address:  "Av. Belgrano 123",
		Lat:      &lat, Lng: &lng,
		Items: []Item{
			{Quantity: 2, Name: "Doble Cheddar", OfferLabel: "2x1", Extras: []string{"Bacon", "Cheddar"}, Note: "sin cebolla", Savings: decimal.NewFromInt(8300)},
			{Quantity: 1, Name: "Papas"},
		},
		PromoSavings:  decimal.NewFromInt(8300),
		Total:         decimal.NewFromInt(10800),
		PaymentMethod: "efectivo",
	})

	want := "Hola American Burger! 🍔\n\nSoy *Lucía*.\nPedido *#42* (\n" +
		"🛵 *ENVÍO A DOMICILIO*\n🗺️ Zona: *Banda de Varela*\n📍 Dir: *Av. Belgrano 123*\n" +
		"📍 GPS: http://maps.google.com/maps?q=-28.4696,-65.7852)\n\n" +
		"▪️ 2x *Doble Cheddar* 🎁 *[2x1]* + Bacon, Cheddar _(Nota: sin cebolla)_\n  └ Ahorro: -$8.300\n" +
		"▪️ 1x *Papas*\n\n" +
		"🎁 Ahorro Promos: -$8.300\nTotal: *$10.800*\nPago: EFECTIVO"
	require.Equal(t, want, msg)
}

func TestMessagePickupOmitsPromoLine(t *testing.T) {
	msg := Message(Summary{OrderID: 7, Name: "Juan", Items: []Item{{Quantity: 1, Name: "Simple"}}, Total: decimal.NewFromInt(5000), PaymentMethod: "mercadopago"})
	require.Contains(t, msg, "🏪 *RETIRO EN LOCAL*)")
	require.NotContains(t, msg, "Ahorro")
	require.True(t, strings.HasSuffix(msg, "Pago: MERCADOPAGO"))
}

func TestLinkEncodesText(t *testing.T) {
	link := Link("+54 9 383 496-8345", "Pedido *#1* & más\nok")
	require.True(t, strings.HasPrefix(link, "https://wa.me/5493834968345?text="))
	require.NotContains(t, link, "+")
	require.Contains(t, link, "%23")
	require.Contains(t, link, "%0A")

	u, err := url.Parse(link)
	require.NoError(t, err)
	require.Equal(t, "Pedido *#1* & más\nok", u.Query().Get("text"))
}
