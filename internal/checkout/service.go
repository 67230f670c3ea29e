// Package checkout turns a session cart into a persisted order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-resto/internal/cart"
	"github.com/noah-isme/backend-resto/internal/coupon"
	"github.com/noah-isme/backend-resto/internal/db"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/delivery"
	"github.com/noah-isme/backend-resto/internal/events"
	"github.com/noah-isme/backend-resto/internal/money"
	"github.com/noah-isme/backend-resto/internal/obs"
	"github.com/noah-isme/backend-resto/internal/order"
	"github.com/noah-isme/backend-resto/internal/payment"
	"github.com/noah-isme/backend-resto/internal/pricing"
	"github.com/noah-isme/backend-resto/internal/whatsapp"
)

// Payment methods accepted at checkout.
const (
	PaymentCash        = "efectivo"
	PaymentTransfer    = "transferencia"
	PaymentMercadoPago = "mercadopago"
)

const pickupAddress = "Retiro en Local"

var (
	// ErrInvalidInput wraps customer form errors; the prefix is user-facing.
	ErrInvalidInput = errors.New("checkout: invalid input")
	// ErrEmptyCart is returned when the session cart has no lines.
	ErrEmptyCart = errors.New("checkout: empty cart")
)

// Carts loads and clears session carts.
type Carts interface {
	Get(ctx context.Context, session string) (cart.Cart, error)
	Clear(ctx context.Context, session string) error
}

// Redeemer consumes a coupon use inside the order transaction.
type Redeemer interface {
	Redeem(ctx context.Context, q dbgen.Querier, code string, subtotal decimal.Decimal) (coupon.Result, error)
}

// StoreGate refuses orders while the store is closed.
type StoreGate interface {
	EnsureOpen(ctx context.Context) error
}

// Biller opens hosted payments for orders.
type Biller interface {
	ForOrder(ctx context.Context, bill payment.OrderBill) (payment.Preference, error)
}

// Emitter publishes domain events.
type Emitter interface {
	Emit(ctx context.Context, topic, aggregateID string, payload any) (events.Event, error)
}

// Input is the customer checkout form.
type Input struct {
	Session        string   `json:"session" validate:"required"`
	Name           string   `json:"name"`
	Phone          string   `json:"phone"`
	DeliveryMethod string   `json:"delivery_method" validate:"required,oneof=delivery pickup"`
	ZoneID         int      `json:"zone_id"`
	Address        string   `json:"address"`
	Lat            *float64 `json:"lat" validate:"omitempty,latitude"`
	Lng            *float64 `json:"lng" validate:"omitempty,longitude"`
	PaymentMethod  string   `json:"payment_method" validate:"required,oneof=efectivo transferencia mercadopago"`
	CouponCode     string   `json:"coupon_code"`
}

// Output is the submitted order with its hand-off links.
type Output struct {
	Order         order.Order   `json:"order"`
	Quote         pricing.Quote `json:"quote"`
	CouponApplied bool          `json:"coupon_applied"`
	CouponMessage string        `json:"coupon_message,omitempty"`
	WhatsAppURL   string        `json:"whatsapp_url"`
	PaymentURL    string        `json:"payment_url,omitempty"`
	PaymentError  string        `json:"payment_error,omitempty"`
}

// Service places orders.
type Service struct {
	Q             dbgen.Querier
	Tx            db.Transactor
	Carts         Carts
	Coupons       Redeemer
	Store         StoreGate
	Payments      Biller
	Events        Emitter
	BusinessPhone string
	Logger        *zerolog.Logger
}

// Submit validates the form, writes the order and its items in one
// transaction, then clears the cart and fans out notifications. Failures
// after commit are logged and never undo the order.
func (s *Service) Submit(ctx context.Context, in Input) (Output, error) {
	in = normalize(in)
	if in.Name == "" || in.Phone == "" {
		return Output{}, fmt.Errorf("Completa Nombre y Teléfono: %w", ErrInvalidInput)
	}
	delivering := in.DeliveryMethod == delivery.MethodDelivery
	if delivering && in.Address == "" {
		return Output{}, fmt.Errorf("Escribe tu dirección: %w", ErrInvalidInput)
	}
	var zone delivery.Zone
	if delivering {
		z, err := delivery.Lookup(in.ZoneID)
		if err != nil {
			return Output{}, fmt.Errorf("Zona de envío inválida: %w", ErrInvalidInput)
		}
		zone = z
	}
	if s.Store != nil {
		if err := s.Store.EnsureOpen(ctx); err != nil {
			return Output{}, err
		}
	}
	c, err := s.Carts.Get(ctx, in.Session)
	if err != nil {
		return Output{}, err
	}
	if c.Empty() {
		return Output{}, ErrEmptyCart
	}
	for _, l := range c.Lines {
		if l.Quantity < 1 || l.Quantity > cart.MaxQuantity {
			return Output{}, fmt.Errorf("Cantidad inválida para %s: %w", l.Name, ErrInvalidInput)
		}
	}

	out := Output{}
	var placed dbgen.Order
	var placedItems []dbgen.OrderItem
	err = s.Tx.InTx(ctx, func(q dbgen.Querier) error {
		input := pricing.Input{Lines: c.PricingLines(), DeliveryMethod: in.DeliveryMethod, DeliveryFee: zone.Price}
		couponCode := pgtype.Text{}
		out.CouponApplied, out.CouponMessage = false, ""
		if code := coupon.NormalizeCode(in.CouponCode); code != "" && s.Coupons != nil {
			res, err := s.Coupons.Redeem(ctx, q, code, c.Total())
			switch {
			case err == nil:
				input.Coupon = res.Coupon.Terms()
				couponCode = pgtype.Text{String: res.Coupon.Code, Valid: true}
				out.CouponApplied = true
				out.CouponMessage = res.Message
			case coupon.IsRejection(err):
				out.CouponMessage = err.Error()
			default:
				return err
			}
		}
		quote := pricing.Compute(input)
		out.Quote = quote

		address := pickupAddress
		if delivering {
			address = fmt.Sprintf("(%s) %s", zone.Name, in.Address)
		}
		row, err := q.CreateOrder(ctx, dbgen.CreateOrderParams{
			CustomerName:    in.Name,
			CustomerPhone:   in.Phone,
			CustomerAddress: address,
			Total:           money.ToNumeric(quote.Total),
			Discount:        money.ToNumeric(quote.Discount()),
			DeliveryMethod:  in.DeliveryMethod,
			PaymentMethod:   in.PaymentMethod,
			CouponCode:      couponCode,
			Latitude:        nullableFloat(in.Lat),
			Longitude:       nullableFloat(in.Lng),
		})
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		placed = row
		placedItems = make([]dbgen.OrderItem, 0, len(c.Lines))
		for _, l := range c.Lines {
			item, err := q.CreateOrderItem(ctx, dbgen.CreateOrderItemParams{
				OrderID:     row.ID,
				ProductName: l.Name,
				Quantity:    int32(l.Quantity),
				Price:       money.ToNumeric(l.UnitPrice),
				Options:     joinOptions(l.Options),
				Note:        l.Note,
			})
			if err != nil {
				return fmt.Errorf("create order item: %w", err)
			}
			placedItems = append(placedItems, item)
		}
		return nil
	})
	if err != nil {
		return Output{}, err
	}

	out.Order = order.FromRow(placed, placedItems)
	obs.Inc(obs.OrdersCreatedTotal, in.DeliveryMethod, in.PaymentMethod)
	obs.Annotate(ctx, "order_id", strconv.FormatInt(placed.ID, 10))
	log := s.logger().With().Int64("order_id", placed.ID).Logger()

	if err := s.Carts.Clear(ctx, in.Session); err != nil {
		log.Warn().Err(err).Msg("checkout_cart_clear_failed")
	}
	out.WhatsAppURL = whatsapp.Link(s.BusinessPhone, whatsapp.Message(summary(out, c, in, zone)))
	if s.Events != nil {
		if _, err := s.Events.Emit(ctx, events.TopicOrderCreated, strconv.FormatInt(placed.ID, 10), out.Order); err != nil {
			log.Warn().Err(err).Msg("checkout_event_failed")
		}
	}
	if in.PaymentMethod == PaymentMercadoPago && s.Payments != nil {
		s.attachPayment(ctx, &out, c, log)
	}
	log.Info().
		Str("delivery_method", in.DeliveryMethod).
		Str("payment_method", in.PaymentMethod).
		Str("total", out.Order.Total.String()).
		Bool("coupon_applied", out.CouponApplied).
		Msg("order_submitted")
	return out, nil
}

func (s *Service) attachPayment(ctx context.Context, out *Output, c cart.Cart, log zerolog.Logger) {
	pref, err := s.Payments.ForOrder(ctx, payment.OrderBill{
		OrderID:     out.Order.ID,
		Lines:       payment.CartLines(c),
		Discount:    out.Order.Discount,
		DeliveryFee: out.Quote.DeliveryFee,
		Total:       out.Order.Total,
	})
	if err != nil {
		out.PaymentError = "Error al crear preferencia"
		return
	}
	out.PaymentURL = pref.URL
	if err := s.Q.UpdateOrderPaymentReference(ctx, dbgen.UpdateOrderPaymentReferenceParams{
		ID:               out.Order.ID,
		PaymentReference: pgtype.Text{String: pref.ID, Valid: pref.ID != ""},
	}); err != nil {
		log.Warn().Err(err).Msg("checkout_payment_reference_failed")
		return
	}
	out.Order.PaymentReference = pref.ID
}

func summary(out Output, c cart.Cart, in Input, zone delivery.Zone) whatsapp.Summary {
	sum := whatsapp.Summary{
		OrderID:       out.Order.ID,
		Name:          in.Name,
		Delivery:      in.DeliveryMethod == delivery.MethodDelivery,
		ZoneName:      zone.Name,
		Address:       in.Address,
		Lat:           in.Lat,
		Lng:           in.Lng,
		PromoSavings:  out.Quote.PromoSavings,
		Total:         out.Quote.Total,
		PaymentMethod: in.PaymentMethod,
		Items:         make([]whatsapp.Item, 0, len(c.Lines)),
	}
	for i, l := range c.Lines {
		item := whatsapp.Item{Quantity: l.Quantity, Name: l.Name, Note: l.Note}
		if l.Offer != nil && l.Offer.IsActive {
			item.OfferLabel = l.Offer.DiscountValueLabel
		}
		for _, o := range l.Options {
			item.Extras = append(item.Extras, o.Name)
		}
		if i < len(out.Quote.Lines) {
			item.Savings = out.Quote.Lines[i].Savings
		}
		sum.Items = append(sum.Items, item)
	}
	return sum
}

func normalize(in Input) Input {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)
	in.DeliveryMethod = strings.ToLower(strings.TrimSpace(in.DeliveryMethod))
	in.PaymentMethod = strings.ToLower(strings.TrimSpace(in.PaymentMethod))
	return in
}

func joinOptions(opts []pricing.Option) string {
	names := make([]string, 0, len(opts))
	for _, o := range opts {
		names = append(names, o.Name)
	}
	return strings.Join(names, ", ")
}

func nullableFloat(v *float64) pgtype.Float8 {
	if v == nil {
		return pgtype.Float8{}
	}
	return pgtype.Float8{Float64: *v, Valid: true}
}

func (s *Service) logger() *zerolog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	l := zerolog.Nop()
	return &l
}
