package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-resto/internal/catalog"
	"github.com/noah-isme/backend-resto/internal/coupon"
	"github.com/noah-isme/backend-resto/internal/delivery"
	"github.com/noah-isme/backend-resto/internal/lock"
	"github.com/noah-isme/backend-resto/internal/pricing"
)

var (
	// ErrInvalidSession is returned for malformed session ids.
	ErrInvalidSession = errors.New("cart: invalid session")
	// ErrLineNotFound is returned when a line id is not in the cart.
	ErrLineNotFound = errors.New("cart: line not found")
	// ErrInvalidInput is returned when the provided payload is invalid.
	ErrInvalidInput = errors.New("cart: invalid input")
)

const lockTTL = 5 * time.Second

// ProductSource resolves active menu products.
type ProductSource interface {
	Product(ctx context.Context, id int64) (catalog.Product, error)
}

// CouponValidator previews coupon discounts.
type CouponValidator interface {
	Validate(ctx context.Context, code string, subtotal decimal.Decimal) (coupon.Result, error)
}

// Locker serialises writers of the same session.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// Service encapsulates cart domain operations.
type Service struct {
	Store    Store
	Products ProductSource
	Coupons  CouponValidator
	Lock     Locker
	Now      func() time.Time
	Logger   *zerolog.Logger
}

// AddItemInput is a product with its chosen extras.
type AddItemInput struct {
	ProductID int64          `json:"product_id" validate:"required,gt=0"`
	Quantity  int            `json:"quantity" validate:"gte=0,lte=99"`
	Picks     []catalog.Pick `json:"options"`
	Note      string         `json:"note" validate:"max=280"`
}

// QuoteInput selects the coupon and delivery zone to price with.
type QuoteInput struct {
	CouponCode     string `json:"coupon_code"`
	DeliveryMethod string `json:"delivery_method" validate:"omitempty,oneof=delivery pickup"`
	ZoneID         int    `json:"zone_id"`
}

// Quote is the priced cart. CouponMessage carries a rejection or the
// accepted discount text; rejections never fail the quote.
type Quote struct {
	pricing.Quote
	CouponCode    string `json:"coupon_code,omitempty"`
	CouponMessage string `json:"coupon_message,omitempty"`
	CouponApplied bool   `json:"coupon_applied"`
}

// NewSession returns a fresh session id.
func NewSession() string {
	return uuid.NewString()
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Get loads the cart for session.
func (s *Service) Get(ctx context.Context, session string) (Cart, error) {
	if err := checkSession(session); err != nil {
		return Cart{}, err
	}
	return s.Store.Load(ctx, session)
}

// AddItem resolves the product and its options against the live menu and
// merges the resulting line into the cart.
func (s *Service) AddItem(ctx context.Context, session string, in AddItemInput) (Cart, error) {
	if s.Products == nil {
		return Cart{}, errors.New("cart: product source not configured")
	}
	product, err := s.Products.Product(ctx, in.ProductID)
	if err != nil {
		return Cart{}, err
	}
	sel, err := catalog.Resolve(product, in.Picks)
	if err != nil {
		return Cart{}, err
	}
	line := Line{
		ProductID: product.ID,
		Name:      product.Name,
		ImageURL:  product.ImageURL,
		UnitPrice: sel.UnitPrice(product.Price),
		Quantity:  in.Quantity,
		Options:   sel.Options(),
		Note:      strings.TrimSpace(in.Note),
		Offer:     product.Offer,
	}
	return s.mutate(ctx, session, func(c *Cart) error {
		c.Add(line)
		return nil
	})
}

// UpdateQuantity sets a line quantity; quantities below 1 leave the cart
// unchanged and quantities above MaxQuantity are rejected.
func (s *Service) UpdateQuantity(ctx context.Context, session, lineID string, qty int) (Cart, error) {
	if qty > MaxQuantity {
		return Cart{}, fmt.Errorf("%w: quantity above %d", ErrInvalidInput, MaxQuantity)
	}
	return s.mutate(ctx, session, func(c *Cart) error {
		if qty < 1 {
			return nil
		}
		if !c.UpdateQuantity(lineID, qty) {
			return ErrLineNotFound
		}
		return nil
	})
}

// RemoveLine drops a line.
func (s *Service) RemoveLine(ctx context.Context, session, lineID string) (Cart, error) {
	return s.mutate(ctx, session, func(c *Cart) error {
		if !c.Remove(lineID) {
			return ErrLineNotFound
		}
		return nil
	})
}

// Clear deletes the session cart.
func (s *Service) Clear(ctx context.Context, session string) error {
	if err := checkSession(session); err != nil {
		return err
	}
	return s.Store.Delete(ctx, session)
}

// Quote prices the cart. An unknown zone is an input error; a rejected
// coupon only sets CouponMessage.
func (s *Service) Quote(ctx context.Context, session string, in QuoteInput) (Quote, error) {
	c, err := s.Get(ctx, session)
	if err != nil {
		return Quote{}, err
	}
	return s.QuoteCart(ctx, c, in)
}

// QuoteCart prices an already loaded cart.
func (s *Service) QuoteCart(ctx context.Context, c Cart, in QuoteInput) (Quote, error) {
	method := in.DeliveryMethod
	if method == "" {
		method = delivery.MethodPickup
	}
	fee, err := delivery.Fee(method, in.ZoneID)
	if err != nil {
		return Quote{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	input := pricing.Input{Lines: c.PricingLines(), DeliveryMethod: method, DeliveryFee: fee}
	out := Quote{}
	code := coupon.NormalizeCode(in.CouponCode)
	if code != "" && s.Coupons != nil {
		out.CouponCode = code
		res, err := s.Coupons.Validate(ctx, code, c.Total())
		switch {
		case err == nil:
			input.Coupon = res.Coupon.Terms()
			out.CouponApplied = true
			out.CouponMessage = res.Message
		case coupon.IsRejection(err):
			out.CouponMessage = err.Error()
		default:
			return Quote{}, err
		}
	}
	out.Quote = pricing.Compute(input)
	return out, nil
}

func (s *Service) mutate(ctx context.Context, session string, fn func(c *Cart) error) (Cart, error) {
	if err := checkSession(session); err != nil {
		return Cart{}, err
	}
	var out Cart
	apply := func(ctx context.Context) error {
		c, err := s.Store.Load(ctx, session)
		if err != nil {
			return err
		}
		if err := fn(&c); err != nil {
			return err
		}
		c.UpdatedAt = s.now()
		if err := s.Store.Save(ctx, c); err != nil {
			return err
		}
		out = c
		return nil
	}
	var err error
	if s.Lock == nil {
		err = apply(ctx)
	} else {
		err = s.Lock.WithLock(ctx, lock.Key("cart", session), lockTTL, apply)
	}
	if err != nil {
		return Cart{}, err
	}
	return out, nil
}

func checkSession(session string) error {
	if _, err := uuid.Parse(session); err != nil {
		return ErrInvalidSession
	}
	return nil
}
