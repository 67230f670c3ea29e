// Package order serves the back-office order list, status board and live feed.
package order

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/money"
)

// Order statuses. Cancelled orders leave the board and the metrics.
const (
	StatusPending   = "pending"
	StatusCooking   = "cooking"
	StatusDelivery  = "delivery"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// BoardColumns are the kanban columns in display order.
var BoardColumns = []string{StatusPending, StatusCooking, StatusDelivery, StatusCompleted}

// ValidStatus reports whether s can be written by the admin.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusCooking, StatusDelivery, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Item is an order line snapshot.
type Item struct {
	ID          int64           `json:"id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Options     string          `json:"options"`
	Note        string          `json:"note"`
}

// Extras splits the comma-joined options column.
func (i Item) Extras() []string {
	if strings.TrimSpace(i.Options) == "" {
		return nil
	}
	parts := strings.Split(i.Options, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Order is the admin view of a submitted order.
type Order struct {
	ID               int64           `json:"id"`
	CustomerName     string          `json:"customer_name"`
	CustomerPhone    string          `json:"customer_phone"`
	CustomerAddress  string          `json:"customer_address"`
	Total            decimal.Decimal `json:"total"`
	Discount         decimal.Decimal `json:"discount"`
	Status           string          `json:"status"`
	DeliveryMethod   string          `json:"delivery_method"`
	PaymentMethod    string          `json:"payment_method"`
	CouponCode       string          `json:"coupon_code,omitempty"`
	Latitude         *float64        `json:"latitude,omitempty"`
	Longitude        *float64        `json:"longitude,omitempty"`
	PaymentReference string          `json:"payment_reference,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	Items            []Item          `json:"items"`
}

// Subtotal is Σ price×qty of the items, independent of total and discount.
func (o Order) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range o.Items {
		sum = sum.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return money.Round2(sum)
}

// FromRow converts a stored order and its items.
func FromRow(row dbgen.Order, items []dbgen.OrderItem) Order {
	o := Order{
		ID:               row.ID,
		CustomerName:     row.CustomerName,
		CustomerPhone:    row.CustomerPhone,
		CustomerAddress:  row.CustomerAddress,
		Total:            money.FromNumeric(row.Total),
		Discount:         money.FromNumeric(row.Discount),
		Status:           row.Status,
		DeliveryMethod:   row.DeliveryMethod,
		PaymentMethod:    row.PaymentMethod,
		CouponCode:       row.CouponCode.String,
		PaymentReference: row.PaymentReference.String,
		CreatedAt:        row.CreatedAt.Time,
		Items:            make([]Item, 0, len(items)),
	}
	if row.Latitude.Valid && row.Longitude.Valid {
		lat, lng := row.Latitude.Float64, row.Longitude.Float64
		o.Latitude, o.Longitude = &lat, &lng
	}
	for _, it := range items {
		o.Items = append(o.Items, Item{
			ID:          it.ID,
			ProductName: it.ProductName,
			Quantity:    int(it.Quantity),
			Price:       money.FromNumeric(it.Price),
			Options:     it.Options,
			Note:        it.Note,
		})
	}
	return o
}

// Attach groups items by order id onto rows, keeping row order.
func Attach(rows []dbgen.Order, items []dbgen.OrderItem) []Order {
	byOrder := make(map[int64][]dbgen.OrderItem, len(rows))
	for _, it := range items {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}
	out := make([]Order, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromRow(row, byOrder[row.ID]))
	}
	return out
}

// IDs returns the ids of rows.
func IDs(rows []dbgen.Order) []int64 {
	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	return ids
}
