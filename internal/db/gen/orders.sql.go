package gen

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, customer_name, customer_phone, customer_address, total, discount, status,
       delivery_method, payment_method, coupon_code, latitude, longitude, payment_reference, created_at`

func scanOrder(row interface{ Scan(...any) error }, i *Order) error {
	return row.Scan(
		&i.ID, &i.CustomerName, &i.CustomerPhone, &i.CustomerAddress, &i.Total, &i.Discount, &i.Status,
		&i.DeliveryMethod, &i.PaymentMethod, &i.CouponCode, &i.Latitude, &i.Longitude, &i.PaymentReference, &i.CreatedAt,
	)
}

func collectOrders(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
	Close()
}) ([]Order, error) {
	defer rows.Close()
	items := []Order{}
	for rows.Next() {
		var i Order
		if err := scanOrder(rows, &i); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createOrder = `-- name: CreateOrder :one
INSERT INTO orders (
    customer_name, customer_phone, customer_address, total, discount, status,
    delivery_method, payment_method, coupon_code, latitude, longitude
) VALUES ($1, $2, $3, $4, $5, 'pending', $6, $7, $8, $9, $10)
RETURNING ` + orderColumns + `
`

type CreateOrderParams struct {
	CustomerName    string         `json:"customer_name"`
	CustomerPhone   string         `json:"customer_phone"`
	CustomerAddress string         `json:"customer_address"`
	Total           pgtype.Numeric `json:"total"`
	Discount        pgtype.Numeric `json:"discount"`
	DeliveryMethod  string         `json:"delivery_method"`
	PaymentMethod   string         `json:"payment_method"`
	CouponCode      pgtype.Text    `json:"coupon_code"`
	Latitude        pgtype.Float8  `json:"latitude"`
	Longitude       pgtype.Float8  `json:"longitude"`
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.CustomerName, arg.CustomerPhone, arg.CustomerAddress, arg.Total, arg.Discount,
		arg.DeliveryMethod, arg.PaymentMethod, arg.CouponCode, arg.Latitude, arg.Longitude,
	)
	var i Order
	err := scanOrder(row, &i)
	return i, err
}

const createOrderItem = `-- name: CreateOrderItem :one
INSERT INTO order_items (order_id, product_name, quantity, price, options, note)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, order_id, product_name, quantity, price, options, note
`

type CreateOrderItemParams struct {
	OrderID     int64          `json:"order_id"`
	ProductName string         `json:"product_name"`
	Quantity    int32          `json:"quantity"`
	Price       pgtype.Numeric `json:"price"`
	Options     string         `json:"options"`
	Note        string         `json:"note"`
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, createOrderItem, arg.OrderID, arg.ProductName, arg.Quantity, arg.Price, arg.Options, arg.Note)
	var i OrderItem
	err := row.Scan(&i.ID, &i.OrderID, &i.ProductName, &i.Quantity, &i.Price, &i.Options, &i.Note)
	return i, err
}

const getOrder = `-- name: GetOrder :one
SELECT ` + orderColumns + ` FROM orders WHERE id = $1
`

func (q *Queries) GetOrder(ctx context.Context, id int64) (Order, error) {
	row := q.db.QueryRow(ctx, getOrder, id)
	var i Order
	err := scanOrder(row, &i)
	return i, err
}

const listOrders = `-- name: ListOrders :many
SELECT ` + orderColumns + `
FROM orders
WHERE ($1::text = '' OR status = $1)
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3
`

type ListOrdersParams struct {
	Status string `json:"status"`
	Limit  int32  `json:"limit"`
	Offset int32  `json:"offset"`
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrders, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

const countOrders = `-- name: CountOrders :one
SELECT count(*) FROM orders WHERE ($1::text = '' OR status = $1)
`

func (q *Queries) CountOrders(ctx context.Context, status string) (int64, error) {
	row := q.db.QueryRow(ctx, countOrders, status)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const listOrdersInRange = `-- name: ListOrdersInRange :many
SELECT ` + orderColumns + `
FROM orders
WHERE status <> 'cancelled' AND created_at >= $1 AND created_at <= $2
ORDER BY created_at DESC, id DESC
`

type ListOrdersInRangeParams struct {
	Start pgtype.Timestamptz `json:"start"`
	End   pgtype.Timestamptz `json:"end"`
}

func (q *Queries) ListOrdersInRange(ctx context.Context, arg ListOrdersInRangeParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersInRange, arg.Start, arg.End)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

const listRecentOrdersInRange = `-- name: ListRecentOrdersInRange :many
SELECT ` + orderColumns + `
FROM orders
WHERE status <> 'cancelled' AND created_at >= $1 AND created_at <= $2
ORDER BY created_at DESC, id DESC
LIMIT $3
`

type ListRecentOrdersInRangeParams struct {
	Start pgtype.Timestamptz `json:"start"`
	End   pgtype.Timestamptz `json:"end"`
	Limit int32              `json:"limit"`
}

func (q *Queries) ListRecentOrdersInRange(ctx context.Context, arg ListRecentOrdersInRangeParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listRecentOrdersInRange, arg.Start, arg.End, arg.Limit)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

const listOrderItemsByOrderIDs = `-- name: ListOrderItemsByOrderIDs :many
SELECT id, order_id, product_name, quantity, price, options, note
FROM order_items
WHERE order_id = ANY($1::bigint[])
ORDER BY order_id, id
`

func (q *Queries) ListOrderItemsByOrderIDs(ctx context.Context, orderIDs []int64) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrderIDs, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []OrderItem{}
	for rows.Next() {
		var i OrderItem
		if err := rows.Scan(&i.ID, &i.OrderID, &i.ProductName, &i.Quantity, &i.Price, &i.Options, &i.Note); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateOrderStatus = `-- name: UpdateOrderStatus :one
UPDATE orders SET status = $2 WHERE id = $1
RETURNING ` + orderColumns + `
`

type UpdateOrderStatusParams struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderStatus, arg.ID, arg.Status)
	var i Order
	err := scanOrder(row, &i)
	return i, err
}

const updateOrderPaymentReference = `-- name: UpdateOrderPaymentReference :exec
UPDATE orders SET payment_reference = $2 WHERE id = $1
`

type UpdateOrderPaymentReferenceParams struct {
	ID               int64       `json:"id"`
	PaymentReference pgtype.Text `json:"payment_reference"`
}

func (q *Queries) UpdateOrderPaymentReference(ctx context.Context, arg UpdateOrderPaymentReferenceParams) error {
	_, err := q.db.Exec(ctx, updateOrderPaymentReference, arg.ID, arg.PaymentReference)
	return err
}

const getDashboardMetrics = `-- name: GetDashboardMetrics :one
SELECT get_dashboard_metrics($1, $2, $3)
`

type GetDashboardMetricsParams struct {
	Start pgtype.Timestamptz `json:"start"`
	End   pgtype.Timestamptz `json:"end"`
	TZ    string             `json:"tz"`
}

// GetDashboardMetrics returns the raw JSON document built by the
// get_dashboard_metrics SQL function.
func (q *Queries) GetDashboardMetrics(ctx context.Context, arg GetDashboardMetricsParams) ([]byte, error) {
	row := q.db.QueryRow(ctx, getDashboardMetrics, arg.Start, arg.End, arg.TZ)
	var payload []byte
	err := row.Scan(&payload)
	return payload, err
}
