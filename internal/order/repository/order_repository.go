package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"deligo/internal/domain"
	"deligo/internal/errors"
)

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

type MySQLOrderRepository struct {
	db *sql.DB
}

func NewMySQLOrderRepository(db *sql.DB) *MySQLOrderRepository {
	return &MySQLOrderRepository{db: db}
}

// Create persists the order and its items in one transaction and returns the
// new order id. Checkout compensates with Delete if payment settlement fails
// afterwards.
func (r *MySQLOrderRepository) Create(ctx context.Context, order *domain.Order) (uint, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning order insert transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO Orders (
			userId, restaurantId, userFullname, userPhone,
			restaurantName, restaurantAddress, restaurantHotline,
			address, note, subtotal, shippingFee, discount, totalAmount,
			promoId, paymentMethod, status, isReviewed, refunded, refundedAmount,
			createdAt, updatedAt
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0, 0, NOW(), NOW())
	`

	result, err := tx.ExecContext(ctx, query,
		order.UserID, order.RestaurantID, order.UserFullname, order.UserPhone,
		order.RestaurantName, order.RestaurantAddress, order.RestaurantHotline,
		order.Address, order.Note, order.Subtotal, order.ShippingFee,
		order.Discount, order.TotalAmount, order.PromoID, order.PaymentMethod,
		order.Status,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting order: %w", err)
	}

	orderID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading order insert id: %w", err)
	}

	itemQuery := `
		INSERT INTO OrderItems (orderId, foodName, quantity, unitPrice, subtotal, status)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	for _, item := range order.Items {
		_, err := tx.ExecContext(ctx, itemQuery,
			orderID, item.FoodName, item.Quantity, item.UnitPrice, item.Subtotal, item.Status,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing order insert: %w", err)
	}

	return uint(orderID), nil
}

// Delete hard-deletes an order and its children. Creation rollback only.
func (r *MySQLOrderRepository) Delete(ctx context.Context, orderID uint) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning order delete transaction: %w", err)
	}
	defer tx.Rollback()

	for _, query := range []string{
		`DELETE FROM OrderItems WHERE orderId = ?`,
		`DELETE FROM OrderRejections WHERE orderId = ?`,
		`DELETE FROM Orders WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, query, orderID); err != nil {
			return fmt.Errorf("deleting order: %w", err)
		}
	}

	return tx.Commit()
}

const orderColumns = `id, userId, restaurantId, shipperId, paymentId,
	userFullname, userPhone, restaurantName, restaurantAddress, restaurantHotline,
	address, note, subtotal, shippingFee, discount, totalAmount,
	promoId, paymentMethod, status, isReviewed,
	refunded, refundedAmount, refundedAt, cancelledBy, cancellationReason,
	pickedAt, createdAt, updatedAt`

func scanOrder(scan func(dest ...interface{}) error) (*domain.Order, error) {
	var o domain.Order
	err := scan(
		&o.ID, &o.UserID, &o.RestaurantID, &o.ShipperID, &o.PaymentID,
		&o.UserFullname, &o.UserPhone, &o.RestaurantName, &o.RestaurantAddress, &o.RestaurantHotline,
		&o.Address, &o.Note, &o.Subtotal, &o.ShippingFee, &o.Discount, &o.TotalAmount,
		&o.PromoID, &o.PaymentMethod, &o.Status, &o.IsReviewed,
		&o.Refunded, &o.RefundedAmount, &o.RefundedAt, &o.CancelledBy, &o.CancellationReason,
		&o.PickedAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// FindByID returns the order hydrated with its items and rejection history.
func (r *MySQLOrderRepository) FindByID(ctx context.Context, orderID uint) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM Orders WHERE id = ?`, orderColumns)

	row := r.db.QueryRowContext(ctx, query, orderID)
	order, err := scanOrder(row.Scan)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("order with id %d not found", orderID))
	}
	if err != nil {
		return nil, fmt.Errorf("querying order by id: %w", err)
	}

	orders := []*domain.Order{order}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	if err := r.attachRejections(ctx, order); err != nil {
		return nil, err
	}

	return order, nil
}

// AttachPayment links the settled payment to the order. A cancellation that
// lands between the order insert and payment settlement makes the attach
// fail, so the caller's compensation path fires instead of leaving a paid
// payment on a cancelled order.
func (r *MySQLOrderRepository) AttachPayment(ctx context.Context, tx *sql.Tx, orderID, paymentID uint) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE Orders SET paymentId = ?, updatedAt = NOW() WHERE id = ? AND status != ?`,
		paymentID, orderID, domain.OrderStatusCancelled,
	)
	if err != nil {
		return fmt.Errorf("attaching payment to order: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if affected == 0 {
		var status domain.OrderStatus
		err := tx.QueryRowContext(ctx, `SELECT status FROM Orders WHERE id = ?`, orderID).Scan(&status)
		if err == sql.ErrNoRows {
			return errors.NewNotFoundError(fmt.Sprintf("order with id %d not found", orderID))
		}
		if err != nil {
			return fmt.Errorf("reading order status: %w", err)
		}
		return errors.NewConflictError("order was cancelled before payment settlement")
	}

	return nil
}

// AcceptIf assigns the order to a shipper with a conditional update. Exactly
// one of any number of concurrent shippers wins the row.
func (r *MySQLOrderRepository) AcceptIf(ctx context.Context, orderID, shipperID uint) (bool, error) {
	query := `
		UPDATE Orders
		SET status = ?, shipperId = ?, pickedAt = NOW(), updatedAt = NOW()
		WHERE id = ? AND status = ? AND shipperId IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		domain.OrderStatusShipping, shipperID, orderID, domain.OrderStatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("accepting order: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading affected rows: %w", err)
	}

	return affected > 0, nil
}

// CompleteIf finishes a shipping order held by the given shipper.
func (r *MySQLOrderRepository) CompleteIf(ctx context.Context, orderID, shipperID uint) (bool, error) {
	query := `
		UPDATE Orders
		SET status = ?, updatedAt = NOW()
		WHERE id = ? AND status = ? AND shipperId = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		domain.OrderStatusCompleted, orderID, domain.OrderStatusShipping, shipperID,
	)
	if err != nil {
		return false, fmt.Errorf("completing order: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading affected rows: %w", err)
	}

	return affected > 0, nil
}

// Release hands a shipping order back to the pending pool and appends the
// rejection entry. The history row keeps the order out of this shipper's
// feed permanently.
func (r *MySQLOrderRepository) Release(ctx context.Context, orderID, shipperID uint, reason *string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning release transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE Orders
		SET status = ?, shipperId = NULL, pickedAt = NULL, updatedAt = NOW()
		WHERE id = ? AND status = ? AND shipperId = ?
	`

	result, err := tx.ExecContext(ctx, query,
		domain.OrderStatusPending, orderID, domain.OrderStatusShipping, shipperID,
	)
	if err != nil {
		return false, fmt.Errorf("releasing order: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading affected rows: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO OrderRejections (orderId, shipperId, reason, rejectedAt) VALUES (?, ?, ?, NOW())`,
		orderID, shipperID, reason,
	)
	if err != nil {
		return false, fmt.Errorf("recording rejection: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing release: %w", err)
	}

	return true, nil
}

// CancelIf moves the order to Cancelled when its current status is one of
// the allowed ones. The conditional update decides concurrent races: the
// loser sees zero affected rows.
func (r *MySQLOrderRepository) CancelIf(ctx context.Context, q Querier, orderID uint, allowed []domain.OrderStatus, cancelledBy string, reason *string) (bool, error) {
	placeholders := make([]string, len(allowed))
	args := []interface{}{domain.OrderStatusCancelled, cancelledBy, reason, orderID}
	for i, status := range allowed {
		placeholders[i] = "?"
		args = append(args, status)
	}

	query := fmt.Sprintf(`
		UPDATE Orders
		SET status = ?, cancelledBy = ?, cancellationReason = ?, updatedAt = NOW()
		WHERE id = ? AND status IN (%s)
	`, strings.Join(placeholders, ", "))

	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("cancelling order: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading affected rows: %w", err)
	}

	return affected > 0, nil
}

// CancelItems marks all items of a cancelled order as cancelled.
func (r *MySQLOrderRepository) CancelItems(ctx context.Context, q Querier, orderID uint) error {
	_, err := q.ExecContext(ctx,
		`UPDATE OrderItems SET status = ? WHERE orderId = ?`,
		domain.OrderItemCancelled, orderID,
	)
	if err != nil {
		return fmt.Errorf("cancelling order items: %w", err)
	}
	return nil
}

// MarkRefunded flags the order after its payment was refunded.
func (r *MySQLOrderRepository) MarkRefunded(ctx context.Context, q Querier, orderID uint, amount float64) error {
	_, err := q.ExecContext(ctx,
		`UPDATE Orders SET refunded = 1, refundedAmount = ?, refundedAt = NOW(), updatedAt = NOW() WHERE id = ?`,
		amount, orderID,
	)
	if err != nil {
		return fmt.Errorf("marking order refunded: %w", err)
	}
	return nil
}

func (r *MySQLOrderRepository) ListByUser(ctx context.Context, userID uint, status *domain.OrderStatus) ([]*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM Orders WHERE userId = ?`, orderColumns)
	args := []interface{}{userID}
	if status != nil {
		query += ` AND status = ?`
		args = append(args, *status)
	}
	query += ` ORDER BY createdAt DESC`

	return r.queryOrders(ctx, query, args...)
}

func (r *MySQLOrderRepository) ListByRestaurant(ctx context.Context, restaurantID uint, status *domain.OrderStatus) ([]*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM Orders WHERE restaurantId = ?`, orderColumns)
	args := []interface{}{restaurantID}
	if status != nil {
		query += ` AND status = ?`
		args = append(args, *status)
	}
	query += ` ORDER BY createdAt DESC`

	return r.queryOrders(ctx, query, args...)
}

func (r *MySQLOrderRepository) ListByShipper(ctx context.Context, shipperID uint, status *domain.OrderStatus) ([]*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM Orders WHERE shipperId = ?`, orderColumns)
	args := []interface{}{shipperID}
	if status != nil {
		query += ` AND status = ?`
		args = append(args, *status)
	}
	query += ` ORDER BY createdAt DESC`

	return r.queryOrders(ctx, query, args...)
}

func (r *MySQLOrderRepository) ListAll(ctx context.Context, status *domain.OrderStatus) ([]*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM Orders`, orderColumns)
	var args []interface{}
	if status != nil {
		query += ` WHERE status = ?`
		args = append(args, *status)
	}
	query += ` ORDER BY createdAt DESC`

	return r.queryOrders(ctx, query, args...)
}

// ListPendingForShipper returns unassigned pending orders, excluding any the
// shipper has previously rejected.
func (r *MySQLOrderRepository) ListPendingForShipper(ctx context.Context, shipperID uint) ([]*domain.Order, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM Orders o
		WHERE o.status = ?
		  AND o.shipperId IS NULL
		  AND NOT EXISTS (
			SELECT 1 FROM OrderRejections rej
			WHERE rej.orderId = o.id AND rej.shipperId = ?
		  )
		ORDER BY o.createdAt ASC
	`, orderColumns)

	return r.queryOrders(ctx, query, domain.OrderStatusPending, shipperID)
}

func (r *MySQLOrderRepository) queryOrders(ctx context.Context, query string, args ...interface{}) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order rows: %w", err)
	}

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *MySQLOrderRepository) attachItems(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	index := make(map[uint]*domain.Order, len(orders))
	placeholders := make([]string, len(orders))
	args := make([]interface{}, len(orders))
	for i, o := range orders {
		index[o.ID] = o
		placeholders[i] = "?"
		args[i] = o.ID
	}

	query := fmt.Sprintf(`
		SELECT id, orderId, foodName, quantity, unitPrice, subtotal, status
		FROM OrderItems WHERE orderId IN (%s)
		ORDER BY id ASC
	`, strings.Join(placeholders, ", "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("querying order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.FoodName, &item.Quantity,
			&item.UnitPrice, &item.Subtotal, &item.Status)
		if err != nil {
			return fmt.Errorf("scanning order item row: %w", err)
		}
		if order, ok := index[item.OrderID]; ok {
			order.Items = append(order.Items, item)
		}
	}

	return rows.Err()
}

func (r *MySQLOrderRepository) attachRejections(ctx context.Context, order *domain.Order) error {
	query := `
		SELECT id, orderId, shipperId, reason, rejectedAt
		FROM OrderRejections WHERE orderId = ?
		ORDER BY rejectedAt ASC
	`

	rows, err := r.db.QueryContext(ctx, query, order.ID)
	if err != nil {
		return fmt.Errorf("querying order rejections: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entry domain.RejectionEntry
		err := rows.Scan(&entry.ID, &entry.OrderID, &entry.ShipperID, &entry.Reason, &entry.RejectedAt)
		if err != nil {
			return fmt.Errorf("scanning rejection row: %w", err)
		}
		order.Rejections = append(order.Rejections, entry)
	}

	return rows.Err()
}

// ShipperStats aggregates the shipper dashboard numbers in one pass.
func (r *MySQLOrderRepository) ShipperStats(ctx context.Context, shipperID uint) (*domain.ShipperStats, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(status = 'Pending'), 0),
			COALESCE(SUM(status = 'Shipping'), 0),
			COALESCE(SUM(status = 'Completed'), 0),
			COALESCE(SUM(status = 'Cancelled'), 0),
			COALESCE(SUM(CASE WHEN status = 'Completed' THEN shippingFee ELSE 0 END), 0)
		FROM Orders
		WHERE shipperId = ?
	`

	var stats domain.ShipperStats
	err := r.db.QueryRowContext(ctx, query, shipperID).Scan(
		&stats.TotalOrders, &stats.PendingOrders, &stats.ShippingOrders,
		&stats.CompletedOrders, &stats.CancelledOrders, &stats.TotalRevenue,
	)
	if err != nil {
		return nil, fmt.Errorf("querying shipper stats: %w", err)
	}

	return &stats, nil
}

// ShipperMonthlyRevenue returns per-month completed order counts and earned
// shipping fees for one year.
func (r *MySQLOrderRepository) ShipperMonthlyRevenue(ctx context.Context, shipperID uint, year int) ([]domain.MonthRevenue, error) {
	query := `
		SELECT MONTH(updatedAt), COUNT(*), COALESCE(SUM(shippingFee), 0)
		FROM Orders
		WHERE shipperId = ? AND status = 'Completed' AND YEAR(updatedAt) = ?
		GROUP BY MONTH(updatedAt)
		ORDER BY MONTH(updatedAt)
	`

	rows, err := r.db.QueryContext(ctx, query, shipperID, year)
	if err != nil {
		return nil, fmt.Errorf("querying monthly revenue: %w", err)
	}
	defer rows.Close()

	var months []domain.MonthRevenue
	for rows.Next() {
		var m domain.MonthRevenue
		if err := rows.Scan(&m.Month, &m.Orders, &m.Revenue); err != nil {
			return nil, fmt.Errorf("scanning monthly revenue row: %w", err)
		}
		months = append(months, m)
	}

	return months, rows.Err()
}

// ShipperMonthRevenue returns one month's completed order count and earnings.
func (r *MySQLOrderRepository) ShipperMonthRevenue(ctx context.Context, shipperID uint, year, month int) (*domain.MonthRevenue, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(shippingFee), 0)
		FROM Orders
		WHERE shipperId = ? AND status = 'Completed'
		  AND YEAR(updatedAt) = ? AND MONTH(updatedAt) = ?
	`

	m := domain.MonthRevenue{Month: month}
	err := r.db.QueryRowContext(ctx, query, shipperID, year, month).Scan(&m.Orders, &m.Revenue)
	if err != nil {
		return nil, fmt.Errorf("querying month revenue: %w", err)
	}

	return &m, nil
}

// MissingRedemptions finds non-cancelled orders carrying a voucher whose
// redemption row never landed. The reconciler repairs these.
func (r *MySQLOrderRepository) MissingRedemptions(ctx context.Context, limit int) ([]domain.Redemption, error) {
	query := `
		SELECT o.promoId, o.userId
		FROM Orders o
		WHERE o.promoId IS NOT NULL
		  AND o.status != 'Cancelled'
		  AND NOT EXISTS (
			SELECT 1 FROM VoucherRedemptions vr
			WHERE vr.promoId = o.promoId AND vr.userId = o.userId
		  )
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying missing redemptions: %w", err)
	}
	defer rows.Close()

	var missing []domain.Redemption
	for rows.Next() {
		var red domain.Redemption
		if err := rows.Scan(&red.PromoID, &red.UserID); err != nil {
			return nil, fmt.Errorf("scanning redemption row: %w", err)
		}
		missing = append(missing, red)
	}

	return missing, rows.Err()
}
