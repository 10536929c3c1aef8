package repository

import (
	"context"
	"database/sql"
	"fmt"

	"deligo/internal/domain"
	"deligo/internal/errors"
)

// Querier is satisfied by both *sql.DB and *sql.Tx so payment mutations can
// participate in a caller-owned transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

type MySQLPaymentRepository struct {
	db *sql.DB
}

func NewMySQLPaymentRepository(db *sql.DB) *MySQLPaymentRepository {
	return &MySQLPaymentRepository{db: db}
}

func (r *MySQLPaymentRepository) Insert(ctx context.Context, q Querier, p *domain.Payment) (uint, error) {
	query := `
		INSERT INTO Payments (orderId, userId, amount, method, status, createdAt, updatedAt)
		VALUES (?, ?, ?, ?, ?, NOW(), NOW())
	`

	result, err := q.ExecContext(ctx, query, p.OrderID, p.UserID, p.Amount, p.Method, p.Status)
	if err != nil {
		return 0, fmt.Errorf("inserting payment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading payment insert id: %w", err)
	}

	return uint(id), nil
}

// Delete removes a payment record. Only order-creation rollback uses this.
func (r *MySQLPaymentRepository) Delete(ctx context.Context, q Querier, id uint) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM Payments WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting payment: %w", err)
	}
	return nil
}

const paymentColumns = `id, orderId, userId, amount, method, status, createdAt, updatedAt`

func (r *MySQLPaymentRepository) FindByID(ctx context.Context, q Querier, id uint) (*domain.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM Payments WHERE id = ?`, paymentColumns)

	p, err := scanPayment(q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("payment with id %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying payment by id: %w", err)
	}

	return p, nil
}

func (r *MySQLPaymentRepository) FindByOrderID(ctx context.Context, q Querier, orderID uint) (*domain.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM Payments WHERE orderId = ?`, paymentColumns)

	p, err := scanPayment(q.QueryRowContext(ctx, query, orderID))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("payment for order %d not found", orderID))
	}
	if err != nil {
		return nil, fmt.Errorf("querying payment by order: %w", err)
	}

	return p, nil
}

func (r *MySQLPaymentRepository) ListByUser(ctx context.Context, userID uint, status *domain.PaymentStatus) ([]domain.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM Payments WHERE userId = ?`, paymentColumns)
	args := []interface{}{userID}

	if status != nil {
		query += ` AND status = ?`
		args = append(args, *status)
	}
	query += ` ORDER BY createdAt DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying payments by user: %w", err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		var p domain.Payment
		err := rows.Scan(
			&p.ID, &p.OrderID, &p.UserID, &p.Amount, &p.Method, &p.Status,
			&p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning payment row: %w", err)
		}
		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating payment rows: %w", err)
	}

	return payments, nil
}

// UpdateStatusIf performs a guarded status transition. It reports whether
// the payment moved, so a false return with no error means another writer
// got there first or the payment was not in the expected state.
func (r *MySQLPaymentRepository) UpdateStatusIf(ctx context.Context, q Querier, id uint, from, to domain.PaymentStatus) (bool, error) {
	query := `UPDATE Payments SET status = ?, updatedAt = NOW() WHERE id = ? AND status = ?`

	result, err := q.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return false, fmt.Errorf("updating payment status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading affected rows: %w", err)
	}

	return affected > 0, nil
}

func scanPayment(row *sql.Row) (*domain.Payment, error) {
	var p domain.Payment
	err := row.Scan(
		&p.ID, &p.OrderID, &p.UserID, &p.Amount, &p.Method, &p.Status,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
