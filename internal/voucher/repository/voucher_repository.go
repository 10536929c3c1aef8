package repository

import (
	"context"
	"database/sql"
	"fmt"

	"deligo/internal/domain"
	"deligo/internal/errors"
)

const voucherColumns = `id, code, name, type, value, maxDiscount, minOrderAmount,
	restaurantId, firstOrderOnly, isActive, startDate, endDate, description,
	createdAt, updatedAt`

type MySQLVoucherRepository struct {
	db *sql.DB
}

func NewMySQLVoucherRepository(db *sql.DB) *MySQLVoucherRepository {
	return &MySQLVoucherRepository{db: db}
}

func (r *MySQLVoucherRepository) scanVoucher(row *sql.Row) (*domain.Voucher, error) {
	var v domain.Voucher
	err := row.Scan(
		&v.ID, &v.Code, &v.Name, &v.Type, &v.Value, &v.MaxDiscount, &v.MinOrderAmount,
		&v.RestaurantID, &v.FirstOrderOnly, &v.Active, &v.StartDate, &v.EndDate,
		&v.Description, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *MySQLVoucherRepository) FindByID(ctx context.Context, id uint) (*domain.Voucher, error) {
	query := fmt.Sprintf(`SELECT %s FROM Vouchers WHERE id = ?`, voucherColumns)

	voucher, err := r.scanVoucher(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("voucher with id %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying voucher by id: %w", err)
	}

	return voucher, nil
}

func (r *MySQLVoucherRepository) FindByCode(ctx context.Context, code string) (*domain.Voucher, error) {
	query := fmt.Sprintf(`SELECT %s FROM Vouchers WHERE code = ?`, voucherColumns)

	voucher, err := r.scanVoucher(r.db.QueryRowContext(ctx, query, code))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("voucher with code %q not found", code))
	}
	if err != nil {
		return nil, fmt.Errorf("querying voucher by code: %w", err)
	}

	return voucher, nil
}

// MarkUsed records a redemption in the ledger. The (promoId, userId) unique
// key makes the insert idempotent and gives an at-most-once guarantee even
// under concurrent checkouts with the same voucher.
func (r *MySQLVoucherRepository) MarkUsed(ctx context.Context, promoID, userID uint) error {
	query := `
		INSERT INTO VoucherRedemptions (promoId, userId, usedAt)
		VALUES (?, ?, NOW())
		ON DUPLICATE KEY UPDATE usedAt = usedAt
	`

	if _, err := r.db.ExecContext(ctx, query, promoID, userID); err != nil {
		return fmt.Errorf("marking voucher used: %w", err)
	}

	return nil
}

// RepairUsed re-inserts a redemption only while a non-cancelled order still
// carries the voucher. The INSERT...SELECT keeps the check and the write in
// one statement, so a repair racing a cancellation cannot resurrect a row
// the cancellation just released.
func (r *MySQLVoucherRepository) RepairUsed(ctx context.Context, promoID, userID uint) error {
	query := `
		INSERT INTO VoucherRedemptions (promoId, userId, usedAt)
		SELECT o.promoId, o.userId, NOW()
		FROM Orders o
		WHERE o.promoId = ? AND o.userId = ? AND o.status != ?
		LIMIT 1
		ON DUPLICATE KEY UPDATE usedAt = usedAt
	`

	if _, err := r.db.ExecContext(ctx, query, promoID, userID, domain.OrderStatusCancelled); err != nil {
		return fmt.Errorf("repairing voucher redemption: %w", err)
	}

	return nil
}

// RefundUsed removes the redemption record after a cancellation. Deleting a
// row that is already gone is a no-op, so the refund never double counts.
func (r *MySQLVoucherRepository) RefundUsed(ctx context.Context, promoID, userID uint) error {
	query := `DELETE FROM VoucherRedemptions WHERE promoId = ? AND userId = ?`

	if _, err := r.db.ExecContext(ctx, query, promoID, userID); err != nil {
		return fmt.Errorf("refunding voucher usage: %w", err)
	}

	return nil
}

func (r *MySQLVoucherRepository) HasRedeemed(ctx context.Context, promoID, userID uint) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM VoucherRedemptions WHERE promoId = ? AND userId = ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, promoID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking voucher redemption: %w", err)
	}

	return exists, nil
}

// HasFirstOrderRedemption reports whether the user has ever redeemed any
// first-order-only voucher. Cancelled orders release their redemption rows,
// so ledger presence alone answers the question.
func (r *MySQLVoucherRepository) HasFirstOrderRedemption(ctx context.Context, userID uint) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1
			FROM VoucherRedemptions vr
			JOIN Vouchers v ON v.id = vr.promoId
			WHERE vr.userId = ? AND v.firstOrderOnly = 1
		)
	`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking first-order redemption: %w", err)
	}

	return exists, nil
}

// ListAvailableForUser returns active, in-window vouchers the user has not
// redeemed yet, optionally scoped to one restaurant.
func (r *MySQLVoucherRepository) ListAvailableForUser(ctx context.Context, userID uint, restaurantID *uint) ([]domain.Voucher, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM Vouchers v
		WHERE v.isActive = 1
		  AND v.startDate <= NOW()
		  AND v.endDate >= NOW()
		  AND NOT EXISTS (
			SELECT 1 FROM VoucherRedemptions vr
			WHERE vr.promoId = v.id AND vr.userId = ?
		  )`, voucherColumns)
	args := []interface{}{userID}

	if restaurantID != nil {
		query += ` AND (v.restaurantId IS NULL OR v.restaurantId = ?)`
		args = append(args, *restaurantID)
	}
	query += ` ORDER BY v.createdAt DESC`

	return r.queryVouchers(ctx, query, args...)
}

// ListExpiredForUser returns vouchers that are inactive, past their window,
// or already redeemed by the user.
func (r *MySQLVoucherRepository) ListExpiredForUser(ctx context.Context, userID uint, restaurantID *uint) ([]domain.Voucher, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM Vouchers v
		WHERE (
			v.isActive = 0
			OR v.endDate < NOW()
			OR EXISTS (
				SELECT 1 FROM VoucherRedemptions vr
				WHERE vr.promoId = v.id AND vr.userId = ?
			)
		)`, voucherColumns)
	args := []interface{}{userID}

	if restaurantID != nil {
		query += ` AND (v.restaurantId IS NULL OR v.restaurantId = ?)`
		args = append(args, *restaurantID)
	}
	query += ` ORDER BY v.createdAt DESC`

	return r.queryVouchers(ctx, query, args...)
}

func (r *MySQLVoucherRepository) queryVouchers(ctx context.Context, query string, args ...interface{}) ([]domain.Voucher, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying vouchers: %w", err)
	}
	defer rows.Close()

	var vouchers []domain.Voucher
	for rows.Next() {
		var v domain.Voucher
		err := rows.Scan(
			&v.ID, &v.Code, &v.Name, &v.Type, &v.Value, &v.MaxDiscount, &v.MinOrderAmount,
			&v.RestaurantID, &v.FirstOrderOnly, &v.Active, &v.StartDate, &v.EndDate,
			&v.Description, &v.CreatedAt, &v.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning voucher row: %w", err)
		}
		vouchers = append(vouchers, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating voucher rows: %w", err)
	}

	return vouchers, nil
}
