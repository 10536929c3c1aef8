package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	balancerepo "deligo/internal/balance/repository"
	"deligo/internal/errors"
	"deligo/internal/events"
	"deligo/internal/order/repository"
	paymentrepo "deligo/internal/payment/repository"
	paymentsvc "deligo/internal/payment/service"
	"deligo/internal/testutil"
	userrepo "deligo/internal/user/repository"
	voucherrepo "deligo/internal/voucher/repository"
	vouchersvc "deligo/internal/voucher/service"
)

// Integration Tests
//
// These run the real cancellation transaction against MySQL with the real
// payment and voucher services wired in, covering the path the unit tests
// stub out.

func newLifecycleStack(db *sql.DB) *LifecycleService {
	logger := zap.NewNop()
	orders := repository.NewMySQLOrderRepository(db)
	payments := paymentsvc.NewPaymentService(
		db,
		paymentrepo.NewMySQLPaymentRepository(db),
		balancerepo.NewMySQLBalanceRepository(db),
		orders,
		logger,
		5*time.Second,
	)
	vouchers := vouchersvc.NewVoucherService(voucherrepo.NewMySQLVoucherRepository(db), logger)
	users := userrepo.NewMySQLUserRepository(db)

	return NewLifecycleService(db, orders, payments, vouchers, users, events.NopPublisher{}, logger, 5*time.Second)
}

func seedBuyer(t *testing.T, db *sql.DB) uint {
	t.Helper()

	res, err := db.Exec(`
		INSERT INTO Users (fullname, email, role, balance)
		VALUES ('An Nguyen', 'an@example.com', 'customer', 0)
	`)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return uint(id)
}

// seedPaidBalanceOrder creates a pending order already settled from the
// buyer's balance, with a voucher redemption on the ledger.
func seedPaidBalanceOrder(t *testing.T, db *sql.DB, buyerID uint, promoID uint, amount float64) (orderID, paymentID uint) {
	t.Helper()

	res, err := db.Exec(`
		INSERT INTO Orders (
			userId, restaurantId, userFullname, restaurantName, address,
			subtotal, shippingFee, discount, totalAmount,
			promoId, paymentMethod, status
		) VALUES (?, 2, 'An Nguyen', 'Pho 24', '12 Ly Thuong Kiet',
			100000, 15000, 10000, ?, ?, 'Balance', 'Pending')
	`, buyerID, amount, promoID)
	require.NoError(t, err)
	oid, err := res.LastInsertId()
	require.NoError(t, err)
	orderID = uint(oid)

	_, err = db.Exec(`
		INSERT INTO OrderItems (orderId, foodName, quantity, unitPrice, subtotal, status)
		VALUES (?, 'Pho Bo', 2, 50000, 100000, 'Pending')
	`, orderID)
	require.NoError(t, err)

	res, err = db.Exec(`
		INSERT INTO Payments (orderId, userId, amount, method, status)
		VALUES (?, ?, ?, 'Balance', 'Paid')
	`, orderID, buyerID, amount)
	require.NoError(t, err)
	pid, err := res.LastInsertId()
	require.NoError(t, err)
	paymentID = uint(pid)

	_, err = db.Exec(`UPDATE Orders SET paymentId = ? WHERE id = ?`, paymentID, orderID)
	require.NoError(t, err)

	_, err = db.Exec(`
		INSERT INTO VoucherRedemptions (promoId, userId, usedAt)
		VALUES (?, ?, NOW())
	`, promoID, buyerID)
	require.NoError(t, err)

	return orderID, paymentID
}

func TestCancelByUser_PaidBalanceOrder_RefundsCreditsAndReleasesVoucher(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	svc := newLifecycleStack(db)
	buyerID := seedBuyer(t, db)
	orderID, paymentID := seedPaidBalanceOrder(t, db, buyerID, 7, 105000)

	reason := "changed my mind"
	resp, err := svc.CancelByUser(context.Background(), buyerID, orderID, &reason)

	require.NoError(t, err)
	assert.Equal(t, "Cancelled", resp.Status)
	assert.True(t, resp.Refunded)
	assert.Equal(t, 105000.0, resp.RefundedAmount)
	assert.NotNil(t, resp.RefundedAt)
	require.NotNil(t, resp.CancelledBy)
	assert.Equal(t, "user", *resp.CancelledBy)
	require.NotNil(t, resp.CancellationReason)
	assert.Equal(t, reason, *resp.CancellationReason)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Cancelled", resp.Items[0].Status)

	var paymentStatus string
	require.NoError(t, db.QueryRow(`SELECT status FROM Payments WHERE id = ?`, paymentID).Scan(&paymentStatus))
	assert.Equal(t, "Refunded", paymentStatus)

	// The refund credited the buyer exactly once.
	var balance float64
	require.NoError(t, db.QueryRow(`SELECT balance FROM Users WHERE id = ?`, buyerID).Scan(&balance))
	assert.Equal(t, 105000.0, balance)

	// The voucher redemption was released for reuse.
	var redemptions int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM VoucherRedemptions WHERE promoId = ? AND userId = ?`, 7, buyerID,
	).Scan(&redemptions))
	assert.Equal(t, 0, redemptions)
}

func TestCancelByUser_SecondCancelIsGuarded(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	svc := newLifecycleStack(db)
	buyerID := seedBuyer(t, db)
	orderID, _ := seedPaidBalanceOrder(t, db, buyerID, 7, 105000)

	_, err := svc.CancelByUser(context.Background(), buyerID, orderID, nil)
	require.NoError(t, err)

	_, err = svc.CancelByUser(context.Background(), buyerID, orderID, nil)
	require.Error(t, err)
	_, ok := errors.IsGuardViolationError(err)
	assert.True(t, ok)

	// The balance was not credited a second time.
	var balance float64
	require.NoError(t, db.QueryRow(`SELECT balance FROM Users WHERE id = ?`, buyerID).Scan(&balance))
	assert.Equal(t, 105000.0, balance)
}

func TestCancelByUser_PendingPaymentFailsWithoutCredit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	svc := newLifecycleStack(db)
	buyerID := seedBuyer(t, db)
	orderID, paymentID := seedPaidBalanceOrder(t, db, buyerID, 7, 105000)

	// A COD-style payment still awaiting settlement.
	_, err := db.Exec(`UPDATE Payments SET status = 'Pending', method = 'COD' WHERE id = ?`, paymentID)
	require.NoError(t, err)

	resp, err := svc.CancelByUser(context.Background(), buyerID, orderID, nil)

	require.NoError(t, err)
	assert.Equal(t, "Cancelled", resp.Status)
	assert.False(t, resp.Refunded)
	assert.Equal(t, 0.0, resp.RefundedAmount)

	var paymentStatus string
	require.NoError(t, db.QueryRow(`SELECT status FROM Payments WHERE id = ?`, paymentID).Scan(&paymentStatus))
	assert.Equal(t, "Failed", paymentStatus)

	var balance float64
	require.NoError(t, db.QueryRow(`SELECT balance FROM Users WHERE id = ?`, buyerID).Scan(&balance))
	assert.Equal(t, 0.0, balance)
}
