package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deligo/internal/testutil"
)

// Unit Tests

func TestNewMySQLVoucherRepository(t *testing.T) {
	db := &sql.DB{}
	repo := NewMySQLVoucherRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

// Integration Tests

func seedVoucherOrder(t *testing.T, db *sql.DB, promoID, userID uint, status string) {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO Orders (
			userId, restaurantId, userFullname, restaurantName, address,
			subtotal, shippingFee, totalAmount, paymentMethod, promoId, status
		) VALUES (?, 2, 'An Nguyen', 'Pho 24', '12 Ly Thuong Kiet',
			100000, 15000, 105000, 'COD', ?, ?)
	`, userID, promoID, status)
	require.NoError(t, err)
}

func redemptionCount(t *testing.T, db *sql.DB, promoID, userID uint) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM VoucherRedemptions WHERE promoId = ? AND userId = ?`,
		promoID, userID).Scan(&count)
	require.NoError(t, err)
	return count
}

func TestVoucherRepository_RepairUsed_InsertsForActiveOrder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	repo := NewMySQLVoucherRepository(db)
	seedVoucherOrder(t, db, 7, 1, "Pending")

	require.NoError(t, repo.RepairUsed(context.Background(), 7, 1))
	assert.Equal(t, 1, redemptionCount(t, db, 7, 1))

	// Repairing again is a no-op, never a second row.
	require.NoError(t, repo.RepairUsed(context.Background(), 7, 1))
	assert.Equal(t, 1, redemptionCount(t, db, 7, 1))
}

func TestVoucherRepository_RepairUsed_SkipsCancelledOrder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	repo := NewMySQLVoucherRepository(db)
	seedVoucherOrder(t, db, 7, 1, "Cancelled")

	require.NoError(t, repo.RepairUsed(context.Background(), 7, 1))
	assert.Equal(t, 0, redemptionCount(t, db, 7, 1))
}

func TestVoucherRepository_RepairUsed_DoesNotResurrectReleasedRedemption(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	repo := NewMySQLVoucherRepository(db)
	seedVoucherOrder(t, db, 7, 1, "Pending")

	require.NoError(t, repo.MarkUsed(context.Background(), 7, 1))

	// Cancellation flips the order and releases the ledger row.
	_, err := db.Exec(`UPDATE Orders SET status = 'Cancelled' WHERE promoId = 7 AND userId = 1`)
	require.NoError(t, err)
	require.NoError(t, repo.RefundUsed(context.Background(), 7, 1))

	require.NoError(t, repo.RepairUsed(context.Background(), 7, 1))
	assert.Equal(t, 0, redemptionCount(t, db, 7, 1))
}

func TestVoucherRepository_MarkUsedAndRefundUsed_AreIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	repo := NewMySQLVoucherRepository(db)

	require.NoError(t, repo.MarkUsed(context.Background(), 7, 1))
	require.NoError(t, repo.MarkUsed(context.Background(), 7, 1))
	assert.Equal(t, 1, redemptionCount(t, db, 7, 1))

	require.NoError(t, repo.RefundUsed(context.Background(), 7, 1))
	require.NoError(t, repo.RefundUsed(context.Background(), 7, 1))
	assert.Equal(t, 0, redemptionCount(t, db, 7, 1))
}
