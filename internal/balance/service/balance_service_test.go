package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"deligo/internal/errors"
)

type mockBalanceRepository struct {
	DebitFunc   func(ctx context.Context, tx *sql.Tx, userID uint, amount float64) error
	CreditFunc  func(ctx context.Context, tx *sql.Tx, userID uint, amount float64) error
	BalanceFunc func(ctx context.Context, userID uint) (float64, error)
}

func (m *mockBalanceRepository) Debit(ctx context.Context, tx *sql.Tx, userID uint, amount float64) error {
	return m.DebitFunc(ctx, tx, userID, amount)
}

func (m *mockBalanceRepository) Credit(ctx context.Context, tx *sql.Tx, userID uint, amount float64) error {
	return m.CreditFunc(ctx, tx, userID, amount)
}

func (m *mockBalanceRepository) Balance(ctx context.Context, userID uint) (float64, error) {
	return m.BalanceFunc(ctx, userID)
}

func newTestBalanceService(repo BalanceRepository) *BalanceService {
	return NewBalanceService(nil, repo, zap.NewNop(), 5*time.Second)
}

func TestGet_ReturnsBalance(t *testing.T) {
	repo := &mockBalanceRepository{
		BalanceFunc: func(ctx context.Context, userID uint) (float64, error) {
			return 250000, nil
		},
	}
	svc := newTestBalanceService(repo)

	resp, err := svc.Get(context.Background(), 7)

	require.NoError(t, err)
	assert.Equal(t, uint(7), resp.UserID)
	assert.Equal(t, 250000.0, resp.Balance)
}

func TestGet_UnknownUser(t *testing.T) {
	repo := &mockBalanceRepository{
		BalanceFunc: func(ctx context.Context, userID uint) (float64, error) {
			return 0, errors.NewNotFoundError("user with id 7 not found")
		},
	}
	svc := newTestBalanceService(repo)

	_, err := svc.Get(context.Background(), 7)

	_, ok := errors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestTopUp_RejectsNonPositiveAmount(t *testing.T) {
	svc := newTestBalanceService(&mockBalanceRepository{})

	for _, amount := range []float64{0, -5000} {
		_, err := svc.TopUp(context.Background(), 7, amount)

		_, ok := errors.IsValidationError(err)
		assert.True(t, ok)
	}
}

func TestWithdraw_RejectsNonPositiveAmount(t *testing.T) {
	svc := newTestBalanceService(&mockBalanceRepository{})

	for _, amount := range []float64{0, -5000} {
		_, err := svc.Withdraw(context.Background(), 7, amount)

		_, ok := errors.IsValidationError(err)
		assert.True(t, ok)
	}
}
