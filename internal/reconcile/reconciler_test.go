package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"deligo/internal/domain"
	"deligo/internal/errors"
)

type mockOrderScanner struct {
	MissingRedemptionsFunc func(ctx context.Context, limit int) ([]domain.Redemption, error)
}

func (m *mockOrderScanner) MissingRedemptions(ctx context.Context, limit int) ([]domain.Redemption, error) {
	return m.MissingRedemptionsFunc(ctx, limit)
}

type mockRedemptionWriter struct {
	RepairUsedFunc func(ctx context.Context, promoID, userID uint) error
}

func (m *mockRedemptionWriter) RepairUsed(ctx context.Context, promoID, userID uint) error {
	return m.RepairUsedFunc(ctx, promoID, userID)
}

func TestSweep_RepairsMissingRedemptions(t *testing.T) {
	scanner := &mockOrderScanner{
		MissingRedemptionsFunc: func(ctx context.Context, limit int) ([]domain.Redemption, error) {
			return []domain.Redemption{
				{PromoID: 7, UserID: 1},
				{PromoID: 8, UserID: 2},
			}, nil
		},
	}
	var repaired []domain.Redemption
	writer := &mockRedemptionWriter{
		RepairUsedFunc: func(ctx context.Context, promoID, userID uint) error {
			repaired = append(repaired, domain.Redemption{PromoID: promoID, UserID: userID})
			return nil
		},
	}

	r := NewReconciler(scanner, writer, zap.NewNop(), time.Minute)
	count := r.Sweep(context.Background())

	assert.Equal(t, 2, count)
	assert.Len(t, repaired, 2)
}

func TestSweep_ContinuesPastWriteFailures(t *testing.T) {
	scanner := &mockOrderScanner{
		MissingRedemptionsFunc: func(ctx context.Context, limit int) ([]domain.Redemption, error) {
			return []domain.Redemption{
				{PromoID: 7, UserID: 1},
				{PromoID: 8, UserID: 2},
			}, nil
		},
	}
	writer := &mockRedemptionWriter{
		RepairUsedFunc: func(ctx context.Context, promoID, userID uint) error {
			if promoID == 7 {
				return errors.NewInternalError("write failed", nil)
			}
			return nil
		},
	}

	r := NewReconciler(scanner, writer, zap.NewNop(), time.Minute)
	count := r.Sweep(context.Background())

	assert.Equal(t, 1, count)
}

func TestSweep_ScanFailureReturnsZero(t *testing.T) {
	scanner := &mockOrderScanner{
		MissingRedemptionsFunc: func(ctx context.Context, limit int) ([]domain.Redemption, error) {
			return nil, errors.NewInternalError("storage down", nil)
		},
	}

	r := NewReconciler(scanner, &mockRedemptionWriter{}, zap.NewNop(), time.Minute)
	count := r.Sweep(context.Background())

	assert.Equal(t, 0, count)
}
