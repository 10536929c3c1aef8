// Package reconcile repairs the voucher redemption ledger. Marking a voucher
// used after payment is deliberately best-effort during checkout; this job
// finds non-cancelled orders whose redemption row never landed and inserts it.
package reconcile

import (
	"context"
	"time"

	"go.uber.org/zap"

	"deligo/internal/domain"
)

type OrderScanner interface {
	MissingRedemptions(ctx context.Context, limit int) ([]domain.Redemption, error)
}

type RedemptionWriter interface {
	RepairUsed(ctx context.Context, promoID, userID uint) error
}

type Reconciler struct {
	orders   OrderScanner
	vouchers RedemptionWriter
	logger   *zap.Logger
	interval time.Duration
	batch    int
}

func NewReconciler(orders OrderScanner, vouchers RedemptionWriter, logger *zap.Logger, interval time.Duration) *Reconciler {
	return &Reconciler{
		orders:   orders,
		vouchers: vouchers,
		logger:   logger,
		interval: interval,
		batch:    100,
	}
}

// Run blocks until ctx is cancelled, sweeping on every tick.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep performs one reconciliation pass and returns how many redemption
// rows were repaired.
func (r *Reconciler) Sweep(ctx context.Context) int {
	missing, err := r.orders.MissingRedemptions(ctx, r.batch)
	if err != nil {
		r.logger.Error("redemption sweep failed", zap.Error(err))
		return 0
	}

	// RepairUsed re-checks order status inside its own insert, so a sweep
	// racing a cancellation cannot resurrect a released redemption.
	repaired := 0
	for _, red := range missing {
		if err := r.vouchers.RepairUsed(ctx, red.PromoID, red.UserID); err != nil {
			r.logger.Warn("failed to repair redemption",
				zap.Uint("promoId", red.PromoID),
				zap.Uint("userId", red.UserID),
				zap.Error(err))
			continue
		}
		repaired++
	}

	if repaired > 0 {
		r.logger.Info("repaired voucher redemptions", zap.Int("count", repaired))
	}

	return repaired
}
