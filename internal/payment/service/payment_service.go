package service

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"deligo/internal/domain"
	"deligo/internal/dto"
	"deligo/internal/errors"
	"deligo/internal/payment/repository"
)

type TransactionManager interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

type PaymentRepository interface {
	Insert(ctx context.Context, q repository.Querier, p *domain.Payment) (uint, error)
	Delete(ctx context.Context, q repository.Querier, id uint) error
	FindByID(ctx context.Context, q repository.Querier, id uint) (*domain.Payment, error)
	FindByOrderID(ctx context.Context, q repository.Querier, orderID uint) (*domain.Payment, error)
	ListByUser(ctx context.Context, userID uint, status *domain.PaymentStatus) ([]domain.Payment, error)
	UpdateStatusIf(ctx context.Context, q repository.Querier, id uint, from, to domain.PaymentStatus) (bool, error)
}

type BalanceRepository interface {
	Debit(ctx context.Context, tx *sql.Tx, userID uint, amount float64) error
	Credit(ctx context.Context, tx *sql.Tx, userID uint, amount float64) error
}

type OrderPaymentAttacher interface {
	AttachPayment(ctx context.Context, tx *sql.Tx, orderID, paymentID uint) error
}

type PaymentService struct {
	db        TransactionManager
	sqlDB     *sql.DB
	payments  PaymentRepository
	balances  BalanceRepository
	orders    OrderPaymentAttacher
	logger    *zap.Logger
	txTimeout time.Duration
}

func NewPaymentService(
	db *sql.DB,
	payments PaymentRepository,
	balances BalanceRepository,
	orders OrderPaymentAttacher,
	logger *zap.Logger,
	txTimeout time.Duration,
) *PaymentService {
	return &PaymentService{
		db:        db,
		sqlDB:     db,
		payments:  payments,
		balances:  balances,
		orders:    orders,
		logger:    logger,
		txTimeout: txTimeout,
	}
}

// Create settles a freshly created order in one transaction: the payment row
// is inserted, the buyer's balance debited when paying by balance, and the
// payment attached to the order. Any failure leaves no payment behind; the
// caller then compensates by deleting the order.
func (s *PaymentService) Create(ctx context.Context, orderID, userID uint, amount float64, method domain.PaymentMethod) (*domain.Payment, error) {
	if amount < 0 {
		return nil, errors.NewValidationError("payment amount must be non-negative")
	}
	if !domain.ValidPaymentMethod(string(method)) {
		return nil, errors.NewValidationError("unknown payment method")
	}

	txCtx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(txCtx, nil)
	if err != nil {
		return nil, errors.NewInternalError("failed to begin payment transaction", err)
	}
	defer tx.Rollback()

	payment := &domain.Payment{
		OrderID: orderID,
		UserID:  userID,
		Amount:  amount,
		Method:  method,
		Status:  domain.PaymentStatusPending,
	}

	paymentID, err := s.payments.Insert(txCtx, tx, payment)
	if err != nil {
		return nil, err
	}
	payment.ID = paymentID

	if method == domain.PaymentMethodBalance {
		if err := s.balances.Debit(txCtx, tx, userID, amount); err != nil {
			return nil, err
		}
		if _, err := s.payments.UpdateStatusIf(txCtx, tx, paymentID, domain.PaymentStatusPending, domain.PaymentStatusPaid); err != nil {
			return nil, err
		}
		payment.Status = domain.PaymentStatusPaid
	}

	if err := s.orders.AttachPayment(txCtx, tx, orderID, paymentID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternalError("failed to commit payment transaction", err)
	}

	s.logger.Info("payment created",
		zap.Uint("paymentId", paymentID),
		zap.Uint("orderId", orderID),
		zap.String("method", string(method)),
		zap.String("status", string(payment.Status)),
	)

	return payment, nil
}

// Delete removes a payment during order-creation rollback.
func (s *PaymentService) Delete(ctx context.Context, paymentID uint) error {
	return s.payments.Delete(ctx, s.sqlDB, paymentID)
}

// MarkPaid moves a pending payment to Paid. Calling it on an already-paid
// payment is a no-op so COD completion can retry safely.
func (s *PaymentService) MarkPaid(ctx context.Context, paymentID uint) error {
	moved, err := s.payments.UpdateStatusIf(ctx, s.sqlDB, paymentID, domain.PaymentStatusPending, domain.PaymentStatusPaid)
	if err != nil {
		return err
	}
	if moved {
		return nil
	}

	payment, err := s.payments.FindByID(ctx, s.sqlDB, paymentID)
	if err != nil {
		return err
	}
	if payment.Status == domain.PaymentStatusPaid {
		return nil
	}
	return errors.NewGuardViolationError("payment cannot be marked paid", string(payment.Status))
}

// MarkFailedTx fails a pending payment inside the caller's transaction.
// Already-failed payments are left alone.
func (s *PaymentService) MarkFailedTx(ctx context.Context, tx *sql.Tx, paymentID uint) error {
	moved, err := s.payments.UpdateStatusIf(ctx, tx, paymentID, domain.PaymentStatusPending, domain.PaymentStatusFailed)
	if err != nil {
		return err
	}
	if moved {
		return nil
	}

	payment, err := s.payments.FindByID(ctx, tx, paymentID)
	if err != nil {
		return err
	}
	if payment.Status == domain.PaymentStatusFailed {
		return nil
	}
	return errors.NewGuardViolationError("payment cannot be marked failed", string(payment.Status))
}

// RefundTx refunds a paid payment inside the caller's transaction and
// credits the payer. A second refund of the same payment is a no-op, never
// a double credit. The bool reports whether a credit happened.
func (s *PaymentService) RefundTx(ctx context.Context, tx *sql.Tx, paymentID uint) (*domain.Payment, bool, error) {
	payment, err := s.payments.FindByID(ctx, tx, paymentID)
	if err != nil {
		return nil, false, err
	}
	if payment.Status == domain.PaymentStatusRefunded {
		return payment, false, nil
	}

	moved, err := s.payments.UpdateStatusIf(ctx, tx, paymentID, domain.PaymentStatusPaid, domain.PaymentStatusRefunded)
	if err != nil {
		return nil, false, err
	}
	if !moved {
		return nil, false, errors.NewGuardViolationError("payment cannot be refunded", string(payment.Status))
	}

	if err := s.balances.Credit(ctx, tx, payment.UserID, payment.Amount); err != nil {
		return nil, false, err
	}

	payment.Status = domain.PaymentStatusRefunded
	return payment, true, nil
}

// CancelTx settles a payment during order cancellation, inside the caller's
// transaction. Paid payments are refunded with a balance credit, pending
// ones are failed, terminal ones are left untouched. The bool reports
// whether a refund credit happened.
func (s *PaymentService) CancelTx(ctx context.Context, tx *sql.Tx, paymentID uint) (*domain.Payment, bool, error) {
	payment, err := s.payments.FindByID(ctx, tx, paymentID)
	if err != nil {
		return nil, false, err
	}

	switch payment.Status {
	case domain.PaymentStatusPaid:
		return s.RefundTx(ctx, tx, paymentID)
	case domain.PaymentStatusPending:
		if err := s.MarkFailedTx(ctx, tx, paymentID); err != nil {
			return nil, false, err
		}
		payment.Status = domain.PaymentStatusFailed
		return payment, false, nil
	default:
		return payment, false, nil
	}
}

func (s *PaymentService) Get(ctx context.Context, requesterID uint, requesterRole domain.Role, paymentID uint) (*dto.PaymentResponse, error) {
	payment, err := s.payments.FindByID(ctx, s.sqlDB, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.UserID != requesterID && requesterRole != domain.RoleAdmin {
		return nil, errors.NewForbiddenError("payment belongs to another user")
	}
	return toPaymentResponse(payment), nil
}

func (s *PaymentService) GetByOrder(ctx context.Context, requesterID uint, requesterRole domain.Role, orderID uint) (*dto.PaymentResponse, error) {
	payment, err := s.payments.FindByOrderID(ctx, s.sqlDB, orderID)
	if err != nil {
		return nil, err
	}
	if payment.UserID != requesterID && requesterRole != domain.RoleAdmin {
		return nil, errors.NewForbiddenError("payment belongs to another user")
	}
	return toPaymentResponse(payment), nil
}

func (s *PaymentService) ListMine(ctx context.Context, userID uint, status *string) ([]dto.PaymentResponse, error) {
	var filter *domain.PaymentStatus
	if status != nil && *status != "" {
		ps := domain.PaymentStatus(*status)
		switch ps {
		case domain.PaymentStatusPending, domain.PaymentStatusPaid, domain.PaymentStatusFailed, domain.PaymentStatusRefunded:
			filter = &ps
		default:
			return nil, errors.NewValidationError("unknown payment status")
		}
	}

	payments, err := s.payments.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	result := make([]dto.PaymentResponse, 0, len(payments))
	for i := range payments {
		result = append(result, *toPaymentResponse(&payments[i]))
	}
	return result, nil
}

func toPaymentResponse(p *domain.Payment) *dto.PaymentResponse {
	return &dto.PaymentResponse{
		ID:        p.ID,
		OrderID:   p.OrderID,
		UserID:    p.UserID,
		Amount:    p.Amount,
		Method:    string(p.Method),
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
