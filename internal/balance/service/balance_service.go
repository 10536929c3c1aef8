package service

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"deligo/internal/dto"
	"deligo/internal/errors"
)

type TransactionManager interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

type BalanceRepository interface {
	Debit(ctx context.Context, tx *sql.Tx, userID uint, amount float64) error
	Credit(ctx context.Context, tx *sql.Tx, userID uint, amount float64) error
	Balance(ctx context.Context, userID uint) (float64, error)
}

type BalanceService struct {
	db        TransactionManager
	repo      BalanceRepository
	logger    *zap.Logger
	txTimeout time.Duration
}

func NewBalanceService(db TransactionManager, repo BalanceRepository, logger *zap.Logger, txTimeout time.Duration) *BalanceService {
	return &BalanceService{
		db:        db,
		repo:      repo,
		logger:    logger,
		txTimeout: txTimeout,
	}
}

func (s *BalanceService) Get(ctx context.Context, userID uint) (*dto.BalanceResponse, error) {
	balance, err := s.repo.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &dto.BalanceResponse{UserID: userID, Balance: balance}, nil
}

// TopUp credits the caller's own account.
func (s *BalanceService) TopUp(ctx context.Context, userID uint, amount float64) (*dto.BalanceResponse, error) {
	if amount <= 0 {
		return nil, errors.NewValidationError("amount must be positive")
	}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		return s.repo.Credit(ctx, tx, userID, amount)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("balance topped up", zap.Uint("userId", userID), zap.Float64("amount", amount))
	return s.Get(ctx, userID)
}

// Withdraw debits earnings from the caller's account. Shippers use this to
// take out accumulated shipping fees.
func (s *BalanceService) Withdraw(ctx context.Context, userID uint, amount float64) (*dto.BalanceResponse, error) {
	if amount <= 0 {
		return nil, errors.NewValidationError("amount must be positive")
	}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		return s.repo.Debit(ctx, tx, userID, amount)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("balance withdrawn", zap.Uint("userId", userID), zap.Float64("amount", amount))
	return s.Get(ctx, userID)
}

func (s *BalanceService) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	txCtx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(txCtx, nil)
	if err != nil {
		s.logger.Error("failed to begin transaction", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}
