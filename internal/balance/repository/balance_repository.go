package repository

import (
	"context"
	"database/sql"
	"fmt"

	"deligo/internal/errors"
)

type MySQLBalanceRepository struct {
	db *sql.DB
}

func NewMySQLBalanceRepository(db *sql.DB) *MySQLBalanceRepository {
	return &MySQLBalanceRepository{db: db}
}

// Debit subtracts amount from the user's balance as a single guarded update.
// The balance check happens server-side in the WHERE clause, so two
// concurrent checkouts can never both pass on a stale read.
func (r *MySQLBalanceRepository) Debit(ctx context.Context, tx *sql.Tx, userID uint, amount float64) error {
	if amount <= 0 {
		return errors.NewValidationError("debit amount must be positive")
	}

	query := `UPDATE Users SET balance = balance - ?, updatedAt = NOW() WHERE id = ? AND balance >= ?`

	result, err := tx.ExecContext(ctx, query, amount, userID, amount)
	if err != nil {
		return fmt.Errorf("debiting balance: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		var balance float64
		err := tx.QueryRowContext(ctx, `SELECT balance FROM Users WHERE id = ?`, userID).Scan(&balance)
		if err == sql.ErrNoRows {
			return errors.NewNotFoundError(fmt.Sprintf("user with id %d not found", userID))
		}
		if err != nil {
			return fmt.Errorf("checking balance after failed debit: %w", err)
		}
		return errors.NewInsufficientFundsError(
			fmt.Sprintf("balance %.0f is less than required amount %.0f", balance, amount))
	}

	return nil
}

// Credit adds amount to the user's balance.
func (r *MySQLBalanceRepository) Credit(ctx context.Context, tx *sql.Tx, userID uint, amount float64) error {
	if amount <= 0 {
		return errors.NewValidationError("credit amount must be positive")
	}

	query := `UPDATE Users SET balance = balance + ?, updatedAt = NOW() WHERE id = ?`

	result, err := tx.ExecContext(ctx, query, amount, userID)
	if err != nil {
		return fmt.Errorf("crediting balance: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("user with id %d not found", userID))
	}

	return nil
}

func (r *MySQLBalanceRepository) Balance(ctx context.Context, userID uint) (float64, error) {
	var balance float64
	err := r.db.QueryRowContext(ctx, `SELECT balance FROM Users WHERE id = ?`, userID).Scan(&balance)

	if err == sql.ErrNoRows {
		return 0, errors.NewNotFoundError(fmt.Sprintf("user with id %d not found", userID))
	}
	if err != nil {
		return 0, fmt.Errorf("querying balance: %w", err)
	}

	return balance, nil
}
