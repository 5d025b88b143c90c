package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PerfZero/smsatlra/internal/domain"
	"github.com/PerfZero/smsatlra/internal/xerrors"
)

type BalanceRepository struct {
	db *pgxpool.Pool
}

func NewBalanceRepository(db *pgxpool.Pool) *BalanceRepository {
	return &BalanceRepository{db: db}
}

func (r *BalanceRepository) Get(ctx context.Context, userID int64) (*domain.Balance, error) {
	query := `SELECT user_id, amount, bonus_amount, has_first_deposit, updated_at
			  FROM balances WHERE user_id = $1`
	var b domain.Balance
	err := r.db.QueryRow(ctx, query, userID).
		Scan(&b.UserID, &b.Amount, &b.BonusAmount, &b.HasFirstDeposit, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrBalanceNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *BalanceRepository) CreateZero(ctx context.Context, userID int64) error {
	query := `INSERT INTO balances (user_id, amount, bonus_amount, has_first_deposit, updated_at)
			  VALUES ($1, 0, 0, FALSE, NOW())
			  ON CONFLICT (user_id) DO NOTHING`
	_, err := r.db.Exec(ctx, query, userID)
	return err
}

// CreditTx adds to the spendable amount, creating the balance row on first
// touch. The increment is expressed in SQL so concurrent writers serialize
// on the row instead of losing updates.
func (r *BalanceRepository) CreditTx(ctx context.Context, tx pgx.Tx, userID int64, amount float64) error {
	query := `INSERT INTO balances (user_id, amount, bonus_amount, has_first_deposit, updated_at)
			  VALUES ($1, $2, 0, FALSE, NOW())
			  ON CONFLICT (user_id)
			  DO UPDATE SET amount = balances.amount + EXCLUDED.amount, updated_at = NOW()`
	_, err := tx.Exec(ctx, query, userID, amount)
	return err
}

// AwardBonusTx credits the one-time first-deposit bonus to both the
// spendable amount and the cumulative bonus counter, and flips the gate flag.
func (r *BalanceRepository) AwardBonusTx(ctx context.Context, tx pgx.Tx, userID int64, bonus float64) error {
	query := `UPDATE balances
			  SET amount = amount + $1,
			      bonus_amount = bonus_amount + $1,
			      has_first_deposit = TRUE,
			      updated_at = NOW()
			  WHERE user_id = $2`
	_, err := tx.Exec(ctx, query, bonus, userID)
	return err
}
