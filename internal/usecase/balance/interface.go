package balance

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/PerfZero/smsatlra/internal/domain"
)

// TransactionStore is the ledger slice the deposit flow needs. BeginTx opens
// the unit of work every mutation in one deposit shares.
type TransactionStore interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
	CreateTx(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error
	UpdateStatusTx(ctx context.Context, tx pgx.Tx, id, status string) error
	CountCompletedDeposits(ctx context.Context, userID int64) (int, error)
	NextTransactionNumber(ctx context.Context, suffix string) (string, error)
}

type GoalStore interface {
	GetByIDForUser(ctx context.Context, id, userID int64) (*domain.Goal, error)
	GetPersonalGoal(ctx context.Context, userID int64) (*domain.Goal, error)
	IncrementCurrent(ctx context.Context, tx pgx.Tx, goalID int64, amount float64) error
	GetByID(ctx context.Context, id int64) (*domain.Goal, error)
}

type BalanceStore interface {
	Get(ctx context.Context, userID int64) (*domain.Balance, error)
	CreditTx(ctx context.Context, tx pgx.Tx, userID int64, amount float64) error
	AwardBonusTx(ctx context.Context, tx pgx.Tx, userID int64, bonus float64) error
}
