package reconcile

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/PerfZero/smsatlra/internal/domain"
)

type UserStore interface {
	GetByIIN(ctx context.Context, iin string) (*domain.User, error)
	UpdateContact(ctx context.Context, tx pgx.Tx, id int64, name, phone string) error
}

type RelativeStore interface {
	GetByIINForUser(ctx context.Context, iin string, userID int64) (*domain.Relative, error)
}

type GoalStore interface {
	GetPersonalGoal(ctx context.Context, userID int64) (*domain.Goal, error)
	FirstForRelative(ctx context.Context, relativeID int64) (*domain.Goal, error)
	IncrementCurrent(ctx context.Context, tx pgx.Tx, goalID int64, amount float64) error
}

type BalanceStore interface {
	CreditTx(ctx context.Context, tx pgx.Tx, userID int64, amount float64) error
	AwardBonusTx(ctx context.Context, tx pgx.Tx, userID int64, bonus float64) error
}

type TransactionStore interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
	CreateTx(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error
	ExistsBySourceMessage(ctx context.Context, messageID string) (bool, error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)
	CountCompletedDeposits(ctx context.Context, userID int64) (int, error)
}

// Notifier publishes a transaction event to any live subscriber connections.
// Implementations must be fire-and-forget.
type Notifier interface {
	PublishTransaction(userID int64, tx *domain.Transaction, user *domain.User, relative *domain.Relative)
}

type SMSSender interface {
	Send(ctx context.Context, phone, message string) error
}
