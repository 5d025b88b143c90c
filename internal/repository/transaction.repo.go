package repository

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"github.com/PerfZero/smsatlra/internal/domain"
	"github.com/PerfZero/smsatlra/internal/xerrors"
)

type TransactionRepository struct {
	db *pgxpool.Pool
}

func NewTransactionRepository(db *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// BeginTx starts the db transaction wrapping one reconciliation or deposit
// mutation sequence.
func (r *TransactionRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.db.Begin(ctx)
}

func (r *TransactionRepository) CreateTx(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	if t.ID == "" {
		t.ID = ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	t.UpdatedAt = t.CreatedAt

	query := `INSERT INTO transactions
			  (id, user_id, transaction_number, source_message_id, amount, type, status,
			   description, goal_id, relative_id, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := tx.Exec(ctx, query,
		t.ID, t.UserID, t.TransactionNumber, t.SourceMessageID, t.Amount,
		t.Type, t.Status, t.Description, t.GoalID, t.RelativeID,
		t.CreatedAt, t.UpdatedAt)
	if err != nil && xerrors.ParsePGErrorCode(err) == "23505" {
		return xerrors.ErrDuplicateTransfer
	}
	return err
}

func (r *TransactionRepository) UpdateStatusTx(ctx context.Context, tx pgx.Tx, id, status string) error {
	query := `UPDATE transactions SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := tx.Exec(ctx, query, status, id)
	return err
}

// ExistsBySourceMessage reports whether a mailbox message has already been
// reconciled. source_message_id carries a unique index; this is the primary
// dedup key.
func (r *TransactionRepository) ExistsBySourceMessage(ctx context.Context, messageID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM transactions WHERE source_message_id = $1)`
	err := r.db.QueryRow(ctx, query, messageID).Scan(&exists)
	return exists, err
}

// ExistsByNumber is the secondary dedup key: bank payment ids repeat across
// resent notifications even when the message id differs.
func (r *TransactionRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM transactions WHERE transaction_number = $1)`
	err := r.db.QueryRow(ctx, query, number).Scan(&exists)
	return exists, err
}

// CountCompletedDeposits is the authoritative first-deposit check. The
// balance flag is only a cache of this count.
func (r *TransactionRepository) CountCompletedDeposits(ctx context.Context, userID int64) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM transactions
			  WHERE user_id = $1 AND type = $2 AND status = $3`
	err := r.db.QueryRow(ctx, query, userID, domain.TxTypeDeposit, domain.TxStatusCompleted).Scan(&n)
	return n, err
}

func (r *TransactionRepository) CountCreatedToday(ctx context.Context, now time.Time) (int, error) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var n int
	query := `SELECT COUNT(*) FROM transactions WHERE created_at >= $1 AND created_at < $2`
	err := r.db.QueryRow(ctx, query, dayStart, dayStart.AddDate(0, 0, 1)).Scan(&n)
	return n, err
}

func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	query := `SELECT id, user_id, transaction_number, source_message_id, amount, type, status,
				description, goal_id, relative_id, created_at, updated_at
			  FROM transactions WHERE id = $1`
	var t domain.Transaction
	err := r.db.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.UserID, &t.TransactionNumber, &t.SourceMessageID, &t.Amount,
		&t.Type, &t.Status, &t.Description, &t.GoalID, &t.RelativeID,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ListByUser returns the user's ledger newest-first with goal and relative
// context joined in for history rendering.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Transaction, error) {
	query := `SELECT t.id, t.user_id, t.transaction_number, t.source_message_id, t.amount,
				t.type, t.status, t.description, t.goal_id, t.relative_id, t.created_at, t.updated_at,
				g.target_amount, g.current_amount,
				r.id, r.full_name, r.iin
			  FROM transactions t
			  LEFT JOIN goals g ON g.id = t.goal_id
			  LEFT JOIN relatives r ON r.id = t.relative_id
			  WHERE t.user_id = $1
			  ORDER BY t.created_at DESC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []*domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		var goalTarget, goalCurrent *float64
		var relID *int64
		var relName, relIIN *string
		if err := rows.Scan(&t.ID, &t.UserID, &t.TransactionNumber, &t.SourceMessageID,
			&t.Amount, &t.Type, &t.Status, &t.Description, &t.GoalID, &t.RelativeID,
			&t.CreatedAt, &t.UpdatedAt,
			&goalTarget, &goalCurrent, &relID, &relName, &relIIN); err != nil {
			return nil, err
		}
		if t.GoalID != nil && goalTarget != nil {
			t.Goal = &domain.Goal{
				ID:            *t.GoalID,
				TargetAmount:  *goalTarget,
				CurrentAmount: *goalCurrent,
			}
		}
		if relID != nil {
			t.Relative = &domain.Relative{ID: *relID, FullName: *relName, IIN: *relIIN}
		}
		txs = append(txs, &t)
	}
	return txs, rows.Err()
}

// NextTransactionNumber builds the interactive-deposit number in the
// YYMMDD-NNNN[-SUFFIX] shape, NNNN being the day's sequence.
func (r *TransactionRepository) NextTransactionNumber(ctx context.Context, suffix string) (string, error) {
	now := time.Now()
	count, err := r.CountCreatedToday(ctx, now)
	if err != nil {
		return "", err
	}
	number := fmt.Sprintf("%s-%04d", now.Format("060102"), count+1)
	if suffix != "" {
		number += "-" + suffix
	}
	return number, nil
}
