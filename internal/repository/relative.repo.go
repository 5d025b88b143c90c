package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PerfZero/smsatlra/internal/domain"
	"github.com/PerfZero/smsatlra/internal/xerrors"
)

type RelativeRepository struct {
	db *pgxpool.Pool
}

func NewRelativeRepository(db *pgxpool.Pool) *RelativeRepository {
	return &RelativeRepository{db: db}
}

const relativeColumns = `id, user_id, full_name, iin, created_at`

func scanRelative(row pgx.Row) (*domain.Relative, error) {
	var rel domain.Relative
	err := row.Scan(&rel.ID, &rel.UserID, &rel.FullName, &rel.IIN, &rel.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrRelativeNotFound
		}
		return nil, err
	}
	return &rel, nil
}

func (r *RelativeRepository) GetByIIN(ctx context.Context, iin string) (*domain.Relative, error) {
	query := `SELECT ` + relativeColumns + ` FROM relatives WHERE iin = $1`
	return scanRelative(r.db.QueryRow(ctx, query, iin))
}

// GetByIINForUser resolves a relative by IIN scoped to one owning user.
func (r *RelativeRepository) GetByIINForUser(ctx context.Context, iin string, userID int64) (*domain.Relative, error) {
	query := `SELECT ` + relativeColumns + ` FROM relatives WHERE iin = $1 AND user_id = $2`
	return scanRelative(r.db.QueryRow(ctx, query, iin, userID))
}

func (r *RelativeRepository) CreateTx(ctx context.Context, tx pgx.Tx, rel *domain.Relative) error {
	query := `INSERT INTO relatives (user_id, full_name, iin, created_at)
			  VALUES ($1, $2, $3, NOW())
			  RETURNING id, created_at`
	return tx.QueryRow(ctx, query, rel.UserID, rel.FullName, rel.IIN).
		Scan(&rel.ID, &rel.CreatedAt)
}

func (r *RelativeRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Relative, error) {
	query := `SELECT ` + relativeColumns + ` FROM relatives WHERE user_id = $1 ORDER BY created_at`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var relatives []*domain.Relative
	for rows.Next() {
		var rel domain.Relative
		if err := rows.Scan(&rel.ID, &rel.UserID, &rel.FullName, &rel.IIN, &rel.CreatedAt); err != nil {
			return nil, err
		}
		relatives = append(relatives, &rel)
	}
	return relatives, rows.Err()
}
