package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PerfZero/smsatlra/internal/domain"
	"github.com/PerfZero/smsatlra/internal/xerrors"
)

type GoalRepository struct {
	db *pgxpool.Pool
}

func NewGoalRepository(db *pgxpool.Pool) *GoalRepository {
	return &GoalRepository{db: db}
}

const goalColumns = `id, user_id, relative_id, type, package_type,
	target_amount, current_amount, monthly_target, created_at, updated_at`

func scanGoal(row pgx.Row) (*domain.Goal, error) {
	var g domain.Goal
	err := row.Scan(&g.ID, &g.UserID, &g.RelativeID, &g.Type, &g.PackageType,
		&g.TargetAmount, &g.CurrentAmount, &g.MonthlyTarget, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrGoalNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (r *GoalRepository) Create(ctx context.Context, g *domain.Goal) error {
	query := `INSERT INTO goals
			  (user_id, relative_id, type, package_type, target_amount, current_amount, monthly_target, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, 0, $6, NOW(), NOW())
			  RETURNING id, current_amount, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		g.UserID, g.RelativeID, g.Type, g.PackageType, g.TargetAmount, g.MonthlyTarget).
		Scan(&g.ID, &g.CurrentAmount, &g.CreatedAt, &g.UpdatedAt)
}

func (r *GoalRepository) CreateTx(ctx context.Context, tx pgx.Tx, g *domain.Goal) error {
	query := `INSERT INTO goals
			  (user_id, relative_id, type, package_type, target_amount, current_amount, monthly_target, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, 0, $6, NOW(), NOW())
			  RETURNING id, current_amount, created_at, updated_at`
	return tx.QueryRow(ctx, query,
		g.UserID, g.RelativeID, g.Type, g.PackageType, g.TargetAmount, g.MonthlyTarget).
		Scan(&g.ID, &g.CurrentAmount, &g.CreatedAt, &g.UpdatedAt)
}

func (r *GoalRepository) GetByID(ctx context.Context, id int64) (*domain.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE id = $1`
	return scanGoal(r.db.QueryRow(ctx, query, id))
}

func (r *GoalRepository) GetByIDForUser(ctx context.Context, id, userID int64) (*domain.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE id = $1 AND user_id = $2`
	return scanGoal(r.db.QueryRow(ctx, query, id, userID))
}

// GetPersonalGoal returns the user's goal that is not tied to a relative.
// The schema enforces at most one such row per user.
func (r *GoalRepository) GetPersonalGoal(ctx context.Context, userID int64) (*domain.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE user_id = $1 AND relative_id IS NULL`
	return scanGoal(r.db.QueryRow(ctx, query, userID))
}

func (r *GoalRepository) FirstForRelative(ctx context.Context, relativeID int64) (*domain.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE relative_id = $1 ORDER BY created_at LIMIT 1`
	return scanGoal(r.db.QueryRow(ctx, query, relativeID))
}

// IncrementCurrent adds to the goal progress as an atomic in-place update.
func (r *GoalRepository) IncrementCurrent(ctx context.Context, tx pgx.Tx, goalID int64, amount float64) error {
	query := `UPDATE goals
			  SET current_amount = current_amount + $1, updated_at = NOW()
			  WHERE id = $2`
	_, err := tx.Exec(ctx, query, amount, goalID)
	return err
}

func (r *GoalRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Goal, error) {
	query := `SELECT g.id, g.user_id, g.relative_id, g.type, g.package_type,
				g.target_amount, g.current_amount, g.monthly_target, g.created_at, g.updated_at,
				r.id, r.user_id, r.full_name, r.iin, r.created_at
			  FROM goals g
			  LEFT JOIN relatives r ON r.id = g.relative_id
			  WHERE g.user_id = $1
			  ORDER BY g.created_at`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []*domain.Goal
	for rows.Next() {
		var g domain.Goal
		var relID, relUserID *int64
		var relName, relIIN *string
		var relCreated *time.Time
		if err := rows.Scan(&g.ID, &g.UserID, &g.RelativeID, &g.Type, &g.PackageType,
			&g.TargetAmount, &g.CurrentAmount, &g.MonthlyTarget, &g.CreatedAt, &g.UpdatedAt,
			&relID, &relUserID, &relName, &relIIN, &relCreated); err != nil {
			return nil, err
		}
		if relID != nil {
			g.Relative = &domain.Relative{
				ID:        *relID,
				UserID:    *relUserID,
				FullName:  *relName,
				IIN:       *relIIN,
				CreatedAt: *relCreated,
			}
		}
		goals = append(goals, &g)
	}
	return goals, rows.Err()
}
