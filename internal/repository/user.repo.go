package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PerfZero/smsatlra/internal/domain"
	"github.com/PerfZero/smsatlra/internal/xerrors"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, iin, phone, password, name, role, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.IIN, &u.Phone, &u.Password, &u.Name, &u.Role,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	query := `INSERT INTO users (iin, phone, password, name, role, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
			  RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query, u.IIN, u.Phone, u.Password, u.Name, u.Role).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *UserRepository) GetByIIN(ctx context.Context, iin string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE iin = $1`
	return scanUser(r.db.QueryRow(ctx, query, iin))
}

func (r *UserRepository) GetByIINOrPhone(ctx context.Context, iin, phone string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE iin = $1 OR phone = $2 LIMIT 1`
	return scanUser(r.db.QueryRow(ctx, query, iin, phone))
}

// SetCredentials completes a pre-provisioned account (created by admin
// tooling with an empty password) during registration.
func (r *UserRepository) SetCredentials(ctx context.Context, id int64, phone, password, name string) error {
	query := `UPDATE users SET phone = $1, password = $2, name = $3, updated_at = NOW() WHERE id = $4`
	_, err := r.db.Exec(ctx, query, phone, password, name, id)
	return err
}

// UpdateContact backfills name and phone learned from a payment email.
// Empty values leave the stored ones untouched.
func (r *UserRepository) UpdateContact(ctx context.Context, tx pgx.Tx, id int64, name, phone string) error {
	query := `UPDATE users
			  SET name = COALESCE(NULLIF($1, ''), name),
			      phone = COALESCE(NULLIF($2, ''), phone),
			      updated_at = NOW()
			  WHERE id = $3`
	_, err := tx.Exec(ctx, query, name, phone, id)
	return err
}

func (r *UserRepository) UpdateRole(ctx context.Context, id int64, role string) (*domain.User, error) {
	query := `UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2
			  RETURNING ` + userColumns
	return scanUser(r.db.QueryRow(ctx, query, role, id))
}

func (r *UserRepository) ListAll(ctx context.Context) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.IIN, &u.Phone, &u.Password, &u.Name,
			&u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

// DeleteCascade removes a user and everything owned by them, in referential
// dependency order: transactions, balance, goals, relatives, then the user.
func (r *UserRepository) DeleteCascade(ctx context.Context, id int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	steps := []string{
		`DELETE FROM transactions WHERE user_id = $1`,
		`DELETE FROM balances WHERE user_id = $1`,
		`DELETE FROM goals WHERE user_id = $1`,
		`DELETE FROM relatives WHERE user_id = $1`,
		`DELETE FROM users WHERE id = $1`,
	}
	for _, q := range steps {
		if _, err := tx.Exec(ctx, q, id); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
