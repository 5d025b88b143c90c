package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PerfZero/smsatlra/internal/domain"
	"github.com/PerfZero/smsatlra/internal/xerrors"
)

type PackageRepository struct {
	db *pgxpool.Pool
}

func NewPackageRepository(db *pgxpool.Pool) *PackageRepository {
	return &PackageRepository{db: db}
}

const packageColumns = `id, name, type, tier, price, description, created_at, updated_at`

func (r *PackageRepository) List(ctx context.Context) ([]*domain.TourPackage, error) {
	rows, err := r.db.Query(ctx, `SELECT `+packageColumns+` FROM tour_packages ORDER BY price`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pkgs []*domain.TourPackage
	for rows.Next() {
		var p domain.TourPackage
		if err := rows.Scan(&p.ID, &p.Name, &p.Type, &p.Tier, &p.Price,
			&p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		pkgs = append(pkgs, &p)
	}
	return pkgs, rows.Err()
}

func (r *PackageRepository) GetByID(ctx context.Context, id int64) (*domain.TourPackage, error) {
	var p domain.TourPackage
	err := r.db.QueryRow(ctx, `SELECT `+packageColumns+` FROM tour_packages WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Type, &p.Tier, &p.Price, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PackageRepository) Create(ctx context.Context, p *domain.TourPackage) error {
	query := `INSERT INTO tour_packages (name, type, tier, price, description, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
			  RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query, p.Name, p.Type, p.Tier, p.Price, p.Description).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *PackageRepository) Update(ctx context.Context, p *domain.TourPackage) error {
	query := `UPDATE tour_packages
			  SET name = $1, type = $2, tier = $3, price = $4, description = $5, updated_at = NOW()
			  WHERE id = $6
			  RETURNING updated_at`
	err := r.db.QueryRow(ctx, query, p.Name, p.Type, p.Tier, p.Price, p.Description, p.ID).
		Scan(&p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return xerrors.ErrNotFound
	}
	return err
}

func (r *PackageRepository) Delete(ctx context.Context, id int64) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM tour_packages WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}
