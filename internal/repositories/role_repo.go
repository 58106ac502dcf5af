package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RoleRepo is the role registry: a set of (address, role) grants. Grants are
// additive; there is no revocation path.
type RoleRepo struct {
	pool *pgxpool.Pool
}

func NewRoleRepo(pool *pgxpool.Pool) *RoleRepo {
	return &RoleRepo{pool: pool}
}

func (r *RoleRepo) HasRole(ctx context.Context, address, role string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM roles WHERE address = $1 AND role = $2)
	`, address, role).Scan(&exists)
	return exists, err
}

func (r *RoleRepo) Grant(ctx context.Context, address, role, grantedBy string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO roles (address, role, granted_by) VALUES ($1, $2, $3)
		ON CONFLICT (address, role) DO NOTHING
	`, address, role, grantedBy)
	return err
}

func (r *RoleRepo) ListByAddress(ctx context.Context, address string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT role FROM roles WHERE address = $1 ORDER BY role`, address)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, nil
}
