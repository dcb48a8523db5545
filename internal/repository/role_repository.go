package repository

import (
	"context"

	"github.com/postroute/postal-service/internal/domain"
)

type roleRepository struct {
	db DBTX
}

func (r *roleRepository) Create(ctx context.Context, role *domain.Role) error {
	return translate(r.db.QueryRow(ctx, `INSERT INTO roles (name) VALUES ($1) RETURNING id`, role.Name).Scan(&role.ID))
}

func (r *roleRepository) Update(ctx context.Context, role *domain.Role) error {
	return requireAffected(r.db.Exec(ctx, `UPDATE roles SET name=$1 WHERE id=$2`, role.Name, role.ID))
}

func (r *roleRepository) Delete(ctx context.Context, id int64) error {
	return requireAffected(r.db.Exec(ctx, `DELETE FROM roles WHERE id=$1`, id))
}

func (r *roleRepository) GetByID(ctx context.Context, id int64) (*domain.Role, error) {
	var role domain.Role
	if err := r.db.QueryRow(ctx, `SELECT id, name FROM roles WHERE id=$1`, id).Scan(&role.ID, &role.Name); err != nil {
		return nil, translate(err)
	}
	return &role, nil
}

func (r *roleRepository) GetByName(ctx context.Context, name string) (*domain.Role, error) {
	var role domain.Role
	if err := r.db.QueryRow(ctx, `SELECT id, name FROM roles WHERE name=$1`, name).Scan(&role.ID, &role.Name); err != nil {
		return nil, translate(err)
	}
	return &role, nil
}

func (r *roleRepository) List(ctx context.Context) ([]domain.Role, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM roles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Role{}
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, err
		}
		result = append(result, role)
	}
	return result, rows.Err()
}
