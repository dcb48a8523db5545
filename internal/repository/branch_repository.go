package repository

import (
	"context"

	"github.com/postroute/postal-service/internal/domain"
)

type branchRepository struct {
	db DBTX
}

func (r *branchRepository) Create(ctx context.Context, branch *domain.Branch) error {
	const query = `INSERT INTO branches (name, address) VALUES ($1,$2) RETURNING id`
	return translate(r.db.QueryRow(ctx, query, branch.Name, branch.Address).Scan(&branch.ID))
}

func (r *branchRepository) Update(ctx context.Context, branch *domain.Branch) error {
	const query = `UPDATE branches SET name=$1, address=$2 WHERE id=$3`
	return requireAffected(r.db.Exec(ctx, query, branch.Name, branch.Address, branch.ID))
}

func (r *branchRepository) Delete(ctx context.Context, id int64) error {
	return requireAffected(r.db.Exec(ctx, `DELETE FROM branches WHERE id=$1`, id))
}

func (r *branchRepository) GetByID(ctx context.Context, id int64) (*domain.Branch, error) {
	var branch domain.Branch
	err := r.db.QueryRow(ctx, `SELECT id, name, address FROM branches WHERE id=$1`, id).
		Scan(&branch.ID, &branch.Name, &branch.Address)
	if err != nil {
		return nil, translate(err)
	}
	return &branch, nil
}

func (r *branchRepository) List(ctx context.Context) ([]domain.Branch, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, address FROM branches ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Branch{}
	for rows.Next() {
		var branch domain.Branch
		if err := rows.Scan(&branch.ID, &branch.Name, &branch.Address); err != nil {
			return nil, err
		}
		result = append(result, branch)
	}
	return result, rows.Err()
}
