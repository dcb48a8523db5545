package repository

import (
	"context"

	"github.com/postroute/postal-service/internal/domain"
)

type carRepository struct {
	db DBTX
}

func (r *carRepository) Create(ctx context.Context, car *domain.Car) error {
	const query = `INSERT INTO cars (model, number) VALUES ($1,$2) RETURNING id`
	return translate(r.db.QueryRow(ctx, query, car.Model, car.Number).Scan(&car.ID))
}

func (r *carRepository) Update(ctx context.Context, car *domain.Car) error {
	const query = `UPDATE cars SET model=$1, number=$2 WHERE id=$3`
	return requireAffected(r.db.Exec(ctx, query, car.Model, car.Number, car.ID))
}

func (r *carRepository) Delete(ctx context.Context, id int64) error {
	return requireAffected(r.db.Exec(ctx, `DELETE FROM cars WHERE id=$1`, id))
}

func (r *carRepository) GetByID(ctx context.Context, id int64) (*domain.Car, error) {
	var car domain.Car
	err := r.db.QueryRow(ctx, `SELECT id, model, number FROM cars WHERE id=$1`, id).
		Scan(&car.ID, &car.Model, &car.Number)
	if err != nil {
		return nil, translate(err)
	}
	return &car, nil
}

func (r *carRepository) List(ctx context.Context) ([]domain.Car, error) {
	rows, err := r.db.Query(ctx, `SELECT id, model, number FROM cars ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Car{}
	for rows.Next() {
		var car domain.Car
		if err := rows.Scan(&car.ID, &car.Model, &car.Number); err != nil {
			return nil, err
		}
		result = append(result, car)
	}
	return result, rows.Err()
}
