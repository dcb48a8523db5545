package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/postroute/postal-service/internal/domain"
)

type userRepository struct {
	db DBTX
}

const userSelect = `
        SELECT u.id, u.username, u.email, u.first_name, u.last_name, u.password_hash,
               u.created_at, u.updated_at, r.id, r.name
        FROM users u
        LEFT JOIN user_roles ur ON ur.user_id = u.id
        LEFT JOIN roles r ON r.id = ur.role_id`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (username, email, first_name, last_name, password_hash)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`

	return translate(r.db.QueryRow(ctx, query,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt))
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET username=$1, email=$2, first_name=$3, last_name=$4, password_hash=$5, updated_at=NOW()
        WHERE id=$6`

	return requireAffected(r.db.Exec(ctx, query,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		user.ID,
	))
}

func (r *userRepository) Delete(ctx context.Context, id int64) error {
	return requireAffected(r.db.Exec(ctx, `DELETE FROM users WHERE id=$1`, id))
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.fetchSingle(ctx, userSelect+` WHERE u.id=$1`, id)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.fetchSingle(ctx, userSelect+` WHERE u.username=$1`, username)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.fetchSingle(ctx, userSelect+` WHERE u.email=$1`, email)
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.Query(ctx, userSelect+` ORDER BY u.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}

func (r *userRepository) SetRole(ctx context.Context, userID, roleID int64) error {
	const query = `
        INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)
        ON CONFLICT (user_id) DO UPDATE SET role_id = EXCLUDED.role_id`
	_, err := r.db.Exec(ctx, query, userID, roleID)
	return translate(err)
}

func (r *userRepository) CountByRole(ctx context.Context, roleID int64) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM user_roles WHERE role_id=$1`, roleID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, translate(err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user     domain.User
		roleID   *int64
		roleName *string
	)
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
		&roleID,
		&roleName,
	); err != nil {
		return nil, err
	}
	if roleID != nil && roleName != nil {
		user.Role = &domain.Role{ID: *roleID, Name: *roleName}
	}
	return &user, nil
}
