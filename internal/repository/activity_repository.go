package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/postroute/postal-service/internal/domain"
)

type activityRepository struct {
	db DBTX
}

func (r *activityRepository) Create(ctx context.Context, entry *domain.ActivityEntry) error {
	const query = `
        INSERT INTO activities (type, message, time, user_name, mail_id, branch_id, car_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id`
	if entry.Time.IsZero() {
		entry.Time = time.Now().UTC()
	}
	return translate(r.db.QueryRow(ctx, query,
		entry.Type,
		entry.Message,
		entry.Time,
		entry.UserName,
		entry.MailID,
		entry.BranchID,
		entry.CarID,
	).Scan(&entry.ID))
}

func (r *activityRepository) List(ctx context.Context, filter ActivityQuery) ([]domain.ActivityEntry, error) {
	base := `SELECT id, type, message, time, user_name, mail_id, branch_id, car_id FROM activities`
	clauses := []string{"1=1"}
	args := []any{}

	if len(filter.Types) > 0 {
		placeholders := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			args = append(args, t)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("type IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.MailID != nil {
		args = append(args, *filter.MailID)
		clauses = append(clauses, fmt.Sprintf("mail_id=$%d", len(args)))
	}
	if filter.BranchID != nil {
		args = append(args, *filter.BranchID)
		clauses = append(clauses, fmt.Sprintf("branch_id=$%d", len(args)))
	}
	if filter.CarID != nil {
		args = append(args, *filter.CarID)
		clauses = append(clauses, fmt.Sprintf("car_id=$%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		clauses = append(clauses, fmt.Sprintf("time >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		clauses = append(clauses, fmt.Sprintf("time <= $%d", len(args)))
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY time DESC, id DESC`, base, strings.Join(clauses, " AND "))
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.ActivityEntry{}
	for rows.Next() {
		var entry domain.ActivityEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.Type,
			&entry.Message,
			&entry.Time,
			&entry.UserName,
			&entry.MailID,
			&entry.BranchID,
			&entry.CarID,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *activityRepository) DeleteBefore(ctx context.Context, cutoff time.Time) error {
	_, err := r.db.Exec(ctx, `DELETE FROM activities WHERE time < $1`, cutoff)
	return err
}
