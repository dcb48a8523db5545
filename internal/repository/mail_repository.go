package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/postroute/postal-service/internal/domain"
)

type mailRepository struct {
	db DBTX
}

const mailSelect = `
        SELECT m.id, m.person_from, m.person_to, m.address_to,
               m.current_branch_id, m.branch_stock_address, m.current_car_id,
               m.source_branch_id, m.destination_branch_id, m.state, m.created_at, m.updated_at,
               sb.name, sb.address, db.name, db.address,
               cb.name, cb.address, c.model, c.number
        FROM mail_items m
        JOIN branches sb ON sb.id = m.source_branch_id
        JOIN branches db ON db.id = m.destination_branch_id
        LEFT JOIN branches cb ON cb.id = m.current_branch_id
        LEFT JOIN cars c ON c.id = m.current_car_id`

func (r *mailRepository) Create(ctx context.Context, mail *domain.MailItem) error {
	const query = `
        INSERT INTO mail_items (person_from, person_to, address_to, current_branch_id, branch_stock_address,
            current_car_id, source_branch_id, destination_branch_id, state)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		mail.PersonFrom,
		mail.PersonTo,
		mail.AddressTo,
		mail.CurrentBranchID,
		mail.BranchStockAddress,
		mail.CurrentCarID,
		mail.SourceBranchID,
		mail.DestinationBranchID,
		mail.State,
	).Scan(&mail.ID, &mail.CreatedAt, &mail.UpdatedAt)
	return translate(err)
}

func (r *mailRepository) Update(ctx context.Context, mail *domain.MailItem) error {
	const query = `
        UPDATE mail_items SET person_from=$1, person_to=$2, address_to=$3, current_branch_id=$4,
            branch_stock_address=$5, current_car_id=$6, destination_branch_id=$7, state=$8, updated_at=NOW()
        WHERE id=$9`
	return requireAffected(r.db.Exec(ctx, query,
		mail.PersonFrom,
		mail.PersonTo,
		mail.AddressTo,
		mail.CurrentBranchID,
		mail.BranchStockAddress,
		mail.CurrentCarID,
		mail.DestinationBranchID,
		mail.State,
		mail.ID,
	))
}

func (r *mailRepository) GetByID(ctx context.Context, id int64) (*domain.MailItem, error) {
	mail, err := scanMail(r.db.QueryRow(ctx, mailSelect+` WHERE m.id=$1`, id))
	if err != nil {
		return nil, translate(err)
	}
	return mail, nil
}

func (r *mailRepository) List(ctx context.Context, filter MailQuery) ([]domain.MailItem, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if len(filter.States) > 0 {
		placeholders := make([]string, len(filter.States))
		for i, state := range filter.States {
			args = append(args, state)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("m.state IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CurrentBranchID != nil {
		args = append(args, *filter.CurrentBranchID)
		clauses = append(clauses, fmt.Sprintf("m.current_branch_id=$%d", len(args)))
	}
	if filter.CurrentCarID != nil {
		args = append(args, *filter.CurrentCarID)
		clauses = append(clauses, fmt.Sprintf("m.current_car_id=$%d", len(args)))
	}
	if filter.DestinationBranchID != nil {
		args = append(args, *filter.DestinationBranchID)
		clauses = append(clauses, fmt.Sprintf("m.destination_branch_id=$%d", len(args)))
	}
	if filter.ExcludeDestinationBranchID != nil {
		args = append(args, *filter.ExcludeDestinationBranchID)
		clauses = append(clauses, fmt.Sprintf("m.destination_branch_id<>$%d", len(args)))
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY m.id`, mailSelect, strings.Join(clauses, " AND "))
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.MailItem{}
	for rows.Next() {
		mail, err := scanMail(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *mail)
	}
	return result, rows.Err()
}

func (r *mailRepository) CountRoutedThrough(ctx context.Context, branchID int64) (int, error) {
	const query = `SELECT COUNT(*) FROM mail_items WHERE source_branch_id=$1 OR destination_branch_id=$1`
	var count int
	if err := r.db.QueryRow(ctx, query, branchID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanMail(row pgx.Row) (*domain.MailItem, error) {
	var (
		mail                     domain.MailItem
		sourceBranch, destBranch domain.Branch
		curName, curAddress      *string
		carModel, carNumber      *string
	)
	if err := row.Scan(
		&mail.ID,
		&mail.PersonFrom,
		&mail.PersonTo,
		&mail.AddressTo,
		&mail.CurrentBranchID,
		&mail.BranchStockAddress,
		&mail.CurrentCarID,
		&mail.SourceBranchID,
		&mail.DestinationBranchID,
		&mail.State,
		&mail.CreatedAt,
		&mail.UpdatedAt,
		&sourceBranch.Name,
		&sourceBranch.Address,
		&destBranch.Name,
		&destBranch.Address,
		&curName,
		&curAddress,
		&carModel,
		&carNumber,
	); err != nil {
		return nil, err
	}
	sourceBranch.ID = mail.SourceBranchID
	destBranch.ID = mail.DestinationBranchID
	mail.SourceBranch = &sourceBranch
	mail.DestinationBranch = &destBranch
	if mail.CurrentBranchID != nil && curName != nil {
		mail.CurrentBranch = &domain.Branch{ID: *mail.CurrentBranchID, Name: *curName, Address: deref(curAddress)}
	}
	if mail.CurrentCarID != nil && carModel != nil {
		mail.CurrentCar = &domain.Car{ID: *mail.CurrentCarID, Model: *carModel, Number: deref(carNumber)}
	}
	return &mail, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
