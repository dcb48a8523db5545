package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/postroute/postal-service/internal/domain"
)

var (
	// ErrNotFound is returned when a lookup matches no record.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate record")
	// ErrReferenced is returned when a restrict foreign key blocks a delete.
	ErrReferenced = errors.New("record is referenced")
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store groups the repositories and runs units of work atomically.
type Store interface {
	Mail() MailRepository
	Activities() ActivityRepository
	Branches() BranchRepository
	Cars() CarRepository
	Users() UserRepository
	Roles() RoleRepository

	// WithinTx runs fn against a transactional view of the store. Changes are
	// committed when fn returns nil and discarded otherwise. A commit failure
	// is returned to the caller.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// MailQuery scopes a mail listing before in-memory filtering.
type MailQuery struct {
	States                     []domain.MailState
	CurrentBranchID            *int64
	CurrentCarID               *int64
	DestinationBranchID        *int64
	ExcludeDestinationBranchID *int64
}

// Matches applies the query to a single item.
func (q MailQuery) Matches(m *domain.MailItem) bool {
	if len(q.States) > 0 {
		found := false
		for _, s := range q.States {
			if m.State == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.CurrentBranchID != nil && !m.AtBranch(*q.CurrentBranchID) {
		return false
	}
	if q.CurrentCarID != nil && !m.InCar(*q.CurrentCarID) {
		return false
	}
	if q.DestinationBranchID != nil && m.DestinationBranchID != *q.DestinationBranchID {
		return false
	}
	if q.ExcludeDestinationBranchID != nil && m.DestinationBranchID == *q.ExcludeDestinationBranchID {
		return false
	}
	return true
}

// MailRepository persists mail items.
type MailRepository interface {
	Create(ctx context.Context, mail *domain.MailItem) error
	Update(ctx context.Context, mail *domain.MailItem) error
	GetByID(ctx context.Context, id int64) (*domain.MailItem, error)
	List(ctx context.Context, query MailQuery) ([]domain.MailItem, error)
	CountRoutedThrough(ctx context.Context, branchID int64) (int, error)
}

// ActivityQuery scopes an activity listing before in-memory filtering.
type ActivityQuery struct {
	Types    []domain.ActivityType
	MailID   *int64
	BranchID *int64
	CarID    *int64
	From     *time.Time
	To       *time.Time
}

// Matches applies the query to a single entry.
func (q ActivityQuery) Matches(e *domain.ActivityEntry) bool {
	if len(q.Types) > 0 {
		found := false
		for _, t := range q.Types {
			if e.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.MailID != nil && e.MailID != *q.MailID {
		return false
	}
	if q.BranchID != nil && (e.BranchID == nil || *e.BranchID != *q.BranchID) {
		return false
	}
	if q.CarID != nil && (e.CarID == nil || *e.CarID != *q.CarID) {
		return false
	}
	if q.From != nil && e.Time.Before(*q.From) {
		return false
	}
	if q.To != nil && e.Time.After(*q.To) {
		return false
	}
	return true
}

// ActivityRepository is the append-only activity log.
type ActivityRepository interface {
	Create(ctx context.Context, entry *domain.ActivityEntry) error
	// List returns matching entries, most recent first.
	List(ctx context.Context, query ActivityQuery) ([]domain.ActivityEntry, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) error
}

// BranchRepository persists branches.
type BranchRepository interface {
	Create(ctx context.Context, branch *domain.Branch) error
	Update(ctx context.Context, branch *domain.Branch) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Branch, error)
	List(ctx context.Context) ([]domain.Branch, error)
}

// CarRepository persists cars.
type CarRepository interface {
	Create(ctx context.Context, car *domain.Car) error
	Update(ctx context.Context, car *domain.Car) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Car, error)
	List(ctx context.Context) ([]domain.Car, error)
}

// UserRepository persists accounts and their single role assignment.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	SetRole(ctx context.Context, userID, roleID int64) error
	CountByRole(ctx context.Context, roleID int64) (int, error)
}

// RoleRepository persists roles.
type RoleRepository interface {
	Create(ctx context.Context, role *domain.Role) error
	Update(ctx context.Context, role *domain.Role) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Role, error)
	GetByName(ctx context.Context, name string) (*domain.Role, error)
	List(ctx context.Context) ([]domain.Role, error)
}
