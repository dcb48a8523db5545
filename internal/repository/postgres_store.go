package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pkgerrors "github.com/pkg/errors"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type postgresStore struct {
	pool *pgxpool.Pool
	db   DBTX
	inTx bool
}

// NewPostgresStore returns a Store backed by the pgx pool.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &postgresStore{pool: pool, db: pool}
}

func (s *postgresStore) Mail() MailRepository { return &mailRepository{db: s.db} }
func (s *postgresStore) Activities() ActivityRepository { return &activityRepository{db: s.db} }
func (s *postgresStore) Branches() BranchRepository { return &branchRepository{db: s.db} }
func (s *postgresStore) Cars() CarRepository { return &carRepository{db: s.db} }
func (s *postgresStore) Users() UserRepository { return &userRepository{db: s.db} }
func (s *postgresStore) Roles() RoleRepository { return &roleRepository{db: s.db} }

func (s *postgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return pkgerrors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, &postgresStore{pool: s.pool, db: tx, inTx: true}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return pkgerrors.Wrap(err, "commit tx")
	}
	return nil
}

// translate maps driver errors onto the repository sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return pkgerrors.Wrap(ErrDuplicate, pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return pkgerrors.Wrap(ErrReferenced, pgErr.ConstraintName)
		}
	}
	return err
}

func requireAffected(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
