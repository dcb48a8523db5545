// Package memory provides an in-process repository.Store. It backs the
// service when no Postgres DSN is configured and is used throughout tests.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/postroute/postal-service/internal/domain"
	"github.com/postroute/postal-service/internal/repository"
)

type data struct {
	nextID     int64
	mail       map[int64]domain.MailItem
	activities []domain.ActivityEntry
	branches   map[int64]domain.Branch
	cars       map[int64]domain.Car
	roles      map[int64]domain.Role
	users      map[int64]domain.User
	userRoles  map[int64]int64
}

func (d *data) clone() *data {
	return &data{
		nextID:     d.nextID,
		mail:       maps.Clone(d.mail),
		activities: slices.Clone(d.activities),
		branches:   maps.Clone(d.branches),
		cars:       maps.Clone(d.cars),
		roles:      maps.Clone(d.roles),
		users:      maps.Clone(d.users),
		userRoles:  maps.Clone(d.userRoles),
	}
}

func (d *data) id() int64 {
	d.nextID++
	return d.nextID
}

// Store keeps every table in maps guarded by a single mutex.
type Store struct {
	mu   *sync.Mutex
	d    *data
	inTx bool
	now  func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		mu: &sync.Mutex{},
		d: &data{
			mail:      map[int64]domain.MailItem{},
			branches:  map[int64]domain.Branch{},
			cars:      map[int64]domain.Car{},
			roles:     map[int64]domain.Role{},
			users:     map[int64]domain.User{},
			userRoles: map[int64]int64{},
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the timestamp source.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) Mail() repository.MailRepository { return &mailRepo{s} }
func (s *Store) Activities() repository.ActivityRepository { return &activityRepo{s} }
func (s *Store) Branches() repository.BranchRepository { return &branchRepo{s} }
func (s *Store) Cars() repository.CarRepository { return &carRepo{s} }
func (s *Store) Users() repository.UserRepository { return &userRepo{s} }
func (s *Store) Roles() repository.RoleRepository { return &roleRepo{s} }

// WithinTx holds the store lock for the duration of fn and restores the
// previous state when fn fails.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.d.clone()
	tx := &Store{mu: s.mu, d: s.d, inTx: true, now: s.now}
	if err := fn(ctx, tx); err != nil {
		*s.d = *snapshot
		return err
	}
	return nil
}

func copyInt(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
