package memory

import (
	"context"
	"maps"
	"slices"

	"github.com/postroute/postal-service/internal/domain"
	"github.com/postroute/postal-service/internal/repository"
)

type userRepo struct {
	s *Store
}

func (r *userRepo) unique(user *domain.User) error {
	for id, u := range r.s.d.users {
		if id == user.ID {
			continue
		}
		if u.Username == user.Username || u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	return nil
}

func (r *userRepo) Create(_ context.Context, user *domain.User) error {
	defer r.s.lock()()
	user.ID = 0
	if err := r.unique(user); err != nil {
		return err
	}
	user.ID = r.s.d.id()
	user.CreatedAt = r.s.now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	stored.Role = nil
	r.s.d.users[user.ID] = stored
	return nil
}

func (r *userRepo) Update(_ context.Context, user *domain.User) error {
	defer r.s.lock()()
	current, ok := r.s.d.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if err := r.unique(user); err != nil {
		return err
	}
	user.CreatedAt = current.CreatedAt
	user.UpdatedAt = r.s.now()
	stored := *user
	stored.Role = nil
	r.s.d.users[user.ID] = stored
	return nil
}

func (r *userRepo) Delete(_ context.Context, id int64) error {
	defer r.s.lock()()
	if _, ok := r.s.d.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.d.users, id)
	delete(r.s.d.userRoles, id)
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	defer r.s.lock()()
	u, ok := r.s.d.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.withRole(u), nil
}

func (r *userRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	defer r.s.lock()()
	return r.find(func(u domain.User) bool { return u.Username == username })
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	defer r.s.lock()()
	return r.find(func(u domain.User) bool { return u.Email == email })
}

func (r *userRepo) find(match func(domain.User) bool) (*domain.User, error) {
	for _, u := range r.s.d.users {
		if match(u) {
			return r.withRole(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) List(_ context.Context) ([]domain.User, error) {
	defer r.s.lock()()
	result := []domain.User{}
	for _, id := range slices.Sorted(maps.Keys(r.s.d.users)) {
		result = append(result, *r.withRole(r.s.d.users[id]))
	}
	return result, nil
}

func (r *userRepo) SetRole(_ context.Context, userID, roleID int64) error {
	defer r.s.lock()()
	if _, ok := r.s.d.users[userID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := r.s.d.roles[roleID]; !ok {
		return repository.ErrReferenced
	}
	r.s.d.userRoles[userID] = roleID
	return nil
}

func (r *userRepo) CountByRole(_ context.Context, roleID int64) (int, error) {
	defer r.s.lock()()
	count := 0
	for _, rid := range r.s.d.userRoles {
		if rid == roleID {
			count++
		}
	}
	return count, nil
}

func (r *userRepo) withRole(u domain.User) *domain.User {
	if rid, ok := r.s.d.userRoles[u.ID]; ok {
		if role, ok := r.s.d.roles[rid]; ok {
			u.Role = &role
		}
	}
	return &u
}

type roleRepo struct {
	s *Store
}

func (r *roleRepo) unique(role *domain.Role) error {
	for id, existing := range r.s.d.roles {
		if id != role.ID && existing.Name == role.Name {
			return repository.ErrDuplicate
		}
	}
	return nil
}

func (r *roleRepo) Create(_ context.Context, role *domain.Role) error {
	defer r.s.lock()()
	role.ID = 0
	if err := r.unique(role); err != nil {
		return err
	}
	role.ID = r.s.d.id()
	r.s.d.roles[role.ID] = *role
	return nil
}

func (r *roleRepo) Update(_ context.Context, role *domain.Role) error {
	defer r.s.lock()()
	if _, ok := r.s.d.roles[role.ID]; !ok {
		return repository.ErrNotFound
	}
	if err := r.unique(role); err != nil {
		return err
	}
	r.s.d.roles[role.ID] = *role
	return nil
}

func (r *roleRepo) Delete(_ context.Context, id int64) error {
	defer r.s.lock()()
	if _, ok := r.s.d.roles[id]; !ok {
		return repository.ErrNotFound
	}
	for _, rid := range r.s.d.userRoles {
		if rid == id {
			return repository.ErrReferenced
		}
	}
	delete(r.s.d.roles, id)
	return nil
}

func (r *roleRepo) GetByID(_ context.Context, id int64) (*domain.Role, error) {
	defer r.s.lock()()
	role, ok := r.s.d.roles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &role, nil
}

func (r *roleRepo) GetByName(_ context.Context, name string) (*domain.Role, error) {
	defer r.s.lock()()
	for _, role := range r.s.d.roles {
		if role.Name == name {
			return &role, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *roleRepo) List(_ context.Context) ([]domain.Role, error) {
	defer r.s.lock()()
	result := []domain.Role{}
	for _, id := range slices.Sorted(maps.Keys(r.s.d.roles)) {
		result = append(result, r.s.d.roles[id])
	}
	return result, nil
}
