package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/postroute/postal-service/internal/domain"
	"github.com/postroute/postal-service/internal/identity"
	"github.com/postroute/postal-service/internal/listing"
	"github.com/postroute/postal-service/internal/repository"
)

var userListing = listing.Schema[domain.User]{
	Sorts: map[string]listing.Compare[domain.User]{
		"id":        listing.By(func(u domain.User) int64 { return u.ID }),
		"username":  listing.By(func(u domain.User) string { return u.Username }),
		"email":     listing.By(func(u domain.User) string { return u.Email }),
		"firstName": listing.By(func(u domain.User) string { return u.FirstName }),
		"lastName":  listing.By(func(u domain.User) string { return u.LastName }),
		"role":      listing.By(func(u domain.User) string { return string(u.RoleName()) }),
	},
	Filters: map[string]listing.Field[domain.User]{
		"id":        func(u domain.User) string { return strconv.FormatInt(u.ID, 10) },
		"username":  func(u domain.User) string { return u.Username },
		"email":     func(u domain.User) string { return u.Email },
		"firstName": func(u domain.User) string { return u.FirstName },
		"lastName":  func(u domain.User) string { return u.LastName },
		"role":      func(u domain.User) string { return string(u.RoleName()) },
	},
}

var roleListing = listing.Schema[domain.Role]{
	Sorts: map[string]listing.Compare[domain.Role]{
		"id":   listing.By(func(r domain.Role) int64 { return r.ID }),
		"name": listing.By(func(r domain.Role) string { return r.Name }),
	},
	Filters: map[string]listing.Field[domain.Role]{
		"name": func(r domain.Role) string { return r.Name },
	},
}

// UserInput carries editable account fields. On update an empty Password
// keeps the current one and an empty Role keeps the current role.
type UserInput struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
	Role      string
}

// UserService maintains employee accounts.
type UserService struct {
	store           repository.Store
	identity        *identity.Manager
	defaultPassword string
}

// NewUserService constructs the service. defaultPassword is used when an
// account is created without one.
func NewUserService(store repository.Store, manager *identity.Manager, defaultPassword string) *UserService {
	return &UserService{store: store, identity: manager, defaultPassword: defaultPassword}
}

func (s *UserService) List(ctx context.Context, opts listing.Options) (*listing.Page[domain.User], error) {
	if err := userListing.Validate(opts); err != nil {
		return nil, err
	}
	users, err := s.store.Users().List(ctx)
	if err != nil {
		return nil, err
	}
	return userListing.Apply(users, opts)
}

func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "user", id)
	}
	return user, nil
}

// Create stores the account with a hashed credential and exactly one role.
func (s *UserService) Create(ctx context.Context, input UserInput) (*domain.User, error) {
	password := input.Password
	if password == "" {
		password = s.defaultPassword
	}
	user := &domain.User{
		Username:  strings.TrimSpace(input.Username),
		Email:     strings.TrimSpace(input.Email),
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
	}
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		mgr := s.identity.In(tx)
		res, err := mgr.CreateUser(ctx, user, password)
		if err := identityResult("create user", res, err); err != nil {
			return err
		}
		res, err = mgr.AddToRole(ctx, user, input.Role)
		return identityResult("assign role", res, err)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, user.ID)
}

// Update changes profile fields and optionally the role and password.
func (s *UserService) Update(ctx context.Context, id int64, input UserInput) (*domain.User, error) {
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		user, err := tx.Users().GetByID(ctx, id)
		if err != nil {
			return storeError(err, "user", id)
		}
		user.Username = strings.TrimSpace(input.Username)
		user.Email = strings.TrimSpace(input.Email)
		user.FirstName = strings.TrimSpace(input.FirstName)
		user.LastName = strings.TrimSpace(input.LastName)

		mgr := s.identity.In(tx)
		res, err := mgr.UpdateUser(ctx, user)
		if err := identityResult("update user", res, err); err != nil {
			return err
		}
		if input.Role != "" && input.Role != string(user.RoleName()) {
			res, err = mgr.AddToRole(ctx, user, input.Role)
			if err := identityResult("assign role", res, err); err != nil {
				return err
			}
		}
		if input.Password != "" {
			res, err = mgr.SetPassword(ctx, user, input.Password)
			if err := identityResult("reset password", res, err); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	res, err := s.identity.DeleteUser(ctx, user)
	return identityResult("delete user", res, err)
}

// RoleService maintains roles through the identity manager.
type RoleService struct {
	store    repository.Store
	identity *identity.Manager
}

// NewRoleService constructs the service.
func NewRoleService(store repository.Store, manager *identity.Manager) *RoleService {
	return &RoleService{store: store, identity: manager}
}

func (s *RoleService) List(ctx context.Context, opts listing.Options) (*listing.Page[domain.Role], error) {
	if err := roleListing.Validate(opts); err != nil {
		return nil, err
	}
	roles, err := s.store.Roles().List(ctx)
	if err != nil {
		return nil, err
	}
	return roleListing.Apply(roles, opts)
}

func (s *RoleService) Get(ctx context.Context, id int64) (*domain.Role, error) {
	role, err := s.store.Roles().GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "role", id)
	}
	return role, nil
}

func (s *RoleService) Create(ctx context.Context, name string) (*domain.Role, error) {
	role := &domain.Role{Name: strings.TrimSpace(name)}
	res, err := s.identity.CreateRole(ctx, role)
	if err := identityResult("create role", res, err); err != nil {
		return nil, err
	}
	return role, nil
}

func (s *RoleService) Update(ctx context.Context, id int64, name string) (*domain.Role, error) {
	role, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	role.Name = strings.TrimSpace(name)
	res, err := s.identity.UpdateRole(ctx, role)
	if err := identityResult("update role", res, err); err != nil {
		return nil, err
	}
	return role, nil
}

func (s *RoleService) Delete(ctx context.Context, id int64) error {
	role, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	res, err := s.identity.DeleteRole(ctx, role)
	return identityResult("delete role", res, err)
}
