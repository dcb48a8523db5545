package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/postroute/postal-service/internal/auth"
	"github.com/postroute/postal-service/internal/domain"
	"github.com/postroute/postal-service/internal/repository"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

const userNameChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-._@+"

// Manager validates and persists users and roles.
type Manager struct {
	store      repository.Store
	bcryptCost int
}

// NewManager builds a manager over store.
func NewManager(store repository.Store, bcryptCost int) *Manager {
	return &Manager{store: store, bcryptCost: bcryptCost}
}

// In returns a manager bound to a transactional store.
func (m *Manager) In(tx repository.Store) *Manager {
	return &Manager{store: tx, bcryptCost: m.bcryptCost}
}

// CreateRole persists a new role and sets its ID.
func (m *Manager) CreateRole(ctx context.Context, role *domain.Role) (Result, error) {
	if res := validateRoleName(role.Name); !res.Succeeded {
		return res, nil
	}
	if res, err := m.roleNameFree(ctx, role.Name, 0); err != nil || !res.Succeeded {
		return res, err
	}
	if err := m.store.Roles().Create(ctx, role); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return Failed(duplicateRole(role.Name)), nil
		}
		return Result{}, err
	}
	return Success(), nil
}

// UpdateRole renames a role.
func (m *Manager) UpdateRole(ctx context.Context, role *domain.Role) (Result, error) {
	if res := validateRoleName(role.Name); !res.Succeeded {
		return res, nil
	}
	if res, err := m.roleNameFree(ctx, role.Name, role.ID); err != nil || !res.Succeeded {
		return res, err
	}
	err := m.store.Roles().Update(ctx, role)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return Failed(Error{Code: CodeRoleNotFound, Description: fmt.Sprintf("Role %d does not exist.", role.ID)}), nil
	case errors.Is(err, repository.ErrDuplicate):
		return Failed(duplicateRole(role.Name)), nil
	case err != nil:
		return Result{}, err
	}
	return Success(), nil
}

// DeleteRole removes a role that no user holds.
func (m *Manager) DeleteRole(ctx context.Context, role *domain.Role) (Result, error) {
	count, err := m.store.Users().CountByRole(ctx, role.ID)
	if err != nil {
		return Result{}, err
	}
	if count > 0 {
		return Failed(Error{Code: CodeRoleInUse, Description: fmt.Sprintf("Role '%s' is assigned to %d user(s).", role.Name, count)}), nil
	}
	err = m.store.Roles().Delete(ctx, role.ID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return Failed(Error{Code: CodeRoleNotFound, Description: fmt.Sprintf("Role '%s' does not exist.", role.Name)}), nil
	case errors.Is(err, repository.ErrReferenced):
		return Failed(Error{Code: CodeRoleInUse, Description: fmt.Sprintf("Role '%s' is assigned to users.", role.Name)}), nil
	case err != nil:
		return Result{}, err
	}
	return Success(), nil
}

// CreateUser validates the account, hashes password and persists the user.
func (m *Manager) CreateUser(ctx context.Context, user *domain.User, password string) (Result, error) {
	errs := validateUser(user)
	if len(password) < MinPasswordLength {
		errs = append(errs, passwordTooShort())
	}
	if len(errs) > 0 {
		return Failed(errs...), nil
	}
	if res, err := m.userUnique(ctx, user); err != nil || !res.Succeeded {
		return res, err
	}
	hash, err := auth.HashPassword(password, m.bcryptCost)
	if err != nil {
		return Result{}, err
	}
	user.PasswordHash = hash
	if err := m.store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return Failed(duplicateUser(user.Username)), nil
		}
		return Result{}, err
	}
	return Success(), nil
}

// AddToRole assigns the named role, replacing any previous one.
func (m *Manager) AddToRole(ctx context.Context, user *domain.User, roleName string) (Result, error) {
	role, err := m.store.Roles().GetByName(ctx, roleName)
	if errors.Is(err, repository.ErrNotFound) {
		return Failed(Error{Code: CodeRoleNotFound, Description: fmt.Sprintf("Role '%s' does not exist.", roleName)}), nil
	}
	if err != nil {
		return Result{}, err
	}
	if err := m.store.Users().SetRole(ctx, user.ID, role.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Failed(userNotFound(user.ID)), nil
		}
		return Result{}, err
	}
	user.Role = role
	return Success(), nil
}

// UpdateUser saves profile changes.
func (m *Manager) UpdateUser(ctx context.Context, user *domain.User) (Result, error) {
	if errs := validateUser(user); len(errs) > 0 {
		return Failed(errs...), nil
	}
	if res, err := m.userUnique(ctx, user); err != nil || !res.Succeeded {
		return res, err
	}
	err := m.store.Users().Update(ctx, user)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return Failed(userNotFound(user.ID)), nil
	case errors.Is(err, repository.ErrDuplicate):
		return Failed(duplicateUser(user.Username)), nil
	case err != nil:
		return Result{}, err
	}
	return Success(), nil
}

// SetPassword replaces the credential without checking the old one.
func (m *Manager) SetPassword(ctx context.Context, user *domain.User, password string) (Result, error) {
	if len(password) < MinPasswordLength {
		return Failed(passwordTooShort()), nil
	}
	hash, err := auth.HashPassword(password, m.bcryptCost)
	if err != nil {
		return Result{}, err
	}
	previous := user.PasswordHash
	user.PasswordHash = hash
	if err := m.store.Users().Update(ctx, user); err != nil {
		user.PasswordHash = previous
		if errors.Is(err, repository.ErrNotFound) {
			return Failed(userNotFound(user.ID)), nil
		}
		return Result{}, err
	}
	return Success(), nil
}

// ChangePassword replaces the credential after verifying the current one.
func (m *Manager) ChangePassword(ctx context.Context, user *domain.User, current, next string) (Result, error) {
	if !m.CheckPassword(user, current) {
		return Failed(Error{Code: CodePasswordMismatch, Description: "Incorrect password."}), nil
	}
	return m.SetPassword(ctx, user, next)
}

// CheckPassword verifies a plaintext password against the stored hash.
func (m *Manager) CheckPassword(user *domain.User, password string) bool {
	if user == nil || user.PasswordHash == "" {
		return false
	}
	return auth.PasswordMatches(user.PasswordHash, password)
}

// DeleteUser removes the account and its role membership.
func (m *Manager) DeleteUser(ctx context.Context, user *domain.User) (Result, error) {
	err := m.store.Users().Delete(ctx, user.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return Failed(userNotFound(user.ID)), nil
	}
	if err != nil {
		return Result{}, err
	}
	return Success(), nil
}

func (m *Manager) roleNameFree(ctx context.Context, name string, selfID int64) (Result, error) {
	existing, err := m.store.Roles().GetByName(ctx, name)
	if errors.Is(err, repository.ErrNotFound) {
		return Success(), nil
	}
	if err != nil {
		return Result{}, err
	}
	if existing.ID != selfID {
		return Failed(duplicateRole(name)), nil
	}
	return Success(), nil
}

func (m *Manager) userUnique(ctx context.Context, user *domain.User) (Result, error) {
	var errs []Error
	existing, err := m.store.Users().GetByUsername(ctx, user.Username)
	switch {
	case err == nil && existing.ID != user.ID:
		errs = append(errs, duplicateUser(user.Username))
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return Result{}, err
	}
	existing, err = m.store.Users().GetByEmail(ctx, user.Email)
	switch {
	case err == nil && existing.ID != user.ID:
		errs = append(errs, Error{Code: CodeDuplicateEmail, Description: fmt.Sprintf("Email '%s' is already taken.", user.Email)})
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return Result{}, err
	}
	if len(errs) > 0 {
		return Failed(errs...), nil
	}
	return Success(), nil
}

func validateRoleName(name string) Result {
	if strings.TrimSpace(name) == "" {
		return Failed(Error{Code: CodeInvalidRoleName, Description: "Role name must not be empty."})
	}
	return Success()
}

func validateUser(user *domain.User) []Error {
	var errs []Error
	if user.Username == "" || strings.Trim(user.Username, userNameChars) != "" {
		errs = append(errs, Error{Code: CodeInvalidUserName, Description: fmt.Sprintf("User name '%s' is invalid, can only contain letters or digits.", user.Username)})
	}
	if _, err := mail.ParseAddress(user.Email); err != nil {
		errs = append(errs, Error{Code: CodeInvalidEmail, Description: fmt.Sprintf("Email '%s' is invalid.", user.Email)})
	}
	return errs
}

func duplicateRole(name string) Error {
	return Error{Code: CodeDuplicateRoleName, Description: fmt.Sprintf("Role name '%s' is already taken.", name)}
}

func duplicateUser(name string) Error {
	return Error{Code: CodeDuplicateUserName, Description: fmt.Sprintf("User name '%s' is already taken.", name)}
}

func userNotFound(id int64) Error {
	return Error{Code: CodeUserNotFound, Description: fmt.Sprintf("User %d does not exist.", id)}
}

func passwordTooShort() Error {
	return Error{Code: CodePasswordTooShort, Description: fmt.Sprintf("Passwords must be at least %d characters.", MinPasswordLength)}
}
