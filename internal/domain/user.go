package domain

import "time"

// RoleName enumerates the built-in roles.
type RoleName string

const (
	RoleAdmin    RoleName = "Admin"
	RoleOperator RoleName = "Operator"
	RoleManager  RoleName = "Manager"
	RoleStockman RoleName = "Stockman"
	RoleDriver   RoleName = "Driver"
	RoleCourier  RoleName = "Courier"
)

// BuiltinRoles lists roles created on first start, in creation order.
var BuiltinRoles = []RoleName{RoleAdmin, RoleOperator, RoleManager, RoleStockman, RoleDriver, RoleCourier}

// Role groups the workflow actions a user may perform.
type Role struct {
	ID   int64
	Name string
}

// User is an employee account.
type User struct {
	ID           int64
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	Role         *Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName is the name written into activity entries.
func (u *User) DisplayName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Username
	}
	if u.LastName == "" {
		return u.FirstName
	}
	if u.FirstName == "" {
		return u.LastName
	}
	return u.FirstName + " " + u.LastName
}

// RoleName returns the user's role name or empty when unassigned.
func (u *User) RoleName() RoleName {
	if u == nil || u.Role == nil {
		return ""
	}
	return RoleName(u.Role.Name)
}
