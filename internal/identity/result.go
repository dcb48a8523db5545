// Package identity manages accounts, credentials and role membership and
// reports validation failures as structured results rather than errors.
package identity

import "strings"

// Error codes reported in a failed Result.
const (
	CodeDuplicateRoleName = "DuplicateRoleName"
	CodeDuplicateUserName = "DuplicateUserName"
	CodeDuplicateEmail    = "DuplicateEmail"
	CodeInvalidRoleName   = "InvalidRoleName"
	CodeInvalidUserName   = "InvalidUserName"
	CodeInvalidEmail      = "InvalidEmail"
	CodePasswordTooShort  = "PasswordTooShort"
	CodePasswordMismatch  = "PasswordMismatch"
	CodeRoleNotFound      = "RoleNotFound"
	CodeUserNotFound      = "UserNotFound"
	CodeRoleInUse         = "RoleInUse"
)

// Error describes one identity failure.
type Error struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Result is the outcome of an identity operation.
type Result struct {
	Succeeded bool
	Errors    []Error
}

// Success is the Result of an operation that went through.
func Success() Result {
	return Result{Succeeded: true}
}

// Failed builds a failed Result.
func Failed(errs ...Error) Result {
	return Result{Errors: errs}
}

func (r Result) String() string {
	if r.Succeeded {
		return "Succeeded"
	}
	codes := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		codes[i] = e.Code
	}
	return "Failed: " + strings.Join(codes, ",")
}
