package service

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/postroute/postal-service/internal/identity"
	"github.com/postroute/postal-service/internal/repository"
	apperrors "github.com/postroute/postal-service/pkg/util/errorutil"
)

// WorkflowError reports a mail transition that could not be performed.
// Err is set when the transition was valid but could not be persisted.
type WorkflowError struct {
	Op     string
	MailID int64
	Reason string
	Err    error
}

func (e *WorkflowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s mail %d: %s: %v", e.Op, e.MailID, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s mail %d: %s", e.Op, e.MailID, e.Reason)
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

// Describe maps unmet preconditions to 409 and persistence failures to 500.
func (e *WorkflowError) Describe() *apperrors.DomainError {
	status := http.StatusConflict
	if e.Err != nil {
		status = http.StatusInternalServerError
	}
	return &apperrors.DomainError{
		Code:       "WORKFLOW_FAILED",
		Message:    e.Reason,
		HTTPStatus: status,
		Details:    map[string]any{"operation": e.Op, "mail_id": e.MailID},
		Err:        e.Err,
	}
}

func precondition(op string, mailID int64, reason string) error {
	return &WorkflowError{Op: op, MailID: mailID, Reason: reason}
}

// IdentityOperationError carries the identity failures of an operation verbatim.
type IdentityOperationError struct {
	Op     string
	Errors []identity.Error
}

func (e *IdentityOperationError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Op, identity.Result{Errors: e.Errors}.String())
}

func (e *IdentityOperationError) Describe() *apperrors.DomainError {
	return apperrors.NewDomainError("IDENTITY_OPERATION_FAILED", e.Op+" failed", http.StatusBadRequest,
		map[string]any{"errors": e.Errors})
}

// identityResult converts a failed result into an IdentityOperationError.
func identityResult(op string, res identity.Result, err error) error {
	if err != nil {
		return err
	}
	if !res.Succeeded {
		return &IdentityOperationError{Op: op, Errors: res.Errors}
	}
	return nil
}

// InitialSetupError wraps a failure while creating the built-in roles or the
// administrator account.
type InitialSetupError struct {
	Err error
}

func (e *InitialSetupError) Error() string {
	return "initial setup failed: " + e.Err.Error()
}

func (e *InitialSetupError) Unwrap() error {
	return e.Err
}

func (e *InitialSetupError) Describe() *apperrors.DomainError {
	return &apperrors.DomainError{
		Code:       "INITIAL_SETUP_FAILED",
		Message:    "initial setup failed",
		HTTPStatus: http.StatusInternalServerError,
		Err:        e.Err,
	}
}

// storeError maps repository sentinels onto domain errors naming the entity.
func storeError(err error, entity string, id int64) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(entity, map[string]any{"id": id})
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewConflict(entity+" already exists", nil)
	case errors.Is(err, repository.ErrReferenced):
		return apperrors.NewConflict(entity+" is still referenced", map[string]any{"id": id})
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
