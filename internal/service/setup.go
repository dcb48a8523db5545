package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/postroute/postal-service/internal/config"
	"github.com/postroute/postal-service/internal/domain"
	"github.com/postroute/postal-service/internal/identity"
	"github.com/postroute/postal-service/internal/repository"
)

// SetupService seeds the built-in roles and the administrator account.
type SetupService struct {
	store    repository.Store
	identity *identity.Manager
	admin    config.AdminConfig
	logger   *zap.Logger
}

// NewSetupService constructs the service.
func NewSetupService(store repository.Store, manager *identity.Manager, admin config.AdminConfig, logger *zap.Logger) *SetupService {
	return &SetupService{store: store, identity: manager, admin: admin, logger: logger}
}

// Run creates roles, in order, when none exist yet, then the administrator
// when no account has the configured name. Roles created before a failure
// are kept. Every failure is returned as an *InitialSetupError.
func (s *SetupService) Run(ctx context.Context, roles []domain.RoleName) error {
	if err := s.seedRoles(ctx, roles); err != nil {
		return &InitialSetupError{Err: err}
	}
	if err := s.seedAdmin(ctx); err != nil {
		return &InitialSetupError{Err: err}
	}
	return nil
}

func (s *SetupService) seedRoles(ctx context.Context, roles []domain.RoleName) error {
	existing, err := s.store.Roles().List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	for _, name := range roles {
		res, err := s.identity.CreateRole(ctx, &domain.Role{Name: string(name)})
		if err := identityResult("create role", res, err); err != nil {
			return err
		}
		s.logger.Info("role created", zap.String("role", string(name)))
	}
	return nil
}

func (s *SetupService) seedAdmin(ctx context.Context) error {
	if _, err := s.store.Users().GetByUsername(ctx, s.admin.Username); err == nil {
		return nil
	} else if !isNotFound(err) {
		return err
	}

	admin := &domain.User{Username: s.admin.Username, Email: s.admin.Email, FirstName: "Administrator"}
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		mgr := s.identity.In(tx)
		res, err := mgr.CreateUser(ctx, admin, s.admin.Password)
		if err := identityResult("create administrator", res, err); err != nil {
			return err
		}
		res, err = mgr.AddToRole(ctx, admin, string(domain.RoleAdmin))
		return identityResult("assign administrator role", res, err)
	})
	if err != nil {
		return err
	}
	s.logger.Info("administrator created", zap.String("username", admin.Username))
	return nil
}
