package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/postroute/postal-service/internal/auth"
	"github.com/postroute/postal-service/internal/domain"
	"github.com/postroute/postal-service/internal/identity"
	"github.com/postroute/postal-service/internal/repository"
	"github.com/postroute/postal-service/internal/session"
	apperrors "github.com/postroute/postal-service/pkg/util/errorutil"
)

// AuthService coordinates sign-in, sign-out and the session's branch and
// car selection.
type AuthService struct {
	users    repository.UserRepository
	identity *identity.Manager
	sessions session.Store
	tokenMgr *auth.TokenManager
}

// AuthDependencies encapsulates collaborators of the auth service.
type AuthDependencies struct {
	Store    repository.Store
	Identity *identity.Manager
	Sessions session.Store
	Tokens   *auth.TokenManager
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	return &AuthService{
		users:    deps.Store.Users(),
		identity: deps.Identity,
		sessions: deps.Sessions,
		tokenMgr: deps.Tokens,
	}
}

// LoginResult is an issued session.
type LoginResult struct {
	User      *domain.User
	SessionID string
	Token     string
	ExpiresAt time.Time
}

// Login verifies the credential, opens a session and issues a token bound to it.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if !s.identity.CheckPassword(user, password) {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	sid := uuid.NewString()
	if err := s.sessions.Open(ctx, sid, user.ID); err != nil {
		return nil, err
	}
	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Username, sid)
	if err != nil {
		_ = s.sessions.Close(ctx, sid)
		return nil, err
	}
	return &LoginResult{User: user, SessionID: sid, Token: token, ExpiresAt: exp}, nil
}

// Logout clears the selection and ends the session.
func (s *AuthService) Logout(ctx context.Context, sc *session.Context) error {
	if !sc.IsAuthenticated() {
		return nil
	}
	if err := sc.Reset(ctx); err != nil && !errors.Is(err, session.ErrNotFound) {
		return err
	}
	return s.sessions.Close(ctx, sc.SessionID())
}

// ChangePassword replaces the signed-in user's password.
func (s *AuthService) ChangePassword(ctx context.Context, sc *session.Context, currentPassword, newPassword string) error {
	user, err := sc.User(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		return apperrors.NewUnauthorized("not signed in")
	}
	res, err := s.identity.ChangePassword(ctx, user, currentPassword, newPassword)
	return identityResult("change password", res, err)
}

// Me resolves the signed-in user with the selected branch and car.
func (s *AuthService) Me(ctx context.Context, sc *session.Context) (Actor, error) {
	return ActorFromSession(ctx, sc)
}

// SelectBranch stores the branch the user works at for this session.
func (s *AuthService) SelectBranch(ctx context.Context, sc *session.Context, branchID int64) (*domain.Branch, error) {
	ok, err := sc.SetBranch(ctx, branchID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.NewNotFound("branch", map[string]any{"id": branchID})
	}
	return sc.Branch(ctx)
}

// SelectCar stores the car the user drives for this session.
func (s *AuthService) SelectCar(ctx context.Context, sc *session.Context, carID int64) (*domain.Car, error) {
	ok, err := sc.SetCar(ctx, carID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.NewNotFound("car", map[string]any{"id": carID})
	}
	return sc.Car(ctx)
}
