package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/postroute/postal-service/internal/auth"
	"github.com/postroute/postal-service/internal/config"
	"github.com/postroute/postal-service/internal/domain"
	"github.com/postroute/postal-service/internal/identity"
	"github.com/postroute/postal-service/internal/session"
	apperrors "github.com/postroute/postal-service/pkg/util/errorutil"
)

type authFixture struct {
	*world
	sessions *session.MemoryStore
	tokens   *auth.TokenManager
	svc      *AuthService
	lookups  session.Lookups
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	w := newWorld(t)
	mgr := identity.NewManager(w.store, bcrypt.MinCost)
	admin := config.AdminConfig{Username: "admin", Email: "admin@postal.local", Password: "admin123"}
	require.NoError(t, NewSetupService(w.store, mgr, admin, zap.NewNop()).Run(context.Background(), domain.BuiltinRoles))

	f := &authFixture{
		world:    w,
		sessions: session.NewMemoryStore(time.Hour),
		tokens:   auth.NewTokenManager("secret", 15),
		lookups:  session.Lookups{Users: w.store.Users(), Branches: w.store.Branches(), Cars: w.store.Cars()},
	}
	f.svc = NewAuthService(AuthDependencies{Store: w.store, Identity: mgr, Sessions: f.sessions, Tokens: f.tokens})
	return f
}

func (f *authFixture) signIn(t *testing.T) *session.Context {
	t.Helper()
	res, err := f.svc.Login(context.Background(), "admin", "admin123")
	require.NoError(t, err)
	return session.NewContext(f.sessions, f.lookups, res.SessionID, res.User.ID)
}

func TestLoginIssuesSessionBoundToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	res, err := f.svc.Login(ctx, "admin", "admin123")
	require.NoError(t, err)
	claims, err := f.tokens.ParseToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.SessionID, claims.SessionID)
	uid, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, uid)

	owner, err := f.sessions.Touch(ctx, res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, owner)

	_, err = f.svc.Login(ctx, "admin", "wrong")
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
	_, err = f.svc.Login(ctx, "nobody", "admin123")
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
}

func TestSelectionAndLogout(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	sc := f.signIn(t)

	_, err := f.svc.SelectBranch(ctx, sc, 999)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))

	branch, err := f.svc.SelectBranch(ctx, sc, f.north.ID)
	require.NoError(t, err)
	assert.Equal(t, "North", branch.Name)
	car, err := f.svc.SelectCar(ctx, sc, f.van.ID)
	require.NoError(t, err)
	assert.Equal(t, "PX-100", car.Number)

	// A fresh request sees the stored selection.
	actor, err := f.svc.Me(ctx, session.NewContext(f.sessions, f.lookups, sc.SessionID(), mustUserID(t, f)))
	require.NoError(t, err)
	require.NotNil(t, actor.Branch)
	require.NotNil(t, actor.Car)
	assert.Equal(t, f.north.ID, actor.Branch.ID)

	require.NoError(t, f.svc.Logout(ctx, sc))
	_, err = f.sessions.Touch(ctx, sc.SessionID())
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestChangePassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	sc := f.signIn(t)

	err := f.svc.ChangePassword(ctx, sc, "bad", "newsecret")
	var idErr *IdentityOperationError
	require.ErrorAs(t, err, &idErr)
	assert.Equal(t, identity.CodePasswordMismatch, idErr.Errors[0].Code)

	require.NoError(t, f.svc.ChangePassword(ctx, sc, "admin123", "newsecret"))
	_, err = f.svc.Login(ctx, "admin", "newsecret")
	assert.NoError(t, err)

	_, err = f.svc.Me(ctx, session.Anonymous())
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
}

func mustUserID(t *testing.T, f *authFixture) int64 {
	t.Helper()
	user, err := f.store.Users().GetByUsername(context.Background(), "admin")
	require.NoError(t, err)
	return user.ID
}
