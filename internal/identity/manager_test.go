package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/postroute/postal-service/internal/domain"
	"github.com/postroute/postal-service/internal/repository/memory"
)

func newManager(t *testing.T) (*Manager, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return NewManager(store, bcrypt.MinCost), store
}

func codes(res Result) []string {
	out := make([]string, 0, len(res.Errors))
	for _, e := range res.Errors {
		out = append(out, e.Code)
	}
	return out
}

func TestCreateRoleRejectsDuplicateName(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	res, err := m.CreateRole(ctx, &domain.Role{Name: "Operator"})
	require.NoError(t, err)
	require.True(t, res.Succeeded)

	res, err = m.CreateRole(ctx, &domain.Role{Name: "Operator"})
	require.NoError(t, err)
	assert.False(t, res.Succeeded)
	assert.Equal(t, []string{CodeDuplicateRoleName}, codes(res))
}

func TestCreateUserAndRole(t *testing.T) {
	ctx := context.Background()
	m, store := newManager(t)

	_, err := m.CreateRole(ctx, &domain.Role{Name: "Courier"})
	require.NoError(t, err)

	user := &domain.User{Username: "jane", Email: "jane@example.com"}
	res, err := m.CreateUser(ctx, user, "secret1")
	require.NoError(t, err)
	require.True(t, res.Succeeded, res.String())
	assert.NotZero(t, user.ID)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	res, err = m.AddToRole(ctx, user, "Courier")
	require.NoError(t, err)
	require.True(t, res.Succeeded)

	stored, err := store.Users().GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCourier, stored.RoleName())
	assert.True(t, m.CheckPassword(stored, "secret1"))
	assert.False(t, m.CheckPassword(stored, "wrong"))
}

func TestCreateUserValidation(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	res, err := m.CreateUser(ctx, &domain.User{Username: "bad name", Email: "nope"}, "123")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{CodeInvalidUserName, CodeInvalidEmail, CodePasswordTooShort}, codes(res))

	first := &domain.User{Username: "sam", Email: "sam@example.com"}
	res, err = m.CreateUser(ctx, first, "secret1")
	require.NoError(t, err)
	require.True(t, res.Succeeded)

	res, err = m.CreateUser(ctx, &domain.User{Username: "sam", Email: "sam@example.com"}, "secret1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{CodeDuplicateUserName, CodeDuplicateEmail}, codes(res))
}

func TestAddToUnknownRole(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	user := &domain.User{Username: "sam", Email: "sam@example.com"}
	_, err := m.CreateUser(ctx, user, "secret1")
	require.NoError(t, err)

	res, err := m.AddToRole(ctx, user, "Pilot")
	require.NoError(t, err)
	assert.Equal(t, []string{CodeRoleNotFound}, codes(res))
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	user := &domain.User{Username: "sam", Email: "sam@example.com"}
	_, err := m.CreateUser(ctx, user, "secret1")
	require.NoError(t, err)

	res, err := m.ChangePassword(ctx, user, "wrong", "secret2")
	require.NoError(t, err)
	assert.Equal(t, []string{CodePasswordMismatch}, codes(res))

	res, err = m.ChangePassword(ctx, user, "secret1", "secret2")
	require.NoError(t, err)
	require.True(t, res.Succeeded)
	assert.True(t, m.CheckPassword(user, "secret2"))
}

func TestDeleteRoleInUse(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	role := &domain.Role{Name: "Driver"}
	_, err := m.CreateRole(ctx, role)
	require.NoError(t, err)
	user := &domain.User{Username: "dan", Email: "dan@example.com"}
	_, err = m.CreateUser(ctx, user, "secret1")
	require.NoError(t, err)
	_, err = m.AddToRole(ctx, user, "Driver")
	require.NoError(t, err)

	res, err := m.DeleteRole(ctx, role)
	require.NoError(t, err)
	assert.Equal(t, []string{CodeRoleInUse}, codes(res))

	res, err = m.DeleteUser(ctx, user)
	require.NoError(t, err)
	require.True(t, res.Succeeded)

	res, err = m.DeleteRole(ctx, role)
	require.NoError(t, err)
	assert.True(t, res.Succeeded)
}
