package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/postroute/postal-service/internal/domain"
)

func TestCapabilityTable(t *testing.T) {
	cases := []struct {
		role   domain.RoleName
		action Action
		want   bool
	}{
		{domain.RoleOperator, ActionRegisterMail, true},
		{domain.RoleOperator, ActionStockMail, false},
		{domain.RoleStockman, ActionStockMail, true},
		{domain.RoleDriver, ActionTransferMail, true},
		{domain.RoleDriver, ActionDeliverToPerson, false},
		{domain.RoleCourier, ActionDeliverToPerson, true},
		{domain.RoleManager, ActionViewActivities, true},
		{domain.RoleManager, ActionManageRegistry, false},
		{domain.RoleAdmin, ActionDeliverToPerson, true},
		{domain.RoleAdmin, ActionManageRegistry, true},
		{"", ActionViewActivities, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Can(tc.role, tc.action), "%s/%s", tc.role, tc.action)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)

	token, expires, err := tm.GenerateToken(42, "jane", "sid-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), expires, time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	userID, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
	assert.Equal(t, "jane", claims.Username)
	assert.Equal(t, "sid-1", claims.SessionID)
}

func TestTokenRejectsForeignSecretAndExpiry(t *testing.T) {
	tm := NewTokenManager("secret", 1)
	token, _, err := tm.GenerateToken(1, "jane", "sid-1")
	require.NoError(t, err)

	_, err = NewTokenManager("other", 1).ParseToken(token)
	assert.Error(t, err)

	later := NewTokenManager("secret", 1)
	later.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = later.ParseToken(token)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret1", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, PasswordMatches(hash, "secret1"))
	assert.False(t, PasswordMatches(hash, "secret2"))
	assert.False(t, PasswordMatches("", "secret1"))
}
