package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailhub/internal/domain"
)

var testSecret = []byte("test-secret")

func TestAuth_LoginAndValidate(t *testing.T) {
	s := NewAuthService(testSecret)

	res, err := s.Login("admin@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "admin1", res.User.ID)
	assert.Equal(t, domain.RoleAdmin, res.User.Role)
	assert.Empty(t, res.User.Password)

	u, err := s.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "Admin User", u.Name)
	assert.Empty(t, u.Password)

	_, err = s.Login("admin@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Login("nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuth_RejectsBadTokens(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	s := NewAuthService(testSecret, WithClock(clock))
	res, err := s.Login("user@example.com", "password123")
	require.NoError(t, err)

	other := NewAuthService([]byte("other-secret"), WithClock(clock))
	_, err = other.ValidateToken(res.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.ValidateToken("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// expired after a day
	later := NewAuthService(testSecret, WithClock(func() time.Time { return now.Add(25 * time.Hour) }))
	_, err = later.ValidateToken(res.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// unsigned tokens are refused
	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "admin1"}})
	raw, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = s.ValidateToken(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuth_Register(t *testing.T) {
	s := NewAuthService(testSecret)

	u, err := s.Register("Bob", "bob@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, u.Role)
	assert.NotEmpty(t, u.ID)

	_, err = s.Register("Bobby", "BOB@example.com", "x")
	assert.ErrorIs(t, err, ErrEmailTaken)
	_, err = s.Register("", "x@example.com", "x")
	assert.ErrorIs(t, err, ErrInvalidInput)

	res, err := s.Login("bob@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, u.ID, res.User.ID)
}

func TestAuthorization_Policies(t *testing.T) {
	authz, err := NewAuthorizationService()
	require.NoError(t, err)

	cases := []struct {
		role             domain.Role
		resource, action string
		want             bool
	}{
		{domain.RoleUser, "products", "read", true},
		{domain.RoleUser, "cart", "use", true},
		{domain.RoleUser, "profile", "read", true},
		{domain.RoleUser, "products", "write", false},
		{domain.RoleUser, "inventory", "read", false},
		{domain.RoleUser, "orders", "read", false},
		{domain.RoleUser, "dashboard", "read", false},
		{domain.RoleAdmin, "products", "write", true},
		{domain.RoleAdmin, "inventory", "write", true},
		{domain.RoleAdmin, "orders", "write", true},
		{domain.RoleAdmin, "dashboard", "read", true},
		{domain.RoleAdmin, "cart", "use", true},
		{domain.RoleAdmin, "products", "read", true},
		{domain.RoleAdmin, "profile", "read", true},
		{"guest", "products", "read", false},
	}
	for _, tc := range cases {
		got, err := authz.CheckPermission(tc.role, tc.resource, tc.action)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%s %s:%s", tc.role, tc.resource, tc.action)
	}
}

func TestNotifications(t *testing.T) {
	n := NewNotificationService()
	n.Set("s", "first")
	n.Set("s", "second")
	msg, ok := n.Take("s")
	assert.True(t, ok)
	assert.Equal(t, "second", msg)
	_, ok = n.Take("s")
	assert.False(t, ok)
}
