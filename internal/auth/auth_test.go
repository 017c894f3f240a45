package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"storefront/internal/kv"

	"github.com/decred/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, opts ...Option) (*Service, *kv.Store) {
	t.Helper()
	store := kv.New(kv.NewMemory(), slog.Disabled)
	opts = append([]Option{WithDelays(Delays{})}, opts...)
	return NewService(store, slog.Disabled, opts...), store
}

func TestRoleForEmail(t *testing.T) {
	tests := []struct {
		email string
		want  Role
	}{
		{"client@exemple.fr", RoleCustomer},
		{"vendeur@exemple.fr", RoleSeller},
		{"admin@exemple.fr", RoleAdmin},
		{"jane.client@shop.io", RoleCustomer},
		{"bob-seller@shop.io", RoleSeller},
		{"vendeur.paris@shop.io", RoleSeller},
		{"root-admin@shop.io", RoleAdmin},
		{"client-admin@shop.io", RoleCustomer},
		{"jane@shop.io", RoleCustomer},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, RoleForEmail(tc.email), tc.email)
	}
}

func TestLogin(t *testing.T) {
	s, store := newTestService(t)

	_, ok := s.Current()
	assert.False(t, ok)

	sess, err := s.Login(context.Background(), Credentials{Email: "vendeur@exemple.fr", Password: "x"})
	require.NoError(t, err)
	assert.Equal(t, RoleSeller, sess.User.Role)
	assert.Equal(t, int64(2), sess.User.ID)
	assert.True(t, strings.HasPrefix(sess.Token, "demo-token-"))

	u, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, sess.User, u)
	assert.Equal(t, sess.Token, kv.Get(store, kv.KeyAuthToken, ""))
	assert.Equal(t, sess.Token, s.Token())
}

func TestLoginValidation(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.Login(context.Background(), Credentials{Email: "nope"})
	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "Invalid email", fe["email"])
	assert.Equal(t, "Password is required", fe["password"])

	_, ok := s.Current()
	assert.False(t, ok)
}

func TestLoginHonoursContext(t *testing.T) {
	s, _ := newTestService(t, WithDelays(Delays{Login: time.Hour}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Login(ctx, Credentials{Email: "client@exemple.fr", Password: "x"})
	assert.ErrorIs(t, err, context.Canceled)
	_, ok := s.Current()
	assert.False(t, ok)
}

func TestLoginWaitsForDelay(t *testing.T) {
	s, _ := newTestService(t, WithDelays(Delays{Login: 20 * time.Millisecond}))
	start := time.Now()
	_, err := s.Login(context.Background(), Credentials{Email: "client@exemple.fr", Password: "x"})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestRegister(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	s, _ := newTestService(t, WithClock(func() time.Time { return now }))

	sess, err := s.Register(context.Background(), Registration{
		Name:                 "Jane",
		Email:                "jane.seller@shop.io",
		Password:             "longenough",
		PasswordConfirmation: "longenough",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1_700_000_000_000), sess.User.ID)
	assert.Equal(t, "Jane", sess.User.Name)
	assert.Equal(t, RoleSeller, sess.User.Role)

	u, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "jane.seller@shop.io", u.Email)
}

func TestRegistrationRole(t *testing.T) {
	tests := []struct {
		email string
		want  Role
	}{
		{"client.seller@x.fr", RoleSeller},
		{"client.admin@x.fr", RoleAdmin},
		{"vendeur@exemple.fr", RoleSeller},
		{"client@exemple.fr", RoleCustomer},
		{"someone@x.fr", RoleCustomer},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, RegistrationRole(tc.email), tc.email)
	}

	// Signing in still checks the customer marker first.
	assert.Equal(t, RoleCustomer, RoleForEmail("client.seller@x.fr"))

	s, _ := newTestService(t)
	sess, err := s.Register(context.Background(), Registration{
		Name:                 "Cleo",
		Email:                "client.seller@x.fr",
		Password:             "longenough",
		PasswordConfirmation: "longenough",
	})
	require.NoError(t, err)
	assert.Equal(t, RoleSeller, sess.User.Role)
}

func TestValidateRegister(t *testing.T) {
	err := ValidateRegister(Registration{})
	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Len(t, fe, 4)

	err = ValidateRegister(Registration{Name: "J", Email: "j@x.io", Password: "short", PasswordConfirmation: "short"})
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, FieldErrors{"password": "Password must be at least 8 characters"}, fe)

	err = ValidateRegister(Registration{Name: "J", Email: "j@x.io", Password: "longenough", PasswordConfirmation: "different"})
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "Passwords do not match", fe["passwordConfirmation"])
	assert.Contains(t, err.Error(), "passwordConfirmation: Passwords do not match")

	assert.NoError(t, ValidateRegister(Registration{Name: "J", Email: "j@x.io", Password: "longenough", PasswordConfirmation: "longenough"}))
}

func TestLogout(t *testing.T) {
	s, store := newTestService(t)
	_, err := s.Login(context.Background(), Credentials{Email: "admin@exemple.fr", Password: "x"})
	require.NoError(t, err)

	require.NoError(t, s.Logout(context.Background()))
	_, ok := s.Current()
	assert.False(t, ok)
	assert.False(t, store.Has(kv.KeyUser))
	assert.False(t, store.Has(kv.KeyAuthToken))
}

func TestCurrentClearsOrphanToken(t *testing.T) {
	s, store := newTestService(t)
	store.Set(kv.KeyAuthToken, "demo-token-orphan")
	_, ok := s.Current()
	assert.False(t, ok)
	assert.False(t, store.Has(kv.KeyAuthToken))
}

func TestUsers(t *testing.T) {
	s, _ := newTestService(t)
	users, err := s.Users(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 13)
	assert.Equal(t, DemoUsers(), users[:3])
	assert.Equal(t, int64(100), users[3].ID)
	assert.Equal(t, RoleCustomer, users[3].Role)
	assert.Equal(t, RoleSeller, users[4].Role)
	assert.Equal(t, RoleCustomer, users[5].Role)
	assert.Equal(t, "user10@exemple.fr", users[12].Email)
}
