package service

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mindguard/internal/models"
)

type fakeAuthRepo struct {
	users  map[string]*models.User
	nextID int64
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{users: make(map[string]*models.User)}
}

func (r *fakeAuthRepo) CreateUser(user *models.User) error {
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	r.users[user.Username] = user
	return nil
}

func (r *fakeAuthRepo) GetUserByUsername(username string) (*models.User, error) {
	user, ok := r.users[username]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (r *fakeAuthRepo) CountUsers() (int, error) {
	return len(r.users), nil
}

func newTestAuthService(t *testing.T) AuthService {
	t.Helper()
	return NewAuthService(newFakeAuthRepo(), []byte("test-secret"), time.Hour, zap.NewNop())
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestAuthService(t)

	user, err := svc.Register("counselor1", "correct horse battery", "")
	require.NoError(t, err)
	assert.Equal(t, "counselor1", user.Username)
	assert.Equal(t, "counselor", user.Role, "role defaults to counselor")
	assert.NotEqual(t, "correct horse battery", user.PasswordHash, "password must not be stored in plaintext")
	assert.Contains(t, user.PasswordHash, "$argon2id$")

	token, expiresAt, err := svc.Login("counselor1", "correct horse battery")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))
}

func TestRegisterDuplicate(t *testing.T) {
	svc := newTestAuthService(t)

	_, err := svc.Register("counselor1", "correct horse battery", "admin")
	require.NoError(t, err)

	_, err = svc.Register("counselor1", "another password!", "")
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestLoginFailures(t *testing.T) {
	svc := newTestAuthService(t)

	_, err := svc.Register("counselor1", "correct horse battery", "")
	require.NoError(t, err)

	_, _, err = svc.Login("counselor1", "wrong password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login("nobody", "correct horse battery")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestJWTSecretRoundTrips(t *testing.T) {
	secret := []byte("shared-with-middleware")
	svc := NewAuthService(newFakeAuthRepo(), secret, time.Hour, zap.NewNop())

	// The middleware verifies tokens with the same secret the service
	// signs with; it gets it from here.
	assert.Equal(t, secret, svc.JWTSecret())
}

func TestPasswordHashUnique(t *testing.T) {
	svc := newTestAuthService(t)

	a, err := svc.Register("user-a", "same password here", "")
	require.NoError(t, err)
	b, err := svc.Register("user-b", "same password here", "")
	require.NoError(t, err)

	// Fresh salt per hash.
	assert.NotEqual(t, a.PasswordHash, b.PasswordHash)
}
