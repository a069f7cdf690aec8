package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khomenkoalx/api-yamdb/internal/domain"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenManager_GenerateAndValidate(t *testing.T) {
	manager, err := NewTokenManager(testSecret, time.Hour)
	require.NoError(t, err)

	user := &domain.User{ID: 42, Username: "alice", Role: domain.RoleModerator}

	tokenString, err := manager.Generate(user)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := manager.Validate(tokenString)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "moderator", claims.Role)
}

func TestTokenManager_RejectsExpired(t *testing.T) {
	manager, err := NewTokenManager(testSecret, time.Millisecond)
	require.NoError(t, err)

	tokenString, err := manager.Generate(&domain.User{ID: 1, Username: "bob"})
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = manager.Validate(tokenString)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_RejectsForeignSignature(t *testing.T) {
	manager, err := NewTokenManager(testSecret, time.Hour)
	require.NoError(t, err)

	other, err := NewTokenManager("ffffffffffffffffffffffffffffffff", time.Hour)
	require.NoError(t, err)

	tokenString, err := other.Generate(&domain.User{ID: 1, Username: "mallory"})
	require.NoError(t, err)

	_, err = manager.Validate(tokenString)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenManager_RejectsShortSecret(t *testing.T) {
	_, err := NewTokenManager("short", time.Hour)
	assert.Error(t, err)

	_, err = NewTokenManager("", time.Hour)
	assert.Error(t, err)
}
