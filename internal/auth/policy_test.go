package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/khomenkoalx/api-yamdb/internal/domain"
)

func TestPolicy_CanWriteCatalog(t *testing.T) {
	policy := Policy{}

	tests := []struct {
		name string
		user *domain.User
		want bool
	}{
		{"anonymous", nil, false},
		{"regular user", &domain.User{Role: domain.RoleUser}, false},
		{"moderator", &domain.User{Role: domain.RoleModerator}, false},
		{"admin", &domain.User{Role: domain.RoleAdmin}, true},
		{"superuser with user role", &domain.User{Role: domain.RoleUser, IsSuperuser: true}, true},
		{"staff without flag enabled", &domain.User{Role: domain.RoleUser, IsStaff: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.CanWriteCatalog(tt.user))
		})
	}
}

func TestPolicy_StaffIsAdmin(t *testing.T) {
	policy := Policy{StaffIsAdmin: true}

	staff := &domain.User{Role: domain.RoleUser, IsStaff: true}
	assert.True(t, policy.CanWriteCatalog(staff))
	assert.True(t, policy.CanManageUsers(staff))

	regular := &domain.User{Role: domain.RoleUser}
	assert.False(t, policy.CanWriteCatalog(regular))
}

func TestPolicy_CanModifyAuthored(t *testing.T) {
	policy := Policy{}

	author := &domain.User{ID: 7, Role: domain.RoleUser}
	other := &domain.User{ID: 8, Role: domain.RoleUser}
	moderator := &domain.User{ID: 9, Role: domain.RoleModerator}
	admin := &domain.User{ID: 10, Role: domain.RoleAdmin}

	assert.True(t, policy.CanModifyAuthored(author, 7))
	assert.False(t, policy.CanModifyAuthored(other, 7))
	assert.True(t, policy.CanModifyAuthored(moderator, 7))
	assert.True(t, policy.CanModifyAuthored(admin, 7))
	assert.False(t, policy.CanModifyAuthored(nil, 7))
}

func TestPolicy_ModeratorCannotManageUsers(t *testing.T) {
	policy := Policy{}

	moderator := &domain.User{Role: domain.RoleModerator}
	assert.False(t, policy.CanManageUsers(moderator))
	assert.False(t, policy.CanWriteCatalog(moderator))
}
