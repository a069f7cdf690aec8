package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khomenkoalx/api-yamdb/internal/auth"
	"github.com/khomenkoalx/api-yamdb/internal/domain"
)

func newUserService(t *testing.T) (*UserService, *MockUserRepository) {
	t.Helper()
	userRepo := NewMockUserRepository()
	svc := NewUserService(userRepo, auth.Policy{}, zerolog.Nop())
	return svc, userRepo
}

func seedUser(t *testing.T, repo *MockUserRepository, username string, role domain.Role) *domain.User {
	t.Helper()
	user := domain.NewUser(username, username+"@example.com")
	user.Role = role
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestUserService_CreateUser(t *testing.T) {
	svc, repo := newUserService(t)
	ctx := context.Background()
	admin := seedUser(t, repo, "admin", domain.RoleAdmin)

	user, err := svc.CreateUser(ctx, admin, CreateUserInput{
		Username: "bob",
		Email:    "bob@example.com",
		Role:     "moderator",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleModerator, user.Role)

	// Role defaults to "user" when omitted.
	user, err = svc.CreateUser(ctx, admin, CreateUserInput{
		Username: "carol",
		Email:    "carol@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, user.Role)
}

func TestUserService_CreateUserDeniedForNonAdmins(t *testing.T) {
	svc, repo := newUserService(t)
	ctx := context.Background()

	regular := seedUser(t, repo, "regular", domain.RoleUser)
	moderator := seedUser(t, repo, "mod", domain.RoleModerator)

	input := CreateUserInput{Username: "x", Email: "x@example.com"}

	_, err := svc.CreateUser(ctx, regular, input)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	_, err = svc.CreateUser(ctx, moderator, input)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	_, err = svc.CreateUser(ctx, nil, input)
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestUserService_CreateUserRejectsInvalidRole(t *testing.T) {
	svc, repo := newUserService(t)
	admin := seedUser(t, repo, "admin", domain.RoleAdmin)

	_, err := svc.CreateUser(context.Background(), admin, CreateUserInput{
		Username: "bob",
		Email:    "bob@example.com",
		Role:     "overlord",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRole)
}

func TestUserService_UpdateUserRole(t *testing.T) {
	svc, repo := newUserService(t)
	ctx := context.Background()
	admin := seedUser(t, repo, "admin", domain.RoleAdmin)
	seedUser(t, repo, "bob", domain.RoleUser)

	role := "moderator"
	user, err := svc.UpdateUser(ctx, admin, "bob", UpdateUserInput{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleModerator, user.Role)

	stored, err := repo.GetByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleModerator, stored.Role)
}

func TestUserService_DeleteUser(t *testing.T) {
	svc, repo := newUserService(t)
	ctx := context.Background()
	admin := seedUser(t, repo, "admin", domain.RoleAdmin)
	seedUser(t, repo, "bob", domain.RoleUser)

	require.NoError(t, svc.DeleteUser(ctx, admin, "bob"))

	_, err := repo.GetByUsername(ctx, "bob")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	assert.ErrorIs(t, svc.DeleteUser(ctx, admin, "bob"), domain.ErrUserNotFound)
}

func TestUserService_ListUsers(t *testing.T) {
	svc, repo := newUserService(t)
	ctx := context.Background()
	admin := seedUser(t, repo, "admin", domain.RoleAdmin)
	seedUser(t, repo, "alice", domain.RoleUser)
	seedUser(t, repo, "bob", domain.RoleUser)

	result, err := svc.ListUsers(ctx, admin, ListUsersInput{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.Total)

	result, err = svc.ListUsers(ctx, admin, ListUsersInput{Search: "ali", Limit: 10})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "alice", result.Items[0].Username)
}

func TestUserService_UpdateProfileIgnoresRole(t *testing.T) {
	svc, repo := newUserService(t)
	ctx := context.Background()
	user := seedUser(t, repo, "alice", domain.RoleUser)

	bio := "reader of long novels"
	updated, err := svc.UpdateProfile(ctx, user, UpdateProfileInput{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, bio, updated.Bio)

	// UpdateProfileInput has no role field at all; confirm the stored
	// role is untouched by a profile update.
	stored, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, stored.Role)
}

func TestUserService_UpdateProfileValidatesBio(t *testing.T) {
	svc, repo := newUserService(t)
	user := seedUser(t, repo, "alice", domain.RoleUser)

	long := make([]byte, domain.BioMaxLength+1)
	for i := range long {
		long[i] = 'a'
	}
	bio := string(long)

	_, err := svc.UpdateProfile(context.Background(), user, UpdateProfileInput{Bio: &bio})
	assert.ErrorIs(t, err, domain.ErrInvalidBio)
}

func TestUserService_StaffIsAdminPolicy(t *testing.T) {
	repo := NewMockUserRepository()
	svc := NewUserService(repo, auth.Policy{StaffIsAdmin: true}, zerolog.Nop())
	ctx := context.Background()

	staff := domain.NewUser("staff", "staff@example.com")
	staff.IsStaff = true
	require.NoError(t, repo.Create(ctx, staff))

	_, err := svc.CreateUser(ctx, staff, CreateUserInput{Username: "bob", Email: "bob@example.com"})
	assert.NoError(t, err)
}
