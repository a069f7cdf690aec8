package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/khomenkoalx/api-yamdb/internal/auth"
	"github.com/khomenkoalx/api-yamdb/internal/domain"
	"github.com/khomenkoalx/api-yamdb/internal/repository"
)

// UserService handles user administration and profile management.
type UserService struct {
	userRepo repository.UserRepository
	policy   auth.Policy
	logger   zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository, policy auth.Policy, logger zerolog.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		policy:   policy,
		logger:   logger.With().Str("service", "user").Logger(),
	}
}

// =============================================================================
// Input/Output Structs
// =============================================================================

// CreateUserInput contains the data for an admin-created account.
type CreateUserInput struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Bio       string
	Role      string
}

// UpdateUserInput contains partial account changes. Nil fields are left
// untouched.
type UpdateUserInput struct {
	Email     *string
	FirstName *string
	LastName  *string
	Bio       *string
	Role      *string
}

// UpdateProfileInput contains partial self-service profile changes.
// The role is deliberately absent: nobody promotes themselves.
type UpdateProfileInput struct {
	Email     *string
	FirstName *string
	LastName  *string
	Bio       *string
}

// ListUsersInput contains user list filters.
type ListUsersInput struct {
	Search string
	Limit  int
	Offset int
}

// =============================================================================
// Service Methods
// =============================================================================

// CreateUser creates an account on behalf of an administrator. Unlike
// signup, the account needs no confirmation: the admin vouches for it.
func (s *UserService) CreateUser(ctx context.Context, actor *domain.User, input CreateUserInput) (*domain.User, error) {
	if actor == nil {
		return nil, domain.ErrNotAuthenticated
	}
	if !s.policy.CanManageUsers(actor) {
		return nil, domain.ErrAccessDenied
	}

	if err := domain.ValidateUsername(input.Username); err != nil {
		return nil, domain.NewDomainError(err, input.Username, "username")
	}
	if err := domain.ValidateEmail(input.Email); err != nil {
		return nil, domain.NewDomainError(err, input.Email, "email")
	}
	if err := domain.ValidateBio(input.Bio); err != nil {
		return nil, domain.NewDomainError(err, "", "bio")
	}

	role := domain.RoleUser
	if input.Role != "" {
		role = domain.Role(input.Role)
		if !role.Valid() {
			return nil, domain.NewDomainError(domain.ErrInvalidRole, input.Role, "role")
		}
	}

	user := domain.NewUser(input.Username, input.Email)
	user.FirstName = input.FirstName
	user.LastName = input.LastName
	user.Bio = input.Bio
	user.Role = role

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUsernameTaken) {
			return nil, domain.NewDomainError(domain.ErrUsernameTaken, input.Username, "username")
		}
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, domain.NewDomainError(domain.ErrEmailTaken, input.Email, "email")
		}
		s.logger.Error().Err(err).Str("username", input.Username).Msg("failed to create user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Str("username", user.Username).
		Str("role", string(user.Role)).
		Str("created_by", actor.Username).
		Msg("user created by admin")

	return user, nil
}

// GetUser retrieves an account by username. Admin only.
func (s *UserService) GetUser(ctx context.Context, actor *domain.User, username string) (*domain.User, error) {
	if actor == nil {
		return nil, domain.ErrNotAuthenticated
	}
	if !s.policy.CanManageUsers(actor) {
		return nil, domain.ErrAccessDenied
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		s.logger.Error().Err(err).Str("username", username).Msg("failed to get user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return user, nil
}

// ListUsers returns accounts ordered by username. Admin only.
func (s *UserService) ListUsers(ctx context.Context, actor *domain.User, input ListUsersInput) (*repository.ListResult[domain.User], error) {
	if actor == nil {
		return nil, domain.ErrNotAuthenticated
	}
	if !s.policy.CanManageUsers(actor) {
		return nil, domain.ErrAccessDenied
	}

	result, err := s.userRepo.List(ctx, input.Search, repository.ListOptions{
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list users")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return result, nil
}

// UpdateUser applies a partial account change. Admin only.
func (s *UserService) UpdateUser(ctx context.Context, actor *domain.User, username string, input UpdateUserInput) (*domain.User, error) {
	if actor == nil {
		return nil, domain.ErrNotAuthenticated
	}
	if !s.policy.CanManageUsers(actor) {
		return nil, domain.ErrAccessDenied
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		s.logger.Error().Err(err).Str("username", username).Msg("failed to get user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if input.Role != nil {
		role := domain.Role(*input.Role)
		if !role.Valid() {
			return nil, domain.NewDomainError(domain.ErrInvalidRole, *input.Role, "role")
		}
		user.Role = role
	}

	if err := s.applyProfileFields(user, input.Email, input.FirstName, input.LastName, input.Bio); err != nil {
		return nil, err
	}

	if err := s.saveUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("username", user.Username).
		Str("updated_by", actor.Username).
		Msg("user updated by admin")

	return user, nil
}

// DeleteUser removes an account. Admin only.
func (s *UserService) DeleteUser(ctx context.Context, actor *domain.User, username string) error {
	if actor == nil {
		return domain.ErrNotAuthenticated
	}
	if !s.policy.CanManageUsers(actor) {
		return domain.ErrAccessDenied
	}

	if err := s.userRepo.Delete(ctx, username); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUserNotFound
		}
		s.logger.Error().Err(err).Str("username", username).Msg("failed to delete user")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Str("username", username).
		Str("deleted_by", actor.Username).
		Msg("user deleted by admin")

	return nil
}

// GetProfile returns the actor's own account.
func (s *UserService) GetProfile(ctx context.Context, actor *domain.User) (*domain.User, error) {
	if actor == nil {
		return nil, domain.ErrNotAuthenticated
	}
	return actor, nil
}

// UpdateProfile applies a partial change to the actor's own account.
// The role stays as it is no matter what the request says.
func (s *UserService) UpdateProfile(ctx context.Context, actor *domain.User, input UpdateProfileInput) (*domain.User, error) {
	if actor == nil {
		return nil, domain.ErrNotAuthenticated
	}

	user := *actor
	if err := s.applyProfileFields(&user, input.Email, input.FirstName, input.LastName, input.Bio); err != nil {
		return nil, err
	}

	if err := s.saveUser(ctx, &user); err != nil {
		return nil, err
	}

	return &user, nil
}

// applyProfileFields validates and applies the shared optional fields.
func (s *UserService) applyProfileFields(user *domain.User, email, firstName, lastName, bio *string) error {
	if email != nil {
		if err := domain.ValidateEmail(*email); err != nil {
			return domain.NewDomainError(err, *email, "email")
		}
		user.Email = *email
	}
	if firstName != nil {
		user.FirstName = *firstName
	}
	if lastName != nil {
		user.LastName = *lastName
	}
	if bio != nil {
		if err := domain.ValidateBio(*bio); err != nil {
			return domain.NewDomainError(err, "", "bio")
		}
		user.Bio = *bio
	}
	return nil
}

// saveUser persists an update, mapping constraint violations.
func (s *UserService) saveUser(ctx context.Context, user *domain.User) error {
	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return domain.NewDomainError(domain.ErrEmailTaken, user.Email, "email")
		}
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUserNotFound
		}
		s.logger.Error().Err(err).Str("username", user.Username).Msg("failed to update user")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return nil
}
