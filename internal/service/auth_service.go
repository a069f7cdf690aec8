package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/khomenkoalx/api-yamdb/internal/auth"
	"github.com/khomenkoalx/api-yamdb/internal/codes"
	"github.com/khomenkoalx/api-yamdb/internal/domain"
	"github.com/khomenkoalx/api-yamdb/internal/mailer"
	"github.com/khomenkoalx/api-yamdb/internal/repository"
)

// AuthService handles signup and token exchange.
type AuthService struct {
	userRepo repository.UserRepository
	codes    *codes.Store
	mail     mailer.Sender
	tokens   auth.TokenManager
	logger   zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	userRepo repository.UserRepository,
	codeStore *codes.Store,
	mail mailer.Sender,
	tokens auth.TokenManager,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		codes:    codeStore,
		mail:     mail,
		tokens:   tokens,
		logger:   logger.With().Str("service", "auth").Logger(),
	}
}

// =============================================================================
// Input/Output Structs
// =============================================================================

// SignupInput contains the identity claimed at signup.
type SignupInput struct {
	Username string
	Email    string
}

// SignupOutput echoes the committed identity.
type SignupOutput struct {
	Username string
	Email    string
}

// TokenInput contains the credentials for a token exchange.
type TokenInput struct {
	Username         string
	ConfirmationCode string
}

// TokenOutput contains the issued access token.
type TokenOutput struct {
	Token string
}

// =============================================================================
// Service Methods
// =============================================================================

// Signup claims an identity and sends a confirmation code to its email.
// Repeating a signup with the exact same (username, email) pair is not an
// error: the account already exists and simply gets a fresh code, which
// doubles as the "lost my code" recovery path. A pair colliding with an
// existing account on only one of the two fields is a conflict.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*SignupOutput, error) {
	if err := domain.ValidateUsername(input.Username); err != nil {
		return nil, domain.NewDomainError(err, input.Username, "username")
	}
	if err := domain.ValidateEmail(input.Email); err != nil {
		return nil, domain.NewDomainError(err, input.Email, "email")
	}

	user, err := s.userRepo.GetByUsername(ctx, input.Username)
	switch {
	case err == nil:
		if user.Email != input.Email {
			return nil, domain.NewDomainError(domain.ErrUsernameTaken, input.Username, "username")
		}
		// Exact pair match: idempotent re-signup.

	case errors.Is(err, domain.ErrUserNotFound):
		// The email may still belong to another account.
		if _, err := s.userRepo.GetByEmail(ctx, input.Email); err == nil {
			return nil, domain.NewDomainError(domain.ErrEmailTaken, input.Email, "email")
		} else if !errors.Is(err, domain.ErrUserNotFound) {
			s.logger.Error().Err(err).Str("email", input.Email).Msg("failed to look up email")
			return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
		}

		user = domain.NewUser(input.Username, input.Email)
		if err := s.userRepo.Create(ctx, user); err != nil {
			// A concurrent signup may have claimed the pair between the
			// lookup and the insert; the unique constraints decide.
			if errors.Is(err, domain.ErrUsernameTaken) {
				return nil, domain.NewDomainError(domain.ErrUsernameTaken, input.Username, "username")
			}
			if errors.Is(err, domain.ErrEmailTaken) {
				return nil, domain.NewDomainError(domain.ErrEmailTaken, input.Email, "email")
			}
			s.logger.Error().Err(err).Str("username", input.Username).Msg("failed to create user")
			return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
		}
		s.logger.Info().Str("username", user.Username).Msg("user registered")

	default:
		s.logger.Error().Err(err).Str("username", input.Username).Msg("failed to look up user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	code, err := s.codes.Issue(ctx, user.Username)
	if err != nil {
		s.logger.Error().Err(err).Str("username", user.Username).Msg("failed to issue confirmation code")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	// The identity is committed at this point; a delivery failure is
	// reported distinctly so the client retries signup, not support.
	if err := s.mail.SendConfirmationCode(ctx, user.Email, user.Username, code); err != nil {
		s.logger.Error().Err(err).Str("username", user.Username).Msg("failed to deliver confirmation code")
		return nil, domain.ErrCodeDelivery
	}

	return &SignupOutput{Username: user.Username, Email: user.Email}, nil
}

// Token exchanges a confirmation code for a JWT access token. The code
// is consumed on success; exchanging it twice fails the second time.
func (s *AuthService) Token(ctx context.Context, input TokenInput) (*TokenOutput, error) {
	if err := domain.ValidateUsername(input.Username); err != nil {
		return nil, domain.NewDomainError(err, input.Username, "username")
	}

	user, err := s.userRepo.GetByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		s.logger.Error().Err(err).Str("username", input.Username).Msg("failed to look up user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if err := s.codes.Verify(ctx, user.Username, input.ConfirmationCode); err != nil {
		if errors.Is(err, domain.ErrInvalidConfirmationCode) {
			return nil, domain.NewDomainError(domain.ErrInvalidConfirmationCode, "", "confirmation_code")
		}
		s.logger.Error().Err(err).Str("username", user.Username).Msg("failed to verify confirmation code")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		s.logger.Error().Err(err).Str("username", user.Username).Msg("failed to generate token")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Str("username", user.Username).Msg("access token issued")

	return &TokenOutput{Token: token}, nil
}
