// Package codes issues and verifies the confirmation codes used during
// signup. Codes are single-use: verifying a code consumes it.
package codes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/khomenkoalx/api-yamdb/internal/domain"
	"github.com/khomenkoalx/api-yamdb/internal/pkg/crypto"
	"github.com/khomenkoalx/api-yamdb/internal/repository"
)

// DefaultTTL is how long an issued code stays valid when no TTL is
// configured.
const DefaultTTL = 24 * time.Hour

// Store issues confirmation codes and verifies them against their
// stored digests. Only bcrypt digests of codes touch the cache, so a
// cache dump never reveals a usable code.
type Store struct {
	cache  repository.Cache
	ttl    time.Duration
	logger zerolog.Logger
}

// NewStore creates a confirmation-code store over the given cache.
func NewStore(cache repository.Cache, ttl time.Duration, logger zerolog.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		cache:  cache,
		ttl:    ttl,
		logger: logger.With().Str("component", "codes").Logger(),
	}
}

// key namespaces code digests in the shared cache.
func key(username string) string {
	return "confirmation_code:" + username
}

// Issue generates a fresh code for the user, stores its digest with the
// configured TTL and returns the plaintext for delivery. Re-issuing
// replaces any previous code: the old one stops working immediately.
func (s *Store) Issue(ctx context.Context, username string) (string, error) {
	code, err := crypto.GenerateConfirmationCode()
	if err != nil {
		return "", fmt.Errorf("failed to generate confirmation code: %w", err)
	}

	digest, err := crypto.DigestCode(code)
	if err != nil {
		return "", err
	}

	if err := s.cache.Set(ctx, key(username), digest, s.ttl); err != nil {
		return "", fmt.Errorf("failed to store confirmation code: %w", err)
	}

	s.logger.Debug().Str("username", username).Msg("confirmation code issued")

	return code, nil
}

// Verify checks a code for the user and consumes it on success. Expired,
// missing and mismatched codes all report domain.ErrInvalidConfirmationCode;
// the caller cannot tell which, and neither can a guesser.
func (s *Store) Verify(ctx context.Context, username, code string) error {
	digest, err := s.cache.Get(ctx, key(username))
	if err != nil {
		if errors.Is(err, repository.ErrCacheMiss) {
			return domain.ErrInvalidConfirmationCode
		}
		return fmt.Errorf("failed to load confirmation code: %w", err)
	}

	if !crypto.CompareCode(digest, code) {
		return domain.ErrInvalidConfirmationCode
	}

	if err := s.cache.Delete(ctx, key(username)); err != nil {
		s.logger.Warn().Err(err).Str("username", username).Msg("failed to consume confirmation code")
	}

	return nil
}
