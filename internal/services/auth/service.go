// Package auth resolves bearer credentials into principals.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/lingopal/conversation-service/internal/core/cache"
	"github.com/lingopal/conversation-service/internal/core/docdb"
	"github.com/lingopal/conversation-service/internal/domain/errors"
	"github.com/lingopal/conversation-service/internal/domain/models"
	"github.com/lingopal/conversation-service/internal/pkg/encryption"
)

// DefaultPrincipalCacheTTL bounds how long a resolved principal is reused.
const DefaultPrincipalCacheTTL = time.Minute

// Config holds the dependencies of the auth service.
type Config struct {
	Users       docdb.UsersCollection
	CacheClient cache.Client
	Sealer      encryption.Sealer
	Secret      []byte
	CacheTTL    time.Duration
}

// Service verifies HS256 bearer tokens. The username is carried in the "sub" claim.
type Service struct {
	users    docdb.UsersCollection
	cache    cache.Client
	sealer   encryption.Sealer
	secret   []byte
	cacheTTL time.Duration
}

// NewService creates a new auth service. The cache is optional.
func NewService(cfg *Config) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Users == nil {
		return nil, fmt.Errorf("users collection is required")
	}
	if len(cfg.Secret) == 0 {
		return nil, fmt.Errorf("signing secret is required")
	}

	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = DefaultPrincipalCacheTTL
	}

	sealer := cfg.Sealer
	if sealer == nil {
		sealer = encryption.PlainSealer{}
	}

	return &Service{
		users:    cfg.Users,
		cache:    cfg.CacheClient,
		sealer:   sealer,
		secret:   cfg.Secret,
		cacheTTL: ttl,
	}, nil
}

// Resolve returns the active principal identified by token. Every failure is an
// unauthorized error except store failures, which are internal.
func (s *Service) Resolve(ctx context.Context, token string) (*models.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.NewUnauthorizedError("no token provided")
	}

	claims, err := s.parse(token)
	if err != nil {
		log.Debug().Err(err).Msg("rejected bearer token")
		return nil, errors.NewUnauthorizedError("could not validate credentials")
	}

	key := principalCacheKey(token)
	if principal := s.cached(ctx, key); principal != nil {
		return principal, nil
	}

	user, err := s.users.GetByUsername(ctx, claims.Subject)
	if err != nil {
		return nil, errors.NewInternalError("failed to look up user", err)
	}
	if user == nil {
		return nil, errors.NewUnauthorizedError("could not validate credentials")
	}
	if !user.IsActive {
		return nil, errors.NewUnauthorizedError("inactive user")
	}

	principal := user.ToPrincipal()
	s.store(ctx, key, principal, cacheTTLFor(claims, s.cacheTTL))
	return principal, nil
}

// IssueToken signs a token for username that expires after ttl.
func (s *Service) IssueToken(username string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *Service) parse(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	return claims, nil
}

func (s *Service) cached(ctx context.Context, key string) *models.Principal {
	if s.cache == nil {
		return nil
	}

	sealed, err := s.cache.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Msg("principal cache read failed")
		return nil
	}
	if sealed == nil {
		return nil
	}

	data, err := s.sealer.Open(sealed, []byte(key))
	if err != nil {
		_, _ = s.cache.Delete(ctx, key)
		return nil
	}

	var principal models.Principal
	if err := json.Unmarshal(data, &principal); err != nil {
		_, _ = s.cache.Delete(ctx, key)
		return nil
	}
	return &principal
}

func (s *Service) store(ctx context.Context, key string, principal *models.Principal, ttl time.Duration) {
	if s.cache == nil || ttl <= 0 {
		return
	}

	data, err := json.Marshal(principal)
	if err != nil {
		return
	}
	sealed, err := s.sealer.Seal(data, []byte(key))
	if err != nil {
		log.Warn().Err(err).Msg("failed to seal principal")
		return
	}
	if err := s.cache.Set(ctx, key, sealed, ttl); err != nil {
		log.Warn().Err(err).Msg("principal cache write failed")
	}
}

// cacheTTLFor never lets a cached principal outlive its token.
func cacheTTLFor(claims *jwt.RegisteredClaims, ttl time.Duration) time.Duration {
	if claims.ExpiresAt == nil {
		return ttl
	}
	if remaining := time.Until(claims.ExpiresAt.Time); remaining < ttl {
		return remaining
	}
	return ttl
}

func principalCacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "principal:" + hex.EncodeToString(sum[:])
}
