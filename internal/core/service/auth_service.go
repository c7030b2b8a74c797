package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quillchat/chat-platform/internal/core/domain"
	"github.com/quillchat/chat-platform/internal/core/ports"
)

// LoginThrottle abstracts the failed-attempt counter (Redis). A nil
// throttle disables throttling entirely.
type LoginThrottle interface {
	TooManyFailures(ctx context.Context, email, ip string) (bool, error)
	RecordFailure(ctx context.Context, email, ip string) error
	Reset(ctx context.Context, email, ip string) error
}

type authService struct {
	identities ports.IdentityStore
	sessions   ports.SessionRegistry
	hasher     *PasswordHasher
	tokens     *TokenService
	throttle   LoginThrottle
	tokenTTL   time.Duration
	log        zerolog.Logger
}

// NewAuthService returns an AuthService implementation.
func NewAuthService(
	identities ports.IdentityStore,
	sessions ports.SessionRegistry,
	hasher *PasswordHasher,
	tokens *TokenService,
	throttle LoginThrottle,
	tokenTTL time.Duration,
	log zerolog.Logger,
) ports.AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &authService{
		identities: identities,
		sessions:   sessions,
		hasher:     hasher,
		tokens:     tokens,
		throttle:   throttle,
		tokenTTL:   tokenTTL,
		log:        log,
	}
}

// Register creates an account. The very first account in the store becomes
// root; everyone after starts as a regular user and gets promoted later.
func (s *authService) Register(ctx context.Context, in ports.RegisterInput) (*domain.Identity, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	role := domain.RoleUser
	total, err := s.identities.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if total == 0 {
		role = domain.RoleRoot
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := time.Now().UTC()
	identity := &domain.Identity{
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
		Role:         role,
		Status:       domain.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.identities.Create(ctx, identity)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("user_id", created.ID).
		Str("role", string(created.Role)).
		Msg("identity registered")
	return created, nil
}

// Login runs the credential exchange: throttle, resolve, verify, then open
// a session and bind a token to it.
func (s *authService) Login(ctx context.Context, in ports.LoginInput) (*ports.AuthResult, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	// 1. Throttle check. Redis being down must never lock users out.
	if s.throttle != nil {
		blocked, err := s.throttle.TooManyFailures(ctx, email, in.IPAddress)
		if err != nil {
			s.log.Warn().Err(err).Msg("login throttle check failed, allowing attempt")
		} else if blocked {
			return nil, domain.ErrTooManyAttempts
		}
	}

	// 2. Resolve the account. Unknown emails read as bad credentials so
	// responses do not reveal which addresses exist.
	identity, err := s.identities.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			s.recordFailure(ctx, email, in.IPAddress)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	// 3. Password before status: a disabled answer is only ever served to
	// someone holding valid credentials.
	if !s.hasher.Verify(in.Password, identity.PasswordHash) {
		s.recordFailure(ctx, email, in.IPAddress)
		return nil, domain.ErrInvalidCredentials
	}
	if identity.Disabled() {
		return nil, domain.ErrIdentityDisabled
	}

	// 4. Open the session and issue its token.
	now := time.Now().UTC()
	session := domain.Session{
		ID:        uuid.NewString(),
		UserID:    identity.ID,
		UserEmail: identity.Email,
		CreatedAt: now,
		IPAddress: in.IPAddress,
		UserAgent: in.UserAgent,
	}
	token, expiresAt, err := s.tokens.Issue(*identity, session.ID, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("login: sign token: %w", err)
	}
	session.ExpiresAt = expiresAt
	s.sessions.Register(session)

	if s.throttle != nil {
		if err := s.throttle.Reset(ctx, email, in.IPAddress); err != nil {
			s.log.Warn().Err(err).Msg("login throttle reset failed")
		}
	}

	s.log.Info().
		Str("user_id", identity.ID).
		Str("session_id", session.ID).
		Msg("login succeeded")

	return &ports.AuthResult{
		Token:     token,
		ExpiresAt: expiresAt,
		SessionID: session.ID,
		Identity:  identity,
	}, nil
}

func (s *authService) recordFailure(ctx context.Context, email, ip string) {
	if s.throttle == nil {
		return
	}
	if err := s.throttle.RecordFailure(ctx, email, ip); err != nil {
		s.log.Warn().Err(err).Msg("login throttle record failed")
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
