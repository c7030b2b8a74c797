package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/quillchat/chat-platform/internal/core/domain"
	"github.com/quillchat/chat-platform/internal/core/service"
)

type stubIdentities struct {
	byID map[string]*domain.Identity
}

func (s *stubIdentities) Create(_ context.Context, identity *domain.Identity) (*domain.Identity, error) {
	return identity, nil
}

func (s *stubIdentities) FindByID(_ context.Context, id string) (*domain.Identity, error) {
	identity, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}
	return identity, nil
}

func (s *stubIdentities) FindByEmail(_ context.Context, _ string) (*domain.Identity, error) {
	return nil, domain.ErrIdentityNotFound
}

func (s *stubIdentities) Count(_ context.Context) (int64, error) {
	return int64(len(s.byID)), nil
}

func gateFixture(t *testing.T) (GateConfig, *service.SessionRegistry, *service.TokenService, domain.Identity) {
	t.Helper()

	tokens, err := service.NewTokenService("test-secret", "chat-platform")
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	registry := service.NewSessionRegistry(zerolog.Nop())
	identity := domain.Identity{
		ID:     "user-1",
		Email:  "alice@example.com",
		Role:   domain.RoleUser,
		Status: domain.StatusActive,
	}
	cfg := GateConfig{
		Tokens:      tokens,
		Sessions:    registry,
		Identities:  &stubIdentities{byID: map[string]*domain.Identity{identity.ID: &identity}},
		Maintenance: service.NewMaintenance(zerolog.Nop()),
		Logger:      zerolog.Nop(),
	}
	return cfg, registry, tokens, identity
}

// login mimics a real credential exchange: register a session and issue a
// token bound to it.
func login(t *testing.T, registry *service.SessionRegistry, tokens *service.TokenService, identity domain.Identity, ttl time.Duration) string {
	t.Helper()

	now := time.Now().UTC()
	session := domain.Session{
		ID:        "session-1",
		UserID:    identity.ID,
		UserEmail: identity.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	registry.Register(session)

	token, _, err := tokens.Issue(identity, session.ID, ttl)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func runGate(t *testing.T, cfg GateConfig, req *http.Request) (*httptest.ResponseRecorder, bool, echo.Context) {
	t.Helper()

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Gate(cfg)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, called, c
}

func TestGate_PublicPaths(t *testing.T) {
	cfg, _, _, _ := gateFixture(t)

	public := []string{"/", "/health", "/health/ready", "/metrics", "/docs", "/docs/index.html", "/api/config", "/api/auth/login", "/api/auth/register"}
	for _, path := range public {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec, called, _ := runGate(t, cfg, req)
		if !called || rec.Code != http.StatusOK {
			t.Fatalf("path %s: expected public pass, got %d (called=%v)", path, rec.Code, called)
		}
	}

	private := []string{"/api", "/api/conversations", "/docsx", "/healthz", "/x"}
	for _, path := range private {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec, called, _ := runGate(t, cfg, req)
		if called || rec.Code != http.StatusUnauthorized {
			t.Fatalf("path %s: expected 401, got %d (called=%v)", path, rec.Code, called)
		}
	}
}

func TestGate_BypassInjectsPlaceholder(t *testing.T) {
	cfg, _, _, _ := gateFixture(t)
	cfg.Bypass = true

	req := httptest.NewRequest(http.MethodGet, "/api/conversations", nil)
	// Bypass never reads credentials, so a garbage header must not matter.
	req.Header.Set("Authorization", "Bearer garbage")
	rec, called, c := runGate(t, cfg, req)
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected bypass pass, got %d", rec.Code)
	}

	identity, ok := c.Get("identity").(domain.Identity)
	if !ok {
		t.Fatalf("identity not set")
	}
	if identity.ID != domain.BypassUserID {
		t.Fatalf("expected placeholder id %q, got %q", domain.BypassUserID, identity.ID)
	}
	if identity.Role != domain.RoleRoot {
		t.Fatalf("expected root role, got %q", identity.Role)
	}
}

// A bypass instance carries no tenant traffic, so maintenance does not
// apply to it.
func TestGate_BypassSkipsMaintenance(t *testing.T) {
	cfg, _, _, _ := gateFixture(t)
	cfg.Bypass = true
	cfg.Maintenance.Set(true)

	req := httptest.NewRequest(http.MethodGet, "/api/conversations", nil)
	rec, called, _ := runGate(t, cfg, req)
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected bypass to pass during maintenance, got %d", rec.Code)
	}
}

func TestGate_MissingAndMalformedHeaders(t *testing.T) {
	cfg, _, _, _ := gateFixture(t)

	headers := []string{"", "Token abc", "Bearer", "bearer-without-space"}
	for _, h := range headers {
		req := httptest.NewRequest(http.MethodGet, "/api/conversations", nil)
		if h != "" {
			req.Header.Set("Authorization", h)
		}
		rec, called, _ := runGate(t, cfg, req)
		if called || rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", h, rec.Code)
		}
	}
}

func TestGate_ValidToken(t *testing.T) {
	cfg, registry, tokens, identity := gateFixture(t)
	token := login(t, registry, tokens, identity, time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/api/conversations", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec, called, c := runGate(t, cfg, req)
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected pass, got %d", rec.Code)
	}

	actor, ok := c.Get("identity").(domain.Identity)
	if !ok {
		t.Fatalf("identity not set")
	}
	if actor.ID != identity.ID {
		t.Fatalf("expected identity %q, got %q", identity.ID, actor.ID)
	}
	if sid, _ := c.Get("session_id").(string); sid != "session-1" {
		t.Fatalf("session id not set, got %q", sid)
	}
}

// The scheme comparison is case-insensitive.
func TestGate_LowercaseBearerScheme(t *testing.T) {
	cfg, registry, tokens, identity := gateFixture(t)
	token := login(t, registry, tokens, identity, time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/api/conversations", nil)
	req.Header.Set("Authorization", "bearer "+token)
	rec, called, _ := runGate(t, cfg, req)
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected pass with lowercase scheme, got %d", rec.Code)
	}
}

func TestGate_ExpiredToken(t *testing.T) {
	cfg, registry, tokens, identity := gateFixture(t)
	token := login(t, registry, tokens, identity, -time.Minute)

	req := httptest.NewRequest(http.MethodGet, "/api/conversations", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec, called, _ := runGate(t, cfg, req)
	if called || rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %d", rec.Code)
	}
}

func TestGate_TamperedToken(t *testing.T) {
	cfg, registry, tokens, identity := gateFixture(t)
	token := login(t, registry, tokens, identity, time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/api/conversations", nil)
	req.Header.Set("Authorization", "Bearer "+token+"x")
	rec, called, _ := runGate(t, cfg, req)
	if called || rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for tampered token, got %d", rec.Code)
	}
}

func TestGate_RevokedSession(t *testing.T) {
	cfg, registry, tokens, identity := gateFixture(t)
	token := login(t, registry, tokens, identity, time.Hour)
	registry.Revoke("session-1")

	req := httptest.NewRequest(http.MethodGet, "/api/conversations", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec, called, _ := runGate(t, cfg, req)
	if called || rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after revocation, got %d", rec.Code)
	}
}

// A disabled account gets the same generic 401 as a bad token, never a
// dedicated status that would reveal the account state.
func TestGate_DisabledIdentity(t *testing.T) {
	cfg, registry, tokens, identity := gateFixture(t)
	token := login(t, registry, tokens, identity, time.Hour)

	disabled := identity
	disabled.Status = domain.StatusDisabled
	cfg.Identities = &stubIdentities{byID: map[string]*domain.Identity{identity.ID: &disabled}}

	req := httptest.NewRequest(http.MethodGet, "/api/conversations", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec, called, _ := runGate(t, cfg, req)
	if called || rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for disabled identity, got %d", rec.Code)
	}
}

func TestGate_DeletedIdentity(t *testing.T) {
	cfg, registry, tokens, identity := gateFixture(t)
	token := login(t, registry, tokens, identity, time.Hour)
	cfg.Identities = &stubIdentities{byID: map[string]*domain.Identity{}}

	req := httptest.NewRequest(http.MethodGet, "/api/conversations", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec, called, _ := runGate(t, cfg, req)
	if called || rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for deleted identity, got %d", rec.Code)
	}
}

func TestGate_MaintenanceBlocksNonRoot(t *testing.T) {
	cfg, registry, tokens, identity := gateFixture(t)
	token := login(t, registry, tokens, identity, time.Hour)
	cfg.Maintenance.Set(true)

	req := httptest.NewRequest(http.MethodGet, "/api/conversations", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec, called, _ := runGate(t, cfg, req)
	if called || rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 during maintenance, got %d", rec.Code)
	}

	// Public paths stay reachable.
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	rec, called, _ = runGate(t, cfg, req)
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected public path to pass during maintenance, got %d", rec.Code)
	}
}

func TestGate_MaintenanceAdmitsRoot(t *testing.T) {
	cfg, registry, tokens, _ := gateFixture(t)
	root := domain.Identity{
		ID:     "root-1",
		Email:  "root@example.com",
		Role:   domain.RoleRoot,
		Status: domain.StatusActive,
	}
	cfg.Identities = &stubIdentities{byID: map[string]*domain.Identity{root.ID: &root}}
	token := login(t, registry, tokens, root, time.Hour)
	cfg.Maintenance.Set(true)

	req := httptest.NewRequest(http.MethodGet, "/api/conversations", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec, called, _ := runGate(t, cfg, req)
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected root to pass during maintenance, got %d", rec.Code)
	}
}

func TestGate_SessionExpiryBeatsTokenValidity(t *testing.T) {
	cfg, registry, tokens, identity := gateFixture(t)

	// Token valid for an hour, session already past its expiry.
	now := time.Now().UTC()
	registry.Register(domain.Session{
		ID:        "session-1",
		UserID:    identity.ID,
		CreatedAt: now.Add(-2 * time.Hour),
		ExpiresAt: now.Add(-time.Hour),
	})
	token, _, err := tokens.Issue(identity, "session-1", time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/conversations", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec, called, _ := runGate(t, cfg, req)
	if called || rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired session, got %d", rec.Code)
	}
}
