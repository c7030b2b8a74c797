package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/quillchat/chat-platform/internal/core/domain"
	"github.com/quillchat/chat-platform/internal/core/ports"
	"github.com/quillchat/chat-platform/internal/core/service"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.Identity, error)
	loginFn    func(ctx context.Context, in ports.LoginInput) (*ports.AuthResult, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.Identity, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, in ports.LoginInput) (*ports.AuthResult, error) {
	return s.loginFn(ctx, in)
}

// newTestEcho builds an echo instance with the request validator wired, the
// way the router does it. Shared by all handler tests in this package.
func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// actingAs injects the identity the gate would have resolved.
func actingAs(c echo.Context, identity domain.Identity) {
	c.Set("identity", identity)
}

func httpStatus(t *testing.T, err error, want int) {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	if he.Code != want {
		t.Fatalf("expected status %d, got %d (%v)", want, he.Code, he.Message)
	}
}

func TestAuthHandler_Register_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(_ context.Context, in ports.RegisterInput) (*domain.Identity, error) {
			if in.Email != "alice@example.com" || in.Name != "Alice" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.Identity{ID: "id-1", Email: in.Email, Name: in.Name, Role: domain.RoleRoot, Status: domain.StatusActive}, nil
		},
	}
	h := NewAuthHandler(stub, service.NewSessionRegistry(zerolog.Nop()))

	c, rec := jsonContext(e, http.MethodPost, "/api/auth/register",
		`{"email":"alice@example.com","name":"Alice","password":"longenough"}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	identity, ok := resp["identity"].(map[string]any)
	if !ok {
		t.Fatalf("expected identity in response")
	}
	if identity["email"] != "alice@example.com" || identity["role"] != "root" {
		t.Fatalf("unexpected identity payload: %+v", identity)
	}
	if _, leaked := identity["password_hash"]; leaked {
		t.Fatalf("password hash leaked into response")
	}
}

func TestAuthHandler_Register_InvalidPayload(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(context.Context, ports.RegisterInput) (*domain.Identity, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewAuthHandler(stub, service.NewSessionRegistry(zerolog.Nop()))

	c, _ := jsonContext(e, http.MethodPost, "/api/auth/register", "not-json")
	httpStatus(t, h.Register(c), http.StatusBadRequest)
}

func TestAuthHandler_Register_ValidationFailure(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(context.Context, ports.RegisterInput) (*domain.Identity, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewAuthHandler(stub, service.NewSessionRegistry(zerolog.Nop()))

	for _, body := range []string{
		`{"email":"not-an-email","name":"A","password":"longenough"}`,
		`{"email":"a@example.com","name":"A","password":"short"}`,
		`{"email":"a@example.com","password":"longenough"}`,
	} {
		c, _ := jsonContext(e, http.MethodPost, "/api/auth/register", body)
		httpStatus(t, h.Register(c), http.StatusUnprocessableEntity)
	}
}

func TestAuthHandler_Register_DuplicateEmail(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(context.Context, ports.RegisterInput) (*domain.Identity, error) {
			return nil, domain.ErrEmailTaken
		},
	}
	h := NewAuthHandler(stub, service.NewSessionRegistry(zerolog.Nop()))

	c, _ := jsonContext(e, http.MethodPost, "/api/auth/register",
		`{"email":"alice@example.com","name":"Alice","password":"longenough"}`)
	if err := h.Register(c); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken to flow to the error handler, got %v", err)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := newTestEcho()
	expires := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	stub := &stubAuthService{
		loginFn: func(_ context.Context, in ports.LoginInput) (*ports.AuthResult, error) {
			if in.Email != "alice@example.com" || in.Password != "secret-pass" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &ports.AuthResult{
				Token:     "token123",
				ExpiresAt: expires,
				SessionID: "session-1",
				Identity:  &domain.Identity{ID: "id-1", Email: in.Email, Role: domain.RoleUser},
			}, nil
		},
	}
	h := NewAuthHandler(stub, service.NewSessionRegistry(zerolog.Nop()))

	c, rec := jsonContext(e, http.MethodPost, "/api/auth/login",
		`{"email":"alice@example.com","password":"secret-pass"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["token"] != "token123" {
		t.Fatalf("expected token, got %v", resp["token"])
	}
	identity, ok := resp["identity"].(map[string]any)
	if !ok || identity["email"] != "alice@example.com" {
		t.Fatalf("unexpected identity payload: %+v", identity)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		loginFn: func(context.Context, ports.LoginInput) (*ports.AuthResult, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	h := NewAuthHandler(stub, service.NewSessionRegistry(zerolog.Nop()))

	c, _ := jsonContext(e, http.MethodPost, "/api/auth/login",
		`{"email":"alice@example.com","password":"wrong"}`)
	if err := h.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthHandler_Login_ValidationFailure(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		loginFn: func(context.Context, ports.LoginInput) (*ports.AuthResult, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewAuthHandler(stub, service.NewSessionRegistry(zerolog.Nop()))

	c, _ := jsonContext(e, http.MethodPost, "/api/auth/login", `{"email":"alice@example.com"}`)
	httpStatus(t, h.Login(c), http.StatusUnprocessableEntity)
}

func TestAuthHandler_Me(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubAuthService{}, service.NewSessionRegistry(zerolog.Nop()))

	c, rec := jsonContext(e, http.MethodGet, "/api/auth/me", "")
	actingAs(c, domain.Identity{ID: "id-1", Email: "alice@example.com", Role: domain.RoleManager})
	if err := h.Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	identity, ok := resp["identity"].(map[string]any)
	if !ok || identity["role"] != "manager" {
		t.Fatalf("unexpected identity payload: %+v", identity)
	}
}

func TestAuthHandler_Me_WithoutGate(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubAuthService{}, service.NewSessionRegistry(zerolog.Nop()))

	c, _ := jsonContext(e, http.MethodGet, "/api/auth/me", "")
	httpStatus(t, h.Me(c), http.StatusUnauthorized)
}

func TestAuthHandler_Logout_RevokesOwnSession(t *testing.T) {
	e := newTestEcho()
	registry := service.NewSessionRegistry(zerolog.Nop())
	registry.Register(domain.Session{
		ID:        "session-1",
		UserID:    "id-1",
		CreatedAt: time.Now().UTC(),
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	})
	h := NewAuthHandler(&stubAuthService{}, registry)

	c, rec := jsonContext(e, http.MethodPost, "/api/auth/logout", "")
	actingAs(c, domain.Identity{ID: "id-1"})
	c.Set("session_id", "session-1")
	if err := h.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if registry.IsValid("session-1") {
		t.Fatalf("expected session revoked")
	}
}

// Bypass requests carry no session; logout still answers success.
func TestAuthHandler_Logout_WithoutSession(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubAuthService{}, service.NewSessionRegistry(zerolog.Nop()))

	c, rec := jsonContext(e, http.MethodPost, "/api/auth/logout", "")
	actingAs(c, domain.Identity{ID: domain.BypassUserID, Role: domain.RoleRoot})
	if err := h.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
