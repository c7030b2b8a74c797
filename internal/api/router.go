package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/quillchat/chat-platform/docs"
	"github.com/quillchat/chat-platform/internal/api/handler"
	"github.com/quillchat/chat-platform/internal/api/middleware"
	"github.com/quillchat/chat-platform/internal/core/domain"
	"github.com/quillchat/chat-platform/internal/core/ports"
	"github.com/quillchat/chat-platform/internal/core/service"
)

// Deps carries everything the router needs. Stores, the session registry
// and the cascade queue are built in main because the sweep loop and the
// background workers share them with the HTTP surface.
type Deps struct {
	Log           zerolog.Logger
	AuthMode      string // "credentialed" or "bypass"
	DB            *mongo.Database
	Redis         *redis.Client
	Identities    ports.IdentityStore
	Groups        ports.GroupStore
	Conversations ports.ConversationStore
	Registry      ports.SessionRegistry
	Maintenance   *service.Maintenance
	Tokens        *service.TokenService
	Throttle      service.LoginThrottle
	Cascade       service.CascadeQueue
	TokenTTL      time.Duration
	BcryptCost    int
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("chat"))
	e.Use(middleware.Gate(middleware.GateConfig{
		Bypass:      deps.AuthMode == "bypass",
		Tokens:      deps.Tokens,
		Sessions:    deps.Registry,
		Identities:  deps.Identities,
		Maintenance: deps.Maintenance,
		Logger:      deps.Log,
	}))

	// --- Dependencies ---
	hasher := service.NewPasswordHasher(deps.BcryptCost)
	authz := service.NewAuthorizer(deps.Groups, deps.Log)
	authService := service.NewAuthService(deps.Identities, deps.Registry, hasher, deps.Tokens, deps.Throttle, deps.TokenTTL, deps.Log)
	conversationService := service.NewConversationService(deps.Conversations, deps.Groups, authz, deps.Log)
	groupService := service.NewGroupService(deps.Groups, deps.Conversations, authz, deps.Cascade, deps.Log)

	authHandler := handler.NewAuthHandler(authService, deps.Registry)
	sessionHandler := handler.NewSessionHandler(deps.Registry)
	maintenanceHandler := handler.NewMaintenanceHandler(deps.Maintenance)
	groupHandler := handler.NewGroupHandler(groupService)
	conversationHandler := handler.NewConversationHandler(conversationService)
	configHandler := handler.NewConfigHandler(deps.AuthMode)
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.DB, deps.Redis)

	// --- Public surface (mirrors the gate's allow-list) ---
	e.GET("/", configHandler.Root)
	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/docs/*", echoSwagger.WrapHandler)

	api := e.Group("/api")
	api.GET("/config", configHandler.ClientConfig)

	// --- Auth ---
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/auth/me", authHandler.Me)
	api.POST("/auth/logout", authHandler.Logout)
	api.DELETE("/auth/session", authHandler.Logout)

	// --- Conversations (any authenticated identity) ---
	conversations := api.Group("/conversations")
	conversations.POST("", conversationHandler.Create)
	conversations.GET("", conversationHandler.List)
	conversations.GET("/:id", conversationHandler.Get)
	conversations.POST("/:id/share", conversationHandler.Share)
	conversations.POST("/:id/unshare", conversationHandler.Unshare)
	conversations.PUT("/:id/share", conversationHandler.ReplaceShares)
	conversations.PUT("/:id/group", conversationHandler.MoveToGroup)
	conversations.POST("/:id/messages", conversationHandler.AppendMessage)

	// --- Groups (manager and up) ---
	groups := api.Group("/groups", middleware.RequireRole(authz, domain.RoleManager))
	groups.POST("", groupHandler.Create)
	groups.GET("", groupHandler.List)
	groups.DELETE("/:id", groupHandler.Delete)

	// --- Admin (root only) ---
	admin := api.Group("/admin", middleware.RequireRole(authz, domain.RoleRoot))
	admin.GET("/sessions", sessionHandler.List)
	admin.DELETE("/sessions", sessionHandler.RevokeAll)
	admin.DELETE("/sessions/:id", sessionHandler.Revoke)
	admin.DELETE("/users/:id/sessions", sessionHandler.RevokeByUser)
	admin.GET("/maintenance", maintenanceHandler.Get)
	admin.POST("/maintenance", maintenanceHandler.Set)

	return e
}
