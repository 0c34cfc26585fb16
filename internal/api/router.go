package api

import (
	"crypto/rsa"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/RiseNet-Web/gestasso-sub002/internal/api/handler"
	"github.com/RiseNet-Web/gestasso-sub002/internal/api/middleware"
	"github.com/RiseNet-Web/gestasso-sub002/internal/core/domain"
	"github.com/RiseNet-Web/gestasso-sub002/internal/core/ports"
	"github.com/RiseNet-Web/gestasso-sub002/internal/core/service"
	mongodb "github.com/RiseNet-Web/gestasso-sub002/internal/infrastructure/db/mongo"
	redisdb "github.com/RiseNet-Web/gestasso-sub002/internal/infrastructure/db/redis"
)

// RouterConfig carries everything the HTTP layer needs that is built
// outside of it: connections, crypto material, and the async security sink.
type RouterConfig struct {
	DB         *mongo.Database
	Redis      *goredis.Client
	SigningKey *rsa.PrivateKey
	JWTIssuer  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	StateTTL   time.Duration
	Providers  map[domain.Provider]ports.OAuthProvider
	Security   ports.SecurityEventSink
	Log        zerolog.Logger
	// SecureCookies should be true everywhere except local development.
	SecureCookies bool
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(cfg.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("gestasso_auth"))

	// --- Dependencies ---
	users := mongodb.NewUserRepository(cfg.DB.Client(), cfg.DB)
	auths := mongodb.NewAuthenticationRepository(cfg.DB)
	refreshTokens := mongodb.NewRefreshTokenRepository(cfg.DB)
	states := redisdb.NewStateStore(cfg.Redis, cfg.StateTTL)

	tokenService := service.NewTokenService(
		refreshTokens, users, cfg.SigningKey, cfg.JWTIssuer,
		cfg.AccessTTL, cfg.RefreshTTL, cfg.Security,
	)
	passwordProvider := service.NewPasswordProvider(users, auths)
	linker := service.NewLinker(users, auths)
	authService := service.NewAuthService(
		passwordProvider, linker, tokenService, users, auths, cfg.Providers, states,
	)

	authHandler := handler.NewAuthHandler(authService, cfg.SecureCookies)
	oauthHandler := handler.NewOAuthHandler(authService, cfg.SecureCookies)
	authMiddleware := middleware.Auth(tokenService)

	// --- Session routes ---
	e.POST("/login", authHandler.Login)
	e.POST("/register", authHandler.Register)
	e.POST("/refresh-token", authHandler.Refresh)
	e.POST("/logout", authHandler.Logout)
	e.GET("/profile", authHandler.Profile, authMiddleware)

	// --- Social sign-in routes ---
	e.GET("/auth/:provider/authorize", oauthHandler.Authorize)
	e.POST("/auth/:provider/callback", oauthHandler.Callback)

	// --- Observability ---
	e.GET("/metrics", echoprometheus.NewHandler())

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(cfg.DB, cfg.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	return e
}
