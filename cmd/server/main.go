package main

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/RiseNet-Web/gestasso-sub002/internal/api"
	"github.com/RiseNet-Web/gestasso-sub002/internal/core/domain"
	"github.com/RiseNet-Web/gestasso-sub002/internal/core/ports"
	"github.com/RiseNet-Web/gestasso-sub002/internal/core/service"
	"github.com/RiseNet-Web/gestasso-sub002/internal/infrastructure/config"
	mongodb "github.com/RiseNet-Web/gestasso-sub002/internal/infrastructure/db/mongo"
	redisdb "github.com/RiseNet-Web/gestasso-sub002/internal/infrastructure/db/redis"
	"github.com/RiseNet-Web/gestasso-sub002/internal/infrastructure/provider/apple"
	"github.com/RiseNet-Web/gestasso-sub002/internal/infrastructure/provider/google"
	"github.com/RiseNet-Web/gestasso-sub002/internal/infrastructure/queue"
	"github.com/RiseNet-Web/gestasso-sub002/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connect")
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connect")
	}
	defer func() { _ = rdb.Close() }()

	users := mongodb.NewUserRepository(client, db)
	auths := mongodb.NewAuthenticationRepository(db)
	refreshTokens := mongodb.NewRefreshTokenRepository(db)
	for _, idx := range []interface {
		EnsureIndexes(context.Context) error
	}{users, auths, refreshTokens} {
		if err := idx.EnsureIndexes(ctx); err != nil {
			log.Fatal().Err(err).Msg("ensure indexes")
		}
	}

	// --- Crypto material ---
	signingKey, err := loadSigningKey(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("load signing key")
	}

	// --- Identity providers ---
	providers := make(map[domain.Provider]ports.OAuthProvider)
	if cfg.Google.Enabled() {
		providers[domain.ProviderGoogle] = google.New(google.Config{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.Google.RedirectURL,
		})
	}
	if cfg.Apple.Enabled() {
		appleProvider, err := apple.New(apple.Config{
			TeamID:          cfg.Apple.TeamID,
			KeyID:           cfg.Apple.KeyID,
			ClientID:        cfg.Apple.ClientID,
			RedirectURL:     cfg.Apple.RedirectURL,
			SigningKeyPEM:   cfg.Apple.SigningKeyPEM,
			VerifySignature: cfg.Apple.VerifySignature,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("apple provider")
		}
		providers[domain.ProviderApple] = appleProvider
	}

	// --- Security event pipeline ---
	securityService := service.NewSecurityService(
		mongodb.NewSecurityEventRepository(db),
		logger.Component("security"),
	)
	dispatcher := queue.NewDispatcher(cfg.SecurityWorkers, securityService, logger.Component("dispatcher"))
	dispatcher.Start(ctx)

	// --- HTTP ---
	e := api.NewRouter(api.RouterConfig{
		DB:            db,
		Redis:         rdb,
		SigningKey:    signingKey,
		JWTIssuer:     cfg.JWTIssuer,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
		StateTTL:      cfg.Redis.StateTTL,
		Providers:     providers,
		Security:      dispatcher,
		Log:           logger.Component("http"),
		SecureCookies: cfg.Env != "development",
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server start")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server started")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	log.Info().Msg("server stopped")
}

// loadSigningKey parses the RSA key from configuration. Development setups
// without a key get an ephemeral one, which invalidates access tokens on
// every restart.
func loadSigningKey(cfg *config.Config) (*rsa.PrivateKey, error) {
	if cfg.SigningKeyPEM != "" {
		return jwt.ParseRSAPrivateKeyFromPEM([]byte(cfg.SigningKeyPEM))
	}
	if cfg.Env != "development" {
		return nil, errors.New("JWT_SIGNING_KEY is required outside development")
	}
	return rsa.GenerateKey(rand.Reader, 2048)
}
