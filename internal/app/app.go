package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/sebastianrich18/link-shortener/internal/auth"
	"github.com/sebastianrich18/link-shortener/internal/cache"
	"github.com/sebastianrich18/link-shortener/internal/config"
	"github.com/sebastianrich18/link-shortener/internal/link"
	"github.com/sebastianrich18/link-shortener/internal/server"
	"github.com/sebastianrich18/link-shortener/internal/user"
)

// App holds the application dependencies and configuration.
type App struct {
	Config *config.Config
	Logger *slog.Logger
	DBPool *pgxpool.Pool
	Redis  *redis.Client
	Server *server.Server
}

// New initializes and returns a new App instance with all dependencies wired up.
func New(ctx context.Context) (*App, error) {
	if err := loadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := setupLogger(cfg.App.LogLevel)

	logger.Info("starting application",
		"env", cfg.App.Environment,
		"version", cfg.Observability.ServiceVersion,
	)

	// Connect to database
	dbPool, err := connectDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Connect to cache backend
	redisClient, store, err := connectCache(ctx, cfg, logger)
	if err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("failed to connect to cache: %w", err)
	}

	// Setup application dependencies
	linkRepo := link.NewRepository(dbPool)
	userRepo := user.NewRepository(dbPool)

	tokens := auth.NewIssuer([]byte(cfg.Auth.JWTSecret), &auth.IssuerConfig{
		TTL: cfg.Auth.TokenTTL,
	})

	resolver := link.NewResolver(linkRepo, nil)
	cachedResolver := link.NewCachedResolver(resolver, store, &link.CachedResolverConfig{
		TTL:    cfg.Cache.DefaultTTL,
		Logger: logger,
	})

	linkSvc := link.NewService(linkRepo, nil)
	linkHandler := link.NewHandler(link.HandlerConfig{
		Service:  linkSvc,
		Resolver: cachedResolver,
		Logger:   logger,
	})
	userHandler := user.NewHandler(user.HandlerConfig{
		Repo:   userRepo,
		Tokens: tokens,
		Logger: logger,
	})

	// Create server
	srv := server.New(cfg, logger, linkHandler, userHandler, auth.Require(tokens, logger))

	logger.Info("application initialized",
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
	)

	return &App{
		Config: cfg,
		Logger: logger,
		DBPool: dbPool,
		Redis:  redisClient,
		Server: srv,
	}, nil
}

// Start starts the application server.
func (a *App) Start(ctx context.Context) error {
	a.Logger.Info("server starting",
		"port", a.Config.Server.Port,
		"base_url", a.Config.Server.BaseURL,
	)

	if err := a.Server.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown() error {
	a.Logger.Info("shutting down application")

	if a.DBPool != nil {
		a.DBPool.Close()
		a.Logger.Info("database connection closed")
	}

	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warn("failed to close redis client", "error", err.Error())
		} else {
			a.Logger.Info("redis connection closed")
		}
	}

	return nil
}

// loadEnv loads .env file only in non-production environments.
func loadEnv() error {
	env := os.Getenv("APP_ENV")
	if env == "development" || env == "test" {
		if err := godotenv.Load("../.env"); err != nil {
			log.Println("no .env file found.")
		}
	}
	return nil
}

// setupLogger creates a structured logger based on the log level.
func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}

// connectDatabase establishes a connection to the PostgreSQL database.
func connectDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// Set pool configuration
	poolConfig.MaxConns = cfg.Database.MaxConns
	poolConfig.MinConns = cfg.Database.MinConns

	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established")

	return pool, nil
}

// connectCache builds the Redis-backed cache store and verifies connectivity
// at startup. Without the ping a misconfigured cache would only show up on
// the first redirect.
func connectCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*redis.Client, *cache.RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	store := cache.NewRedisStore(client)
	if err := store.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Info("redis connection established", "addr", cfg.Redis.Addr)

	return client, store, nil
}
