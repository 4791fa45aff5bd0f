package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bioscanq/scanq/internal/dispatch"
	"github.com/bioscanq/scanq/internal/middleware"
	"github.com/bioscanq/scanq/internal/providers"
	"github.com/bioscanq/scanq/internal/queue"
	"github.com/bioscanq/scanq/internal/ratelimit"
	"github.com/bioscanq/scanq/internal/scan"
	"github.com/bioscanq/scanq/internal/tracing"
	"github.com/bioscanq/scanq/pkg/auth"
	"github.com/bioscanq/scanq/pkg/config"
)

type Application struct {
	Config          *config.Config
	Engine          *gin.Engine
	Dispatcher      *dispatch.Dispatcher
	Logger          *slog.Logger
	Validator       auth.Validator
	RateLimiter     ratelimit.Limiter
	TracingShutdown func(context.Context) error

	jobsOverride dispatch.AsyncJobClient
}

// ApplicationOption configures the Application.
type ApplicationOption func(*Application) error

// WithValidator sets a custom bearer-token validator.
func WithValidator(validator auth.Validator) ApplicationOption {
	return func(app *Application) error {
		app.Validator = validator
		return nil
	}
}

// WithJobClient overrides the queue client, mainly for tests.
func WithJobClient(jobs dispatch.AsyncJobClient) ApplicationOption {
	return func(app *Application) error {
		app.jobsOverride = jobs
		return nil
	}
}

func NewApplication(cfg *config.Config, opts ...ApplicationOption) (*Application, error) {
	level := new(slog.LevelVar)
	switch cfg.LogLevel {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	logger := slog.New(handler).With("service", "scanq", "env", cfg.Env)
	slog.SetDefault(logger)

	shutdown, err := tracing.Setup(context.Background(), tracing.Config{
		Enabled:      cfg.TracingEnabled,
		ServiceName:  "scanq",
		OTLPEndpoint: cfg.OTLPEndpoint,
		OTLPInsecure: cfg.OTLPInsecure,
		SampleRatio:  cfg.SampleRatio,
	}, logger)
	if err != nil {
		return nil, err
	}

	app := &Application{
		Config:          cfg,
		Logger:          logger,
		TracingShutdown: shutdown,
	}

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	if app.Validator == nil && cfg.Auth.Provider != "" {
		validator, err := buildValidator(cfg.Auth)
		if err != nil {
			return nil, err
		}
		app.Validator = validator
	}

	if cfg.RedisAddr != "" {
		rdb := providers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword)
		app.RateLimiter = ratelimit.NewTokenBucketLimiter(rdb)
	}

	jobs := app.jobsOverride
	if jobs == nil && cfg.QueueEnabled {
		jobs = queue.NewClient(cfg.QueueURL, cfg.QueueToken, time.Duration(cfg.QueueTimeoutSeconds)*time.Second)
	}
	scanner := scan.NewService(*cfg, logger)
	app.Dispatcher = dispatch.New(scanner, jobs, logger)

	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.RequestIDMiddleware(), middleware.LoggerMiddleware(logger))
	app.Engine = engine

	return app, nil
}

// buildValidator maps the flat YAML auth section onto the provider registry's
// JSON config shape.
func buildValidator(cfg config.AuthConfig) (auth.Validator, error) {
	var raw []byte
	switch cfg.Provider {
	case "static":
		raw, _ = json.Marshal(map[string]any{"token": cfg.Token})
	case "jwt":
		raw, _ = json.Marshal(map[string]any{
			"secret":   cfg.Secret,
			"issuer":   cfg.Issuer,
			"audience": cfg.Audience,
		})
	}
	return auth.NewValidator(auth.ProviderConfig{Type: cfg.Provider, Config: raw})
}
