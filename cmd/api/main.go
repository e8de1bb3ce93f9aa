package main

import (
	"context"
	"net/http"
	"os"
	"time"

	scs "github.com/alexedwards/scs/v2"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/oauth2"

	"github.com/sportyhq/sporty/internal/ai"
	"github.com/sportyhq/sporty/internal/cache"
	"github.com/sportyhq/sporty/internal/config"
	"github.com/sportyhq/sporty/internal/db"
	"github.com/sportyhq/sporty/internal/http/routes"
	"github.com/sportyhq/sporty/internal/strava"
	"github.com/sportyhq/sporty/internal/token"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()

	// Token storage: Postgres when configured, process memory otherwise.
	var store token.Store = token.NewMemoryStore()
	if cfg.HasDatabase() {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect database")
		}
		defer pool.Close()
		queries := db.New(pool)
		if err := queries.Bootstrap(ctx); err != nil {
			logger.Fatal().Err(err).Msg("bootstrap schema")
		}
		store = token.NewDBStore(queries)
	} else {
		logger.Warn().Msg("DATABASE_URL not set, strava tokens are stored in memory")
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.Strava.ClientID,
		ClientSecret: cfg.Strava.ClientSecret,
		RedirectURL:  cfg.Strava.RedirectURL,
		Scopes:       []string{"read", "activity:read_all"},
		Endpoint:     routes.StravaEndpoint,
	}
	tokens := token.NewService(store, oauthCfg, logger)

	cacheSvc := cache.NewServiceFromOptions(cache.Options{
		Kind:          cfg.Cache.Backend,
		RedisAddr:     cfg.CacheRedisAddr(),
		RedisPassword: cfg.Cache.RedisPassword,
		RedisDB:       cfg.Cache.RedisDB,
		DefaultTTL:    cfg.DefaultCacheTTL(),
	}, logger)

	queue := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() { _ = queue.Close() }()

	// Sessions
	sess := scs.New()
	sess.Lifetime = 12 * time.Hour
	sess.Cookie.HttpOnly = true
	sess.Cookie.SameSite = http.SameSiteLaxMode
	sess.Cookie.Secure = false

	s := routes.New(routes.ServerOptions{
		Sess:   sess,
		Cache:  cacheSvc,
		Tokens: tokens,
		Strava: strava.NewClient(logger),
		AI:     ai.NewProvider(cfg.AI, logger),
		Cfg:    cfg,
		Log:    logger,
		Asynq:  queue,
		OAuth:  oauthCfg,
	})
	h := hlog.NewHandler(logger)(s.Router)

	logger.Info().Str("port", cfg.Port).Msg("starting api")
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: h}
	logger.Fatal().Err(srv.ListenAndServe()).Msg("server stopped")
}
