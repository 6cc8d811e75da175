package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tripplanner/internal/api"
	"tripplanner/internal/auth"
	"tripplanner/internal/config"
	"tripplanner/internal/logger"
	"tripplanner/internal/metrics"
	"tripplanner/internal/redis"
	"tripplanner/internal/service/itinerary"
	"tripplanner/internal/service/weather"
	"tripplanner/internal/session"
	"tripplanner/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load(os.Getenv(config.ConfigPathEnv))
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Format)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := storage.Open(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()
	if err := storage.Migrate(db, cfg.Database.Driver); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}
	log.Info().Str("driver", cfg.Database.Driver).Msg("database ready")

	var (
		store session.Store
		rdb   *redis.Client
	)
	switch cfg.Session.Store {
	case "redis":
		rdb, err = redis.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("create redis client")
		}
		defer rdb.Close()
		store = session.NewRedisStore(rdb)
	default:
		log.Warn().Msg("using in-memory session store; sessions are lost on restart")
		store = session.NewMemoryStore()
	}
	sessions := session.NewManager(store, cfg.BasicConfig.SecretKey, session.Options{
		TTL:    cfg.SessionTTL(),
		Secure: cfg.Session.Secure,
	})

	provider, providerCfg := cfg.Provider()
	chatModel, err := itinerary.NewChatModel(context.Background(), provider, providerCfg)
	if err != nil {
		log.Fatal().Err(err).Str("provider", provider).Msg("init chat model")
	}
	if providerCfg.APIKey == "" {
		log.Warn().Str("provider", provider).Msg("text generation api key not configured")
	}
	if cfg.Weather.APIKey == "" {
		log.Warn().Msg("weather api key not configured")
	}

	handlers := api.NewHandler(
		auth.NewService(db),
		sessions,
		itinerary.NewGenerator(chatModel, provider, cfg.GenerationTimeout()),
		weather.NewClient(cfg.Weather, cfg.WeatherTimeout()),
	)

	handlers.AddHealthCheck("database", db.PingContext)
	if rdb != nil {
		handlers.AddHealthCheck("redis", rdb.Ping)
	}

	router := gin.New()
	router.Use(gin.Recovery(), logger.Middleware(), metrics.Middleware(), sessions.Middleware())
	handlers.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.BasicConfig.ServerAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Str("provider", provider).Str("model", providerCfg.Model).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()
	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}
	log.Info().Msg("shutdown complete")
}
