package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"encrypted-notes/auth"
	"encrypted-notes/internal/config"
	"encrypted-notes/internal/db"
	"encrypted-notes/internal/keys"
	"encrypted-notes/internal/logger"
	"encrypted-notes/internal/metrics"
	"encrypted-notes/internal/middleware"
	"encrypted-notes/internal/oplog"
	"encrypted-notes/internal/replica"
	"encrypted-notes/internal/seal"
	"encrypted-notes/internal/worker"
	"encrypted-notes/redis"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var log zerolog.Logger
	if cfg.Production() {
		log = logger.New(cfg.LogLevel, os.Stdout)
		gin.SetMode(gin.ReleaseMode)
	} else {
		log = logger.Console(cfg.LogLevel, os.Stdout)
	}
	if cfg.GeneratedSecret {
		log.Warn().Msg("JWT_SECRET not set, generated a random one; tokens will not survive a restart")
	}

	// Open the operation log
	store, closeStore, err := openStore(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("failed to open operation log")
	}
	defer closeStore()

	// Initialize Redis
	cache := redis.InitRedis(context.Background(), cfg.RedisAddress, log)
	defer cache.Close()

	ring := keys.NewRing()
	if cfg.PersonalKey != "" {
		key, err := seal.KeyFromHex(cfg.PersonalKey)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid PERSONAL_KEY")
		}
		ring.SetPersonal(key)
	}

	pool := worker.NewWorkerPool(cfg.WorkerCount, cfg.WorkerQueue, log)
	defer pool.Shutdown()

	service := replica.NewService(store, ring, pool, metrics.New(prometheus.DefaultRegisterer), cache, log, replica.Options{})
	res, err := service.Rebuild(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to replay operation log")
	}
	log.Info().
		Int("received", res.Received).
		Int("applied", res.Applied).
		Int("failed", len(res.Errors)).
		Msg("replayed operation log")

	handler := replica.NewHandler(service)
	authMiddleware := &middleware.Auth{Verifier: auth.NewVerifier(cfg.JWTSecret, auth.DefaultTTL)}

	router := gin.New()
	router.Use(gin.Recovery())

	// cors setting
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}
	if cfg.FrontendAddress == "" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = []string{cfg.FrontendAddress}
	}
	router.Use(cors.New(corsConfig))
	router.Use(middleware.ErrorHandler(log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api", authMiddleware.AuthMiddleWare())
	handler.RegisterRoutes(api)

	// Server configuration
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server
	go func() {
		log.Info().Str("port", cfg.ServerPort).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
	log.Info().Msg("server shutdown complete")
}

// openStore returns the configured operation log and a function that releases it.
func openStore(cfg *config.Config, log zerolog.Logger) (oplog.Repository, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		conn, err := db.ConnectDb(cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(conn); err != nil {
			_ = db.CloseDb(conn)
			return nil, nil, err
		}
		return oplog.NewGormRepository(conn), func() {
			if err := db.CloseDb(conn); err != nil {
				log.Error().Err(err).Msg("failed to close database")
			}
		}, nil
	default:
		repo, err := oplog.OpenPebble(cfg.PebbleDir, nil)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() {
			if err := repo.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close operation log")
			}
		}, nil
	}
}
