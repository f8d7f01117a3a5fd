package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/unfought/api/internal/config"
	"github.com/unfought/api/internal/handler"
	"github.com/unfought/api/internal/logger"
	"github.com/unfought/api/internal/middleware"
	"github.com/unfought/api/internal/repository"
	"github.com/unfought/api/internal/repository/memory"
	"github.com/unfought/api/internal/repository/postgres"
	redisrepo "github.com/unfought/api/internal/repository/redis"
	"github.com/unfought/api/internal/service"
)

func main() {
	logger.Init()
	cfg := config.Load()
	log.Info().Str("port", cfg.Port).Bool("standalone_db", cfg.DatabaseURL == "").
		Bool("standalone_cache", cfg.RedisURL == "").Msg("Config loaded")

	// Repositories. Without DATABASE_URL the server runs on in-memory
	// storage; games do not survive a restart.
	var gameRepo repository.GameRepository
	var turnRepo repository.TurnRepository
	if cfg.DatabaseURL != "" {
		db, err := postgres.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Database connection failed")
		}
		defer db.Close()
		gameRepo = postgres.NewGameRepo(db)
		turnRepo = postgres.NewTurnRepo(db)
	} else {
		store := memory.NewStore()
		gameRepo = store
		turnRepo = store
		log.Warn().Msg("DATABASE_URL not set, using in-memory storage")
	}

	// Cache. Without REDIS_URL turn state lives in process memory and
	// deadline expiry relies on the database poller alone.
	var cache repository.GameCache
	var rdb *goredis.Client
	if cfg.RedisURL != "" {
		redisClient, err := redisrepo.NewClient(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Redis connection failed")
		}
		defer redisClient.Close()
		rdb = redisClient.Underlying()

		// Keyspace notifications drive instant timer expiry.
		if err := rdb.ConfigSet(context.Background(), "notify-keyspace-events", "Ex").Err(); err != nil {
			log.Warn().Err(err).Msg("Failed to set Redis keyspace notifications (timer expiry falls back to polling)")
		}
		cache = redisClient
	} else {
		cache = memory.NewCache()
		log.Warn().Msg("REDIS_URL not set, using in-memory cache")
	}

	// WebSocket hub
	wsHub := handler.NewHub()

	// Services
	gameSvc := service.NewGameService(gameRepo, turnRepo, cache, wsHub, cfg.TurnDeadline)
	orderSvc := service.NewOrderService(gameRepo, turnRepo, cache)
	turnSvc := service.NewTurnService(gameRepo, turnRepo, cache, wsHub, cfg.TurnDeadline)

	// Timer listener (auto-resolve on deadline expiry)
	timerListener := service.NewTimerListener(rdb, turnSvc, turnRepo)

	// Handlers
	gameHandler := handler.NewGameHandler(gameSvc, turnSvc)
	orderHandler := handler.NewOrderHandler(orderSvc, turnSvc, wsHub)
	wsHandler := handler.NewWSHandler(wsHub)

	// Router
	mux := http.NewServeMux()

	// Health
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	api := http.NewServeMux()
	api.HandleFunc("POST /games", gameHandler.CreateGame)
	api.HandleFunc("GET /games", gameHandler.ListGames)
	api.HandleFunc("GET /games/{id}", gameHandler.GetGame)
	api.HandleFunc("POST /games/{id}/join", gameHandler.JoinGame)
	api.HandleFunc("POST /games/{id}/deploy", gameHandler.Deploy)
	api.HandleFunc("POST /games/{id}/orders", orderHandler.SubmitOrders)
	api.HandleFunc("POST /games/{id}/concede", gameHandler.Concede)
	api.HandleFunc("GET /games/{id}/log", gameHandler.EventLog)

	mux.Handle("/api/v1/", http.StripPrefix("/api/v1", api))

	// WebSocket (identified via query params, not body)
	mux.HandleFunc("GET /api/v1/ws", wsHandler.ServeWS)

	// Apply global middleware
	root := middleware.Chain(mux, middleware.Logger, middleware.CORS("*"), middleware.JSON)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Recover active games (rehydrate cache from turn records after restart)
	if err := turnSvc.RecoverActiveGames(context.Background()); err != nil {
		log.Error().Err(err).Msg("Failed to recover active games (non-fatal)")
	}

	// Start timer listener
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go timerListener.Start(ctx)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server shutdown error")
	}
	log.Info().Msg("Server stopped")
}
