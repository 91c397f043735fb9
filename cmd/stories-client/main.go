package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/princekumarofficial/stories-client/internal/backend"
	"github.com/princekumarofficial/stories-client/internal/backend/httpapi"
	"github.com/princekumarofficial/stories-client/internal/backend/memory"
	"github.com/princekumarofficial/stories-client/internal/backend/throttle"
	"github.com/princekumarofficial/stories-client/internal/cache"
	"github.com/princekumarofficial/stories-client/internal/config"
	"github.com/princekumarofficial/stories-client/internal/events"
	mediaHandlers "github.com/princekumarofficial/stories-client/internal/http/handlers/media"
	"github.com/princekumarofficial/stories-client/internal/http/handlers/stories"
	wsHandlers "github.com/princekumarofficial/stories-client/internal/http/handlers/websocket"
	"github.com/princekumarofficial/stories-client/internal/http/middleware"
	"github.com/princekumarofficial/stories-client/internal/ratelimit"
	mediaService "github.com/princekumarofficial/stories-client/internal/services/media"
	"github.com/princekumarofficial/stories-client/internal/store"
	"github.com/princekumarofficial/stories-client/internal/sweeper"
	"github.com/princekumarofficial/stories-client/internal/types"
	"github.com/princekumarofficial/stories-client/internal/utils/jwt"
	"github.com/princekumarofficial/stories-client/internal/websocket"
)

func newLogger(env string) *slog.Logger {
	if env == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// viewerID is the user the backend token belongs to, or the configured owner
// when there is no usable token.
func viewerID(cfg *config.Config) string {
	if cfg.Backend.Token != "" {
		if userID, err := jwt.PeekUserID(cfg.Backend.Token); err == nil {
			return userID
		}
		slog.Warn("Backend token carries no user id, using configured owner")
	}
	return cfg.Backend.OwnerID
}

func main() {
	// load config
	cfg := config.MustLoad()

	logger := newLogger(cfg.Env)
	slog.SetDefault(logger)

	viewer := viewerID(cfg)

	// backend chain
	var b backend.Backend
	switch cfg.Backend.Kind {
	case config.BackendMemory:
		b = memory.New(viewer)
		slog.Info("Using in-memory backend", slog.String("owner_id", viewer))
	default:
		b = httpapi.New(cfg.Backend.BaseURL, cfg.Backend.Token, cfg.Backend.Timeout)
		slog.Info("Using stories API backend", slog.String("base_url", cfg.Backend.BaseURL))
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			slog.Warn("Redis is not reachable, cache and rate limits will fail open", slog.String("error", err.Error()))
		} else {
			slog.Info("Connected to Redis", slog.String("addr", cfg.Redis.Addr))
		}
		cancel()

		b = cache.NewBackend(b, redisClient, logger)
		b = throttle.NewRedis(b, viewer,
			ratelimit.NewTokenBucket(redisClient, cfg.RateLimit.CreatePerMinute, cfg.RateLimit.CreatePerMinute),
			ratelimit.NewTokenBucket(redisClient, cfg.RateLimit.ViewPerMinute, cfg.RateLimit.ViewPerMinute),
			logger)
	}

	s := store.New(b, logger)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	hub := websocket.NewHub().WithKeepalive(websocket.Keepalive{
		WriteWait:      cfg.WebSocket.WriteWait,
		PongWait:       cfg.WebSocket.PongWait,
		MaxMessageSize: cfg.WebSocket.MaxMessageSize,
		SendBuffer:     cfg.WebSocket.SendBuffer,
	})
	go hub.Run(ctx)

	unsubscribe := events.NewPublisher(hub).Attach(s)
	defer unsubscribe()

	go sweeper.New(s, cfg.Sweeper.Interval, logger).Start(ctx)

	// setup router
	router := http.NewServeMux()

	router.HandleFunc("GET /state", stories.State(s))
	router.HandleFunc("POST /stories/fetch", stories.Fetch(s))
	router.HandleFunc("POST /stories", stories.Create(s))
	router.HandleFunc("POST /stories/local", stories.AddLocal(s))
	router.HandleFunc("POST /stories/expire", stories.Expire(s, time.Now))
	router.HandleFunc("POST /stories/{id}/view", stories.View(s))
	router.HandleFunc("POST /stories/{id}/viewed", stories.MarkViewed(s))
	router.HandleFunc("DELETE /users/{userId}/stories/{id}", stories.Remove(s))
	router.HandleFunc("GET /ws", wsHandlers.WebSocketHandler(hub, func() *types.Event {
		return events.SnapshotEvent(s.State())
	}))

	if redisClient != nil {
		router.HandleFunc("GET /cache/stats", cache.GetStats(redisClient))
		router.HandleFunc("DELETE /cache", cache.Clear(redisClient))
	}

	if cfg.MinIO.Endpoint != "" {
		media, err := mediaService.NewService(ctx, cfg)
		if err != nil {
			log.Fatal("Failed to initialize media service: ", err)
		}
		router.HandleFunc("POST /media/upload-url", mediaHandlers.GenerateUploadURL(media))
		slog.Info("Media uploads enabled", slog.String("bucket", cfg.MinIO.BucketName))
	}

	auth := middleware.StaticViewer(viewer)
	if cfg.JWTSecret != "" {
		auth = middleware.AuthMiddleware(cfg.JWTSecret)
	}

	server := http.Server{
		Addr:    cfg.HTTPServer.Address,
		Handler: auth(router),
	}

	slog.Info("Inspector started", slog.String("address", cfg.HTTPServer.Address), slog.String("viewer_id", viewer))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to start server: %s", err)
		}
	}()

	// initial load; failures are visible in the state
	go func() {
		if err := s.FetchStories(ctx); err != nil {
			slog.Warn("Initial fetch failed", slog.String("error", err.Error()))
		}
	}()

	<-done

	slog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stop()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
		return
	}

	slog.Info("Server stopped")
}
