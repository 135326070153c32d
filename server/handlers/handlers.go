package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/themobileprof/voicepilot/internal/cache"
	"github.com/themobileprof/voicepilot/internal/db"
	"github.com/themobileprof/voicepilot/pkg/httputil"
	"github.com/themobileprof/voicepilot/server/middleware"
)

// RouterConfig contains everything the router needs
type RouterConfig struct {
	Store           *db.DB
	Redis           *redis.Client
	Logger          *zap.Logger
	AllowedOrigins  []string
	RateLimit       int
	ConfidenceFloor float64
}

// NewRouter creates the voice service router with all routes configured
func NewRouter(cfg RouterConfig) chi.Router {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	memory := cache.NewMemoryCache(cfg.Redis, cfg.Store, cfg.Logger)
	voice := NewVoiceHandler(cfg.Store, memory, cfg.Logger)
	stream := NewStreamHandler(cfg.Store, memory, cfg.Logger, cfg.AllowedOrigins, cfg.ConfidenceFloor)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Handler)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.NewRateLimiter(cfg.Redis, cfg.RateLimit, time.Minute).Limit)

	r.Get("/health", healthHandler)
	r.Get("/ready", readyHandler(cfg.Store, cfg.Redis))
	r.Handle("/metrics", promhttp.Handler())

	// The streaming route lives outside the timeout group; sessions
	// stay open far longer than any single request
	r.Get("/ws/voice", stream.Serve)

	r.Route("/api/voice", func(r chi.Router) {
		r.Use(chimw.Timeout(60 * time.Second))

		r.Post("/intent", voice.Intent)
		r.Post("/command", voice.Command)
		r.Post("/analyze-page", voice.AnalyzePage)
		r.Post("/log-interaction", voice.LogInteraction)
		r.Get("/history/{userID}", voice.History)
		r.Get("/stats", voice.Stats)
		r.Get("/sessions/{sessionID}/memory", voice.GetMemory)
		r.Put("/sessions/{sessionID}/memory", voice.PutMemory)
	})

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "voicepilot",
	})
}

// readyHandler checks the store and, when configured, Redis
func readyHandler(store *db.DB, redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]string)
		ready := true

		if err := store.Conn().PingContext(r.Context()); err != nil {
			checks["store"] = "unhealthy: " + err.Error()
			ready = false
		} else {
			checks["store"] = "healthy"
		}

		if redisClient != nil {
			if err := redisClient.Ping(r.Context()).Err(); err != nil {
				checks["redis"] = "unhealthy: " + err.Error()
				ready = false
			} else {
				checks["redis"] = "healthy"
			}
		} else {
			checks["redis"] = "not configured"
		}

		status := http.StatusOK
		statusText := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			statusText = "not ready"
		}

		httputil.JSON(w, status, map[string]any{
			"status": statusText,
			"checks": checks,
		})
	}
}
