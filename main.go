package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jargoyle/jargoyle/handlers"
	"github.com/jargoyle/jargoyle/internal/config"
	"github.com/jargoyle/jargoyle/internal/database"
	"github.com/jargoyle/jargoyle/internal/document/repository"
	docservice "github.com/jargoyle/jargoyle/internal/document/service"
	"github.com/jargoyle/jargoyle/internal/oidc"
	"github.com/jargoyle/jargoyle/internal/sessions"
	"github.com/jargoyle/jargoyle/internal/storage"
	"github.com/jargoyle/jargoyle/internal/summarize"
	"github.com/jargoyle/jargoyle/internal/users"
	"github.com/jargoyle/jargoyle/pkg/logger"
	"github.com/jargoyle/jargoyle/pkg/metrics"
	"github.com/jargoyle/jargoyle/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// logging first (controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: providers=%d mongo=%v redis=%v", len(cfg.OAuth.Providers), cfg.MongoDB.URI != "", cfg.Redis.Host != "")

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// Lightweight CORS middleware for dev/test: set common headers and respond to OPTIONS.
	// (Keep this intentionally simple — production should use a stricter policy.)
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-CSRF-Token")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})

	// Connect to Redis early so sessions and the rate-limiter can use it.
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.Host + ":" + cfg.Redis.Port, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		} else {
			logger.Infof("connected to Redis at %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	ctx := context.Background()

	// Sessions: Redis when available, in-memory otherwise (single instance dev).
	var sessionsSvc *sessions.Service
	if redisClient != nil {
		sessionsSvc = sessions.NewService(sessions.NewRedisRepository(redisClient, "session:"))
		logger.Infof("using Redis for session storage")
	} else {
		sessionsSvc = sessions.NewService(sessions.NewMemoryRepository())
		logger.Warnf("using in-memory session storage; sessions do not survive restarts")
	}

	// MongoDB: users + documents. Required by config, but tolerate slow starts.
	var mongoClient *mongo.Client
	mongoClient, err = database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5)
	if err != nil {
		logger.Fatalf("could not connect to MongoDB: %v", err)
	}
	defer func() { _ = mongoClient.Disconnect(ctx) }()
	db := mongoClient.Database(cfg.MongoDB.Database)

	userRepo, err := users.NewMongoRepository(db.Collection("users"))
	if err != nil {
		logger.Fatalf("users repository: %v", err)
	}
	usersSvc := users.NewService(userRepo)

	// Document storage: MinIO when configured; originals are skipped otherwise.
	var uploader docservice.Uploader
	minioCfg := storage.LoadMinIOConfig()
	if minioCfg.Endpoint != "" {
		store, err := storage.NewMinIOStorage(minioCfg)
		if err != nil {
			logger.Warnf("minio unavailable, original files will not be retained: %v", err)
		} else {
			uploader = store
			logger.Infof("document originals stored in bucket %s", minioCfg.Bucket)
		}
	}

	docRepo := repository.NewMongoRepo(db.Collection("documents"), db.Collection("summaries"))
	docsSvc := docservice.New(docRepo, uploader, nil).
		WithJobRecorder(summarize.NewStore(db.Collection("summarize_jobs")))

	// OIDC providers from configured registrations.
	providers := oidc.Registry{}
	for name, pc := range cfg.OAuth.Providers {
		redirectURL := strings.TrimRight(cfg.OAuth.RedirectBase, "/") + "/login/oauth2/code/" + name
		p, err := oidc.NewRemoteProvider(ctx, name, pc.Issuer, pc.ClientID, pc.ClientSecret, redirectURL)
		if err != nil {
			logger.Warnf("provider %s: discovery failed: %v", name, err)
			continue
		}
		providers[name] = p
	}
	if len(providers) == 0 && strings.EqualFold(os.Getenv("ALLOW_INSECURE_TOKEN"), "true") {
		// integration mode: token payloads are parsed without signature checks
		logger.Warnf("enabling insecure OIDC provider (integration mode)")
		ip := oidc.NewInsecureProvider("insecure",
			os.Getenv("INSECURE_AUTH_URL"), os.Getenv("INSECURE_TOKEN_URL"),
			"jargoyle", "", strings.TrimRight(cfg.OAuth.RedirectBase, "/")+"/login/oauth2/code/insecure")
		providers["insecure"] = ip
	}

	// The account chooser is forced only during development, where several
	// Google test accounts share one browser profile.
	var customize oidc.AuthRequestCustomizer
	if cfg.Server.Environment == "development" {
		customize = oidc.ForceAccountChooser
	}

	loginURL := "/oauth2/authorization/" + cfg.OAuth.DefaultProvider
	policy := middleware.NewAccessPolicy(sessionsSvc, loginURL)
	r.Use(policy.Middleware())
	r.Use(middleware.CSRF("/api/"))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// login failures land here
	r.GET("/error", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"error": "login failed", "retry": "/oauth2/authorization/" + cfg.OAuth.DefaultProvider})
	})

	// readiness: 200 only when critical dependencies are reachable
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}

		deps["mongo"] = mongoClient.Ping(c.Request.Context(), nil) == nil
		if !deps["mongo"] {
			ready = false
		}
		if redisClient != nil {
			deps["redis"] = redisClient.Ping(c.Request.Context()).Err() == nil
			if !deps["redis"] {
				ready = false
			}
		}
		deps["oidc"] = len(providers) > 0
		if !deps["oidc"] {
			ready = false
		}

		status := http.StatusOK
		state := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			state = "not_ready"
		}
		c.JSON(status, gin.H{"status": state, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	handlers.NewAuthHandler(cfg, usersSvc, sessionsSvc, providers, customize).Register(r)
	handlers.NewDocumentHandler(usersSvc, docsSvc).Register(r)
	handlers.RegisterSwagger(r)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("starting jargoyle on %s (env=%s, providers=%d)", addr, cfg.Server.Environment, len(providers))
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
