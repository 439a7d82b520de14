package main

import (
	"context"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/jargoyle/jargoyle/handlers"
	"github.com/jargoyle/jargoyle/internal/database"
	"github.com/jargoyle/jargoyle/internal/document/repository"
	docservice "github.com/jargoyle/jargoyle/internal/document/service"
	"github.com/jargoyle/jargoyle/internal/sessions"
	"github.com/jargoyle/jargoyle/internal/storage"
	"github.com/jargoyle/jargoyle/internal/summarize"
	"github.com/jargoyle/jargoyle/internal/users"
	"github.com/jargoyle/jargoyle/pkg/logger"
	"github.com/jargoyle/jargoyle/pkg/middleware"
)

// Standalone document service. Sessions are validated against the same Redis
// the main service writes to, so a login there is honored here.
func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))

	port := os.Getenv("DOC_SERVICE_PORT")
	if port == "" {
		port = "5010"
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	var sessionRepo sessions.Repository = sessions.NewMemoryRepository()
	if host := os.Getenv("REDIS_HOST"); host != "" {
		rport := os.Getenv("REDIS_PORT")
		if rport == "" {
			rport = "6379"
		}
		client := redis.NewClient(&redis.Options{Addr: host + ":" + rport, Password: os.Getenv("REDIS_PASSWORD")})
		if err := client.Ping(context.Background()).Err(); err != nil {
			logger.Warnf("cannot reach Redis (%s:%s): %v — sessions from the main service will not be visible", host, rport, err)
		} else {
			sessionRepo = sessions.NewRedisRepository(client, "session:")
		}
	}
	sessionsSvc := sessions.NewService(sessionRepo)

	var usersSvc *users.Service
	var docRepo repository.Repository
	jobs := &summarize.Store{}
	if uri := os.Getenv("MONGODB_URI"); uri != "" {
		client, err := database.ConnectMongoWithRetry(context.Background(), uri, 10*time.Second, 3)
		if err != nil {
			logger.Fatalf("cannot connect to MongoDB: %v", err)
		}
		db := client.Database(os.Getenv("MONGODB_DATABASE"))
		userRepo, err := users.NewMongoRepository(db.Collection("users"))
		if err != nil {
			logger.Fatalf("users repository: %v", err)
		}
		usersSvc = users.NewService(userRepo)
		docRepo = repository.NewMongoRepo(db.Collection("documents"), db.Collection("summaries"))
		jobs = summarize.NewStore(db.Collection("summarize_jobs"))
	} else {
		logger.Warnf("MONGODB_URI not set — using memory-backed repositories")
		usersSvc = users.NewService(users.NewMemoryRepository())
		docRepo = repository.NewMemoryRepo()
	}

	var uploader docservice.Uploader
	if cfg := storage.LoadMinIOConfig(); cfg.Endpoint != "" {
		store, err := storage.NewMinIOStorage(cfg)
		if err != nil {
			logger.Warnf("minio unavailable: %v", err)
		} else {
			uploader = store
		}
	}
	docsSvc := docservice.New(docRepo, uploader, nil).WithJobRecorder(jobs)

	policy := middleware.NewAccessPolicy(sessionsSvc, "/oauth2/authorization/google")
	r.Use(policy.Middleware())
	handlers.NewDocumentHandler(usersSvc, docsSvc).Register(r)

	logger.Infof("document service listening on :%s", port)
	if err := r.Run(":" + port); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
