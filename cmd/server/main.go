package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/reqforge/reqforge/handlers"
	brdhandler "github.com/reqforge/reqforge/internal/brd/handler"
	"github.com/reqforge/reqforge/internal/brd/repository"
	brdservice "github.com/reqforge/reqforge/internal/brd/service"
	"github.com/reqforge/reqforge/internal/config"
	"github.com/reqforge/reqforge/internal/database"
	"github.com/reqforge/reqforge/internal/eventbus"
	"github.com/reqforge/reqforge/internal/generate"
	"github.com/reqforge/reqforge/internal/locks"
	"github.com/reqforge/reqforge/internal/oidc"
	"github.com/reqforge/reqforge/internal/sessions"
	"github.com/reqforge/reqforge/internal/share"
	"github.com/reqforge/reqforge/internal/storage"
	"github.com/reqforge/reqforge/internal/tokens"
	"github.com/reqforge/reqforge/internal/users"
	"github.com/reqforge/reqforge/pkg/logger"
	"github.com/reqforge/reqforge/pkg/metrics"
	"github.com/reqforge/reqforge/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// log level controlled with LOG_LEVEL env: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v llm_key_set=%v", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.LLM.APIKey != "")

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// Lightweight CORS for dev/test; production should sit behind a stricter
	// policy at the edge.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	})

	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})

	ctx := context.Background()

	// Redis first so the rate limiter, refresh sessions, the token blacklist
	// and the generation lock can use it when configured.
	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Host + ":" + cfg.Redis.Port, Password: cfg.Redis.Password})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			rdb = nil
		} else {
			sessions.SetBlacklistClient(rdb)
			logger.Infof("Connected to Redis: %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && rdb != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	var locker locks.Locker
	if rdb != nil {
		locker = locks.NewRedisLocker(rdb, "lock:")
	} else {
		locker = locks.NewMemoryLocker()
	}

	var sessionsSvc *sessions.Service
	if rdb != nil {
		sessionsSvc = sessions.NewService(sessions.NewRedisRepository(rdb, "session:"))
		logger.Infof("Using Redis for session storage")
	}

	// Mongo-backed repositories with in-memory fallbacks so the service still
	// runs without a database (dev/tests).
	mem := repository.NewMemoryStore()
	brdRepo := mem.BRDs()
	commentRepo := mem.Comments()
	storyRepo := mem.Stories()
	shareRepo := share.Repository(share.NewMemoryRepository())
	var userSvc *users.Service

	if cfg.MongoDB.URI != "" {
		const maxAttempts = 5
		backoff := time.Second
		var client *mongo.Client
		var errConn error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			client, errConn = database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
			if errConn == nil {
				break
			}
			logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, errConn)
			if attempt < maxAttempts {
				time.Sleep(backoff)
				backoff *= 2
			}
		}
		if errConn != nil {
			logger.Warnf("could not connect to MongoDB after %d attempts: %v — using memory-backed repositories", maxAttempts, errConn)
		} else {
			defer func() { _ = client.Disconnect(ctx) }()
			db := client.Database(cfg.MongoDB.Database)
			brdRepo = repository.NewMongoBRDRepo(db.Collection("brds"))
			commentRepo = repository.NewMongoCommentRepo(db.Collection("comments"))
			storyRepo = repository.NewMongoStoryRepo(db.Collection("userstories"))
			shareRepo = share.NewMongoRepository(db.Collection("shares"))
			userSvc = users.NewService(users.NewMongoUserRepository(db.Collection("users")))
			if sessionsSvc == nil {
				sessionsSvc = sessions.NewService(sessions.NewMongoRepository(db.Collection("sessions")))
			}
			logger.Infof("Connected to MongoDB: %s", cfg.MongoDB.Database)
		}
	}

	// Login verifies provider ID tokens; API routes verify first-party access
	// tokens minted at login.
	var idVerifier middleware.Verifier
	if cfg.OIDC.IssuerURL != "" && cfg.OIDC.ClientID != "" {
		ver, err := oidc.NewVerifier(ctx, cfg.OIDC.IssuerURL, cfg.OIDC.ClientID)
		if err != nil {
			logger.Warnf("failed to initialize OIDC verifier: %v", err)
		} else {
			idVerifier = ver
		}
	}
	if idVerifier == nil && os.Getenv("ALLOW_INSECURE_TOKEN") == "true" {
		logger.Warn("enabling insecure token verifier (integration mode)")
		idVerifier = oidc.NewInsecureVerifier()
	}
	auth := middleware.AuthMiddleware(tokens.NewAccessVerifier(cfg))

	// Domain services.
	bus := eventbus.NewBus()
	genClient := generate.NewClient(cfg)
	genSvc := generate.NewService(genClient, brdRepo, storyRepo, bus)
	brdSvc := brdservice.New(brdRepo, commentRepo, storyRepo, genSvc, bus, locker)
	shareSvc := share.NewService(shareRepo, cfg.Share.PublicBaseURL)

	var exporter brdhandler.Exporter
	if mcfg := storage.LoadMinIOConfig(); mcfg.Endpoint != "" {
		st, err := storage.NewMinIOStorage(mcfg)
		if err != nil {
			logger.Warnf("object storage unavailable, exports disabled: %v", err)
		} else {
			exporter = st
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{
			"llm":   cfg.LLM.APIKey != "",
			"users": userSvc != nil,
		}
		if cfg.Redis.Host != "" {
			deps["redis"] = rdb != nil
			if rdb == nil {
				ready = false
			}
		}
		if cfg.OIDC.IssuerURL != "" {
			deps["oidc"] = idVerifier != nil
			if idVerifier == nil {
				ready = false
			}
		}
		status := http.StatusOK
		state := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			state = "not_ready"
		}
		c.JSON(status, gin.H{"status": state, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	api := r.Group("/api")
	if userSvc != nil && sessionsSvc != nil && idVerifier != nil {
		handlers.NewAuthHandler(cfg, userSvc, sessionsSvc, idVerifier).Register(api)
	} else {
		logger.Warnf("auth handlers not registered: users=%v sessions=%v verifier=%v", userSvc != nil, sessionsSvc != nil, idVerifier != nil)
	}

	generate.NewHandler(genSvc).Register(api, auth)
	brdhandler.New(brdSvc, exporter).Register(api, auth)
	share.NewHandler(shareSvc).Register(api, auth)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("Starting reqforge on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
