package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/campusconecto/campusconecto/backend/api/handlers"
	"github.com/campusconecto/campusconecto/backend/api/internal/auth"
	"github.com/campusconecto/campusconecto/backend/api/internal/config"
	"github.com/campusconecto/campusconecto/backend/api/internal/database"
	"github.com/campusconecto/campusconecto/backend/api/internal/friends"
	"github.com/campusconecto/campusconecto/backend/api/internal/mail"
	"github.com/campusconecto/campusconecto/backend/api/internal/messages"
	"github.com/campusconecto/campusconecto/backend/api/internal/oidc"
	"github.com/campusconecto/campusconecto/backend/api/internal/otp"
	"github.com/campusconecto/campusconecto/backend/api/internal/posts"
	"github.com/campusconecto/campusconecto/backend/api/internal/relay"
	"github.com/campusconecto/campusconecto/backend/api/internal/sessions"
	"github.com/campusconecto/campusconecto/backend/api/internal/storage"
	"github.com/campusconecto/campusconecto/backend/api/internal/tokens"
	"github.com/campusconecto/campusconecto/backend/api/internal/users"
	"github.com/campusconecto/campusconecto/backend/api/pkg/logger"
	"github.com/campusconecto/campusconecto/backend/api/pkg/metrics"
	"github.com/campusconecto/campusconecto/backend/api/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v minio=%v sso=%v", cfg.MongoDB.URI != "", cfg.Redis.Addr() != "", cfg.Storage.Endpoint != "", cfg.SSO.Enabled())
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis is optional: sessions, blacklist, rate limiter, OTP store and relay fan-out use it when present
	var rdb *redis.Client
	if addr := cfg.Redis.Addr(); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s): %v", addr, err)
			_ = client.Close()
		} else {
			rdb = client
			defer rdb.Close()
			logger.Infof("connected to Redis at %s", addr)
		}
	}

	mongoClient, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5)
	if err != nil {
		logger.Fatalf("could not connect to MongoDB: %v", err)
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()
	db := mongoClient.Database(cfg.MongoDB.Database)
	if err := database.EnsureIndexes(ctx, db); err != nil {
		logger.Warnf("ensure indexes: %v", err)
	}

	userRepo := users.NewMongoUserRepository(db.Collection(database.UsersCollection), cfg.MongoDB.Transactions)

	var sessRepo sessions.Repository
	if rdb != nil {
		sessRepo = sessions.NewRedisRepository(rdb, "session:")
		logger.Infof("using Redis for session storage")
	} else {
		sessRepo = sessions.NewMongoRepository(db.Collection(database.SessionsCollection))
	}
	sessSvc := sessions.NewService(sessRepo)
	blacklist := sessions.NewBlacklist(rdb)

	var otpStore otp.Store
	if cfg.OTP.Store == "redis" && rdb != nil {
		otpStore = otp.NewRedisStore(rdb)
	} else {
		if cfg.OTP.Store == "redis" {
			logger.Warnf("OTP_STORE=redis but Redis is unavailable; using MongoDB")
		}
		otpStore = otp.NewMongoStore(db.Collection(database.OTPCollection))
	}

	var store storage.ObjectStore
	checks := map[string]handlers.Check{
		"mongo": func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
	}
	if cfg.Storage.Endpoint != "" {
		minioStore, err := storage.NewMinIOStorage(ctx, cfg.Storage)
		if err != nil {
			logger.Fatalf("object storage: %v", err)
		}
		store = minioStore
		checks["storage"] = minioStore.Ping
	} else {
		logger.Warnf("MINIO_ENDPOINT not set; uploads are kept in memory")
		memStore, err := storage.NewMemoryStore("memory://campusconecto")
		if err != nil {
			logger.Fatalf("object storage: %v", err)
		}
		store = memStore
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	var sso oidc.IdentityVerifier
	switch {
	case cfg.SSO.IssuerURL != "" && cfg.SSO.ClientID != "":
		ver, err := oidc.NewVerifier(ctx, cfg.SSO.IssuerURL, cfg.SSO.ClientID)
		if err != nil {
			logger.Warnf("failed to initialize OIDC verifier: %v", err)
		} else {
			sso = ver
		}
	case cfg.SSO.AllowInsecure:
		logger.Warn("enabling insecure OIDC verifier (integration mode)")
		sso = oidc.NewInsecureVerifier()
	}

	hub := relay.NewHub(cfg.Relay.SendBuffer)
	if rdb != nil {
		bridge := relay.NewRedisBridge(rdb, cfg.Relay.RedisChannel, hub)
		if err := bridge.Start(ctx); err != nil {
			logger.Warnf("relay fan-out disabled: %v", err)
		}
	}

	mailer := mail.NewMailer(mail.NewSenderFromConfig(ctx, cfg.Mail), cfg.Mail.FrontendURL)
	authSvc := auth.NewService(cfg, userRepo, sessSvc, blacklist, otp.NewService(otpStore, cfg.OTP.TTL), mailer, sso)

	var limiter gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
		if cfg.RateLimit.UseRedis && rdb != nil {
			limiter = middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win)
		} else {
			limiter = middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst, win)
		}
	}

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)

	r := handlers.NewRouter(handlers.Deps{
		Auth:             authSvc,
		Users:            users.NewService(userRepo),
		UserRepo:         userRepo,
		Friends:          friends.NewService(userRepo, hub),
		Posts:            posts.NewService(posts.NewMongoRepo(db.Collection(database.PostsCollection)), store),
		Messages:         messages.NewService(messages.NewMongoRepo(db.Collection(database.MessagesCollection)), userRepo, hub),
		Store:            store,
		Hub:              hub,
		Verifier:         tokens.NewVerifier(cfg),
		Revoked:          blacklist,
		RateLimit:        limiter,
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		RelayRequireAuth: cfg.Relay.RequireAuth,
		MaxUploadBytes:   cfg.Server.MaxUploadBytes,
		Checks:           checks,
	})

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		BaseContext:  func(_ net.Listener) context.Context { return ctx },
	}

	go func() {
		logger.Infof("starting campusconecto api on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("graceful shutdown: %v", err)
	}
}
