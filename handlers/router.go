package handlers

import (
	"github.com/campusconecto/campusconecto/backend/api/internal/auth"
	"github.com/campusconecto/campusconecto/backend/api/internal/friends"
	"github.com/campusconecto/campusconecto/backend/api/internal/messages"
	"github.com/campusconecto/campusconecto/backend/api/internal/posts"
	"github.com/campusconecto/campusconecto/backend/api/internal/relay"
	"github.com/campusconecto/campusconecto/backend/api/internal/storage"
	"github.com/campusconecto/campusconecto/backend/api/internal/users"
	"github.com/campusconecto/campusconecto/backend/api/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the services the router exposes.
type Deps struct {
	Auth     *auth.Service
	Users    *users.Service
	UserRepo users.UserRepository
	Friends  *friends.Service
	Posts    *posts.Service
	Messages *messages.Service
	Store    storage.ObjectStore
	Hub      *relay.Hub

	Verifier middleware.Verifier
	Revoked  middleware.Revocations
	// RateLimit guards /api when set.
	RateLimit gin.HandlerFunc

	AllowedOrigins   []string
	RelayRequireAuth bool
	MaxUploadBytes   int64
	Checks           map[string]Check
}

// NewRouter assembles the HTTP surface.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.RequestMetrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(d.AllowedOrigins))
	r.NoRoute(NotFound)

	NewHealthHandler(d.Checks).Register(r)
	RegisterSwagger(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	NewRealtimeHandler(d.Hub, d.Verifier, d.Revoked, d.RelayRequireAuth, d.AllowedOrigins).Register(r)

	api := r.Group("/api")
	if d.RateLimit != nil {
		api.Use(d.RateLimit)
	}
	protect := middleware.AuthMiddleware(d.Verifier, d.Revoked)

	NewUserHandler(d.Auth, d.Users, d.Friends).Register(api.Group("/users"), protect)
	NewPostHandler(d.Posts, d.UserRepo, d.MaxUploadBytes).Register(api.Group("/posts"), protect)
	NewMessageHandler(d.Messages).Register(api.Group("/messages"), protect)
	NewUploadHandler(d.Store, d.UserRepo, d.MaxUploadBytes).Register(api.Group("/upload"), protect)

	return r
}
