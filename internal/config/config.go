package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Storage   StorageConfig
	Mail      MailConfig
	OTP       OTPConfig
	SSO       SSOConfig
	Relay     RelayConfig
	CORS      CORSConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// MaxUploadBytes caps multipart bodies on upload routes.
	MaxUploadBytes int64
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
	// Transactions wraps two-document friend mutations in a Mongo transaction.
	// Requires a replica set.
	Transactions bool
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port, or "" when Redis is not configured.
func (r RedisConfig) Addr() string {
	if r.Host == "" {
		return ""
	}
	return r.Host + ":" + r.Port
}

type JWTConfig struct {
	Secret          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	PublicURL string
}

type MailConfig struct {
	// Providers is the delivery chain, tried in order: resend, ses, smtp, log.
	Providers    []string
	From         string
	ResendAPIKey string
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	AWSRegion    string
	FrontendURL  string
}

type OTPConfig struct {
	TTL    time.Duration
	Store  string // mongo | redis
	DevLog bool
}

type SSOConfig struct {
	IssuerURL     string
	ClientID      string
	AllowInsecure bool
}

// Enabled reports whether campus single sign-on is configured.
func (s SSOConfig) Enabled() bool {
	return (s.IssuerURL != "" && s.ClientID != "") || s.AllowInsecure
}

type RelayConfig struct {
	RequireAuth  bool
	RedisChannel string
	SendBuffer   int
}

type CORSConfig struct {
	AllowedOrigins []string
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "5000")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("UPLOAD_MAX_MB", 20)
	v.SetDefault("MONGODB_DATABASE", "campusconecto")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("MONGODB_TRANSACTIONS", false)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	// 30 days, matching the web client's session length
	v.SetDefault("JWT_ACCESS_TOKEN_TTL", 43200)
	v.SetDefault("JWT_REFRESH_TOKEN_TTL", 86400)
	v.SetDefault("RATE_LIMIT_ENABLED", true)
	v.SetDefault("RATE_LIMIT_USE_REDIS", true)
	v.SetDefault("RATE_LIMIT_RPS", 0.1)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 900)
	v.SetDefault("MINIO_BUCKET", "campusconecto")
	v.SetDefault("MAIL_PROVIDERS", "resend,smtp")
	v.SetDefault("EMAIL_FROM", "Campus Conecto <no-reply@campusconecto.com>")
	v.SetDefault("SMTP_PORT", "587")
	v.SetDefault("FRONTEND_URL", "https://campusconecto.com")
	v.SetDefault("OTP_TTL_MINUTES", 15)
	v.SetDefault("OTP_STORE", "mongo")
	v.SetDefault("RELAY_REQUIRE_AUTH", true)
	v.SetDefault("RELAY_REDIS_CHANNEL", "campusconecto:relay")
	v.SetDefault("RELAY_SEND_BUFFER", 32)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000,*.vercel.app,*.onrender.com")

	uri := v.GetString("MONGODB_URI")
	if uri == "" {
		return nil, fmt.Errorf("environment variable MONGODB_URI is required")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Host:           v.GetString("SERVER_HOST"),
			Environment:    v.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			MaxUploadBytes: v.GetInt64("UPLOAD_MAX_MB") << 20,
		},
		MongoDB: MongoDBConfig{
			URI:          uri,
			Database:     v.GetString("MONGODB_DATABASE"),
			Timeout:      time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
			Transactions: v.GetBool("MONGODB_TRANSACTIONS"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:          v.GetString("JWT_SECRET"),
			AccessTokenTTL:  time.Duration(v.GetInt("JWT_ACCESS_TOKEN_TTL")) * time.Minute,
			RefreshTokenTTL: time.Duration(v.GetInt("JWT_REFRESH_TOKEN_TTL")) * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled:       v.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      v.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         v.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Storage: StorageConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
			Bucket:    v.GetString("MINIO_BUCKET"),
			PublicURL: v.GetString("MINIO_PUBLIC_URL"),
		},
		Mail: MailConfig{
			Providers:    splitList(v.GetString("MAIL_PROVIDERS")),
			From:         v.GetString("EMAIL_FROM"),
			ResendAPIKey: v.GetString("RESEND_API_KEY"),
			SMTPHost:     v.GetString("SMTP_HOST"),
			SMTPPort:     v.GetString("SMTP_PORT"),
			SMTPUser:     v.GetString("SMTP_USER"),
			SMTPPassword: v.GetString("SMTP_PASS"),
			AWSRegion:    v.GetString("AWS_REGION"),
			FrontendURL:  v.GetString("FRONTEND_URL"),
		},
		OTP: OTPConfig{
			TTL:    time.Duration(v.GetInt("OTP_TTL_MINUTES")) * time.Minute,
			Store:  strings.ToLower(v.GetString("OTP_STORE")),
			DevLog: v.GetBool("DEV_LOG_OTP"),
		},
		SSO: SSOConfig{
			IssuerURL:     v.GetString("SSO_ISSUER_URL"),
			ClientID:      v.GetString("SSO_CLIENT_ID"),
			AllowInsecure: v.GetBool("ALLOW_INSECURE_TOKEN"),
		},
		Relay: RelayConfig{
			RequireAuth:  v.GetBool("RELAY_REQUIRE_AUTH"),
			RedisChannel: v.GetString("RELAY_REDIS_CHANNEL"),
			SendBuffer:   v.GetInt("RELAY_SEND_BUFFER"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
	}

	// Basic validation
	if cfg.JWT.Secret == "" {
		log.Println("WARNING: JWT_SECRET is not set; set a secure value in production")
	}
	if cfg.OTP.Store != "mongo" && cfg.OTP.Store != "redis" {
		return nil, fmt.Errorf("OTP_STORE must be mongo or redis, got %q", cfg.OTP.Store)
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
