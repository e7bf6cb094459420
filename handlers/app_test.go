package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/campusconecto/campusconecto/backend/api/internal/auth"
	"github.com/campusconecto/campusconecto/backend/api/internal/config"
	"github.com/campusconecto/campusconecto/backend/api/internal/friends"
	"github.com/campusconecto/campusconecto/backend/api/internal/messages"
	"github.com/campusconecto/campusconecto/backend/api/internal/otp"
	"github.com/campusconecto/campusconecto/backend/api/internal/posts"
	"github.com/campusconecto/campusconecto/backend/api/internal/relay"
	"github.com/campusconecto/campusconecto/backend/api/internal/sessions"
	"github.com/campusconecto/campusconecto/backend/api/internal/storage"
	"github.com/campusconecto/campusconecto/backend/api/internal/tokens"
	"github.com/campusconecto/campusconecto/backend/api/internal/users"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type codeMailer struct {
	mu    sync.Mutex
	codes map[string]string
}

func (m *codeMailer) SendWelcome(ctx context.Context, to, fullName string) error { return nil }

func (m *codeMailer) SendResetCode(ctx context.Context, to, code string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[to] = code
	return nil
}

func (m *codeMailer) code(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[to]
}

type testApp struct {
	router *gin.Engine
	cfg    *config.Config
	users  *users.MemoryRepository
	store  *storage.MemoryStore
	hub    *relay.Hub
	mailer *codeMailer
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	cfg := &config.Config{}
	cfg.JWT.Secret = "handler-secret"
	cfg.JWT.AccessTokenTTL = time.Hour
	cfg.JWT.RefreshTokenTTL = 24 * time.Hour

	userRepo := users.NewMemoryRepository()
	store, err := storage.NewMemoryStore("http://files.test/campus")
	require.NoError(t, err)
	hub := relay.NewHub(8)
	mailer := &codeMailer{codes: map[string]string{}}
	sess := sessions.NewService(sessions.NewMemoryRepository())
	authSvc := auth.NewService(cfg, userRepo, sess, nil, otp.NewService(otp.NewMemoryStore(), 15*time.Minute), mailer, nil)

	r := NewRouter(Deps{
		Auth:             authSvc,
		Users:            users.NewService(userRepo),
		UserRepo:         userRepo,
		Friends:          friends.NewService(userRepo, hub),
		Posts:            posts.NewService(posts.NewMemoryRepo(), store),
		Messages:         messages.NewService(messages.NewMemoryRepo(), userRepo, hub),
		Store:            store,
		Hub:              hub,
		Verifier:         tokens.NewVerifier(cfg),
		AllowedOrigins:   []string{"http://localhost:3000"},
		RelayRequireAuth: true,
		MaxUploadBytes:   1 << 20,
	})
	return &testApp{router: r, cfg: cfg, users: userRepo, store: store, hub: hub, mailer: mailer}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []FieldError    `json:"errors"`
	Dev     bool            `json:"dev"`
}

func (a *testApp) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return a.serve(t, req)
}

func (a *testApp) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

type account struct {
	ID           string `json:"_id"`
	FullName     string `json:"fullName"`
	Email        string `json:"email"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

func (a *testApp) register(t *testing.T, name, email string) account {
	t.Helper()
	w, env := a.do(t, "POST", "/api/users/register", "", gin.H{"fullName": name, "email": email, "password": "secret1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var acc account
	require.NoError(t, json.Unmarshal(env.Data, &acc))
	return acc
}
