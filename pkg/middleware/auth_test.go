package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// fakeToken implements Token
type fakeToken struct {
	data map[string]interface{}
}

func (t *fakeToken) Claims(v interface{}) error {
	if mm, ok := v.(*map[string]interface{}); ok {
		*mm = t.data
		return nil
	}
	return fmt.Errorf("unsupported claims type")
}

// fakeVerifier accepts goodtoken and revoked-token
type fakeVerifier struct{}

func (f *fakeVerifier) Verify(ctx context.Context, raw string) (Token, error) {
	switch raw {
	case "goodtoken", "revoked-token":
		return &fakeToken{data: map[string]interface{}{"id": "user1", "email": "test@example.com"}}, nil
	case "subonly":
		return &fakeToken{data: map[string]interface{}{"sub": "user2"}}, nil
	case "noid":
		return &fakeToken{data: map[string]interface{}{"email": "x@example.com"}}, nil
	}
	return nil, fmt.Errorf("invalid token")
}

type fakeRevocations map[string]bool

func (f fakeRevocations) IsRevoked(ctx context.Context, token string) (bool, error) {
	return f[token], nil
}

func serve(t *testing.T, header string) *httptest.ResponseRecorder {
	t.Helper()
	g := gin.New()
	g.GET("/", AuthMiddleware(&fakeVerifier{}, fakeRevocations{"revoked-token": true}), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": UserID(c), "token": AccessToken(c)})
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, req)
	return rw
}

func TestAuthMiddleware_NoHeader(t *testing.T) {
	rw := serve(t, "")
	require.Equal(t, http.StatusUnauthorized, rw.Code)
	require.JSONEq(t, `{"success":false,"message":"Not authorized, no token"}`, rw.Body.String())
}

func TestAuthMiddleware_InvalidHeader(t *testing.T) {
	require.Equal(t, http.StatusUnauthorized, serve(t, "BadHeader").Code)
	require.Equal(t, http.StatusUnauthorized, serve(t, "Bearer ").Code)
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	rw := serve(t, "Bearer goodtoken")
	require.Equal(t, http.StatusOK, rw.Code)
	var got map[string]string
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &got))
	require.Equal(t, "user1", got["id"])
	require.Equal(t, "goodtoken", got["token"])
}

func TestAuthMiddleware_FallsBackToSub(t *testing.T) {
	rw := serve(t, "bearer subonly")
	require.Equal(t, http.StatusOK, rw.Code)
	require.Contains(t, rw.Body.String(), `"id":"user2"`)
}

func TestAuthMiddleware_RejectsInvalidAndRevoked(t *testing.T) {
	require.Equal(t, http.StatusUnauthorized, serve(t, "Bearer nope").Code)
	require.Equal(t, http.StatusUnauthorized, serve(t, "Bearer noid").Code)

	rw := serve(t, "Bearer revoked-token")
	require.Equal(t, http.StatusUnauthorized, rw.Code)
	require.Contains(t, rw.Body.String(), "revoked")
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Equal(t, "", BearerToken(req))
	req.Header.Set("Authorization", "Bearer  abc ")
	require.Equal(t, "abc", BearerToken(req))
	req.Header.Set("Authorization", "Basic abc")
	require.Equal(t, "", BearerToken(req))
}
