package tokens

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/campusconecto/campusconecto/backend/api/internal/config"
	"github.com/campusconecto/campusconecto/backend/api/internal/models"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testConfig(secret string) *config.Config {
	cfg := &config.Config{}
	cfg.JWT.Secret = secret
	return cfg
}

func testUser() *models.User {
	return &models.User{ID: primitive.NewObjectID(), FullName: "Test User", Email: "test@example.com"}
}

func TestGenerateAccessToken_ValidAndClaims(t *testing.T) {
	cfg := testConfig("test-secret-32-bytes-should-be-long-enough")
	u := testUser()
	tokenStr, err := GenerateAccessToken(cfg, u, 2*time.Minute)
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg.JWT.Secret, tokenStr)
	require.NoError(t, err)
	require.Equal(t, u.ID.Hex(), claims["id"])
	require.Equal(t, u.ID.Hex(), claims["sub"])
	require.Equal(t, "test@example.com", claims["email"])
	require.Equal(t, "Test User", claims["name"])

	d := ExpiresIn(claims)
	require.True(t, d > time.Minute && d <= 2*time.Minute, "unexpected remaining ttl %v", d)
}

func TestParseAccessToken_Expired(t *testing.T) {
	cfg := testConfig("another-secret-32-bytes-longgggg")
	tokenStr, err := GenerateAccessToken(cfg, testUser(), -time.Minute)
	require.NoError(t, err)
	_, err = ParseAccessToken(cfg.JWT.Secret, tokenStr)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccessToken_WrongSecretFails(t *testing.T) {
	cfg := testConfig("secret-one-32-bytes-xxxxxxxxxxxxxxxx")
	tokenStr, err := GenerateAccessToken(cfg, testUser(), 2*time.Minute)
	require.NoError(t, err)
	_, err = ParseAccessToken("different-secret-xxxxxxxxxxxxxxxx", tokenStr)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccessToken_Malformed(t *testing.T) {
	_, err := ParseAccessToken("x", "not.a.jwt")
	require.Error(t, err)
}

// Rejected when alg=none (unsigned token)
func TestParseAccessToken_AlgNoneRejected(t *testing.T) {
	headerEnc := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none"}`))
	payloadEnc := base64.RawURLEncoding.EncodeToString([]byte(`{"id":"u-none","exp":9999999999}`))
	_, err := ParseAccessToken("x", headerEnc+"."+payloadEnc+".")
	require.Error(t, err)
}

// Tampering with payload must fail signature verification
func TestParseAccessToken_TamperedPayload(t *testing.T) {
	cfg := testConfig("tamper-test-secret-32-bytes-xxxxxxx")
	u := testUser()
	tokenStr, err := GenerateAccessToken(cfg, u, 5*time.Minute)
	require.NoError(t, err)

	parts := strings.Split(tokenStr, ".")
	require.Len(t, parts, 3)
	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(strings.Replace(string(payloadBytes), "Test User", "Attacker", 1)))
	_, err = ParseAccessToken(cfg.JWT.Secret, strings.Join(parts, "."))
	require.Error(t, err)
}

func TestVerifierExposesClaims(t *testing.T) {
	cfg := testConfig("verifier-secret-32-bytes-xxxxxxxxxx")
	u := testUser()
	tokenStr, err := GenerateAccessToken(cfg, u, time.Minute)
	require.NoError(t, err)

	tok, err := NewVerifier(cfg).Verify(context.Background(), tokenStr)
	require.NoError(t, err)
	var claims map[string]interface{}
	require.NoError(t, tok.Claims(&claims))
	require.Equal(t, u.ID.Hex(), claims["id"])

	_, err = NewVerifier(cfg).Verify(context.Background(), "garbage")
	require.Error(t, err)
}
