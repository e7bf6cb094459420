package tokens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/campusconecto/campusconecto/backend/api/internal/config"
	"github.com/campusconecto/campusconecto/backend/api/internal/models"
	"github.com/campusconecto/campusconecto/backend/api/pkg/middleware"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// GenerateAccessToken creates a signed JWT access token for the user
func GenerateAccessToken(cfg *config.Config, u *models.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"id":    u.ID.Hex(),
		"sub":   u.ID.Hex(),
		"name":  u.FullName,
		"email": u.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString([]byte(cfg.JWT.Secret))
}

// ParseAccessToken validates signature and expiry and returns the claims.
// Tokens signed with anything but HMAC are rejected.
func ParseAccessToken(secret, raw string) (jwt.MapClaims, error) {
	parsed, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ExpiresIn returns how long the token remains valid, zero when it carries
// no expiry or is already expired.
func ExpiresIn(claims jwt.MapClaims) time.Duration {
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return 0
	}
	if d := time.Until(exp.Time); d > 0 {
		return d
	}
	return 0
}

// Verifier checks locally issued access tokens for the auth middleware.
type Verifier struct {
	secret string
}

func NewVerifier(cfg *config.Config) *Verifier {
	return &Verifier{secret: cfg.JWT.Secret}
}

func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	claims, err := ParseAccessToken(v.secret, raw)
	if err != nil {
		return nil, err
	}
	return claimsToken(claims), nil
}

type claimsToken jwt.MapClaims

func (t claimsToken) Claims(v interface{}) error {
	b, err := json.Marshal(map[string]interface{}(t))
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
