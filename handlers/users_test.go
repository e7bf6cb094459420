package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/campusconecto/campusconecto/backend/api/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterValidation(t *testing.T) {
	app := newTestApp(t)
	w, env := app.do(t, "POST", "/api/users/register", "", gin.H{"fullName": "A", "email": "nope", "password": "123"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Validation failed", env.Message)

	fields := map[string]bool{}
	for _, e := range env.Errors {
		fields[e.Field] = true
	}
	assert.True(t, fields["fullName"])
	assert.True(t, fields["email"])
	assert.True(t, fields["password"])
}

func TestRegisterLoginAndResetScenario(t *testing.T) {
	app := newTestApp(t)
	acc := app.register(t, "Alice", "alice@x.com")
	require.NotEmpty(t, acc.Token)
	require.NotEmpty(t, acc.RefreshToken)

	w, env := app.do(t, "POST", "/api/users/register", "", gin.H{"fullName": "Alice", "email": "alice@x.com", "password": "secret1"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "User already exists", env.Message)

	w, env = app.do(t, "POST", "/api/users/login", "", gin.H{"email": "alice@x.com", "password": "wrong12"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Invalid email or password", env.Message)
	_, env2 := app.do(t, "POST", "/api/users/login", "", gin.H{"email": "ghost@x.com", "password": "secret1"})
	require.Equal(t, env.Message, env2.Message)

	w, env = app.do(t, "POST", "/api/users/password/send-otp", "", gin.H{"email": "ghost@x.com"})
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "No user found with this email", env.Message)

	w, _ = app.do(t, "POST", "/api/users/password/send-otp", "", gin.H{"email": "alice@x.com"})
	require.Equal(t, http.StatusOK, w.Code)
	code := app.mailer.code("alice@x.com")
	require.Len(t, code, 6)

	w, env = app.do(t, "POST", "/api/users/password/verify-otp", "", gin.H{"email": "alice@x.com", "otp": "99999x"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Invalid or expired OTP", env.Message)
	w, env = app.do(t, "POST", "/api/users/password/verify-otp", "", gin.H{"email": "alice@x.com", "otp": code})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "OTP verified", env.Message)

	w, env = app.do(t, "POST", "/api/users/password/reset", "", gin.H{"email": "alice@x.com", "otp": code, "newPassword": "newpass1"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Password reset successful", env.Message)

	// replay through the legacy alias
	w, env = app.do(t, "POST", "/api/users/reset-password", "", gin.H{"email": "alice@x.com", "otp": code, "newPassword": "other12"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Invalid or expired OTP", env.Message)

	w, env = app.do(t, "POST", "/api/users/login", "", gin.H{"email": "alice@x.com", "password": "newpass1"})
	require.Equal(t, http.StatusOK, w.Code)
	var acc2 account
	require.NoError(t, json.Unmarshal(env.Data, &acc2))
	require.Equal(t, acc.ID, acc2.ID)
}

func TestSendOTPDevMode(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "Alice", "alice@x.com")
	app.cfg.OTP.DevLog = true

	w, env := app.do(t, "POST", "/api/users/forgot-password", "", gin.H{"email": "alice@x.com"})
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, env.Dev)
	require.Equal(t, "OTP generated (DEV mode)", env.Message)
}

func TestRefreshAndLogout(t *testing.T) {
	app := newTestApp(t)
	acc := app.register(t, "Alice", "alice@x.com")

	w, env := app.do(t, "POST", "/api/users/token/refresh", "", gin.H{"refreshToken": acc.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.NotEmpty(t, out.Token)

	w, _ = app.do(t, "POST", "/api/users/logout", acc.Token, gin.H{"refreshToken": acc.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code)

	w, env = app.do(t, "POST", "/api/users/token/refresh", "", gin.H{"refreshToken": acc.RefreshToken})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "Invalid refresh token", env.Message)
}

func TestSSONotConfigured(t *testing.T) {
	app := newTestApp(t)
	w, _ := app.do(t, "POST", "/api/users/sso", "", gin.H{"idToken": "x"})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestMeRequiresToken(t *testing.T) {
	app := newTestApp(t)
	w, env := app.do(t, "GET", "/api/users/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "Not authorized, no token", env.Message)

	w, _ = app.do(t, "GET", "/api/users/me", "garbage", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProfileAndMe(t *testing.T) {
	app := newTestApp(t)
	alice := app.register(t, "Alice", "alice@x.com")
	bob := app.register(t, "Bob", "bob@x.com")

	w, _ := app.do(t, "POST", "/api/users/profile", bob.Token, gin.H{"username": "taken"})
	require.Equal(t, http.StatusOK, w.Code)

	w, env := app.do(t, "POST", "/api/users/profile", alice.Token, gin.H{"username": "Taken"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Username is already taken.", env.Message)

	w, env = app.do(t, "POST", "/api/users/profile", alice.Token, gin.H{"username": "alice", "college": "MIT", "bio": "hi"})
	require.Equal(t, http.StatusOK, w.Code)
	var u models.User
	require.NoError(t, json.Unmarshal(env.Data, &u))
	require.True(t, u.ProfileCreated)
	require.Equal(t, "MIT", u.College)
	require.NotContains(t, string(env.Data), "passwordHash")

	w, _ = app.do(t, "POST", "/api/users/add-friend", alice.Token, gin.H{"friendId": bob.ID})
	require.Equal(t, http.StatusOK, w.Code)

	w, env = app.do(t, "GET", "/api/users/me", alice.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var p models.Profile
	require.NoError(t, json.Unmarshal(env.Data, &p))
	require.Len(t, p.Friends, 1)
	require.Equal(t, "Bob", p.Friends[0].FullName)
}

func TestFriendRoutes(t *testing.T) {
	app := newTestApp(t)
	alice := app.register(t, "Alice", "alice@x.com")
	bob := app.register(t, "Bob", "bob@x.com")

	w, env := app.do(t, "POST", "/api/users/add-friend", alice.Token, gin.H{})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "friendId required", env.Message)

	w, env = app.do(t, "POST", "/api/users/add-friend", alice.Token, gin.H{"friendId": alice.ID})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Cannot add yourself", env.Message)

	w, env = app.do(t, "POST", "/api/users/add-friend", alice.Token, gin.H{"friendId": "64b7f0c2a1b2c3d4e5f60718"})
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "Friend not found", env.Message)

	for i := 0; i < 2; i++ {
		w, env = app.do(t, "POST", "/api/users/add-friend", alice.Token, gin.H{"friendId": bob.ID})
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "Friend added!", env.Message)
	}
	var ids []string
	require.NoError(t, json.Unmarshal(env.Data, &ids))
	require.Equal(t, []string{bob.ID}, ids)

	w, env = app.do(t, "POST", "/api/users/remove-friend", bob.Token, gin.H{"friendId": bob.ID})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Cannot remove yourself", env.Message)

	w, env = app.do(t, "POST", "/api/users/remove-friend", bob.Token, gin.H{"friendId": alice.ID})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Friend removed.", env.Message)
	require.JSONEq(t, `[]`, string(env.Data))
}

func TestSearchRoute(t *testing.T) {
	app := newTestApp(t)
	alice := app.register(t, "Alice Smith", "alice@x.com")
	app.register(t, "Bob Smith", "bob@x.com")

	w, env := app.do(t, "GET", "/api/users/search?q=smith&mode=name", alice.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var found []models.PublicUser
	require.NoError(t, json.Unmarshal(env.Data, &found))
	require.Len(t, found, 1)
	require.Equal(t, "Bob Smith", found[0].FullName)

	w, env = app.do(t, "GET", "/api/users/search", alice.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `[]`, string(env.Data))
}

func TestUnknownRoute(t *testing.T) {
	app := newTestApp(t)
	w, env := app.do(t, "GET", "/api/nope", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "Route not found", env.Message)
}
