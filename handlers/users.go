package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/campusconecto/campusconecto/backend/api/internal/auth"
	"github.com/campusconecto/campusconecto/backend/api/internal/friends"
	"github.com/campusconecto/campusconecto/backend/api/internal/models"
	"github.com/campusconecto/campusconecto/backend/api/internal/users"
	"github.com/campusconecto/campusconecto/backend/api/pkg/middleware"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// registerRequest is the signup form.
type registerRequest struct {
	FullName      string   `json:"fullName" binding:"required,min=2"`
	Email         string   `json:"email" binding:"required,email"`
	Password      string   `json:"password" binding:"required,min=6"`
	Qualification string   `json:"qualification"`
	Branch        string   `json:"branch"`
	Year          string   `json:"year"`
	Subjects      []string `json:"subjects"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type ssoRequest struct {
	IDToken string `json:"idToken" binding:"required"`
}

type profileRequest struct {
	Username        string `json:"username"`
	College         string `json:"college"`
	Bio             string `json:"bio"`
	ProfileImageURL string `json:"profileImageUrl"`
}

type friendRequest struct {
	FriendID string `json:"friendId"`
}

// UserHandler serves /api/users: accounts, profile and friends.
type UserHandler struct {
	auth    *auth.Service
	users   *users.Service
	friends *friends.Service
}

func NewUserHandler(a *auth.Service, u *users.Service, f *friends.Service) *UserHandler {
	return &UserHandler{auth: a, users: u, friends: f}
}

// Register mounts the routes on rg; protect guards the authenticated ones.
func (h *UserHandler) Register(rg *gin.RouterGroup, protect gin.HandlerFunc) {
	rg.POST("/register", h.RegisterUser)
	rg.POST("/login", h.Login)
	rg.POST("/token/refresh", h.Refresh)
	rg.POST("/sso", h.SingleSignOn)
	rg.POST("/logout", protect, h.Logout)

	rg.GET("/me", protect, h.Me)
	rg.POST("/profile", protect, h.UpdateProfile)
	rg.GET("/search", protect, h.Search)
	rg.POST("/add-friend", protect, h.AddFriend)
	rg.POST("/remove-friend", protect, h.RemoveFriend)

	h.registerPassword(rg)
}

// requester resolves the authenticated user id, answering 401 when the
// token subject is not a valid id.
func requester(c *gin.Context) (primitive.ObjectID, bool) {
	id, ok := models.ParseID(middleware.UserID(c))
	if !ok {
		fail(c, http.StatusUnauthorized, "Not authorized, token failed")
	}
	return id, ok
}

func session(res *auth.Result) gin.H {
	return gin.H{
		"_id":            res.User.ID,
		"fullName":       res.User.FullName,
		"email":          res.User.Email,
		"profileCreated": res.User.ProfileCreated,
		"token":          res.Token,
		"refreshToken":   res.RefreshToken,
	}
}

func (h *UserHandler) RegisterUser(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.auth.Register(c.Request.Context(), auth.Registration{
		FullName:      req.FullName,
		Email:         req.Email,
		Password:      req.Password,
		Qualification: req.Qualification,
		Branch:        req.Branch,
		Year:          req.Year,
		Subjects:      req.Subjects,
	})
	if errors.Is(err, auth.ErrUserExists) {
		fail(c, http.StatusBadRequest, "User already exists")
		return
	}
	if err != nil {
		serverError(c, "Registration failed", err)
		return
	}
	respondMessage(c, http.StatusCreated, "User registered successfully", session(res))
}

func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		fail(c, http.StatusBadRequest, "Invalid email or password")
		return
	}
	if err != nil {
		serverError(c, "Login failed", err)
		return
	}
	respond(c, http.StatusOK, session(res))
}

func (h *UserHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}
	token, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if errors.Is(err, auth.ErrInvalidRefresh) {
		fail(c, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	if err != nil {
		serverError(c, "Token refresh failed", err)
		return
	}
	respond(c, http.StatusOK, gin.H{"token": token})
}

func (h *UserHandler) Logout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	// body is optional
	_ = c.ShouldBindJSON(&req)
	if err := h.auth.Logout(c.Request.Context(), req.RefreshToken, middleware.AccessToken(c)); err != nil {
		serverError(c, "Logout failed", err)
		return
	}
	respondMessage(c, http.StatusOK, "Logged out", nil)
}

func (h *UserHandler) SingleSignOn(c *gin.Context) {
	if !h.auth.SSOEnabled() {
		fail(c, http.StatusNotFound, "Single sign-on is not configured")
		return
	}
	var req ssoRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.auth.SingleSignOn(c.Request.Context(), req.IDToken)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		fail(c, http.StatusUnauthorized, "Invalid identity token")
		return
	}
	if err != nil {
		serverError(c, "Single sign-on failed", err)
		return
	}
	respond(c, http.StatusOK, session(res))
}

func (h *UserHandler) Me(c *gin.Context) {
	id, ok := requester(c)
	if !ok {
		return
	}
	p, err := h.users.Me(c.Request.Context(), id)
	if errors.Is(err, users.ErrNotFound) {
		fail(c, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		serverError(c, "Server error fetching profile", err)
		return
	}
	respondMessage(c, http.StatusOK, "User profile fetched successfully", p)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	id, ok := requester(c)
	if !ok {
		return
	}
	var req profileRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.users.UpdateProfile(c.Request.Context(), id, users.ProfileUpdate{
		Username:        req.Username,
		College:         req.College,
		Bio:             req.Bio,
		ProfileImageURL: req.ProfileImageURL,
	})
	switch {
	case errors.Is(err, users.ErrUsernameTaken):
		fail(c, http.StatusBadRequest, "Username is already taken.")
	case errors.Is(err, users.ErrNotFound):
		fail(c, http.StatusNotFound, "User not found")
	case err != nil:
		serverError(c, "Server error updating profile", err)
	default:
		respondMessage(c, http.StatusOK, "Profile updated successfully", u)
	}
}

func (h *UserHandler) Search(c *gin.Context) {
	id, ok := requester(c)
	if !ok {
		return
	}
	found, err := h.users.Search(c.Request.Context(), id, c.Query("q"), c.Query("mode"))
	if err != nil {
		serverError(c, "Search failed", err)
		return
	}
	respond(c, http.StatusOK, found)
}

func (h *UserHandler) AddFriend(c *gin.Context) {
	h.changeFriend(c, h.friends.Add, "Friend added!")
}

func (h *UserHandler) RemoveFriend(c *gin.Context) {
	h.changeFriend(c, h.friends.Remove, "Friend removed.")
}

func (h *UserHandler) changeFriend(c *gin.Context, op func(context.Context, primitive.ObjectID, string) ([]primitive.ObjectID, error), done string) {
	id, ok := requester(c)
	if !ok {
		return
	}
	var req friendRequest
	// a missing or malformed body reads as a missing friendId
	_ = c.ShouldBindJSON(&req)
	ids, err := op(c.Request.Context(), id, req.FriendID)
	switch {
	case errors.Is(err, friends.ErrInvalidID):
		fail(c, http.StatusBadRequest, "friendId required")
	case errors.Is(err, friends.ErrAddSelf):
		fail(c, http.StatusBadRequest, "Cannot add yourself")
	case errors.Is(err, friends.ErrRemoveSelf):
		fail(c, http.StatusBadRequest, "Cannot remove yourself")
	case errors.Is(err, friends.ErrFriendNotFound):
		fail(c, http.StatusNotFound, "Friend not found")
	case errors.Is(err, friends.ErrRequesterNotFound):
		fail(c, http.StatusNotFound, "User not found")
	case err != nil:
		serverError(c, "Friend update failed", err)
	default:
		respondMessage(c, http.StatusOK, done, ids)
	}
}
