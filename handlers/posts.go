package handlers

import (
	"errors"
	"net/http"

	"github.com/campusconecto/campusconecto/backend/api/internal/models"
	"github.com/campusconecto/campusconecto/backend/api/internal/posts"
	"github.com/campusconecto/campusconecto/backend/api/internal/users"
	"github.com/campusconecto/campusconecto/backend/api/pkg/logger"
	"github.com/gin-gonic/gin"
)

// PostHandler serves /api/posts.
type PostHandler struct {
	posts    *posts.Service
	users    users.UserRepository
	maxBytes int64
}

func NewPostHandler(p *posts.Service, u users.UserRepository, maxBytes int64) *PostHandler {
	return &PostHandler{posts: p, users: u, maxBytes: maxBytes}
}

// Register mounts the routes on rg; every route requires protect.
func (h *PostHandler) Register(rg *gin.RouterGroup, protect gin.HandlerFunc) {
	rg.Use(protect)
	rg.POST("", h.Create)
	rg.POST("/", h.Create)
	rg.GET("/me", h.Mine)
	rg.GET("/feed", h.Feed)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
}

// currentUser loads the authenticated account, answering 401/404/500 itself.
func currentUser(c *gin.Context, repo users.UserRepository) (*models.User, bool) {
	id, ok := requester(c)
	if !ok {
		return nil, false
	}
	u, err := repo.GetByID(c.Request.Context(), id)
	if err != nil {
		serverError(c, "Server error", err)
		return nil, false
	}
	if u == nil {
		fail(c, http.StatusNotFound, "User not found")
		return nil, false
	}
	return u, true
}

func (h *PostHandler) Create(c *gin.Context) {
	u, ok := currentUser(c, h.users)
	if !ok {
		return
	}
	limitBody(c, h.maxBytes)
	err := c.Request.ParseMultipartForm(32 << 20)
	switch {
	case errors.Is(err, http.ErrNotMultipart):
		// plain JSON posts carry no image
		var req struct {
			Text        string              `json:"text"`
			Attachments []models.Attachment `json:"attachments"`
		}
		_ = c.ShouldBindJSON(&req)
		h.create(c, u, posts.NewPost{Text: req.Text, Attachments: req.Attachments})
		return
	case tooLarge(err):
		fail(c, http.StatusRequestEntityTooLarge, "File too large")
		return
	case err != nil:
		fail(c, http.StatusBadRequest, "Invalid upload")
		return
	}

	in := posts.NewPost{Text: c.PostForm("text")}
	if raw := c.PostForm("attachments"); raw != "" {
		att, err := posts.ParseAttachments(raw)
		if err != nil {
			logger.Warnf("ignoring attachments from %s: %v", u.Email, err)
		} else {
			in.Attachments = att
		}
	}
	fh, err := c.FormFile("file")
	if err == nil {
		f, err := fh.Open()
		if err != nil {
			serverError(c, "Server error", err)
			return
		}
		defer f.Close()
		in.Image = &posts.Image{Filename: fh.Filename, ContentType: contentTypeOf(fh), Size: fh.Size, Body: f}
	}
	h.create(c, u, in)
}

func (h *PostHandler) create(c *gin.Context, u *models.User, in posts.NewPost) {
	if in.Attachments == nil {
		in.Attachments = []models.Attachment{}
	}
	p, err := h.posts.Create(c.Request.Context(), u, in)
	if err != nil {
		serverError(c, "Server error", err)
		return
	}
	respond(c, http.StatusCreated, p)
}

func (h *PostHandler) Mine(c *gin.Context) {
	id, ok := requester(c)
	if !ok {
		return
	}
	list, err := h.posts.Mine(c.Request.Context(), id)
	if err != nil {
		serverError(c, "Server error", err)
		return
	}
	respond(c, http.StatusOK, list)
}

func (h *PostHandler) Feed(c *gin.Context) {
	list, err := h.posts.Feed(c.Request.Context())
	if err != nil {
		serverError(c, "Server error", err)
		return
	}
	respond(c, http.StatusOK, list)
}

func postError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, posts.ErrNotFound):
		fail(c, http.StatusNotFound, "Post not found")
	case errors.Is(err, posts.ErrNotOwner):
		fail(c, http.StatusUnauthorized, "User not authorized")
	default:
		serverError(c, "Server error", err)
	}
}

func (h *PostHandler) Update(c *gin.Context) {
	id, ok := requester(c)
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	_ = c.ShouldBindJSON(&req)
	p, err := h.posts.Update(c.Request.Context(), id, c.Param("id"), req.Text)
	if err != nil {
		postError(c, err)
		return
	}
	respond(c, http.StatusOK, p)
}

func (h *PostHandler) Delete(c *gin.Context) {
	id, ok := requester(c)
	if !ok {
		return
	}
	if err := h.posts.Delete(c.Request.Context(), id, c.Param("id")); err != nil {
		postError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "Post removed", nil)
}
