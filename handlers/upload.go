package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/campusconecto/campusconecto/backend/api/internal/storage"
	"github.com/campusconecto/campusconecto/backend/api/internal/users"
	"github.com/gin-gonic/gin"
)

// UploadHandler serves /api/upload: uploads into the object store and the
// download proxy back out of it.
type UploadHandler struct {
	store    storage.ObjectStore
	users    users.UserRepository
	maxBytes int64
	now      func() time.Time
}

func NewUploadHandler(store storage.ObjectStore, u users.UserRepository, maxBytes int64) *UploadHandler {
	return &UploadHandler{store: store, users: u, maxBytes: maxBytes, now: time.Now}
}

func (h *UploadHandler) Register(rg *gin.RouterGroup, protect gin.HandlerFunc) {
	rg.Use(protect)
	rg.POST("/profile-image", h.ProfileImage)
	rg.POST("/resource", h.Resource)
	rg.GET("/download", h.Download)
}

func limitBody(c *gin.Context, max int64) {
	if max > 0 {
		// multipart overhead on top of the file itself
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max+1<<20)
	}
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe) || errors.Is(err, multipart.ErrMessageTooLarge) ||
		(err != nil && strings.Contains(err.Error(), "request body too large"))
}

// formFile reads the "file" part, answering 400/413 itself.
func (h *UploadHandler) formFile(c *gin.Context) (*multipart.FileHeader, bool) {
	limitBody(c, h.maxBytes)
	fh, err := c.FormFile("file")
	if err != nil {
		if tooLarge(err) {
			fail(c, http.StatusRequestEntityTooLarge, "File too large")
		} else {
			fail(c, http.StatusBadRequest, "No file uploaded")
		}
		return nil, false
	}
	if h.maxBytes > 0 && fh.Size > h.maxBytes {
		fail(c, http.StatusRequestEntityTooLarge, "File too large")
		return nil, false
	}
	return fh, true
}

func (h *UploadHandler) put(c *gin.Context, fh *multipart.FileHeader, key, contentType string) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	return h.store.Put(c.Request.Context(), key, f, fh.Size, contentType)
}

func contentTypeOf(fh *multipart.FileHeader) string {
	if ct := fh.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func (h *UploadHandler) ProfileImage(c *gin.Context) {
	u, ok := currentUser(c, h.users)
	if !ok {
		return
	}
	fh, ok := h.formFile(c)
	if !ok {
		return
	}
	ct := contentTypeOf(fh)
	if !strings.HasPrefix(ct, "image/") {
		fail(c, http.StatusBadRequest, "Only image files are allowed")
		return
	}
	url, err := h.put(c, fh, storage.ProfileImageKey(u.Email, fh.Filename, ct, h.now()), ct)
	if err != nil {
		serverError(c, "Failed to upload profile image", err)
		return
	}
	info := gin.H{"url": url, "type": ct, "size": fh.Size}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Profile image uploaded successfully",
		"url":     url,
		"type":    ct,
		"size":    fh.Size,
		"data":    info,
	})
}

func (h *UploadHandler) Resource(c *gin.Context) {
	u, ok := currentUser(c, h.users)
	if !ok {
		return
	}
	fh, ok := h.formFile(c)
	if !ok {
		return
	}
	ct := contentTypeOf(fh)
	url, err := h.put(c, fh, storage.ResourceKey(u.Email, fh.Filename, ct), ct)
	if err != nil {
		serverError(c, "Failed to upload resource", err)
		return
	}
	info := gin.H{"name": fh.Filename, "url": url, "type": ct, "size": fh.Size}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Resource uploaded successfully",
		"name":    fh.Filename,
		"url":     url,
		"type":    ct,
		"size":    fh.Size,
		"data":    info,
	})
}

func (h *UploadHandler) Download(c *gin.Context) {
	raw := strings.TrimSpace(c.Query("url"))
	if raw == "" {
		fail(c, http.StatusBadRequest, "Missing url query param")
		return
	}
	key, ok := h.store.KeyFromURL(raw)
	if !ok {
		fail(c, http.StatusBadRequest, "Unsupported download url")
		return
	}
	obj, err := h.store.Get(c.Request.Context(), key)
	if errors.Is(err, storage.ErrNotFound) {
		fail(c, http.StatusNotFound, "File not found")
		return
	}
	if err != nil {
		serverError(c, "Failed to proxy download", err)
		return
	}
	defer obj.Body.Close()

	ct := obj.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	name := storage.DownloadName(c.Query("name"), key, ct)
	c.DataFromReader(http.StatusOK, obj.Size, ct, obj.Body, map[string]string{
		"Content-Disposition": `attachment; filename="` + name + `"`,
	})
}
