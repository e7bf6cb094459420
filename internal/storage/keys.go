package storage

import (
	"fmt"
	"mime"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// Sanitize replaces every character outside [a-zA-Z0-9._-] with "_".
func Sanitize(s string) string {
	return unsafeChars.ReplaceAllString(s, "_")
}

var preferredExt = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"image/svg+xml":   ".svg",
	"application/pdf": ".pdf",
	"text/plain":      ".txt",
}

// ExtensionFor returns a file extension (with dot) for contentType, or "".
func ExtensionFor(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	if ext, ok := preferredExt[mt]; ok {
		return ext
	}
	if exts, _ := mime.ExtensionsByType(mt); len(exts) > 0 {
		return exts[0]
	}
	return ""
}

func extOf(filename, contentType string) string {
	if ext := path.Ext(filename); ext != "" && ext != "." {
		return strings.ToLower(Sanitize(ext))
	}
	return ExtensionFor(contentType)
}

func owner(email string) string {
	if email == "" {
		return "user"
	}
	return Sanitize(email)
}

// ProfileImageKey is profile-images/<email>/profile_<unix ms><ext>.
func ProfileImageKey(email, filename, contentType string, now time.Time) string {
	return fmt.Sprintf("profile-images/%s/profile_%d%s", owner(email), now.UnixMilli(), extOf(filename, contentType))
}

// ResourceKey is resources/<email>/<base>-<uuid><ext>.
func ResourceKey(email, filename, contentType string) string {
	base := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	if i := strings.Index(base, "."); i > 0 {
		base = base[:i]
	}
	base = Sanitize(base)
	if base == "" || base == "." || base == "_" {
		base = "file"
	}
	return fmt.Sprintf("resources/%s/%s-%s%s", owner(email), base, uuid.NewString(), extOf(filename, contentType))
}

// PostImageKey is posts/<email>/<uuid><ext>.
func PostImageKey(email, filename, contentType string) string {
	return fmt.Sprintf("posts/%s/%s%s", owner(email), uuid.NewString(), extOf(filename, contentType))
}

// DownloadName picks the attachment filename for a proxied download: name
// when given, else the last path segment of key, with an extension inferred
// from contentType appended when missing.
func DownloadName(name, key, contentType string) string {
	fn := strings.TrimSpace(name)
	if fn == "" {
		fn = path.Base(key)
	}
	fn = strings.Map(func(r rune) rune {
		if r == '"' || r == '\\' || r == '\r' || r == '\n' || r == '/' {
			return '_'
		}
		return r
	}, fn)
	if fn == "" || fn == "." {
		fn = "download"
	}
	if path.Ext(fn) == "" {
		fn += ExtensionFor(contentType)
	}
	return fn
}
