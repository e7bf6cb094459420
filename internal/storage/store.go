package storage

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
)

var ErrNotFound = errors.New("object not found")

// Object is a stored blob opened for reading. Callers close Body.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// ObjectStore is the blob storage used by uploads and the download proxy.
type ObjectStore interface {
	// Put stores the object and returns its public URL.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Get(ctx context.Context, key string) (*Object, error)
	// KeyFromURL resolves a URL previously returned by Put back to its key.
	KeyFromURL(raw string) (string, bool)
}

// urlMapper converts between object keys and public URLs under base.
type urlMapper struct {
	base *url.URL
}

func newURLMapper(base string) (urlMapper, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return urlMapper{}, err
	}
	if u.Scheme == "" || u.Host == "" {
		return urlMapper{}, errors.New("public url must be absolute: " + base)
	}
	return urlMapper{base: u}, nil
}

func (m urlMapper) URL(key string) string {
	u := *m.base
	u.Path = m.base.Path + "/" + key
	u.RawPath = ""
	return u.String()
}

func (m urlMapper) Key(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if !strings.EqualFold(u.Scheme, m.base.Scheme) || !strings.EqualFold(u.Host, m.base.Host) {
		return "", false
	}
	prefix := m.base.Path + "/"
	if !strings.HasPrefix(u.Path, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(u.Path, prefix)
	if key == "" || strings.Contains(key, "..") {
		return "", false
	}
	return key, true
}
