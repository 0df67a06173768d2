// Package storage hosts uploaded media on Google Cloud Storage or the local disk.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrObjectNotFound = errors.New("media object not found")

// MediaStore puts and removes objects addressed by a public id.
type MediaStore interface {
	// Put stores r under publicID and returns the URL clients load it from.
	Put(ctx context.Context, publicID string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, publicID string) error
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// NewPublicID builds an object key such as
// "service-requests/3f.../20251015-101500-3b1c9d2e-foto.jpg".
func NewPublicID(folder, filename string, now time.Time) string {
	name := unsafeChars.ReplaceAllString(path.Base(filename), "_")
	name = strings.Trim(name, "._")
	if name == "" {
		name = "file"
	}
	id := fmt.Sprintf("%s-%s-%s", now.Format("20060102-150405"), uuid.NewString()[:8], name)
	folder = CleanFolder(folder)
	if folder == "" {
		return id
	}
	return folder + "/" + id
}

// CleanFolder normalizes a caller supplied folder and removes any attempt to
// climb out of the media root.
func CleanFolder(folder string) string {
	parts := strings.Split(strings.ReplaceAll(folder, "\\", "/"), "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = unsafeChars.ReplaceAllString(p, "_")
		if p == "" || p == "." || p == ".." || strings.Trim(p, "._") == "" {
			continue
		}
		out = append(out, p)
	}
	return strings.Join(out, "/")
}

// ValidPublicID rejects ids that could address files outside the store.
func ValidPublicID(publicID string) bool {
	if publicID == "" || strings.HasPrefix(publicID, "/") || strings.Contains(publicID, "\\") {
		return false
	}
	for _, p := range strings.Split(publicID, "/") {
		if p == "" || p == "." || p == ".." {
			return false
		}
	}
	return true
}
