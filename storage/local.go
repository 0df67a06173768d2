package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps files under Dir and serves them from BaseURL.
type LocalStore struct {
	Dir     string
	BaseURL string // e.g. "/uploads"
}

func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	if baseURL == "" {
		baseURL = "/uploads"
	}
	return &LocalStore{Dir: dir, BaseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

func (s *LocalStore) Put(ctx context.Context, publicID string, r io.Reader, contentType string) (string, error) {
	if !ValidPublicID(publicID) {
		return "", fmt.Errorf("invalid public id %q", publicID)
	}
	target := filepath.Join(s.Dir, filepath.FromSlash(publicID))
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return "", fmt.Errorf("create folder: %w", err)
	}

	dst, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		os.Remove(target)
		return "", fmt.Errorf("save file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(target)
		return "", fmt.Errorf("save file: %w", err)
	}
	return s.BaseURL + "/" + publicID, nil
}

func (s *LocalStore) Delete(ctx context.Context, publicID string) error {
	if !ValidPublicID(publicID) {
		return fmt.Errorf("invalid public id %q", publicID)
	}
	err := os.Remove(filepath.Join(s.Dir, filepath.FromSlash(publicID)))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrObjectNotFound
	}
	return err
}
