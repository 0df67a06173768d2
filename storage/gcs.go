package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
)

// GCSStore writes objects to a Google Cloud Storage bucket.
type GCSStore struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

// NewGCSStore uses application default credentials. baseURL defaults to the
// public storage.googleapis.com address of the bucket.
func NewGCSStore(ctx context.Context, bucket, baseURL string) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	if baseURL == "" {
		baseURL = "https://storage.googleapis.com/" + bucket
	}
	return &GCSStore{client: client, bucket: bucket, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

func (s *GCSStore) Put(ctx context.Context, publicID string, r io.Reader, contentType string) (string, error) {
	if !ValidPublicID(publicID) {
		return "", fmt.Errorf("invalid public id %q", publicID)
	}
	// Cancelling the writer's context aborts the upload; Close would
	// commit whatever was copied so far.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	w := s.client.Bucket(s.bucket).Object(publicID).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		cancel()
		return "", fmt.Errorf("upload %s: %w", publicID, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("upload %s: %w", publicID, err)
	}
	return s.baseURL + "/" + publicID, nil
}

func (s *GCSStore) Delete(ctx context.Context, publicID string) error {
	err := s.client.Bucket(s.bucket).Object(publicID).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return ErrObjectNotFound
	}
	return err
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}
