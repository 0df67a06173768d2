package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/andrensetiawan/form-service/models"
	"github.com/andrensetiawan/form-service/storage"
)

var ErrFileTooLarge = errors.New("file too large")

// MediaService uploads files to the configured store and keeps the
// media_assets registry used for delete-by-id.
type MediaService struct {
	db       *gorm.DB
	store    storage.MediaStore
	maxBytes int64
	now      func() time.Time
}

func NewMediaService(db *gorm.DB, store storage.MediaStore, maxBytes int64) *MediaService {
	return &MediaService{db: db, store: store, maxBytes: maxBytes, now: time.Now}
}

// MaxBytes is the upload size limit.
func (s *MediaService) MaxBytes() int64 {
	return s.maxBytes
}

// Upload stores one file under folder. Only images and PDFs are accepted;
// the type is sniffed from the content, not taken from the client.
func (s *MediaService) Upload(ctx context.Context, actor Actor, folder, filename string, r io.Reader) (*models.MediaAsset, error) {
	if !actor.IsPublic() && !actor.Can(models.CapMediaUpload) {
		return nil, ErrForbidden
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return nil, validation("File kosong")
	}
	contentType := http.DetectContentType(head)
	if !allowedContentType(contentType) {
		return nil, validation(fmt.Sprintf("Tipe file tidak didukung: %s", contentType))
	}

	counter := &countingReader{r: io.MultiReader(bytes.NewReader(head), r), limit: s.maxBytes}
	publicID := storage.NewPublicID(folder, filename, s.now())
	url, err := s.store.Put(ctx, publicID, counter, contentType)
	if err != nil {
		s.removeObject(ctx, publicID)
		if errors.Is(err, ErrFileTooLarge) {
			return nil, fmt.Errorf("%w: limit %d bytes", ErrFileTooLarge, s.maxBytes)
		}
		return nil, err
	}
	if counter.exceeded {
		s.removeObject(ctx, publicID)
		return nil, fmt.Errorf("%w: limit %d bytes", ErrFileTooLarge, s.maxBytes)
	}

	asset := &models.MediaAsset{
		PublicID:    publicID,
		URL:         url,
		Folder:      storage.CleanFolder(folder),
		ContentType: contentType,
		Size:        counter.n,
		UploadedBy:  actor.Label(),
		CreatedAt:   s.now(),
	}
	if err := s.db.WithContext(ctx).Create(asset).Error; err != nil {
		s.removeObject(ctx, publicID)
		return nil, err
	}
	return asset, nil
}

// Delete removes a hosted file and its registry row.
func (s *MediaService) Delete(ctx context.Context, actor Actor, publicID string) error {
	if !actor.Can(models.CapMediaDelete) {
		return ErrForbidden
	}
	var asset models.MediaAsset
	if err := s.db.WithContext(ctx).First(&asset, "public_id = ?", publicID).Error; err != nil {
		return notFound(err)
	}
	if err := s.store.Delete(ctx, publicID); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&asset).Error; err != nil {
			return err
		}
		return recordActivity(tx, actor, "media.delete", "media", publicID, map[string]any{"url": asset.URL})
	})
}

// Discard removes assets uploaded for a write that then failed, so no
// orphaned files are left behind. Errors are logged, not returned.
func (s *MediaService) Discard(ctx context.Context, assets []*models.MediaAsset) {
	for _, a := range assets {
		s.removeObject(ctx, a.PublicID)
		if err := s.db.WithContext(ctx).Delete(&models.MediaAsset{}, "public_id = ?", a.PublicID).Error; err != nil {
			zap.L().Warn("discard media registry row", zap.String("public_id", a.PublicID), zap.Error(err))
		}
	}
}

func (s *MediaService) removeObject(ctx context.Context, publicID string) {
	if err := s.store.Delete(ctx, publicID); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		zap.L().Warn("remove media object", zap.String("public_id", publicID), zap.Error(err))
	}
}

func allowedContentType(ct string) bool {
	return strings.HasPrefix(ct, "image/") || ct == "application/pdf"
}

// countingReader stops with ErrFileTooLarge once more than limit bytes
// have been read.
type countingReader struct {
	r        io.Reader
	n        int64
	limit    int64
	exceeded bool
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	if c.limit > 0 && c.n > c.limit {
		c.exceeded = true
		return n, ErrFileTooLarge
	}
	return n, err
}
