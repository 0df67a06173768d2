package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/andrensetiawan/form-service/models"
)

// WorkLogService keeps the technician work log (unit_work_logs).
type WorkLogService struct {
	db *gorm.DB
}

func NewWorkLogService(db *gorm.DB) *WorkLogService {
	return &WorkLogService{db: db}
}

// WorkLogInput is one progress entry. ParentID makes it a reply.
type WorkLogInput struct {
	Description    string             `json:"description"`
	DetailNote     string             `json:"detail_note"`
	Media          []models.MediaItem `json:"media"`
	ParentID       *uuid.UUID         `json:"parent_id"`
	IdempotencyKey string             `json:"-"`
}

// Add appends an entry. Assigned technicians and staff may write.
func (s *WorkLogService) Add(ctx context.Context, actor Actor, requestID uuid.UUID, in WorkLogInput) (*models.UnitWorkLog, error) {
	if !actor.Can(models.CapWorkLogWrite) {
		return nil, ErrForbidden
	}
	in.Description = strings.TrimSpace(in.Description)
	if in.Description == "" && len(in.Media) == 0 {
		return nil, validation("Deskripsi atau foto wajib diisi")
	}

	entry := &models.UnitWorkLog{
		ServiceRequestID: requestID,
		ParentID:         in.ParentID,
		Description:      in.Description,
		DetailNote:       strings.TrimSpace(in.DetailNote),
		Media:            nonNilMedia(in.Media),
		Author:           actor.Label(),
		IdempotencyKey:   optionalKey(in.IdempotencyKey),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sr, err := loadRequest(tx, requestID)
		if err != nil {
			return err
		}
		if !canSee(actor, sr) {
			return ErrForbidden
		}
		if in.ParentID != nil {
			var parent models.UnitWorkLog
			if err := tx.First(&parent, "id = ? AND service_request_id = ?", *in.ParentID, requestID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return validation("Entri yang dibalas tidak ditemukan")
				}
				return err
			}
		}
		return tx.Create(entry).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, fmt.Errorf("%w: work log already submitted", ErrConflict)
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Delete removes an entry and every reply below it. Only the author or a
// moderator may do so.
func (s *WorkLogService) Delete(ctx context.Context, actor Actor, logID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry models.UnitWorkLog
		if err := tx.First(&entry, "id = ?", logID).Error; err != nil {
			return notFound(err)
		}
		if !actor.Can(models.CapWorkLogModerate) && !(actor.Can(models.CapWorkLogWrite) && entry.Author == actor.Label()) {
			return ErrForbidden
		}

		ids := []uuid.UUID{entry.ID}
		frontier := []uuid.UUID{entry.ID}
		for len(frontier) > 0 {
			var children []uuid.UUID
			if err := tx.Model(&models.UnitWorkLog{}).Where("parent_id IN ?", frontier).Pluck("id", &children).Error; err != nil {
				return err
			}
			ids = append(ids, children...)
			frontier = children
		}
		if err := tx.Where("id IN ?", ids).Delete(&models.UnitWorkLog{}).Error; err != nil {
			return err
		}
		return recordActivity(tx, actor, "worklog.delete", "service_request", entry.ServiceRequestID.String(),
			map[string]any{"log_id": entry.ID, "removed": len(ids)})
	})
}

// List returns the work log oldest first.
func (s *WorkLogService) List(ctx context.Context, actor Actor, requestID uuid.UUID) ([]models.UnitWorkLog, error) {
	if !actor.Can(models.CapRequestRead) {
		return nil, ErrForbidden
	}
	sr, err := loadRequest(s.db.WithContext(ctx), requestID)
	if err != nil {
		return nil, err
	}
	if !canSee(actor, sr) {
		return nil, ErrForbidden
	}
	var out []models.UnitWorkLog
	err = s.db.WithContext(ctx).Where("service_request_id = ?", requestID).Order("created_at ASC").Find(&out).Error
	return out, err
}

func nonNilMedia(items []models.MediaItem) []models.MediaItem {
	if items == nil {
		return []models.MediaItem{}
	}
	return items
}
