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

type CustomerLogService struct {
	db *gorm.DB
}

func NewCustomerLogService(db *gorm.DB) *CustomerLogService {
	return &CustomerLogService{db: db}
}

type CustomerLogInput struct {
	Message        string             `json:"message"`
	Media          []models.MediaItem `json:"media"`
	IdempotencyKey string             `json:"-"`
}

// Add appends a comment. A public actor writes as the customer.
func (s *CustomerLogService) Add(ctx context.Context, actor Actor, requestID uuid.UUID, in CustomerLogInput) (*models.CustomerLog, error) {
	authorType := models.AuthorStaff
	if actor.IsPublic() {
		authorType = models.AuthorCustomer
	} else if !actor.Can(models.CapCustomerLogWrite) {
		return nil, ErrForbidden
	}
	in.Message = strings.TrimSpace(in.Message)
	if in.Message == "" && len(in.Media) == 0 {
		return nil, validation("Pesan atau lampiran wajib diisi")
	}

	entry := &models.CustomerLog{
		ServiceRequestID: requestID,
		Message:          in.Message,
		Media:            nonNilMedia(in.Media),
		Author:           actor.Label(),
		AuthorType:       authorType,
		IdempotencyKey:   optionalKey(in.IdempotencyKey),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sr, err := loadRequest(tx, requestID)
		if err != nil {
			return err
		}
		if !actor.IsPublic() && !canSee(actor, sr) {
			return ErrForbidden
		}
		return tx.Create(entry).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, fmt.Errorf("%w: message already submitted", ErrConflict)
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// List returns the customer log oldest first. A public actor must already
// have resolved a view token for requestID.
func (s *CustomerLogService) List(ctx context.Context, actor Actor, requestID uuid.UUID) ([]models.CustomerLog, error) {
	if !actor.IsPublic() {
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
	}
	var out []models.CustomerLog
	err := s.db.WithContext(ctx).Where("service_request_id = ?", requestID).Order("created_at ASC").Find(&out).Error
	return out, err
}

func (s *CustomerLogService) Delete(ctx context.Context, actor Actor, logID uuid.UUID) error {
	if !actor.Can(models.CapCustomerLogDelete) {
		return ErrForbidden
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry models.CustomerLog
		if err := tx.First(&entry, "id = ?", logID).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Delete(&entry).Error; err != nil {
			return err
		}
		return recordActivity(tx, actor, "customerlog.delete", "service_request", entry.ServiceRequestID.String(),
			map[string]any{"log_id": entry.ID, "author": entry.Author})
	})
}
