package services

import (
	"context"
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/andrensetiawan/form-service/models"
)

// recordActivity appends an audit entry inside the caller's transaction.
func recordActivity(tx *gorm.DB, actor Actor, action, targetType, targetID string, details any) error {
	entry := models.ActivityLog{
		Actor:      actor.Label(),
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
	}
	if details != nil {
		b, err := json.Marshal(details)
		if err != nil {
			return err
		}
		entry.Details = datatypes.JSON(b)
	}
	return tx.Create(&entry).Error
}

type ActivityService struct {
	db *gorm.DB
}

func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{db: db}
}

// ActivityFilter narrows the activity list.
type ActivityFilter struct {
	TargetID string
	Actor    string
	Action   string
	Page     int
	Limit    int
}

func (s *ActivityService) List(ctx context.Context, actor Actor, f ActivityFilter) ([]models.ActivityLog, int64, error) {
	if !actor.Can(models.CapLogsRead) {
		return nil, 0, ErrForbidden
	}
	q := s.db.WithContext(ctx).Model(&models.ActivityLog{})
	if f.TargetID != "" {
		q = q.Where("target_id = ?", f.TargetID)
	}
	if f.Actor != "" {
		q = q.Where("actor = ?", f.Actor)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	page, limit := pagination(f.Page, f.Limit)
	var out []models.ActivityLog
	err := q.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&out).Error
	return out, total, err
}

const (
	defaultPageSize = 10
	maxPageSize     = 200
)

func pagination(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}
