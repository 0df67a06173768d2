package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/andrensetiawan/form-service/models"
)

type SettingsService struct {
	db *gorm.DB
}

func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{db: db}
}

// Security returns the stored security settings, or the defaults when none
// have been saved.
func (s *SettingsService) Security(ctx context.Context) (models.SecuritySettings, error) {
	var row models.Setting
	err := s.db.WithContext(ctx).First(&row, "key = ?", models.SecuritySettingsKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.DefaultSecuritySettings(), nil
	}
	if err != nil {
		return models.SecuritySettings{}, err
	}
	out := models.DefaultSecuritySettings()
	if err := json.Unmarshal(row.Value, &out); err != nil {
		return models.SecuritySettings{}, err
	}
	return out, nil
}

func (s *SettingsService) UpdateSecurity(ctx context.Context, actor Actor, in models.SecuritySettings) (models.SecuritySettings, error) {
	if !actor.Can(models.CapSettingsManage) {
		return models.SecuritySettings{}, ErrForbidden
	}
	if in.PublicViewTTLHours < 0 {
		return models.SecuritySettings{}, validation("Masa berlaku tautan publik tidak boleh negatif")
	}
	value, err := models.EncodeSetting(in)
	if err != nil {
		return models.SecuritySettings{}, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := models.Setting{Key: models.SecuritySettingsKey, Value: value, UpdatedBy: actor.Label(), UpdatedAt: time.Now()}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_by", "updated_at"}),
		}).Create(&row).Error; err != nil {
			return err
		}
		return recordActivity(tx, actor, "settings.security.update", "setting", models.SecuritySettingsKey, in)
	})
	if err != nil {
		return models.SecuritySettings{}, err
	}
	return in, nil
}

// publicTTL converts the configured hours into a link lifetime; zero means
// the link does not expire.
func publicTTL(settings models.SecuritySettings) time.Duration {
	return time.Duration(settings.PublicViewTTLHours) * time.Hour
}
