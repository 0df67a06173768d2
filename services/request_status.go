package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/andrensetiawan/form-service/models"
	"github.com/andrensetiawan/form-service/pkg/metrics"
)

// UpdateStatus moves a ticket to newStatus and appends one status log entry,
// both inside a transaction holding the ticket's row lock.
func (s *RequestService) UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, newStatus, note string) (*models.ServiceRequest, error) {
	if !actor.Can(models.CapStatusUpdate) {
		return nil, ErrForbidden
	}

	var target models.Status
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sr, err := lockRequest(tx, id)
		if err != nil {
			return err
		}
		if !canSee(actor, sr) {
			return ErrForbidden
		}

		err = models.ValidateTransition(sr.Status, models.Status(newStatus), actor.Can(models.CapRequestReopen))
		switch {
		case errors.Is(err, models.ErrReopenDenied):
			return fmt.Errorf("%w: %v", ErrForbidden, err)
		case err != nil:
			return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
		}
		target, _ = models.CanonicalStatus(newStatus)
		previous, _ := models.CanonicalStatus(string(sr.Status))

		now := s.now()
		entry := models.StatusLog{
			ServiceRequestID: sr.ID,
			Status:           target,
			PreviousStatus:   previous,
			Note:             strings.TrimSpace(note),
			UpdatedBy:        actor.Label(),
			UpdatedAt:        now,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		if err := saveLocked(tx, sr, map[string]any{"status": target}, now); err != nil {
			return err
		}
		return recordActivity(tx, actor, "status.update", "service_request", id.String(),
			map[string]any{"from": previous, "to": target, "note": entry.Note})
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordStatusTransition(string(target))
	zap.L().Info("status updated",
		zap.String("id", id.String()),
		zap.String("status", string(target)),
		zap.String("by", actor.Label()))
	return s.load(ctx, id)
}

// StatusHistory returns the status log oldest first.
func (s *RequestService) StatusHistory(ctx context.Context, actor Actor, id uuid.UUID) ([]models.StatusLog, error) {
	sr, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return sr.StatusLog, nil
}

// SaveEstimate replaces the estimate rows and recomputes total_biaya against
// the current approved down payment.
func (s *RequestService) SaveEstimate(ctx context.Context, actor Actor, id uuid.UUID, items []models.EstimateItem, expectedVersion int) (*models.ServiceRequest, error) {
	if !actor.Can(models.CapEstimateEdit) {
		return nil, ErrForbidden
	}
	if errs := models.EstimateItems(items).Validate(); errs != nil {
		return nil, errs
	}
	normalized := models.EstimateItems(items).Normalized()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sr, err := lockRequest(tx, id)
		if err != nil {
			return err
		}
		if sr.Version != expectedVersion {
			return ErrVersionMismatch
		}
		dp, err := approvedDP(tx, id)
		if err != nil {
			return err
		}
		fields := map[string]any{
			"estimasi_items": datatypes.JSONSlice[models.EstimateItem](normalized),
			"dp":             dp,
			"total_biaya":    models.TotalBiaya(normalized, dp),
		}
		if err := saveLocked(tx, sr, fields, s.now()); err != nil {
			return err
		}
		return recordActivity(tx, actor, "estimate.save", "service_request", id.String(),
			map[string]any{"items": normalized, "subtotal": normalized.Subtotal()})
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}
