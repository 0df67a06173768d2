package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/andrensetiawan/form-service/models"
	"github.com/andrensetiawan/form-service/utils"
)

// PublicViewService issues and resolves the opaque tokens customers use to
// follow a ticket without an account.
type PublicViewService struct {
	db           *gorm.DB
	settings     *SettingsService
	payments     *PaymentService
	customerLogs *CustomerLogService
	now          func() time.Time
}

func NewPublicViewService(db *gorm.DB, settings *SettingsService, payments *PaymentService, customerLogs *CustomerLogService) *PublicViewService {
	return &PublicViewService{
		db:           db,
		settings:     settings,
		payments:     payments,
		customerLogs: customerLogs,
		now:          time.Now,
	}
}

// Create issues a token for requestID. A nil ttl uses the configured
// lifetime; zero means no expiry.
func (s *PublicViewService) Create(ctx context.Context, actor Actor, requestID uuid.UUID, ttl *time.Duration) (*models.PublicView, error) {
	if !actor.Can(models.CapPublicViewManage) {
		return nil, ErrForbidden
	}
	settings, err := s.settings.Security(ctx)
	if err != nil {
		return nil, err
	}
	if !settings.PublicViewEnabled {
		return nil, fmt.Errorf("%w: public view", ErrFeatureDisabled)
	}
	lifetime := publicTTL(settings)
	if ttl != nil {
		if *ttl < 0 {
			return nil, validation("Masa berlaku tautan tidak boleh negatif")
		}
		lifetime = *ttl
	}

	var view *models.PublicView
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadRequest(tx, requestID); err != nil {
			return err
		}
		v, err := createPublicView(tx, requestID, actor, lifetime, s.now())
		if err != nil {
			return err
		}
		view = v
		return recordActivity(tx, actor, "publicview.create", "service_request", requestID.String(),
			map[string]any{"expires_at": v.ExpiresAt})
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Resolve returns the ticket behind token. Missing tokens are ErrNotFound;
// revoked or expired ones are ErrPublicViewExpired.
func (s *PublicViewService) Resolve(ctx context.Context, token string) (*models.ServiceRequest, error) {
	settings, err := s.settings.Security(ctx)
	if err != nil {
		return nil, err
	}
	if !settings.PublicViewEnabled {
		return nil, fmt.Errorf("%w: public view", ErrFeatureDisabled)
	}

	var view models.PublicView
	if err := s.db.WithContext(ctx).First(&view, "token = ?", token).Error; err != nil {
		return nil, notFound(err)
	}
	if !view.Active(s.now()) {
		return nil, ErrPublicViewExpired
	}
	return loadRequest(s.db.WithContext(ctx), view.ServiceRequestID)
}

func (s *PublicViewService) Revoke(ctx context.Context, actor Actor, token string) error {
	if !actor.Can(models.CapPublicViewManage) {
		return ErrForbidden
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var view models.PublicView
		if err := tx.First(&view, "token = ?", token).Error; err != nil {
			return notFound(err)
		}
		if view.RevokedAt != nil {
			return nil
		}
		now := s.now()
		if err := tx.Model(&view).Update("revoked_at", now).Error; err != nil {
			return err
		}
		return recordActivity(tx, actor, "publicview.revoke", "service_request", view.ServiceRequestID.String(), nil)
	})
}

// List returns the tokens issued for a ticket, newest first.
func (s *PublicViewService) List(ctx context.Context, actor Actor, requestID uuid.UUID) ([]models.PublicView, error) {
	if !actor.Can(models.CapPublicViewManage) {
		return nil, ErrForbidden
	}
	var out []models.PublicView
	err := s.db.WithContext(ctx).Where("service_request_id = ?", requestID).Order("created_at DESC").Find(&out).Error
	return out, err
}

// SubmitDP files a down-payment claim on behalf of the token holder.
func (s *PublicViewService) SubmitDP(ctx context.Context, token string, in DPClaimInput) (*models.DPPayment, error) {
	settings, err := s.settings.Security(ctx)
	if err != nil {
		return nil, err
	}
	if !settings.PublicDPSubmissionEnabled {
		return nil, fmt.Errorf("%w: public dp submission", ErrFeatureDisabled)
	}
	sr, err := s.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.payments.Submit(ctx, PublicActor, sr.ID, in)
}

// AddCustomerLog appends a customer comment through the token.
func (s *PublicViewService) AddCustomerLog(ctx context.Context, token string, in CustomerLogInput) (*models.CustomerLog, error) {
	sr, err := s.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.customerLogs.Add(ctx, PublicActor, sr.ID, in)
}

// CustomerLogs lists the comments visible to the token holder.
func (s *PublicViewService) CustomerLogs(ctx context.Context, token string) ([]models.CustomerLog, error) {
	sr, err := s.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.customerLogs.List(ctx, PublicActor, sr.ID)
}

func createPublicView(tx *gorm.DB, requestID uuid.UUID, actor Actor, ttl time.Duration, now time.Time) (*models.PublicView, error) {
	view := &models.PublicView{
		Token:            utils.NewPublicToken(),
		ServiceRequestID: requestID,
		CreatedBy:        actor.Label(),
		CreatedAt:        now,
	}
	if ttl > 0 {
		expires := now.Add(ttl)
		view.ExpiresAt = &expires
	}
	if err := tx.Create(view).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: token collision", ErrConflict)
		}
		return nil, err
	}
	return view, nil
}
