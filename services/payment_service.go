package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/andrensetiawan/form-service/models"
	"github.com/andrensetiawan/form-service/pkg/metrics"
)

// PaymentService runs the down-payment claim workflow. The ticket's dp and
// total_biaya are recomputed from approved claims in the same transaction
// as every change, with the ticket row locked.
type PaymentService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewPaymentService(db *gorm.DB) *PaymentService {
	return &PaymentService{db: db, now: time.Now}
}

// DPClaimInput is a down-payment claim as entered by a customer or staff.
type DPClaimInput struct {
	Amount         int64    `json:"amount"`
	Note           string   `json:"note"`
	ProofURLs      []string `json:"proof_urls"`
	IdempotencyKey string   `json:"-"`
}

func (in DPClaimInput) validate() error {
	if in.Amount <= 0 {
		return validation("Nominal DP harus lebih dari 0")
	}
	return nil
}

// Submit files a pending claim.
func (s *PaymentService) Submit(ctx context.Context, actor Actor, requestID uuid.UUID, in DPClaimInput) (*models.DPPayment, error) {
	if !actor.IsPublic() && !actor.Can(models.CapDPSubmit) {
		return nil, ErrForbidden
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	payment := &models.DPPayment{
		ServiceRequestID: requestID,
		Amount:           in.Amount,
		Note:             strings.TrimSpace(in.Note),
		ProofURLs:        nonNil(in.ProofURLs),
		Status:           models.DPPending,
		CreatedBy:        actor.Label(),
		IdempotencyKey:   optionalKey(in.IdempotencyKey),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sr, err := lockRequest(tx, requestID)
		if err != nil {
			return err
		}
		if !actor.IsPublic() && !canSee(actor, sr) {
			return ErrForbidden
		}
		if err := tx.Create(payment).Error; err != nil {
			return err
		}
		return recordActivity(tx, actor, "dp.submit", "service_request", requestID.String(),
			map[string]any{"payment_id": payment.ID, "amount": payment.Amount})
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, fmt.Errorf("%w: claim already submitted", ErrConflict)
	}
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// Approve marks a pending claim approved and folds it into the ticket's dp.
func (s *PaymentService) Approve(ctx context.Context, actor Actor, paymentID uuid.UUID) (*models.DPPayment, *models.ServiceRequest, error) {
	return s.decide(ctx, actor, paymentID, models.DPApproved)
}

// Reject marks a pending claim rejected. dp is recomputed all the same.
func (s *PaymentService) Reject(ctx context.Context, actor Actor, paymentID uuid.UUID) (*models.DPPayment, *models.ServiceRequest, error) {
	return s.decide(ctx, actor, paymentID, models.DPRejected)
}

func (s *PaymentService) decide(ctx context.Context, actor Actor, paymentID uuid.UUID, outcome models.DPStatus) (*models.DPPayment, *models.ServiceRequest, error) {
	if !actor.Can(models.CapDPDecide) {
		return nil, nil, ErrForbidden
	}

	var payment models.DPPayment
	var requestID uuid.UUID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sr, err := lockPaymentParent(tx, paymentID)
		if err != nil {
			return err
		}
		requestID = sr.ID
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&payment, "id = ?", paymentID).Error; err != nil {
			return notFound(err)
		}
		if payment.Status != models.DPPending {
			return fmt.Errorf("%w: payment already %s", ErrConflict, payment.Status)
		}

		now := s.now()
		payment.Status = outcome
		payment.ApprovedBy = actor.Label()
		payment.DecidedAt = &now
		if err := tx.Model(&payment).Updates(map[string]any{
			"status":      payment.Status,
			"approved_by": payment.ApprovedBy,
			"decided_at":  now,
		}).Error; err != nil {
			return err
		}
		if err := recomputeDP(tx, sr, now); err != nil {
			return err
		}
		return recordActivity(tx, actor, "dp."+string(outcome), "service_request", sr.ID.String(),
			map[string]any{"payment_id": payment.ID, "amount": payment.Amount, "dp": sr.DP})
	})
	if err != nil {
		return nil, nil, err
	}

	metrics.RecordDPDecision(string(outcome))
	zap.L().Info("dp claim decided",
		zap.String("payment_id", paymentID.String()),
		zap.String("outcome", string(outcome)),
		zap.String("by", actor.Label()))
	sr, err := loadRequest(s.db.WithContext(ctx), requestID)
	if err != nil {
		return nil, nil, err
	}
	return &payment, sr, nil
}

// RecordDirect stores a down payment received at the counter as an already
// approved claim, keeping dp equal to the sum of approved claims.
func (s *PaymentService) RecordDirect(ctx context.Context, actor Actor, requestID uuid.UUID, in DPClaimInput) (*models.DPPayment, *models.ServiceRequest, error) {
	if !actor.Can(models.CapDPRecord) {
		return nil, nil, ErrForbidden
	}
	if err := in.validate(); err != nil {
		return nil, nil, err
	}

	now := s.now()
	payment := &models.DPPayment{
		ServiceRequestID: requestID,
		Amount:           in.Amount,
		Note:             strings.TrimSpace(in.Note),
		ProofURLs:        nonNil(in.ProofURLs),
		Status:           models.DPApproved,
		CreatedBy:        actor.Label(),
		ApprovedBy:       actor.Label(),
		DecidedAt:        &now,
		IdempotencyKey:   optionalKey(in.IdempotencyKey),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sr, err := lockRequest(tx, requestID)
		if err != nil {
			return err
		}
		if err := tx.Create(payment).Error; err != nil {
			return err
		}
		if err := recomputeDP(tx, sr, now); err != nil {
			return err
		}
		return recordActivity(tx, actor, "dp.record", "service_request", requestID.String(),
			map[string]any{"payment_id": payment.ID, "amount": payment.Amount, "dp": sr.DP})
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, nil, fmt.Errorf("%w: payment already recorded", ErrConflict)
	}
	if err != nil {
		return nil, nil, err
	}
	sr, err := loadRequest(s.db.WithContext(ctx), requestID)
	if err != nil {
		return nil, nil, err
	}
	return payment, sr, nil
}

// Delete removes a claim. Only admins hold dp:delete.
func (s *PaymentService) Delete(ctx context.Context, actor Actor, paymentID uuid.UUID) (*models.ServiceRequest, error) {
	if !actor.Can(models.CapDPDelete) {
		return nil, ErrForbidden
	}
	var requestID uuid.UUID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sr, err := lockPaymentParent(tx, paymentID)
		if err != nil {
			return err
		}
		requestID = sr.ID
		var payment models.DPPayment
		if err := tx.First(&payment, "id = ?", paymentID).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Delete(&payment).Error; err != nil {
			return err
		}
		if err := recomputeDP(tx, sr, s.now()); err != nil {
			return err
		}
		return recordActivity(tx, actor, "dp.delete", "service_request", sr.ID.String(),
			map[string]any{"payment_id": payment.ID, "amount": payment.Amount, "status": payment.Status, "dp": sr.DP})
	})
	if err != nil {
		return nil, err
	}
	return loadRequest(s.db.WithContext(ctx), requestID)
}

func (s *PaymentService) List(ctx context.Context, actor Actor, requestID uuid.UUID) ([]models.DPPayment, error) {
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
	var out []models.DPPayment
	err = s.db.WithContext(ctx).Where("service_request_id = ?", requestID).Order("created_at ASC").Find(&out).Error
	return out, err
}

// lockPaymentParent locks the ticket a payment belongs to. The ticket lock
// is always taken before the payment row.
func lockPaymentParent(tx *gorm.DB, paymentID uuid.UUID) (*models.ServiceRequest, error) {
	var payment models.DPPayment
	if err := tx.Select("service_request_id").First(&payment, "id = ?", paymentID).Error; err != nil {
		return nil, notFound(err)
	}
	return lockRequest(tx, payment.ServiceRequestID)
}

// recomputeDP sets dp to the sum of approved claims and refreshes
// total_biaya. sr must be locked by tx.
func recomputeDP(tx *gorm.DB, sr *models.ServiceRequest, now time.Time) error {
	dp, err := approvedDP(tx, sr.ID)
	if err != nil {
		return err
	}
	total := models.TotalBiaya(sr.EstimasiItems, dp)
	if err := saveLocked(tx, sr, map[string]any{"dp": dp, "total_biaya": total}, now); err != nil {
		return err
	}
	sr.DP = dp
	sr.TotalBiaya = total
	return nil
}

func approvedDP(tx *gorm.DB, requestID uuid.UUID) (int64, error) {
	var sum int64
	err := tx.Model(&models.DPPayment{}).
		Where("service_request_id = ? AND status = ?", requestID, models.DPApproved).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	return sum, err
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func optionalKey(key string) *string {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	return &key
}
