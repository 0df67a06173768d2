package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DPStatus is the review state of a down-payment claim.
type DPStatus string

const (
	DPPending  DPStatus = "pending"
	DPApproved DPStatus = "approved"
	DPRejected DPStatus = "rejected"
)

// DPPayment is a down-payment claim attached to a ticket.
type DPPayment struct {
	ID               uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	ServiceRequestID uuid.UUID                   `gorm:"type:uuid;index;not null" json:"service_request_id"`
	Amount           int64                       `gorm:"not null" json:"amount"`
	Note             string                      `gorm:"type:text" json:"note"`
	ProofURLs        datatypes.JSONSlice[string] `gorm:"column:proof_urls;type:jsonb;not null;default:'[]'" json:"proof_urls"`
	Status           DPStatus                    `gorm:"size:20;not null;index" json:"status"`
	CreatedBy        string                      `gorm:"size:255;not null" json:"created_by"`
	ApprovedBy       string                      `gorm:"size:255" json:"approved_by,omitempty"`
	DecidedAt        *time.Time                  `json:"decided_at,omitempty"`
	IdempotencyKey   *string                     `gorm:"size:128;uniqueIndex" json:"-"`
	CreatedAt        time.Time                   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *DPPayment) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = DPPending
	}
	return
}

// ApprovedDPTotal is the sum of approved claim amounts; this is the value
// the parent ticket's dp field must hold.
func ApprovedDPTotal(payments []DPPayment) int64 {
	var sum int64
	for _, p := range payments {
		if p.Status == DPApproved {
			sum += p.Amount
		}
	}
	return sum
}
