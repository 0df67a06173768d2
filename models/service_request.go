package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// IntakeChannel records who entered a ticket.
type IntakeChannel string

const (
	IntakeStaff  IntakeChannel = "staff"
	IntakePublic IntakeChannel = "public"
)

// MediaKind names one of the media arrays on a ticket.
type MediaKind string

const (
	MediaHandover      MediaKind = "handover"
	MediaPickup        MediaKind = "pickup"
	MediaTransferProof MediaKind = "transfer_proof"
	MediaSignature     MediaKind = "signature"
)

// ParseMediaKind accepts the path segment used by the API.
func ParseMediaKind(raw string) (MediaKind, bool) {
	switch k := MediaKind(strings.ToLower(raw)); k {
	case MediaHandover, MediaPickup, MediaTransferProof, MediaSignature:
		return k, true
	}
	return "", false
}

// ServiceRequest is one repair ticket.
type ServiceRequest struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TrackNumber string     `gorm:"size:32;uniqueIndex;not null" json:"track_number"`
	BranchID    *uuid.UUID `gorm:"type:uuid;index" json:"branch_id,omitempty"`
	Version     int        `gorm:"not null;default:1" json:"version"`
	CreatedBy   string     `gorm:"size:255;not null" json:"created_by"`

	IntakeChannel IntakeChannel `gorm:"size:20;not null;default:'staff'" json:"intake_channel"`

	CustomerName    string `gorm:"size:150;not null" json:"customer_name"`
	CustomerAddress string `gorm:"type:text;not null" json:"customer_address"`
	CustomerPhone   string `gorm:"size:30;not null;index" json:"customer_phone"`
	CustomerEmail   string `gorm:"size:150;not null" json:"customer_email"`

	DeviceBrand   string                      `gorm:"size:100;not null" json:"device_brand"`
	DeviceType    string                      `gorm:"size:100;not null" json:"device_type"`
	SerialNumber  string                      `gorm:"size:100" json:"serial_number"`
	Complaint     string                      `gorm:"type:text;not null" json:"complaint"`
	TechnicalSpec string                      `gorm:"type:text" json:"technical_spec"`
	Conditions    datatypes.JSONSlice[string] `gorm:"type:jsonb;not null;default:'[]'" json:"conditions"`
	Accessories   datatypes.JSONSlice[string] `gorm:"type:jsonb;not null;default:'[]'" json:"accessories"`
	Warranty      bool                        `gorm:"not null;default:false" json:"warranty"`

	Status Status `gorm:"size:50;not null;index" json:"status"`

	EstimasiItems datatypes.JSONSlice[EstimateItem] `gorm:"type:jsonb;not null;default:'[]'" json:"estimasi_items"`
	DP            int64                             `gorm:"not null;default:0" json:"dp"`
	TotalBiaya    int64                             `gorm:"not null;default:0" json:"total_biaya"`

	AssignedTechnicians datatypes.JSONSlice[string] `gorm:"type:jsonb;not null;default:'[]'" json:"assignedTechnicians"`

	HandoverPhotos     datatypes.JSONSlice[string] `gorm:"type:jsonb;not null;default:'[]'" json:"handover_photos"`
	PickupPhotos       datatypes.JSONSlice[string] `gorm:"type:jsonb;not null;default:'[]'" json:"pickup_photos"`
	TransferProofs     datatypes.JSONSlice[string] `gorm:"type:jsonb;not null;default:'[]'" json:"transfer_proofs"`
	CustomerSignatures datatypes.JSONSlice[string] `gorm:"type:jsonb;not null;default:'[]'" json:"customer_signatures"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	StatusLog []StatusLog `gorm:"foreignKey:ServiceRequestID;constraint:OnDelete:CASCADE" json:"status_log,omitempty"`
}

func (sr *ServiceRequest) BeforeCreate(tx *gorm.DB) (err error) {
	if sr.ID == uuid.Nil {
		sr.ID = uuid.New()
	}
	return
}

// Media returns the URL list for kind.
func (sr *ServiceRequest) Media(kind MediaKind) []string {
	switch kind {
	case MediaHandover:
		return sr.HandoverPhotos
	case MediaPickup:
		return sr.PickupPhotos
	case MediaTransferProof:
		return sr.TransferProofs
	case MediaSignature:
		return sr.CustomerSignatures
	}
	return nil
}

// MediaColumn is the database column backing kind.
func MediaColumn(kind MediaKind) string {
	switch kind {
	case MediaHandover:
		return "handover_photos"
	case MediaPickup:
		return "pickup_photos"
	case MediaTransferProof:
		return "transfer_proofs"
	case MediaSignature:
		return "customer_signatures"
	}
	return ""
}

// IsAssigned reports whether email is one of the assigned technicians.
func (sr *ServiceRequest) IsAssigned(email string) bool {
	email = NormalizeEmail(email)
	for _, t := range sr.AssignedTechnicians {
		if t == email {
			return true
		}
	}
	return false
}

// Recalculate refreshes every derived financial field from the estimate
// rows and the approved down payment.
func (sr *ServiceRequest) Recalculate() {
	items := EstimateItems(sr.EstimasiItems).Normalized()
	sr.EstimasiItems = datatypes.JSONSlice[EstimateItem](items)
	sr.TotalBiaya = TotalBiaya(items, sr.DP)
}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// PublicServiceRequest is what a customer sees through a public view token.
type PublicServiceRequest struct {
	TrackNumber   string         `json:"track_number"`
	CustomerName  string         `json:"customer_name"`
	DeviceBrand   string         `json:"device_brand"`
	DeviceType    string         `json:"device_type"`
	SerialNumber  string         `json:"serial_number"`
	Complaint     string         `json:"complaint"`
	Status        StatusInfo     `json:"status"`
	EstimasiItems []EstimateItem `json:"estimasi_items"`
	DP            int64          `json:"dp"`
	TotalBiaya    int64          `json:"total_biaya"`
	StatusLog     []StatusLog    `json:"status_log"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Public strips internal fields from the record, including status notes.
func (sr *ServiceRequest) Public() PublicServiceRequest {
	history := make([]StatusLog, len(sr.StatusLog))
	for i, l := range sr.StatusLog {
		l.Note = ""
		history[i] = l
	}
	return PublicServiceRequest{
		TrackNumber:   sr.TrackNumber,
		CustomerName:  sr.CustomerName,
		DeviceBrand:   sr.DeviceBrand,
		DeviceType:    sr.DeviceType,
		SerialNumber:  sr.SerialNumber,
		Complaint:     sr.Complaint,
		Status:        DescribeStatus(string(sr.Status)),
		EstimasiItems: sr.EstimasiItems,
		DP:            sr.DP,
		TotalBiaya:    sr.TotalBiaya,
		StatusLog:     history,
		CreatedAt:     sr.CreatedAt,
		UpdatedAt:     sr.UpdatedAt,
	}
}
