package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MediaItem is a hosted file referenced from a log entry.
type MediaItem struct {
	URL         string `json:"url"`
	PublicID    string `json:"public_id,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

// AuthorType distinguishes customer comments from staff replies.
type AuthorType string

const (
	AuthorCustomer AuthorType = "customer"
	AuthorStaff    AuthorType = "staff"
)

// CustomerLog is an append-only customer comment on a ticket.
type CustomerLog struct {
	ID               uuid.UUID                      `gorm:"type:uuid;primaryKey" json:"id"`
	ServiceRequestID uuid.UUID                      `gorm:"type:uuid;index;not null" json:"service_request_id"`
	Message          string                         `gorm:"type:text" json:"message"`
	Media            datatypes.JSONSlice[MediaItem] `gorm:"type:jsonb;not null;default:'[]'" json:"media"`
	Author           string                         `gorm:"size:255;not null" json:"author"`
	AuthorType       AuthorType                     `gorm:"size:20;not null" json:"author_type"`
	IdempotencyKey   *string                        `gorm:"size:128;uniqueIndex" json:"-"`
	CreatedAt        time.Time                      `gorm:"autoCreateTime;index" json:"created_at"`
}

func (l *CustomerLog) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return
}

// UnitWorkLog is a technician progress entry. ParentID turns it into a reply.
type UnitWorkLog struct {
	ID               uuid.UUID                      `gorm:"type:uuid;primaryKey" json:"id"`
	ServiceRequestID uuid.UUID                      `gorm:"type:uuid;index;not null" json:"service_request_id"`
	ParentID         *uuid.UUID                     `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	Description      string                         `gorm:"type:text" json:"description"`
	DetailNote       string                         `gorm:"type:text" json:"detail_note"`
	Media            datatypes.JSONSlice[MediaItem] `gorm:"type:jsonb;not null;default:'[]'" json:"media"`
	Author           string                         `gorm:"size:255;not null;index" json:"author"`
	IdempotencyKey   *string                        `gorm:"size:128;uniqueIndex" json:"-"`
	CreatedAt        time.Time                      `gorm:"autoCreateTime;index" json:"created_at"`
}

func (l *UnitWorkLog) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return
}

// ActivityLog is the application audit trail.
type ActivityLog struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Actor      string         `gorm:"size:255;not null;index" json:"actor"`
	Action     string         `gorm:"size:100;not null;index" json:"action"`
	TargetType string         `gorm:"size:50;not null" json:"target_type"`
	TargetID   string         `gorm:"size:64;index" json:"target_id"`
	Details    datatypes.JSON `gorm:"type:jsonb" json:"details,omitempty"`
	CreatedAt  time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
}

func (l *ActivityLog) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return
}
