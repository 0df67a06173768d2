// models/user.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string     `gorm:"size:100;not null" json:"name"`
	Email        string     `gorm:"size:150;uniqueIndex;not null" json:"email"`
	Phone        string     `gorm:"size:30" json:"phone"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	Role         Role       `gorm:"size:30;not null;default:'user';index" json:"role"`
	BranchID     *uuid.UUID `gorm:"type:uuid;index" json:"branch_id,omitempty"` // nil means "Unassigned"
	Branch       *Branch    `gorm:"foreignKey:BranchID" json:"branch,omitempty"`
	IsActive     bool       `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.Email = NormalizeEmail(u.Email)
	return
}

// Branch is a service-center location (cabang).
type Branch struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Address   string    `gorm:"type:text" json:"address"`
	Phone     string    `gorm:"size:30" json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Branch) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return
}

// PublicView maps an opaque token to a ticket for unauthenticated access.
type PublicView struct {
	Token            string     `gorm:"size:80;primaryKey" json:"token"`
	ServiceRequestID uuid.UUID  `gorm:"type:uuid;index;not null" json:"service_request_id"`
	CreatedBy        string     `gorm:"size:255;not null" json:"created_by"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	RevokedAt        *time.Time `json:"revoked_at,omitempty"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// Active reports whether the token may still be used at now.
func (v *PublicView) Active(now time.Time) bool {
	if v.RevokedAt != nil {
		return false
	}
	return v.ExpiresAt == nil || now.Before(*v.ExpiresAt)
}

// MediaAsset registers an uploaded file so it can be deleted by public id.
type MediaAsset struct {
	PublicID    string    `gorm:"size:255;primaryKey" json:"public_id"`
	URL         string    `gorm:"type:text;not null" json:"url"`
	Folder      string    `gorm:"size:150;index" json:"folder"`
	ContentType string    `gorm:"size:100" json:"content_type"`
	Size        int64     `json:"size"`
	UploadedBy  string    `gorm:"size:255" json:"uploaded_by"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}
