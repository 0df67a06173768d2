package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Status is the canonical state of a repair ticket.
type Status string

const (
	StatusPending            Status = "pending"
	StatusDiterima           Status = "diterima"
	StatusDiagnosa           Status = "diagnosa"
	StatusMenungguKonfirmasi Status = "menunggu_konfirmasi"
	StatusProsesPengerjaan   Status = "proses_pengerjaan"
	StatusTesting            Status = "testing"
	StatusSiapDiambil        Status = "siap_diambil"
	StatusSelesai            Status = "selesai"
	StatusBatal              Status = "batal"
)

// StatusInfo is the display metadata for a status.
type StatusInfo struct {
	Code     Status `json:"code"`
	Label    string `json:"label"`
	Color    string `json:"color"`
	Terminal bool   `json:"terminal"`
}

const unknownStatusColor = "gray"

// statusCatalog is ordered along the usual path of a ticket.
var statusCatalog = []StatusInfo{
	{Code: StatusPending, Label: "Menunggu", Color: "yellow"},
	{Code: StatusDiterima, Label: "Diterima", Color: "blue"},
	{Code: StatusDiagnosa, Label: "Diagnosa", Color: "indigo"},
	{Code: StatusMenungguKonfirmasi, Label: "Menunggu Konfirmasi", Color: "orange"},
	{Code: StatusProsesPengerjaan, Label: "Proses Pengerjaan", Color: "purple"},
	{Code: StatusTesting, Label: "Testing", Color: "cyan"},
	{Code: StatusSiapDiambil, Label: "Siap Diambil", Color: "teal"},
	{Code: StatusSelesai, Label: "Selesai", Color: "green", Terminal: true},
	{Code: StatusBatal, Label: "Batal", Color: "red", Terminal: true},
}

// legacyStatusAliases maps values written by older clients to canonical codes.
var legacyStatusAliases = map[string]Status{
	"process": StatusProsesPengerjaan,
	"ready":   StatusSiapDiambil,
	"done":    StatusSelesai,
	"cancel":  StatusBatal,
}

// StatusCatalog returns a copy of the known statuses in workflow order.
func StatusCatalog() []StatusInfo {
	out := make([]StatusInfo, len(statusCatalog))
	copy(out, statusCatalog)
	return out
}

// CanonicalStatus resolves a raw value, including legacy aliases, to a known
// status. ok is false when the value is not part of the vocabulary.
func CanonicalStatus(raw string) (Status, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if alias, found := legacyStatusAliases[s]; found {
		return alias, true
	}
	for _, info := range statusCatalog {
		if string(info.Code) == s {
			return info.Code, true
		}
	}
	return Status(s), false
}

// DescribeStatus returns display metadata. Unknown values fall through to
// the raw string with a neutral color.
func DescribeStatus(raw string) StatusInfo {
	code, ok := CanonicalStatus(raw)
	if !ok {
		return StatusInfo{Code: Status(raw), Label: raw, Color: unknownStatusColor}
	}
	for _, info := range statusCatalog {
		if info.Code == code {
			return info
		}
	}
	return StatusInfo{Code: Status(raw), Label: raw, Color: unknownStatusColor}
}

// StatusVariants returns s together with every legacy alias stored for it,
// for filtering rows written before statuses were canonical.
func StatusVariants(s Status) []string {
	out := []string{string(s)}
	for alias, target := range legacyStatusAliases {
		if target == s {
			out = append(out, alias)
		}
	}
	return out
}

// IsTerminal reports whether the status closes the ticket.
func (s Status) IsTerminal() bool {
	return s == StatusSelesai || s == StatusBatal
}

// StatusLog is one append-only entry of a ticket's status history.
type StatusLog struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ServiceRequestID uuid.UUID `gorm:"type:uuid;index;not null" json:"serviceRequestId"`
	Status           Status    `gorm:"size:50;not null" json:"status"`
	PreviousStatus   Status    `gorm:"size:50" json:"previousStatus,omitempty"`
	Note             string    `gorm:"type:text" json:"note,omitempty"`
	UpdatedBy        string    `gorm:"size:255;not null" json:"updatedBy"`
	UpdatedAt        time.Time `gorm:"not null;index" json:"updatedAt"`
}

func (l *StatusLog) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.UpdatedAt.IsZero() {
		l.UpdatedAt = time.Now()
	}
	return
}
