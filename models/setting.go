package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// SecuritySettingsKey is the settings row holding SecuritySettings.
const SecuritySettingsKey = "security"

// Setting is a keyed JSON document.
type Setting struct {
	Key       string         `gorm:"size:100;primaryKey" json:"key"`
	Value     datatypes.JSON `gorm:"type:jsonb;not null" json:"value"`
	UpdatedBy string         `gorm:"size:255" json:"updated_by"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// SecuritySettings toggles the unauthenticated surface.
type SecuritySettings struct {
	PublicViewEnabled         bool `json:"public_view_enabled"`
	PublicDPSubmissionEnabled bool `json:"public_dp_submission_enabled"`
	PublicIntakeEnabled       bool `json:"public_intake_enabled"`
	PublicViewTTLHours        int  `json:"public_view_ttl_hours"`
}

// DefaultSecuritySettings is used until an admin saves the settings.
func DefaultSecuritySettings() SecuritySettings {
	return SecuritySettings{
		PublicViewEnabled:         true,
		PublicDPSubmissionEnabled: true,
		PublicIntakeEnabled:       true,
		PublicViewTTLHours:        0,
	}
}

// EncodeSetting marshals v into a settings value.
func EncodeSetting(v any) (datatypes.JSON, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
