package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/andrensetiawan/form-service/models"
	"github.com/andrensetiawan/form-service/pkg/metrics"
	"github.com/andrensetiawan/form-service/utils"
)

const trackNumberAttempts = 5

// RequestService owns the service_requests table and its status log.
type RequestService struct {
	db          *gorm.DB
	settings    *SettingsService
	now         func() time.Time
	trackNumber func(time.Time) (string, error)
}

func NewRequestService(db *gorm.DB, settings *SettingsService) *RequestService {
	return &RequestService{
		db:          db,
		settings:    settings,
		now:         time.Now,
		trackNumber: utils.NewTrackNumber,
	}
}

// Create registers a ticket entered by staff.
func (s *RequestService) Create(ctx context.Context, actor Actor, form *models.IntakeForm) (*models.ServiceRequest, error) {
	if !actor.Can(models.CapRequestCreate) {
		return nil, ErrForbidden
	}
	sr, err := s.create(ctx, actor, form, models.IntakeStaff, nil)
	if err != nil {
		return nil, err
	}
	return sr, nil
}

// SubmitPublicIntake registers a ticket from the customer self-service form
// and issues a public view token so the customer can follow it.
func (s *RequestService) SubmitPublicIntake(ctx context.Context, form *models.IntakeForm) (*models.ServiceRequest, *models.PublicView, error) {
	settings, err := s.settings.Security(ctx)
	if err != nil {
		return nil, nil, err
	}
	if !settings.PublicIntakeEnabled {
		return nil, nil, fmt.Errorf("%w: public intake", ErrFeatureDisabled)
	}

	var view *models.PublicView
	issue := func(tx *gorm.DB, sr *models.ServiceRequest) error {
		v, err := createPublicView(tx, sr.ID, PublicActor, publicTTL(settings), s.now())
		view = v
		return err
	}
	sr, err := s.create(ctx, PublicActor, form, models.IntakePublic, issue)
	if err != nil {
		return nil, nil, err
	}
	return sr, view, nil
}

func (s *RequestService) create(
	ctx context.Context,
	actor Actor,
	form *models.IntakeForm,
	channel models.IntakeChannel,
	afterCreate func(tx *gorm.DB, sr *models.ServiceRequest) error,
) (*models.ServiceRequest, error) {
	if errs := form.Validate(); errs != nil {
		return nil, errs
	}
	branchID, err := parseOptionalUUID(form.BranchID)
	if err != nil {
		return nil, validation("Cabang tidak valid")
	}

	sr := &models.ServiceRequest{
		BranchID:        branchID,
		Version:         1,
		CreatedBy:       actor.Label(),
		IntakeChannel:   channel,
		CustomerName:    form.CustomerName,
		CustomerAddress: form.CustomerAddress,
		CustomerPhone:   form.CustomerPhone,
		CustomerEmail:   form.CustomerEmail,
		DeviceBrand:     form.DeviceBrand,
		DeviceType:      form.DeviceType,
		SerialNumber:    form.SerialNumber,
		Complaint:       form.Complaint,
		TechnicalSpec:   form.TechnicalSpec,
		Conditions:      form.Conditions,
		Accessories:     form.Accessories,
		Warranty:        form.Warranty,
		Status:          models.StatusPending,
		EstimasiItems:   form.EstimasiItems,
		HandoverPhotos:  nonNil(form.HandoverPhotos),
	}
	if form.Signature != nil && strings.TrimSpace(*form.Signature) != "" {
		sr.CustomerSignatures = []string{strings.TrimSpace(*form.Signature)}
	}
	sr.AssignedTechnicians = []string{}
	sr.PickupPhotos = []string{}
	sr.TransferProofs = []string{}
	if sr.CustomerSignatures == nil {
		sr.CustomerSignatures = []string{}
	}
	if sr.EstimasiItems == nil {
		sr.EstimasiItems = []models.EstimateItem{}
	}
	sr.Recalculate()

	for attempt := 1; ; attempt++ {
		now := s.now()
		sr.TrackNumber, err = s.trackNumber(now)
		if err != nil {
			return nil, err
		}

		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(sr).Error; err != nil {
				return err
			}
			first := models.StatusLog{
				ServiceRequestID: sr.ID,
				Status:           models.StatusPending,
				Note:             "Tiket dibuat",
				UpdatedBy:        actor.Label(),
				UpdatedAt:        now,
			}
			if err := tx.Create(&first).Error; err != nil {
				return err
			}
			if afterCreate != nil {
				if err := afterCreate(tx, sr); err != nil {
					return err
				}
			}
			return recordActivity(tx, actor, "service_request.create", "service_request", sr.ID.String(),
				map[string]any{"track_number": sr.TrackNumber, "channel": channel})
		})
		if err == nil {
			break
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) && attempt < trackNumberAttempts {
			zap.L().Warn("track number collision, retrying",
				zap.String("track_number", sr.TrackNumber), zap.Int("attempt", attempt))
			continue
		}
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, validation("Cabang tidak valid")
		}
		return nil, fmt.Errorf("create service request: %w", err)
	}

	metrics.RecordIntake(string(channel))
	zap.L().Info("service request created",
		zap.String("id", sr.ID.String()),
		zap.String("track_number", sr.TrackNumber),
		zap.String("channel", string(channel)))
	return s.load(ctx, sr.ID)
}

// Get returns a ticket with its status log. Technicians only see tickets
// assigned to them.
func (s *RequestService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.ServiceRequest, error) {
	if !actor.Can(models.CapRequestRead) {
		return nil, ErrForbidden
	}
	sr, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canSee(actor, sr) {
		return nil, ErrForbidden
	}
	return sr, nil
}

// RequestFilter narrows ListServiceRequests.
type RequestFilter struct {
	Status     string
	BranchID   *uuid.UUID
	Technician string
	Query      string
	Page       int
	Limit      int
}

func (s *RequestService) List(ctx context.Context, actor Actor, f RequestFilter) ([]models.ServiceRequest, int64, error) {
	if !actor.Can(models.CapRequestRead) {
		return nil, 0, ErrForbidden
	}
	if !actor.seesAll() {
		f.Technician = actor.Email
	}
	q, err := s.filtered(ctx, f)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	page, limit := pagination(f.Page, f.Limit)
	var out []models.ServiceRequest
	err = q.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&out).Error
	return out, total, err
}

// Export returns every ticket matching f, newest first, for spreadsheet export.
func (s *RequestService) Export(ctx context.Context, actor Actor, f RequestFilter) ([]models.ServiceRequest, error) {
	if !actor.Can(models.CapRequestExport) {
		return nil, ErrForbidden
	}
	q, err := s.filtered(ctx, f)
	if err != nil {
		return nil, err
	}
	var out []models.ServiceRequest
	err = q.Order("created_at DESC").Find(&out).Error
	return out, err
}

func (s *RequestService) filtered(ctx context.Context, f RequestFilter) (*gorm.DB, error) {
	q := s.db.WithContext(ctx).Model(&models.ServiceRequest{})
	if f.Status != "" {
		status, ok := models.CanonicalStatus(f.Status)
		if !ok {
			return nil, validation(fmt.Sprintf("Status tidak dikenal: %s", f.Status))
		}
		q = q.Where("status IN ?", models.StatusVariants(status))
	}
	if f.BranchID != nil {
		q = q.Where("branch_id = ?", *f.BranchID)
	}
	if f.Technician != "" {
		needle, err := json.Marshal([]string{models.NormalizeEmail(f.Technician)})
		if err != nil {
			return nil, err
		}
		q = q.Where("assigned_technicians @> ?::jsonb", string(needle))
	}
	if text := strings.TrimSpace(f.Query); text != "" {
		like := "%" + text + "%"
		q = q.Where("track_number ILIKE ? OR customer_name ILIKE ? OR customer_phone ILIKE ?", like, like, like)
	}
	return q, nil
}

// RequestPatch carries the editable customer and device fields. Nil fields
// are left alone.
type RequestPatch struct {
	CustomerName    *string    `json:"customer_name"`
	CustomerAddress *string    `json:"customer_address"`
	CustomerPhone   *string    `json:"customer_phone"`
	CustomerEmail   *string    `json:"customer_email"`
	DeviceBrand     *string    `json:"device_brand"`
	DeviceType      *string    `json:"device_type"`
	SerialNumber    *string    `json:"serial_number"`
	Complaint       *string    `json:"complaint"`
	TechnicalSpec   *string    `json:"technical_spec"`
	Conditions      []string   `json:"conditions"`
	Accessories     []string   `json:"accessories"`
	Warranty        *bool      `json:"warranty"`
	BranchID        *uuid.UUID `json:"branch_id"`
}

// Update applies patch when expectedVersion still matches the stored record.
func (s *RequestService) Update(ctx context.Context, actor Actor, id uuid.UUID, patch RequestPatch, expectedVersion int) (*models.ServiceRequest, error) {
	if !actor.Can(models.CapRequestUpdate) {
		return nil, ErrForbidden
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sr, err := lockRequest(tx, id)
		if err != nil {
			return err
		}
		if sr.Version != expectedVersion {
			return ErrVersionMismatch
		}

		form := intakeFormFrom(sr)
		applyPatch(&form, patch)
		if errs := form.Validate(); errs != nil {
			return errs
		}

		fields := map[string]any{
			"customer_name":    form.CustomerName,
			"customer_address": form.CustomerAddress,
			"customer_phone":   form.CustomerPhone,
			"customer_email":   form.CustomerEmail,
			"device_brand":     form.DeviceBrand,
			"device_type":      form.DeviceType,
			"serial_number":    form.SerialNumber,
			"complaint":        form.Complaint,
			"technical_spec":   form.TechnicalSpec,
			"conditions":       datatypes.JSONSlice[string](form.Conditions),
			"accessories":      datatypes.JSONSlice[string](form.Accessories),
			"warranty":         form.Warranty,
		}
		if patch.BranchID != nil {
			fields["branch_id"] = *patch.BranchID
		}
		if err := saveLocked(tx, sr, fields, s.now()); err != nil {
			return err
		}
		return recordActivity(tx, actor, "service_request.update", "service_request", id.String(), patch)
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

// Delete removes a ticket and everything hanging off it.
func (s *RequestService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if !actor.Can(models.CapRequestDelete) {
		return ErrForbidden
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sr, err := lockRequest(tx, id)
		if err != nil {
			return err
		}
		children := []any{
			&models.StatusLog{}, &models.DPPayment{}, &models.CustomerLog{},
			&models.UnitWorkLog{}, &models.PublicView{},
		}
		for _, child := range children {
			if err := tx.Where("service_request_id = ?", id).Delete(child).Error; err != nil {
				return err
			}
		}
		if err := tx.Delete(&models.ServiceRequest{}, "id = ?", id).Error; err != nil {
			return err
		}
		return recordActivity(tx, actor, "service_request.delete", "service_request", id.String(),
			map[string]any{"track_number": sr.TrackNumber, "customer_name": sr.CustomerName})
	})
}

// AttachMedia appends urls to one of the ticket's media arrays.
func (s *RequestService) AttachMedia(ctx context.Context, actor Actor, id uuid.UUID, kind models.MediaKind, urls []string) (*models.ServiceRequest, error) {
	return s.editMedia(ctx, actor, id, kind, "media.attach", func(current []string) []string {
		seen := make(map[string]bool, len(current))
		for _, u := range current {
			seen[u] = true
		}
		for _, u := range urls {
			u = strings.TrimSpace(u)
			if u != "" && !seen[u] {
				seen[u] = true
				current = append(current, u)
			}
		}
		return current
	})
}

// DetachMedia removes url from one of the ticket's media arrays.
func (s *RequestService) DetachMedia(ctx context.Context, actor Actor, id uuid.UUID, kind models.MediaKind, url string) (*models.ServiceRequest, error) {
	return s.editMedia(ctx, actor, id, kind, "media.detach", func(current []string) []string {
		out := make([]string, 0, len(current))
		for _, u := range current {
			if u != url {
				out = append(out, u)
			}
		}
		return out
	})
}

func (s *RequestService) editMedia(ctx context.Context, actor Actor, id uuid.UUID, kind models.MediaKind, action string, edit func([]string) []string) (*models.ServiceRequest, error) {
	if !actor.Can(models.CapMediaUpload) {
		return nil, ErrForbidden
	}
	column := models.MediaColumn(kind)
	if column == "" {
		return nil, validation(fmt.Sprintf("Jenis media tidak dikenal: %s", kind))
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sr, err := lockRequest(tx, id)
		if err != nil {
			return err
		}
		if !canSee(actor, sr) {
			return ErrForbidden
		}
		before := append([]string(nil), sr.Media(kind)...)
		after := edit(append([]string{}, before...))
		if err := saveLocked(tx, sr, map[string]any{column: datatypes.JSONSlice[string](after)}, s.now()); err != nil {
			return err
		}
		return recordActivity(tx, actor, action, "service_request", id.String(),
			map[string]any{"kind": kind, "before": before, "after": after})
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

func (s *RequestService) load(ctx context.Context, id uuid.UUID) (*models.ServiceRequest, error) {
	return loadRequest(s.db.WithContext(ctx), id)
}

func loadRequest(db *gorm.DB, id uuid.UUID) (*models.ServiceRequest, error) {
	var sr models.ServiceRequest
	err := db.Preload("StatusLog", func(db *gorm.DB) *gorm.DB {
		return db.Order("updated_at ASC")
	}).First(&sr, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sr, nil
}

// lockRequest loads a ticket with SELECT ... FOR UPDATE so writers that
// derive values from it serialise.
func lockRequest(tx *gorm.DB, id uuid.UUID) (*models.ServiceRequest, error) {
	var sr models.ServiceRequest
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&sr, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sr, nil
}

// saveLocked writes fields on a locked ticket and bumps its version.
func saveLocked(tx *gorm.DB, sr *models.ServiceRequest, fields map[string]any, now time.Time) error {
	fields["version"] = sr.Version + 1
	fields["updated_at"] = now
	if err := tx.Model(&models.ServiceRequest{}).Where("id = ?", sr.ID).Updates(fields).Error; err != nil {
		return err
	}
	sr.Version++
	sr.UpdatedAt = now
	return nil
}

func canSee(actor Actor, sr *models.ServiceRequest) bool {
	return actor.seesAll() || sr.IsAssigned(actor.Email)
}

func intakeFormFrom(sr *models.ServiceRequest) models.IntakeForm {
	return models.IntakeForm{
		CustomerName:    sr.CustomerName,
		CustomerAddress: sr.CustomerAddress,
		CustomerPhone:   sr.CustomerPhone,
		CustomerEmail:   sr.CustomerEmail,
		DeviceBrand:     sr.DeviceBrand,
		DeviceType:      sr.DeviceType,
		SerialNumber:    sr.SerialNumber,
		Complaint:       sr.Complaint,
		TechnicalSpec:   sr.TechnicalSpec,
		Conditions:      sr.Conditions,
		Accessories:     sr.Accessories,
		Warranty:        sr.Warranty,
	}
}

func applyPatch(form *models.IntakeForm, p RequestPatch) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&form.CustomerName, p.CustomerName)
	set(&form.CustomerAddress, p.CustomerAddress)
	set(&form.CustomerPhone, p.CustomerPhone)
	set(&form.CustomerEmail, p.CustomerEmail)
	set(&form.DeviceBrand, p.DeviceBrand)
	set(&form.DeviceType, p.DeviceType)
	set(&form.SerialNumber, p.SerialNumber)
	set(&form.Complaint, p.Complaint)
	set(&form.TechnicalSpec, p.TechnicalSpec)
	if p.Conditions != nil {
		form.Conditions = p.Conditions
	}
	if p.Accessories != nil {
		form.Accessories = p.Accessories
	}
	if p.Warranty != nil {
		form.Warranty = *p.Warranty
	}
}

func parseOptionalUUID(raw *string) (*uuid.UUID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := uuid.Parse(strings.TrimSpace(*raw))
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
