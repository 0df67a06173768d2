package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/andrensetiawan/form-service/models"
)

// TechnicianService maintains assignedTechnicians. Every change is written to
// the activity log with the before and after sets.
type TechnicianService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewTechnicianService(db *gorm.DB) *TechnicianService {
	return &TechnicianService{db: db, now: time.Now}
}

// Assign replaces the assigned set.
func (s *TechnicianService) Assign(ctx context.Context, actor Actor, requestID uuid.UUID, emails []string) (*models.ServiceRequest, error) {
	return s.change(ctx, actor, requestID, "technician.assign", emails, func(_ []string, wanted []string) []string {
		return wanted
	})
}

func (s *TechnicianService) Add(ctx context.Context, actor Actor, requestID uuid.UUID, email string) (*models.ServiceRequest, error) {
	return s.change(ctx, actor, requestID, "technician.add", []string{email}, func(current, wanted []string) []string {
		return normalizeEmails(append(current, wanted...))
	})
}

func (s *TechnicianService) Remove(ctx context.Context, actor Actor, requestID uuid.UUID, email string) (*models.ServiceRequest, error) {
	drop := models.NormalizeEmail(email)
	return s.change(ctx, actor, requestID, "technician.remove", nil, func(current, _ []string) []string {
		out := make([]string, 0, len(current))
		for _, e := range current {
			if e != drop {
				out = append(out, e)
			}
		}
		return out
	})
}

func (s *TechnicianService) change(
	ctx context.Context,
	actor Actor,
	requestID uuid.UUID,
	action string,
	emails []string,
	apply func(current, wanted []string) []string,
) (*models.ServiceRequest, error) {
	if !actor.Can(models.CapTechnicianAssign) {
		return nil, ErrForbidden
	}
	wanted := normalizeEmails(emails)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireTechnicians(tx, wanted); err != nil {
			return err
		}
		sr, err := lockRequest(tx, requestID)
		if err != nil {
			return err
		}
		before := normalizeEmails(sr.AssignedTechnicians)
		after := normalizeEmails(apply(append([]string{}, before...), wanted))
		if err := saveLocked(tx, sr, map[string]any{
			"assigned_technicians": datatypes.JSONSlice[string](after),
		}, s.now()); err != nil {
			return err
		}
		return recordActivity(tx, actor, action, "service_request", requestID.String(),
			map[string]any{"before": before, "after": after})
	})
	if err != nil {
		return nil, err
	}
	return loadRequest(s.db.WithContext(ctx), requestID)
}

// History lists assignment changes for a ticket, newest first.
func (s *TechnicianService) History(ctx context.Context, actor Actor, requestID uuid.UUID) ([]models.ActivityLog, error) {
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
	var out []models.ActivityLog
	err = s.db.WithContext(ctx).
		Where("target_id = ? AND action IN ?", requestID.String(),
			[]string{"technician.assign", "technician.add", "technician.remove"}).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// requireTechnicians checks every email belongs to an active teknisi.
func requireTechnicians(tx *gorm.DB, emails []string) error {
	if len(emails) == 0 {
		return nil
	}
	var found []string
	if err := tx.Model(&models.User{}).
		Where("email IN ? AND role = ? AND is_active = ?", emails, models.RoleTeknisi, true).
		Pluck("email", &found).Error; err != nil {
		return err
	}
	known := make(map[string]bool, len(found))
	for _, e := range found {
		known[e] = true
	}
	var errs models.ValidationErrors
	for _, e := range emails {
		if !known[e] {
			errs = append(errs, fmt.Sprintf("Teknisi tidak dikenal: %s", e))
		}
	}
	if errs != nil {
		return errs
	}
	return nil
}

// normalizeEmails lower-cases, trims, de-duplicates and sorts.
func normalizeEmails(emails []string) []string {
	seen := make(map[string]bool, len(emails))
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		e = models.NormalizeEmail(e)
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}
