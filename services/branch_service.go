package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/andrensetiawan/form-service/models"
)

// BranchService manages service-center locations (cabang).
type BranchService struct {
	db *gorm.DB
}

func NewBranchService(db *gorm.DB) *BranchService {
	return &BranchService{db: db}
}

type BranchInput struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

func (in BranchInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return validation("Nama cabang wajib diisi")
	}
	return nil
}

// BranchSummary is a branch with the number of users assigned to it.
type BranchSummary struct {
	models.Branch
	UserCount int64 `json:"user_count"`
}

func (s *BranchService) List(ctx context.Context) ([]BranchSummary, error) {
	var branches []models.Branch
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&branches).Error; err != nil {
		return nil, err
	}

	type count struct {
		BranchID uuid.UUID
		N        int64
	}
	var counts []count
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Select("branch_id, COUNT(*) AS n").
		Where("branch_id IS NOT NULL").
		Group("branch_id").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	byBranch := make(map[uuid.UUID]int64, len(counts))
	for _, c := range counts {
		byBranch[c.BranchID] = c.N
	}

	out := make([]BranchSummary, len(branches))
	for i, b := range branches {
		out[i] = BranchSummary{Branch: b, UserCount: byBranch[b.ID]}
	}
	return out, nil
}

func (s *BranchService) Create(ctx context.Context, actor Actor, in BranchInput) (*models.Branch, error) {
	if !actor.Can(models.CapBranchManage) {
		return nil, ErrForbidden
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	b := &models.Branch{
		Name:    strings.TrimSpace(in.Name),
		Address: strings.TrimSpace(in.Address),
		Phone:   strings.TrimSpace(in.Phone),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(b).Error; err != nil {
			return err
		}
		return recordActivity(tx, actor, "branch.create", "branch", b.ID.String(), in)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, fmt.Errorf("%w: branch name already used", ErrConflict)
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *BranchService) Update(ctx context.Context, actor Actor, id uuid.UUID, in BranchInput) (*models.Branch, error) {
	if !actor.Can(models.CapBranchManage) {
		return nil, ErrForbidden
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	var b models.Branch
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&b, "id = ?", id).Error; err != nil {
			return notFound(err)
		}
		b.Name = strings.TrimSpace(in.Name)
		b.Address = strings.TrimSpace(in.Address)
		b.Phone = strings.TrimSpace(in.Phone)
		if err := tx.Save(&b).Error; err != nil {
			return err
		}
		return recordActivity(tx, actor, "branch.update", "branch", id.String(), in)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, fmt.Errorf("%w: branch name already used", ErrConflict)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Delete removes a branch. Its users and tickets become unassigned in the
// same transaction.
func (s *BranchService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if !actor.Can(models.CapBranchManage) {
		return ErrForbidden
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b models.Branch
		if err := tx.First(&b, "id = ?", id).Error; err != nil {
			return notFound(err)
		}
		moved := tx.Model(&models.User{}).Where("branch_id = ?", id).Update("branch_id", nil)
		if moved.Error != nil {
			return moved.Error
		}
		if err := tx.Model(&models.ServiceRequest{}).Where("branch_id = ?", id).Update("branch_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Delete(&b).Error; err != nil {
			return err
		}
		return recordActivity(tx, actor, "branch.delete", "branch", id.String(),
			map[string]any{"name": b.Name, "users_unassigned": moved.RowsAffected})
	})
}
