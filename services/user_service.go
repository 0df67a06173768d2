package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/andrensetiawan/form-service/models"
	"github.com/andrensetiawan/form-service/utils"
)

const minPasswordLength = 8

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// Login checks a password against the account found by email, or by phone
// when no email is given. Inactive accounts cannot log in.
func (s *UserService) Login(ctx context.Context, email, phone, password string) (*models.User, error) {
	q := s.db.WithContext(ctx).Where("is_active = ?", true)
	switch {
	case strings.TrimSpace(email) != "":
		q = q.Where("email = ?", models.NormalizeEmail(email))
	case strings.TrimSpace(phone) != "":
		q = q.Where("phone = ?", strings.TrimSpace(phone))
	default:
		return nil, ErrInvalidCredential
	}

	var u models.User
	if err := q.First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredential
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredential
	}
	return &u, nil
}

// Get loads a user with their branch.
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Preload("Branch").First(&u, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

type RegisterInput struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Phone    string  `json:"phone"`
	Password string  `json:"password"`
	Role     string  `json:"role"`
	BranchID *string `json:"branch_id"`
}

// Register creates an account. Free-form roles are normalized.
func (s *UserService) Register(ctx context.Context, actor Actor, in RegisterInput) (*models.User, error) {
	if !actor.Can(models.CapUserManage) {
		return nil, ErrForbidden
	}
	var errs models.ValidationErrors
	if strings.TrimSpace(in.Name) == "" {
		errs = append(errs, "Nama wajib diisi")
	}
	if models.NormalizeEmail(in.Email) == "" {
		errs = append(errs, "Email wajib diisi")
	}
	if len(in.Password) < minPasswordLength {
		errs = append(errs, fmt.Sprintf("Password minimal %d karakter", minPasswordLength))
	}
	branchID, err := parseOptionalUUID(in.BranchID)
	if err != nil {
		errs = append(errs, "Cabang tidak valid")
	}
	if errs != nil {
		return nil, errs
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &models.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        in.Email,
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: string(hash),
		Role:         utils.NormalizeRole(in.Role),
		BranchID:     branchID,
		IsActive:     true,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(u).Error; err != nil {
			return err
		}
		return recordActivity(tx, actor, "user.create", "user", u.ID.String(),
			map[string]any{"email": u.Email, "role": u.Role})
	})
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return nil, validation("Cabang tidak valid")
	case err != nil:
		return nil, err
	}
	return u, nil
}

type UserFilter struct {
	Role     string
	BranchID *uuid.UUID
	Active   *bool
	Page     int
	Limit    int
}

func (s *UserService) List(ctx context.Context, actor Actor, f UserFilter) ([]models.User, int64, error) {
	if !actor.Can(models.CapUserManage) && !actor.Can(models.CapTechnicianAssign) {
		return nil, 0, ErrForbidden
	}
	q := s.db.WithContext(ctx).Model(&models.User{})
	if f.Role != "" {
		q = q.Where("role = ?", utils.NormalizeRole(f.Role))
	}
	if f.BranchID != nil {
		q = q.Where("branch_id = ?", *f.BranchID)
	}
	if f.Active != nil {
		q = q.Where("is_active = ?", *f.Active)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	page, limit := pagination(f.Page, f.Limit)
	var out []models.User
	err := q.Preload("Branch").Order("name ASC").Limit(limit).Offset((page - 1) * limit).Find(&out).Error
	return out, total, err
}

type UserPatch struct {
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	Role     *string `json:"role"`
	BranchID *string `json:"branch_id"` // "" moves the user to Unassigned
	IsActive *bool   `json:"is_active"`
	Password *string `json:"password"`
}

func (s *UserService) Update(ctx context.Context, actor Actor, id uuid.UUID, p UserPatch) (*models.User, error) {
	if !actor.Can(models.CapUserManage) {
		return nil, ErrForbidden
	}
	fields := map[string]any{}
	if p.Name != nil {
		if strings.TrimSpace(*p.Name) == "" {
			return nil, validation("Nama wajib diisi")
		}
		fields["name"] = strings.TrimSpace(*p.Name)
	}
	if p.Phone != nil {
		fields["phone"] = strings.TrimSpace(*p.Phone)
	}
	if p.Role != nil {
		fields["role"] = utils.NormalizeRole(*p.Role)
	}
	if p.BranchID != nil {
		branchID, err := parseOptionalUUID(p.BranchID)
		if err != nil {
			return nil, validation("Cabang tidak valid")
		}
		fields["branch_id"] = branchID
	}
	if p.IsActive != nil {
		if !*p.IsActive && id == actor.UserID {
			return nil, validation("Tidak dapat menonaktifkan akun sendiri")
		}
		fields["is_active"] = *p.IsActive
	}
	if p.Password != nil {
		if len(*p.Password) < minPasswordLength {
			return nil, validation(fmt.Sprintf("Password minimal %d karakter", minPasswordLength))
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*p.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		fields["password_hash"] = string(hash)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.First(&u, "id = ?", id).Error; err != nil {
			return notFound(err)
		}
		if len(fields) == 0 {
			return nil
		}
		if err := tx.Model(&u).Updates(fields).Error; err != nil {
			return err
		}
		audit := make(map[string]any, len(fields))
		for k, v := range fields {
			if k != "password_hash" {
				audit[k] = v
			}
		}
		return recordActivity(tx, actor, "user.update", "user", id.String(), audit)
	})
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return nil, validation("Cabang tidak valid")
	}
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// ChangePassword lets a user replace their own password.
func (s *UserService) ChangePassword(ctx context.Context, actor Actor, current, next string) error {
	if len(next) < minPasswordLength {
		return validation(fmt.Sprintf("Password minimal %d karakter", minPasswordLength))
	}
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", actor.UserID).Error; err != nil {
		return notFound(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)); err != nil {
		return ErrInvalidCredential
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.db.WithContext(ctx).Model(&u).Update("password_hash", string(hash)).Error
}

// RoleChange is one row rewritten by FixRoles.
type RoleChange struct {
	UserID uuid.UUID   `json:"user_id"`
	Email  string      `json:"email"`
	From   string      `json:"from"`
	To     models.Role `json:"to"`
}

// FixRolesReport summarizes a FixRoles run.
type FixRolesReport struct {
	Scanned int          `json:"scanned"`
	Changes []RoleChange `json:"changes"`
	DryRun  bool         `json:"dry_run"`
}

// FixRoles rewrites every stored role to its canonical value. Running it
// twice changes nothing the second time.
func (s *UserService) FixRoles(ctx context.Context, dryRun bool) (*FixRolesReport, error) {
	type row struct {
		ID    uuid.UUID
		Email string
		Role  string
	}
	var rows []row
	if err := s.db.WithContext(ctx).Model(&models.User{}).Select("id", "email", "role").Scan(&rows).Error; err != nil {
		return nil, err
	}

	report := &FixRolesReport{Scanned: len(rows), DryRun: dryRun}
	for _, r := range rows {
		canonical := utils.NormalizeRole(r.Role)
		if string(canonical) == r.Role {
			continue
		}
		report.Changes = append(report.Changes, RoleChange{UserID: r.ID, Email: r.Email, From: r.Role, To: canonical})
	}
	if dryRun || len(report.Changes) == 0 {
		return report, nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, c := range report.Changes {
			if err := tx.Model(&models.User{}).Where("id = ?", c.UserID).Update("role", c.To).Error; err != nil {
				return err
			}
			zap.L().Info("role normalized",
				zap.String("email", c.Email), zap.String("from", c.From), zap.String("to", string(c.To)))
		}
		return recordActivity(tx, Actor{Email: "fix-roles"}, "user.fix_roles", "user", "", map[string]any{"changed": len(report.Changes)})
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}
