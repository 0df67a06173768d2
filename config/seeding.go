package config

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/andrensetiawan/form-service/models"
)

const defaultBranchName = "Pusat"

// RunAllSeeding runs all seeding operations in the correct order.
// Each step is skipped when its data already exists.
func RunAllSeeding(db *gorm.DB, cfg *Config) error {
	zap.L().Info("seeding: starting")

	// Step 1: a branch for new tickets and staff
	if err := SeedDefaultBranch(db); err != nil {
		return fmt.Errorf("seed branch: %w", err)
	}

	// Step 2: first admin so someone can log in
	if err := SeedAdmin(db, cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	// Step 3: security settings row
	if err := SeedSecuritySettings(db); err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}

	zap.L().Info("seeding: complete")
	return nil
}

func SeedDefaultBranch(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Branch{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	branch := models.Branch{Name: defaultBranchName}
	if err := db.Create(&branch).Error; err != nil {
		return err
	}
	zap.L().Info("seeding: created default branch", zap.String("name", branch.Name))
	return nil
}

// SeedAdmin creates an admin account when email is set and no user with that
// address exists.
func SeedAdmin(db *gorm.DB, email, password string) error {
	email = models.NormalizeEmail(email)
	if email == "" {
		zap.L().Debug("seeding: SEED_ADMIN_EMAIL not set, skipping admin")
		return nil
	}
	if password == "" {
		return errors.New("SEED_ADMIN_PASSWORD is required with SEED_ADMIN_EMAIL")
	}

	var existing models.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := models.User{
		Name:         "Administrator",
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	zap.L().Info("seeding: created admin user", zap.String("email", email))
	return nil
}

func SeedSecuritySettings(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Setting{}).Where("key = ?", models.SecuritySettingsKey).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	value, err := models.EncodeSetting(models.DefaultSecuritySettings())
	if err != nil {
		return err
	}
	return db.Create(&models.Setting{Key: models.SecuritySettingsKey, Value: value, UpdatedBy: "system"}).Error
}
