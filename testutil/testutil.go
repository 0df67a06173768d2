package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/andrensetiawan/form-service/config"
	"github.com/andrensetiawan/form-service/models"
)

const TestSchema = "test_form"

// projectRoot returns the project root directory by looking for go.mod
func projectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// SetupTestDB connects to TEST_DB_DSN (keyword form) and migrates a fresh
// schema that is dropped when the test ends. Tests are skipped when the
// variable is unset.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	if root := projectRoot(); root != "" {
		godotenv.Load(filepath.Join(root, ".env"))
	}
	baseDSN := os.Getenv("TEST_DB_DSN")
	if baseDSN == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	schemaName := fmt.Sprintf("%s_%d", TestSchema, time.Now().UnixNano()%1000000000)

	setupDB, err := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to database for schema setup: %v", err)
	}
	if err := setupDB.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schemaName)).Error; err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	testDSN := fmt.Sprintf("%s search_path=%s", baseDSN, schemaName)
	db, err := gorm.Open(postgres.Open(testDSN), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := config.Migrations(db); err != nil {
		t.Fatalf("Failed to migrate test schema: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
		setupDB.Exec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schemaName))
		if sqlSetup, err := setupDB.DB(); err == nil {
			sqlSetup.Close()
		}
	})
	return db
}

// CreateUser inserts an active user with password "password123".
func CreateUser(t *testing.T, db *gorm.DB, role models.Role) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	id := uuid.New()
	u := &models.User{
		ID:           id,
		Name:         string(role) + " " + id.String()[:8],
		Email:        string(role) + "-" + id.String()[:8] + "@example.com",
		Phone:        "08" + fmt.Sprint(time.Now().UnixNano()%1000000000),
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// IntakeForm returns a form that passes validation.
func IntakeForm() *models.IntakeForm {
	return &models.IntakeForm{
		CustomerName:    "Budi Santoso",
		CustomerAddress: "Jl. Merdeka 10, Bandung",
		CustomerPhone:   "081234567890",
		CustomerEmail:   "budi@example.com",
		DeviceBrand:     "Asus",
		DeviceType:      "Laptop",
		SerialNumber:    "SN-001",
		Complaint:       "Tidak bisa menyala",
		Conditions:      []string{"Lecet di casing"},
		Accessories:     []string{"Charger"},
	}
}
