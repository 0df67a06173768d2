package config

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/andrensetiawan/form-service/models"
)

func Migrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "01092025_create_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Branch{}, &models.User{}, &models.ServiceRequest{},
					&models.StatusLog{}, &models.DPPayment{}, &models.CustomerLog{}, &models.UnitWorkLog{},
					&models.PublicView{}, &models.ActivityLog{}, &models.Setting{}, &models.MediaAsset{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("media_assets", "settings", "activity_logs", "public_views",
					"unit_work_logs", "customer_logs", "dp_payments", "status_logs", "service_requests",
					"users", "branches")
			},
		},
		{
			ID: "08092025_add_child_foreign_keys",
			Migrate: func(tx *gorm.DB) error {
				// Sub-tables die with their ticket.
				tables := []string{"dp_payments", "customer_logs", "unit_work_logs", "public_views"}
				for _, table := range tables {
					fk := "fk_" + table + "_service_request"
					if err := tx.Exec("ALTER TABLE " + table + " DROP CONSTRAINT IF EXISTS " + fk).Error; err != nil {
						return err
					}
					if err := tx.Exec("ALTER TABLE " + table + " ADD CONSTRAINT " + fk +
						" FOREIGN KEY (service_request_id) REFERENCES service_requests(id) ON DELETE CASCADE").Error; err != nil {
						return err
					}
				}
				// Replies die with the entry they answer.
				if err := tx.Exec("ALTER TABLE unit_work_logs DROP CONSTRAINT IF EXISTS fk_unit_work_logs_parent").Error; err != nil {
					return err
				}
				return tx.Exec("ALTER TABLE unit_work_logs ADD CONSTRAINT fk_unit_work_logs_parent" +
					" FOREIGN KEY (parent_id) REFERENCES unit_work_logs(id) ON DELETE CASCADE").Error
			},
		},
		{
			ID: "15092025_add_user_branch_set_null",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.Exec("ALTER TABLE users DROP CONSTRAINT IF EXISTS fk_users_branch").Error; err != nil {
					return err
				}
				return tx.Exec("ALTER TABLE users ADD CONSTRAINT fk_users_branch" +
					" FOREIGN KEY (branch_id) REFERENCES branches(id) ON DELETE SET NULL").Error
			},
		},
		{
			ID: "22092025_add_service_request_search_indexes",
			Migrate: func(tx *gorm.DB) error {
				stmts := []string{
					"CREATE INDEX IF NOT EXISTS idx_service_requests_created_at ON service_requests (created_at DESC)",
					"CREATE INDEX IF NOT EXISTS idx_service_requests_customer_name_lower ON service_requests (LOWER(customer_name))",
					"CREATE INDEX IF NOT EXISTS idx_service_requests_technicians ON service_requests USING GIN (assigned_technicians)",
					"CREATE INDEX IF NOT EXISTS idx_status_logs_request_time ON status_logs (service_request_id, updated_at)",
				}
				for _, stmt := range stmts {
					if err := tx.Exec(stmt).Error; err != nil {
						return err
					}
				}
				return nil
			},
		},
	})

	return m.Migrate()
}
