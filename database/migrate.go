package database

import (
	"fmt"

	"github.com/yeremiapane/practice-app/models"
	"github.com/yeremiapane/practice-app/utils"
	"gorm.io/gorm"
)

// MigratePractice creates the practice service schema: the identity
// directory mirror, practices, placements and hour logs.
func MigratePractice(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Practice{},
		&models.Placement{},
		&models.HourLog{},
	); err != nil {
		return fmt.Errorf("migrate practice schema: %w", err)
	}

	// Capacity checks and stats filter hour logs by placement and status.
	if !db.Migrator().HasIndex(&models.HourLog{}, "idx_hour_logs_placement_status") {
		if err := db.Exec("CREATE INDEX idx_hour_logs_placement_status ON hour_logs (placement_id, status)").Error; err != nil {
			utils.ErrorLogger.Printf("Error creating idx_hour_logs_placement_status: %v", err)
		}
	}

	utils.InfoLogger.Println("Practice schema migrated.")
	return nil
}

// MigrateDocuments creates the document service schema.
func MigrateDocuments(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Certificate{}); err != nil {
		return fmt.Errorf("migrate document schema: %w", err)
	}
	utils.InfoLogger.Println("Document schema migrated.")
	return nil
}
