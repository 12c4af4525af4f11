package database

import (
	"github.com/leonardo27oliveira02-spec/garccom-app/models"
	"github.com/leonardo27oliveira02-spec/garccom-app/utils"
	"gorm.io/gorm"
)

// AutoMigrate creates or updates every table the order core uses.
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Staff{},
		&models.Table{},
		&models.MenuItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.RestaurantConfig{},
		&models.DBChange{},
	)
	if err != nil {
		utils.ErrorLogger.Errorf("AutoMigrate failed: %v", err)
		return err
	}
	// submission keys used to be unique across restaurants
	const legacyKeyIndex = "idx_pedidos_idempotency_key"
	if m := db.Migrator(); m.HasIndex(&models.Order{}, legacyKeyIndex) {
		if err := m.DropIndex(&models.Order{}, legacyKeyIndex); err != nil {
			utils.ErrorLogger.Errorf("drop index %s: %v", legacyKeyIndex, err)
			return err
		}
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
	return nil
}
