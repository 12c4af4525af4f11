// Package dbtest opens throwaway sqlite databases for tests.
package dbtest

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/leonardo27oliveira02-spec/garccom-app/database"
	"github.com/leonardo27oliveira02-spec/garccom-app/models"
	"github.com/leonardo27oliveira02-spec/garccom-app/utils"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var seq int64

// Open returns a migrated in-memory database private to t.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	utils.InitLogger()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, atomic.AddInt64(&seq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Fixture is a minimal restaurant: one table, one waiter, a small menu.
type Fixture struct {
	RestaurantID uint
	Table        models.Table
	Waiter       models.Staff
	Cook         models.Staff
	Food         models.MenuItem
	Drink        models.MenuItem
}

func Seed(t *testing.T, db *gorm.DB, restaurantID uint) Fixture {
	t.Helper()
	f := Fixture{RestaurantID: restaurantID}

	f.Table = models.Table{RestaurantID: restaurantID, Number: 1, Status: models.TableStatusFree}
	f.Waiter = models.Staff{RestaurantID: restaurantID, Name: "Ana", PIN: "1234", Role: models.RoleWaiter, Active: true}
	f.Cook = models.Staff{RestaurantID: restaurantID, Name: "Caio", PIN: "5678", Role: models.RoleKitchen, Active: true}
	f.Food = models.MenuItem{RestaurantID: restaurantID, Name: "Feijoada", Category: models.CategoryMains, Price: decimal.RequireFromString("42.50"), Available: true}
	f.Drink = models.MenuItem{RestaurantID: restaurantID, Name: "Guaraná", Category: models.CategoryDrinks, Price: decimal.RequireFromString("6.00"), Available: true}

	for _, rec := range []interface{}{&f.Table, &f.Waiter, &f.Cook, &f.Food, &f.Drink} {
		if err := db.Create(rec).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return f
}
