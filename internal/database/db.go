package database

import (
	"log"

	"poultrypos-backend/internal/config"
	"poultrypos-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}

	// Legacy schema cleanup: early deployments carried a global stock column
	// on products next to the per-shop inventory table. Per-shop inventory is
	// authoritative, the column goes away before AutoMigrate runs.
	if DB.Migrator().HasTable(&models.Product{}) {
		if DB.Migrator().HasColumn(&models.Product{}, "stock") {
			log.Println("Dropping legacy products.stock column (per-shop inventory is authoritative)...")
			if err := DB.Exec("ALTER TABLE products DROP COLUMN stock").Error; err != nil {
				log.Printf("Could not drop products.stock (may already be gone): %v", err)
			}
		}
	}

	if err := Migrate(DB); err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}

	log.Println("Database connected. Migration complete.")
}

// Migrate creates/updates the schema. Split out from Init so tests can run it
// against their own database handle.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Shop{},
		&models.User{},
		&models.Product{},
		&models.Vendor{},
		&models.Inventory{},
		&models.Purchase{},
		&models.PurchaseItem{},
		&models.Sale{},
		&models.SaleItem{},
		&models.InventoryAdjustment{},
		&models.CompanySettings{},
		&models.AuditLog{},
	)
}
