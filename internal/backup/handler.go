package backup

import (
	"time"

	"poultrypos-backend/internal/database"
	"poultrypos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Payload matches the JSON backups the dashboard produces: catalog and
// reference data plus the adjustment ledger. Sales and purchases are
// intentionally not part of backups.
type Payload struct {
	Timestamp string      `json:"timestamp"`
	Version   string      `json:"version"`
	Data      PayloadData `json:"data"`
}

type PayloadData struct {
	Products             []models.Product             `json:"products"`
	Vendors              []models.Vendor              `json:"vendors"`
	Shops                []models.Shop                `json:"shops"`
	InventoryAdjustments []models.InventoryAdjustment `json:"inventory_adjustments"`
}

// GET /api/admin/backup/export
func ExportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := Payload{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0",
		}

		if err := database.DB.Order("id").Find(&payload.Data.Products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not export products")
		}
		if err := database.DB.Order("id").Find(&payload.Data.Vendors).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not export vendors")
		}
		if err := database.DB.Order("id").Find(&payload.Data.Shops).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not export shops")
		}
		if err := database.DB.Order("id").Find(&payload.Data.InventoryAdjustments).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not export adjustments")
		}

		if payload.Data.Products == nil {
			payload.Data.Products = []models.Product{}
		}
		if payload.Data.Vendors == nil {
			payload.Data.Vendors = []models.Vendor{}
		}
		if payload.Data.Shops == nil {
			payload.Data.Shops = []models.Shop{}
		}
		if payload.Data.InventoryAdjustments == nil {
			payload.Data.InventoryAdjustments = []models.InventoryAdjustment{}
		}

		c.Set("Content-Disposition", `attachment; filename="backup_poultrypos_`+time.Now().Format("2006-01-02")+`.json"`)
		return c.JSON(payload)
	}
}

// POST /api/admin/backup/import
// Upserts by id in dependency order: vendors -> products -> shops ->
// adjustments. Everything lands in one transaction.
func ImportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var payload Payload
		if err := c.BodyParser(&payload); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid backup file")
		}

		counts := fiber.Map{}
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			upsert := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				UpdateAll: true,
			})

			if len(payload.Data.Vendors) > 0 {
				if err := upsert.Create(&payload.Data.Vendors).Error; err != nil {
					return err
				}
			}
			if len(payload.Data.Products) > 0 {
				if err := upsert.Create(&payload.Data.Products).Error; err != nil {
					return err
				}
			}
			if len(payload.Data.Shops) > 0 {
				// strip associations so the upsert does not try to touch users
				for i := range payload.Data.Shops {
					payload.Data.Shops[i].Users = nil
				}
				if err := upsert.Create(&payload.Data.Shops).Error; err != nil {
					return err
				}
			}
			if len(payload.Data.InventoryAdjustments) > 0 {
				for i := range payload.Data.InventoryAdjustments {
					payload.Data.InventoryAdjustments[i].Shop = models.Shop{}
					payload.Data.InventoryAdjustments[i].Product = models.Product{}
				}
				if err := upsert.Create(&payload.Data.InventoryAdjustments).Error; err != nil {
					return err
				}
			}

			counts["vendors"] = len(payload.Data.Vendors)
			counts["products"] = len(payload.Data.Products)
			counts["shops"] = len(payload.Data.Shops)
			counts["inventory_adjustments"] = len(payload.Data.InventoryAdjustments)
			return nil
		})
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Import failed: "+err.Error())
		}

		return c.JSON(fiber.Map{"imported": counts})
	}
}
