package inventory

import (
	"fmt"
	"strconv"

	"poultrypos-backend/internal/audit"
	"poultrypos-backend/internal/database"
	"poultrypos-backend/internal/models"
	"poultrypos-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
)

const lowStockThreshold = 10

type InventoryRowResponse struct {
	ProductID   uint    `json:"product_id"`
	ProductName string  `json:"product_name"`
	Category    string  `json:"category"`
	UnitType    string  `json:"unit_type"`
	Quantity    float64 `json:"quantity"`
	Status      string  `json:"status"` // Good / Low / Out of Stock
	LastUpdated string  `json:"last_updated,omitempty"`
}

type SetQuantityRequest struct {
	ShopID    *uint   `json:"shop_id"`
	ProductID uint    `json:"product_id"`
	Quantity  float64 `json:"quantity"`
}

func stockStatus(qty float64) string {
	switch {
	case qty <= 0:
		return "Out of Stock"
	case qty < lowStockThreshold:
		return "Low"
	}
	return "Good"
}

// GET /api/inventory
// Stock levels for a shop. Every active product shows up, with 0 for rows the
// ledger never touched.
func ListInventoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		shopID, err := resolveShopIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		var products []models.Product
		if err := database.DB.Where("is_active = ?", true).Order("name").Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list products")
		}

		var rows []models.Inventory
		if err := database.DB.Where("shop_id = ?", shopID).Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list inventory")
		}
		byProduct := make(map[uint]models.Inventory, len(rows))
		for _, r := range rows {
			byProduct[r.ProductID] = r
		}

		res := make([]InventoryRowResponse, 0, len(products))
		for _, p := range products {
			row := InventoryRowResponse{
				ProductID:   p.ID,
				ProductName: p.Name,
				Category:    p.Category,
				UnitType:    string(p.UnitType),
			}
			if inv, ok := byProduct[p.ID]; ok {
				row.Quantity = inv.Quantity
				row.LastUpdated = inv.UpdatedAt.Format("2006-01-02 15:04:05")
			}
			row.Status = stockStatus(row.Quantity)
			res = append(res, row)
		}

		return c.JSON(res)
	}
}

// PUT /api/inventory
// Manual stock edit. The delta against the stored counter is computed inside
// the transaction and booked as a manual_correction adjustment, so the ledger
// still explains the counter afterwards.
func SetQuantityHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SetQuantityRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		shopID, err := resolveShopIDFromBodyOrRole(c, body.ShopID)
		if err != nil {
			return err
		}
		if body.ProductID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "product_id is required")
		}

		var product models.Product
		if err := database.DB.First(&product, "id = ?", body.ProductID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Product not found")
		}

		delta, err := stock.SetQuantity(database.DB, shopID, body.ProductID, body.Quantity)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update stock")
		}

		if userID, userName, uerr := getUserInfo(c); uerr == nil && delta != 0 {
			_ = audit.WriteLog(audit.LogOptions{
				ShopID:      &shopID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "inventory",
				EntityID:    body.ProductID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Manual stock edit: %s set to %g (delta %+g)", product.Name, body.Quantity, delta),
			})
		}

		return c.JSON(fiber.Map{
			"shop_id":    shopID,
			"product_id": body.ProductID,
			"quantity":   body.Quantity,
			"delta":      delta,
		})
	}
}

// POST /api/inventory/reconcile?repair=true
// Replays the purchase/sale/adjustment ledger and reports counters that have
// drifted. With repair, drifting counters are reset to the ledger value.
func ReconcileHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		shopID, err := resolveShopIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		repair := c.Query("repair") == "true"

		drifts, err := stock.Reconcile(database.DB, shopID, repair)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Reconciliation failed")
		}

		if repair && len(drifts) > 0 {
			if userID, userName, uerr := getUserInfo(c); uerr == nil {
				_ = audit.WriteLog(audit.LogOptions{
					ShopID:      &shopID,
					UserID:      userID,
					UserName:    userName,
					EntityType:  "inventory",
					Action:      models.AuditActionUpdate,
					Description: fmt.Sprintf("Reconciliation repaired %d drifted counters", len(drifts)),
					After:       drifts,
				})
			}
		}

		if drifts == nil {
			drifts = []stock.Drift{}
		}
		return c.JSON(fiber.Map{
			"shop_id":  shopID,
			"drifts":   drifts,
			"repaired": repair && len(drifts) > 0,
		})
	}
}

// GET /api/inventory/current?product_id=N
func GetCurrentStockHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		shopID, err := resolveShopIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		pid, err := strconv.ParseUint(c.Query("product_id"), 10, 32)
		if err != nil || pid == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "product_id is required")
		}

		qty, err := stock.Current(database.DB, shopID, uint(pid))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not read stock")
		}

		return c.JSON(fiber.Map{
			"shop_id":    shopID,
			"product_id": uint(pid),
			"quantity":   qty,
			"status":     stockStatus(qty),
		})
	}
}
