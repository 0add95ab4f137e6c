package purchase

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"poultrypos-backend/internal/audit"
	"poultrypos-backend/internal/database"
	"poultrypos-backend/internal/models"
	"poultrypos-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
)

type PurchaseLineRequest struct {
	ProductID uint    `json:"product_id"`
	Quantity  float64 `json:"quantity"`
	UnitCost  float64 `json:"unit_cost"`
}

type CreatePurchaseRequest struct {
	ShopID   *uint                 `json:"shop_id"` // admin only, staff use their token
	VendorID uint                  `json:"vendor_id"`
	Remarks  string                `json:"remarks"`
	Date     string                `json:"date"` // "2006-01-02", optional backdating
	Items    []PurchaseLineRequest `json:"items"`
}

type PurchaseItemResponse struct {
	ID          uint    `json:"id"`
	ProductID   uint    `json:"product_id"`
	ProductName string  `json:"product_name"`
	UnitType    string  `json:"unit_type"`
	Quantity    float64 `json:"quantity"`
	UnitCost    float64 `json:"unit_cost"`
	TotalCost   float64 `json:"total_cost"`
}

type PurchaseResponse struct {
	ID         uint                   `json:"id"`
	ShopID     uint                   `json:"shop_id"`
	ShopName   string                 `json:"shop_name"`
	VendorID   uint                   `json:"vendor_id"`
	VendorName string                 `json:"vendor_name"`
	TotalCost  float64                `json:"total_cost"`
	Remarks    string                 `json:"remarks"`
	CreatedAt  string                 `json:"created_at"`
	Items      []PurchaseItemResponse `json:"items"`
}

type UpdateItemQuantityRequest struct {
	Quantity float64 `json:"quantity"`
}

func purchaseToResponse(p models.Purchase) PurchaseResponse {
	resp := PurchaseResponse{
		ID:         p.ID,
		ShopID:     p.ShopID,
		ShopName:   p.Shop.Name,
		VendorID:   p.VendorID,
		VendorName: p.Vendor.Name,
		TotalCost:  p.TotalCost,
		Remarks:    p.Remarks,
		CreatedAt:  p.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	for _, item := range p.Items {
		resp.Items = append(resp.Items, PurchaseItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.Product.Name,
			UnitType:    string(item.Product.UnitType),
			Quantity:    item.Quantity,
			UnitCost:    item.UnitCost,
			TotalCost:   item.TotalCost,
		})
	}
	return resp
}

// POST /api/purchases
// Stock-in: header, line items and stock increments in one transaction, so a
// failed line can never leave an orphaned header behind.
func CreatePurchaseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreatePurchaseRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		shopID, err := resolveShopIDFromBodyOrRole(c, body.ShopID)
		if err != nil {
			return err
		}

		var shop models.Shop
		if err := database.DB.First(&shop, "id = ?", shopID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Shop not found (ID: %d)", shopID))
		}

		if body.VendorID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "vendor_id is required")
		}
		if len(body.Items) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Purchase needs at least one item")
		}
		for _, item := range body.Items {
			if item.ProductID == 0 || item.Quantity <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Every item needs a product_id and a positive quantity")
			}
			if item.UnitCost < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "unit_cost cannot be negative")
			}
		}

		at := time.Now()
		if body.Date != "" {
			d, err := time.Parse("2006-01-02", body.Date)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Date must be 'YYYY-MM-DD'")
			}
			at = time.Date(d.Year(), d.Month(), d.Day(), at.Hour(), at.Minute(), at.Second(), 0, at.Location())
		}

		lines := make([]stock.PurchaseLine, 0, len(body.Items))
		for _, item := range body.Items {
			lines = append(lines, stock.PurchaseLine{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitCost:  item.UnitCost,
			})
		}

		p, err := stock.RecordPurchase(database.DB, shopID, body.VendorID, body.Remarks, at, lines)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if userID, userName, uerr := getUserInfo(c); uerr == nil {
			_ = audit.WriteLog(audit.LogOptions{
				ShopID:      &shopID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "purchase",
				EntityID:    p.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Stock in, %d items, total cost %.2f", len(p.Items), p.TotalCost),
				After:       p,
			})
		}

		// reload with associations for the response
		var full models.Purchase
		if err := database.DB.Preload("Items.Product").Preload("Shop").Preload("Vendor").
			First(&full, "id = ?", p.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Purchase saved but could not be reloaded")
		}

		return c.Status(fiber.StatusCreated).JSON(purchaseToResponse(full))
	}
}

// GET /api/purchases?date=2006-01-02
func ListPurchasesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		shopID, err := resolveShopIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		query := database.DB.
			Preload("Items.Product").
			Preload("Shop").
			Preload("Vendor").
			Where("shop_id = ?", shopID).
			Order("created_at DESC")

		if dateStr := c.Query("date"); dateStr != "" {
			d, err := time.Parse("2006-01-02", dateStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "date must be 'YYYY-MM-DD'")
			}
			query = query.Where("created_at >= ? AND created_at < ?", d, d.AddDate(0, 0, 1))
		}

		var purchases []models.Purchase
		if err := query.Find(&purchases).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list purchases")
		}

		res := make([]PurchaseResponse, 0, len(purchases))
		for _, p := range purchases {
			res = append(res, purchaseToResponse(p))
		}

		return c.JSON(res)
	}
}

// DELETE /api/purchases/:id
// Deducts every line's previously added stock, then removes the purchase.
func DeletePurchaseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseUint(c.Params("id"), 10, 32)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Purchase id is invalid")
		}

		var p models.Purchase
		if err := database.DB.Preload("Items").First(&p, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Purchase not found")
		}

		if err := checkShopAccess(c, p.ShopID); err != nil {
			return err
		}

		if err := stock.DeletePurchase(database.DB, p.ID); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete purchase")
		}

		if userID, userName, uerr := getUserInfo(c); uerr == nil {
			_ = audit.WriteLog(audit.LogOptions{
				ShopID:      &p.ShopID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "purchase",
				EntityID:    p.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Purchase reversed, %d items deducted from stock", len(p.Items)),
				Before:      p,
			})
		}

		return c.JSON(fiber.Map{"deleted": p.ID})
	}
}

// PUT /api/purchases/items/:id
func UpdatePurchaseItemQuantityHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseUint(c.Params("id"), 10, 32)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Item id is invalid")
		}

		var item models.PurchaseItem
		if err := database.DB.Preload("Product").First(&item, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Purchase item not found")
		}
		var p models.Purchase
		if err := database.DB.First(&p, "id = ?", item.PurchaseID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Purchase header not found")
		}
		if err := checkShopAccess(c, p.ShopID); err != nil {
			return err
		}

		var body UpdateItemQuantityRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.Quantity < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "quantity cannot be negative")
		}

		delta, err := stock.UpdatePurchaseItemQuantity(database.DB, item.ID, body.Quantity)
		if errors.Is(err, stock.ErrConflict) {
			return fiber.NewError(fiber.StatusConflict, "Item was changed by someone else, reload and retry")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update item")
		}

		if userID, userName, uerr := getUserInfo(c); uerr == nil {
			_ = audit.WriteLog(audit.LogOptions{
				ShopID:      &p.ShopID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "purchase_item",
				EntityID:    item.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("%s: %g -> %g", item.Product.Name, item.Quantity, body.Quantity),
				Before:      item,
			})
		}

		return c.JSON(fiber.Map{
			"item_id":     item.ID,
			"quantity":    body.Quantity,
			"stock_delta": delta,
		})
	}
}
