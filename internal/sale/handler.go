package sale

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

type CartItem struct {
	ProductID uint    `json:"product_id"`
	Quantity  float64 `json:"quantity"`
}

type CreateSaleRequest struct {
	ShopID        *uint      `json:"shop_id"` // admin only, staff use their token
	PaymentMethod string     `json:"payment_method"`
	Date          string     `json:"date"` // "2006-01-02", optional backdating
	Items         []CartItem `json:"items"`
}

type SaleItemResponse struct {
	ID          uint    `json:"id"`
	ProductID   uint    `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	TotalPrice  float64 `json:"total_price"`
}

type SaleResponse struct {
	ID            uint               `json:"id"`
	ShopID        uint               `json:"shop_id"`
	ShopName      string             `json:"shop_name"`
	TotalAmount   float64            `json:"total_amount"`
	PaymentMethod string             `json:"payment_method"`
	Status        string             `json:"status"`
	CreatedAt     string             `json:"created_at"`
	Items         []SaleItemResponse `json:"items"`
}

type UpdateItemQuantityRequest struct {
	Quantity float64 `json:"quantity"`
}

func saleToResponse(s models.Sale) SaleResponse {
	resp := SaleResponse{
		ID:            s.ID,
		ShopID:        s.ShopID,
		ShopName:      s.Shop.Name,
		TotalAmount:   s.TotalAmount,
		PaymentMethod: s.PaymentMethod,
		Status:        string(s.Status),
		CreatedAt:     s.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	for _, item := range s.Items {
		resp.Items = append(resp.Items, SaleItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice,
		})
	}
	return resp
}

// saleTimestamp combines an optional backdate with the current clock time so
// same-day sales keep their ordering.
func saleTimestamp(dateStr string) (time.Time, error) {
	if dateStr == "" {
		return time.Now(), nil
	}
	d, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return time.Time{}, err
	}
	now := time.Now()
	return time.Date(d.Year(), d.Month(), d.Day(),
		now.Hour(), now.Minute(), now.Second(), 0, now.Location()), nil
}

// POST /api/sales
// The POS checkout: header, items and stock decrements land in one
// transaction.
func CreateSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateSaleRequest
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

		if len(body.Items) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Cart is empty")
		}
		for _, item := range body.Items {
			if item.ProductID == 0 || item.Quantity <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Every item needs a product_id and a positive quantity")
			}
		}

		at, err := saleTimestamp(body.Date)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Date must be 'YYYY-MM-DD'")
		}

		paymentMethod := body.PaymentMethod
		if paymentMethod == "" {
			paymentMethod = "cash"
		}

		lines := make([]stock.SaleLine, 0, len(body.Items))
		for _, item := range body.Items {
			lines = append(lines, stock.SaleLine{ProductID: item.ProductID, Quantity: item.Quantity})
		}

		s, err := stock.RecordSale(database.DB, shopID, paymentMethod, at, lines)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if userID, userName, uerr := getUserInfo(c); uerr == nil {
			_ = audit.WriteLog(audit.LogOptions{
				ShopID:      &shopID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "sale",
				EntityID:    s.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Sale of %d items, total %.2f", len(s.Items), s.TotalAmount),
				After:       s,
			})
		}

		s.Shop = shop
		return c.Status(fiber.StatusCreated).JSON(saleToResponse(*s))
	}
}

// GET /api/sales?date=2006-01-02&status=completed
func ListSalesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		shopID, err := resolveShopIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		query := database.DB.
			Preload("Items").
			Preload("Shop").
			Where("shop_id = ?", shopID).
			Order("created_at DESC")

		if dateStr := c.Query("date"); dateStr != "" {
			d, err := time.Parse("2006-01-02", dateStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "date must be 'YYYY-MM-DD'")
			}
			query = query.Where("created_at >= ? AND created_at < ?", d, d.AddDate(0, 0, 1))
		}
		if status := c.Query("status"); status != "" && status != "all" {
			query = query.Where("status = ?", status)
		}

		var sales []models.Sale
		if err := query.Find(&sales).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list sales")
		}

		res := make([]SaleResponse, 0, len(sales))
		for _, s := range sales {
			res = append(res, saleToResponse(s))
		}

		return c.JSON(res)
	}
}

// DELETE /api/sales/:id
// Returns every sold unit to stock, then removes the sale, atomically.
func DeleteSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseUint(c.Params("id"), 10, 32)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Sale id is invalid")
		}

		var s models.Sale
		if err := database.DB.Preload("Items").First(&s, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sale not found")
		}

		if err := checkShopAccess(c, s.ShopID); err != nil {
			return err
		}

		if err := stock.DeleteSale(database.DB, s.ID); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete sale")
		}

		if userID, userName, uerr := getUserInfo(c); uerr == nil {
			_ = audit.WriteLog(audit.LogOptions{
				ShopID:      &s.ShopID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "sale",
				EntityID:    s.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Sale deleted, %d items returned to stock", len(s.Items)),
				Before:      s,
			})
		}

		return c.JSON(fiber.Map{"deleted": s.ID})
	}
}

// PUT /api/sales/items/:id
// Moves a line to a target quantity; the stock delta is computed against the
// stored value, so repeating the call with the same target is a no-op.
func UpdateSaleItemQuantityHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseUint(c.Params("id"), 10, 32)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Item id is invalid")
		}

		var item models.SaleItem
		if err := database.DB.First(&item, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sale item not found")
		}
		var s models.Sale
		if err := database.DB.First(&s, "id = ?", item.SaleID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sale header not found")
		}
		if err := checkShopAccess(c, s.ShopID); err != nil {
			return err
		}

		var body UpdateItemQuantityRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.Quantity < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "quantity cannot be negative")
		}

		delta, err := stock.UpdateSaleItemQuantity(database.DB, item.ID, body.Quantity)
		if errors.Is(err, stock.ErrConflict) {
			return fiber.NewError(fiber.StatusConflict, "Item was changed by someone else, reload and retry")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update item")
		}

		if userID, userName, uerr := getUserInfo(c); uerr == nil {
			_ = audit.WriteLog(audit.LogOptions{
				ShopID:      &s.ShopID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "sale_item",
				EntityID:    item.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("%s: %g -> %g", item.ProductName, item.Quantity, body.Quantity),
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
