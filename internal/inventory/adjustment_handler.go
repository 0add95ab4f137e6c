package inventory

import (
	"fmt"

	"poultrypos-backend/internal/audit"
	"poultrypos-backend/internal/database"
	"poultrypos-backend/internal/models"
	"poultrypos-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
)

type CreateAdjustmentRequest struct {
	ShopID    *uint   `json:"shop_id"`
	ProductID uint    `json:"product_id"`
	Quantity  float64 `json:"quantity"` // loss amount, must be positive
	Reason    string  `json:"reason"`   // damage, theft, expiry, other
	Note      string  `json:"note"`
}

type AdjustmentResponse struct {
	ID          uint    `json:"id"`
	ShopID      uint    `json:"shop_id"`
	ProductID   uint    `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    float64 `json:"quantity"`
	Reason      string  `json:"reason"`
	Note        string  `json:"note"`
	CreatedAt   string  `json:"created_at"`
}

func validLossReason(r models.AdjustmentReason) bool {
	switch r {
	case models.ReasonDamage, models.ReasonTheft, models.ReasonExpiry, models.ReasonOther:
		return true
	}
	// manual_correction rows are only written by the set-quantity flow
	return false
}

// POST /api/adjustments
// Records a loss and decrements stock in one transaction.
func CreateAdjustmentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateAdjustmentRequest
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
		if body.Quantity <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "quantity must be positive")
		}
		reason := models.AdjustmentReason(body.Reason)
		if !validLossReason(reason) {
			return fiber.NewError(fiber.StatusBadRequest, "reason must be one of: damage, theft, expiry, other")
		}

		var product models.Product
		if err := database.DB.First(&product, "id = ?", body.ProductID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Product not found")
		}

		adj, err := stock.RecordLoss(database.DB, shopID, body.ProductID, body.Quantity, reason, body.Note)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if userID, userName, uerr := getUserInfo(c); uerr == nil {
			_ = audit.WriteLog(audit.LogOptions{
				ShopID:      &shopID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "inventory_adjustment",
				EntityID:    adj.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Loss: %s - %g %s (%s)", product.Name, adj.Quantity, product.UnitType, adj.Reason),
				After:       adj,
			})
		}

		return c.Status(fiber.StatusCreated).JSON(AdjustmentResponse{
			ID:          adj.ID,
			ShopID:      adj.ShopID,
			ProductID:   adj.ProductID,
			ProductName: product.Name,
			Quantity:    adj.Quantity,
			Reason:      string(adj.Reason),
			Note:        adj.Note,
			CreatedAt:   adj.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
}

// GET /api/adjustments
func ListAdjustmentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		shopID, err := resolveShopIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		var adjustments []models.InventoryAdjustment
		if err := database.DB.
			Preload("Product").
			Where("shop_id = ?", shopID).
			Order("created_at DESC").
			Find(&adjustments).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list adjustments")
		}

		res := make([]AdjustmentResponse, 0, len(adjustments))
		for _, a := range adjustments {
			res = append(res, AdjustmentResponse{
				ID:          a.ID,
				ShopID:      a.ShopID,
				ProductID:   a.ProductID,
				ProductName: a.Product.Name,
				Quantity:    a.Quantity,
				Reason:      string(a.Reason),
				Note:        a.Note,
				CreatedAt:   a.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}

		return c.JSON(res)
	}
}
