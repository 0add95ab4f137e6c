package catalog

import (
	"strings"

	"poultrypos-backend/internal/database"
	"poultrypos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type ProductResponse struct {
	ID        uint    `json:"id"`
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	BasePrice float64 `json:"base_price"`
	UnitType  string  `json:"unit_type"`
	IsActive  bool    `json:"is_active"`
	CreatedAt string  `json:"created_at"`
}

type CreateProductRequest struct {
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	BasePrice float64 `json:"base_price"`
	UnitType  string  `json:"unit_type"` // "Kg" or "Qty"
}

type UpdateProductRequest struct {
	Name      *string  `json:"name"`
	Category  *string  `json:"category"`
	BasePrice *float64 `json:"base_price"`
	UnitType  *string  `json:"unit_type"`
	IsActive  *bool    `json:"is_active"`
}

func productToResponse(p models.Product) ProductResponse {
	return ProductResponse{
		ID:        p.ID,
		Name:      p.Name,
		Category:  p.Category,
		BasePrice: p.BasePrice,
		UnitType:  string(p.UnitType),
		IsActive:  p.IsActive,
		CreatedAt: p.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func parseUnitType(s string) (models.UnitType, bool) {
	switch models.UnitType(s) {
	case models.UnitKg:
		return models.UnitKg, true
	case models.UnitQty, "":
		return models.UnitQty, true
	}
	return "", false
}

func CreateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Product name cannot be empty")
		}
		if body.BasePrice < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "base_price cannot be negative")
		}
		unit, ok := parseUnitType(body.UnitType)
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "unit_type must be 'Kg' or 'Qty'")
		}

		product := models.Product{
			Name:      body.Name,
			Category:  strings.TrimSpace(body.Category),
			BasePrice: body.BasePrice,
			UnitType:  unit,
			IsActive:  true,
		}

		if err := database.DB.Create(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Could not create product (name may already exist)")
		}

		return c.Status(fiber.StatusCreated).JSON(productToResponse(product))
	}
}

// GET /api/products?search=&active=true
func ListProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := database.DB.Model(&models.Product{}).Order("name")

		if search := c.Query("search"); search != "" {
			query = query.Where("name LIKE ?", "%"+search+"%")
		}
		if c.Query("active") == "true" {
			query = query.Where("is_active = ?", true)
		}

		var products []models.Product
		if err := query.Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list products")
		}

		res := make([]ProductResponse, 0, len(products))
		for _, p := range products {
			res = append(res, productToResponse(p))
		}

		return c.JSON(res)
	}
}

func UpdateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var product models.Product
		if err := database.DB.First(&product, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Product not found")
		}

		var body UpdateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Product name cannot be empty")
			}
			product.Name = name
		}
		if body.Category != nil {
			product.Category = strings.TrimSpace(*body.Category)
		}
		if body.BasePrice != nil {
			if *body.BasePrice < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "base_price cannot be negative")
			}
			product.BasePrice = *body.BasePrice
		}
		if body.UnitType != nil {
			unit, ok := parseUnitType(*body.UnitType)
			if !ok {
				return fiber.NewError(fiber.StatusBadRequest, "unit_type must be 'Kg' or 'Qty'")
			}
			product.UnitType = unit
		}
		if body.IsActive != nil {
			product.IsActive = *body.IsActive
		}

		if err := database.DB.Save(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update product")
		}

		return c.JSON(productToResponse(product))
	}
}

func DeleteProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var product models.Product
		if err := database.DB.First(&product, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Product not found")
		}

		// products referenced from the ledger are deactivated, not deleted,
		// otherwise historical lines would dangle
		var refCount int64
		database.DB.Model(&models.SaleItem{}).Where("product_id = ?", product.ID).Count(&refCount)
		if refCount == 0 {
			database.DB.Model(&models.PurchaseItem{}).Where("product_id = ?", product.ID).Count(&refCount)
		}
		if refCount > 0 {
			product.IsActive = false
			if err := database.DB.Save(&product).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Could not deactivate product")
			}
			return c.JSON(fiber.Map{"deactivated": product.ID})
		}

		if err := database.DB.Delete(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete product")
		}

		return c.JSON(fiber.Map{"deleted": product.ID})
	}
}
