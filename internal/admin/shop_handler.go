package admin

import (
	"strings"

	"poultrypos-backend/internal/database"
	"poultrypos-backend/internal/models"
	"poultrypos-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type ShopResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

type CreateShopRequest struct {
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Phone   *string `json:"phone"`
}

type UpdateShopRequest struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
	Status  *string `json:"status"`
}

type CreateShopStaffRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func shopToResponse(s models.Shop) ShopResponse {
	return ShopResponse{
		ID:        s.ID,
		Name:      s.Name,
		Address:   s.Address,
		Phone:     s.Phone,
		Status:    string(s.Status),
		CreatedAt: s.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// ----------------------------------------
// Shop CRUD
// ----------------------------------------

func CreateShopHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateShopRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Shop name cannot be empty")
		}

		shop := models.Shop{
			Name:    body.Name,
			Address: body.Address,
			Status:  models.ShopStatusActive,
		}
		if body.Phone != nil {
			shop.Phone = strings.TrimSpace(*body.Phone)
		}

		if err := database.DB.Create(&shop).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create shop")
		}

		return c.Status(fiber.StatusCreated).JSON(shopToResponse(shop))
	}
}

func ListShopsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var shops []models.Shop
		if err := database.DB.Order("name").Find(&shops).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list shops")
		}

		res := make([]ShopResponse, 0, len(shops))
		for _, s := range shops {
			res = append(res, shopToResponse(s))
		}

		return c.JSON(res)
	}
}

func GetShopHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var shop models.Shop
		if err := database.DB.First(&shop, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Shop not found")
		}

		return c.JSON(shopToResponse(shop))
	}
}

func UpdateShopHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var shop models.Shop
		if err := database.DB.First(&shop, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Shop not found")
		}

		var body UpdateShopRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Shop name cannot be empty")
			}
			shop.Name = name
		}
		if body.Address != nil {
			shop.Address = *body.Address
		}
		if body.Phone != nil {
			shop.Phone = strings.TrimSpace(*body.Phone)
		}
		if body.Status != nil {
			status := models.ShopStatus(*body.Status)
			if status != models.ShopStatusActive && status != models.ShopStatusInactive {
				return fiber.NewError(fiber.StatusBadRequest, "status must be 'active' or 'inactive'")
			}
			shop.Status = status
		}

		if err := database.DB.Save(&shop).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update shop")
		}

		return c.JSON(shopToResponse(shop))
	}
}

func DeleteShopHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var shop models.Shop
		if err := database.DB.First(&shop, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Shop not found")
		}

		var saleCount int64
		database.DB.Model(&models.Sale{}).Where("shop_id = ?", shop.ID).Count(&saleCount)
		if saleCount > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Shop has recorded sales, reset its data first")
		}

		if err := database.DB.Delete(&shop).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete shop")
		}

		return c.JSON(fiber.Map{"deleted": shop.ID})
	}
}

// POST /api/admin/shops/:id/reset
// Wipes a shop's sales, purchases, adjustments and stock counters in one
// transaction. The catalog is shared and untouched.
func ResetShopDataHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var shop models.Shop
		if err := database.DB.First(&shop, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Shop not found")
		}

		if err := stock.ResetShopData(database.DB, shop.ID); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not reset shop data")
		}

		return c.JSON(fiber.Map{"reset": shop.ID})
	}
}

// ----------------------------------------
// Shop staff
// ----------------------------------------

func CreateShopStaffHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var shop models.Shop
		if err := database.DB.First(&shop, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Shop not found")
		}

		var body CreateShopStaffRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		if body.Name == "" || body.Email == "" || body.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name, email and password are required")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not hash password")
		}

		user := models.User{
			ShopID:       &shop.ID,
			Name:         body.Name,
			Email:        body.Email,
			PasswordHash: string(hash),
			Role:         models.RoleShopStaff,
		}

		if err := database.DB.Create(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Could not create user (email may already be in use)")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":      user.ID,
			"name":    user.Name,
			"email":   user.Email,
			"role":    user.Role,
			"shop_id": user.ShopID,
		})
	}
}

func ListShopStaffHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var users []models.User
		if err := database.DB.Where("shop_id = ?", id).Find(&users).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list staff")
		}

		res := make([]fiber.Map, 0, len(users))
		for _, u := range users {
			res = append(res, fiber.Map{
				"id":      u.ID,
				"name":    u.Name,
				"email":   u.Email,
				"role":    u.Role,
				"shop_id": u.ShopID,
			})
		}

		return c.JSON(res)
	}
}
