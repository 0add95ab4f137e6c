package admin

import (
	"poultrypos-backend/internal/database"
	"poultrypos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type UserResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	ShopID    *uint  `json:"shop_id"`
	ShopName  string `json:"shop_name,omitempty"`
	CreatedAt string `json:"created_at"`
}

// GET /api/admin/users
func ListUsersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var users []models.User
		if err := database.DB.Preload("Shop").Order("created_at").Find(&users).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list users")
		}

		res := make([]UserResponse, 0, len(users))
		for _, u := range users {
			r := UserResponse{
				ID:        u.ID,
				Name:      u.Name,
				Email:     u.Email,
				Role:      string(u.Role),
				ShopID:    u.ShopID,
				CreatedAt: u.CreatedAt.Format("2006-01-02 15:04:05"),
			}
			if u.Shop != nil {
				r.ShopName = u.Shop.Name
			}
			res = append(res, r)
		}

		return c.JSON(res)
	}
}

// DELETE /api/admin/users/:id
func DeleteUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var user models.User
		if err := database.DB.First(&user, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "User not found")
		}

		if user.Role == models.RoleAdmin {
			var adminCount int64
			database.DB.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&adminCount)
			if adminCount <= 1 {
				return fiber.NewError(fiber.StatusBadRequest, "Cannot delete the last admin")
			}
		}

		if err := database.DB.Delete(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete user")
		}

		return c.JSON(fiber.Map{"deleted": user.ID})
	}
}
