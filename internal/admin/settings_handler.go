package admin

import (
	"errors"

	"poultrypos-backend/internal/database"
	"poultrypos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CompanySettingsRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	TaxID   string `json:"tax_id"`
	Website string `json:"website"`
}

// GET /api/admin/settings
func GetCompanySettingsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var settings models.CompanySettings
		err := database.DB.First(&settings).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(models.CompanySettings{})
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load settings")
		}

		return c.JSON(settings)
	}
}

// PUT /api/admin/settings
// Upserts the single company profile row.
func UpdateCompanySettingsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CompanySettingsRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		var settings models.CompanySettings
		err := database.DB.First(&settings).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load settings")
		}

		settings.Name = body.Name
		settings.Address = body.Address
		settings.Phone = body.Phone
		settings.Email = body.Email
		settings.TaxID = body.TaxID
		settings.Website = body.Website

		if err := database.DB.Save(&settings).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not save settings")
		}

		return c.JSON(settings)
	}
}
