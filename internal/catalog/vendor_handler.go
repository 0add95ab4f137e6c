package catalog

import (
	"strings"

	"poultrypos-backend/internal/database"
	"poultrypos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type VendorResponse struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
}

type CreateVendorRequest struct {
	Name          string `json:"name"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
}

type UpdateVendorRequest struct {
	Name          *string `json:"name"`
	ContactPerson *string `json:"contact_person"`
	Phone         *string `json:"phone"`
	Status        *string `json:"status"`
}

func vendorToResponse(v models.Vendor) VendorResponse {
	return VendorResponse{
		ID:            v.ID,
		Name:          v.Name,
		ContactPerson: v.ContactPerson,
		Phone:         v.Phone,
		Status:        string(v.Status),
		CreatedAt:     v.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func CreateVendorHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateVendorRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Vendor name cannot be empty")
		}

		vendor := models.Vendor{
			Name:          body.Name,
			ContactPerson: strings.TrimSpace(body.ContactPerson),
			Phone:         strings.TrimSpace(body.Phone),
			Status:        models.VendorStatusActive,
		}

		if err := database.DB.Create(&vendor).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Could not create vendor (name may already exist)")
		}

		return c.Status(fiber.StatusCreated).JSON(vendorToResponse(vendor))
	}
}

// GET /api/vendors?status=Active
func ListVendorsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := database.DB.Model(&models.Vendor{}).Order("name")

		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}

		var vendors []models.Vendor
		if err := query.Find(&vendors).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list vendors")
		}

		res := make([]VendorResponse, 0, len(vendors))
		for _, v := range vendors {
			res = append(res, vendorToResponse(v))
		}

		return c.JSON(res)
	}
}

func UpdateVendorHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var vendor models.Vendor
		if err := database.DB.First(&vendor, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Vendor not found")
		}

		var body UpdateVendorRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Vendor name cannot be empty")
			}
			vendor.Name = name
		}
		if body.ContactPerson != nil {
			vendor.ContactPerson = strings.TrimSpace(*body.ContactPerson)
		}
		if body.Phone != nil {
			vendor.Phone = strings.TrimSpace(*body.Phone)
		}
		if body.Status != nil {
			status := models.VendorStatus(*body.Status)
			if status != models.VendorStatusActive && status != models.VendorStatusInactive {
				return fiber.NewError(fiber.StatusBadRequest, "status must be 'Active' or 'Inactive'")
			}
			vendor.Status = status
		}

		if err := database.DB.Save(&vendor).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update vendor")
		}

		return c.JSON(vendorToResponse(vendor))
	}
}

func DeleteVendorHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var vendor models.Vendor
		if err := database.DB.First(&vendor, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Vendor not found")
		}

		var purchaseCount int64
		database.DB.Model(&models.Purchase{}).Where("vendor_id = ?", vendor.ID).Count(&purchaseCount)
		if purchaseCount > 0 {
			vendor.Status = models.VendorStatusInactive
			if err := database.DB.Save(&vendor).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Could not deactivate vendor")
			}
			return c.JSON(fiber.Map{"deactivated": vendor.ID})
		}

		if err := database.DB.Delete(&vendor).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete vendor")
		}

		return c.JSON(fiber.Map{"deleted": vendor.ID})
	}
}
