package catalog

import (
	"strings"

	"recete-backend/internal/database"
	"recete-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type SupplierResponse struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

type CreateSupplierRequest struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

// GET /api/suppliers
func ListSuppliersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var suppliers []models.Supplier
		if err := database.DB.Order("name asc").Find(&suppliers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tedarikçiler listelenemedi")
		}

		res := make([]SupplierResponse, 0, len(suppliers))
		for _, s := range suppliers {
			res = append(res, SupplierResponse{ID: s.ID, Name: s.Name, Contact: s.Contact})
		}
		return c.JSON(res)
	}
}

// POST /api/suppliers
func CreateSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateSupplierRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name zorunlu")
		}

		s := models.Supplier{Name: body.Name, Contact: body.Contact}
		if err := database.DB.Create(&s).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tedarikçi oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(SupplierResponse{ID: s.ID, Name: s.Name, Contact: s.Contact})
	}
}
