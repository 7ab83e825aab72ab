package catalog

import (
	"recete-backend/internal/units"

	"github.com/gofiber/fiber/v2"
)

// GET /api/units/:unit/compatible (picker listeleri için)
func CompatibleUnitsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := units.Unit(c.Params("unit"))
		if !units.IsValid(u) {
			return fiber.NewError(fiber.StatusBadRequest, "Bilinmeyen birim")
		}
		return c.JSON(fiber.Map{
			"unit":       u,
			"compatible": units.CompatibleUnits(u),
		})
	}
}
