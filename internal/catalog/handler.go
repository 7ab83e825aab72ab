package catalog

import (
	"strings"
	"time"

	"recete-backend/internal/costing"
	"recete-backend/internal/database"
	"recete-backend/internal/models"
	"recete-backend/internal/units"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type IngredientResponse struct {
	ID                  uint             `json:"id"`
	Name                string           `json:"name"`
	StandardUnit        string           `json:"standard_unit"`
	DefaultYieldPercent decimal.Decimal  `json:"default_yield_percent"`
	ManualPrice         *decimal.Decimal `json:"manual_price,omitempty"`
	IsFree              bool             `json:"is_free"`
}

type CreateIngredientRequest struct {
	Name                string           `json:"name"`
	StandardUnit        string           `json:"standard_unit"`
	DefaultYieldPercent *decimal.Decimal `json:"default_yield_percent"`
	ManualPrice         *decimal.Decimal `json:"manual_price"`
	IsFree              bool             `json:"is_free"`
}

type UpdateIngredientRequest struct {
	Name                *string          `json:"name"`
	DefaultYieldPercent *decimal.Decimal `json:"default_yield_percent"`
	ManualPrice         *decimal.Decimal `json:"manual_price"`
	ClearManualPrice    bool             `json:"clear_manual_price"`
	IsFree              *bool            `json:"is_free"`
}

func toIngredientResponse(i *models.Ingredient) IngredientResponse {
	return IngredientResponse{
		ID:                  i.ID,
		Name:                i.Name,
		StandardUnit:        i.StandardUnit,
		DefaultYieldPercent: i.DefaultYieldPercent,
		ManualPrice:         i.ManualPrice,
		IsFree:              i.IsFree,
	}
}

// GET /api/ingredients
func ListIngredientsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var ingredients []models.Ingredient
		if err := database.DB.Order("name asc").Find(&ingredients).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Malzemeler listelenemedi")
		}

		res := make([]IngredientResponse, 0, len(ingredients))
		for i := range ingredients {
			res = append(res, toIngredientResponse(&ingredients[i]))
		}
		return c.JSON(res)
	}
}

// POST /api/ingredients
func CreateIngredientHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateIngredientRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name zorunlu")
		}
		if !units.IsValid(units.Unit(body.StandardUnit)) || units.Unit(body.StandardUnit) == units.Portion {
			return fiber.NewError(fiber.StatusBadRequest, "standard_unit g, kg, ml, ltr veya each olmalı")
		}

		yield := decimal.NewFromInt(100)
		if body.DefaultYieldPercent != nil {
			if !body.DefaultYieldPercent.IsPositive() || body.DefaultYieldPercent.GreaterThan(decimal.NewFromInt(100)) {
				return fiber.NewError(fiber.StatusBadRequest, "default_yield_percent (0, 100] aralığında olmalı")
			}
			yield = *body.DefaultYieldPercent
		}

		ing := models.Ingredient{
			Name:                body.Name,
			StandardUnit:        body.StandardUnit,
			DefaultYieldPercent: yield,
			ManualPrice:         body.ManualPrice,
			IsFree:              body.IsFree,
		}

		if err := database.DB.Create(&ing).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Malzeme oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(toIngredientResponse(&ing))
	}
}

// PUT /api/ingredients/:id
// Elle girilmiş fiyat veya is_free değişirse bu bir fiyat değişikliğidir:
// malzemeyi kullanan reçetelere (ve bir üst seviyeye) yayılır.
func UpdateIngredientHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var ing models.Ingredient
		if err := database.DB.First(&ing, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Malzeme bulunamadı")
		}

		var body UpdateIngredientRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		priceChanged := false
		priceDelta := decimal.Zero

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Name boş olamaz")
			}
			ing.Name = name
		}
		if body.DefaultYieldPercent != nil {
			if !body.DefaultYieldPercent.IsPositive() || body.DefaultYieldPercent.GreaterThan(decimal.NewFromInt(100)) {
				return fiber.NewError(fiber.StatusBadRequest, "default_yield_percent (0, 100] aralığında olmalı")
			}
			ing.DefaultYieldPercent = *body.DefaultYieldPercent
		}
		if body.ClearManualPrice {
			if ing.ManualPrice != nil {
				priceChanged = true
				priceDelta = ing.ManualPrice.Neg()
			}
			ing.ManualPrice = nil
		} else if body.ManualPrice != nil {
			if body.ManualPrice.IsNegative() {
				return fiber.NewError(fiber.StatusBadRequest, "manual_price negatif olamaz")
			}
			priceChanged = true
			if ing.ManualPrice != nil {
				priceDelta = body.ManualPrice.Sub(*ing.ManualPrice)
			} else {
				priceDelta = *body.ManualPrice
			}
			ing.ManualPrice = body.ManualPrice
		}
		if body.IsFree != nil && *body.IsFree != ing.IsFree {
			ing.IsFree = *body.IsFree
			priceChanged = true
		}

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Save(&ing).Error; err != nil {
				return err
			}
			if priceChanged {
				return costing.PropagateFromIngredientPriceChange(tx, ing.ID, priceDelta)
			}
			return nil
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Malzeme güncellenemedi")
		}

		return c.JSON(toIngredientResponse(&ing))
	}
}

type AddPriceRequest struct {
	SupplierID   uint            `json:"supplier_id"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	ObservedDate string          `json:"observed_date"` // YYYY-MM-DD, boşsa bugün
}

type PriceResponse struct {
	ID           uint            `json:"id"`
	IngredientID uint            `json:"ingredient_id"`
	SupplierID   uint            `json:"supplier_id"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	ObservedDate string          `json:"observed_date"`
}

// GET /api/ingredients/:id/prices
func ListPricesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var ing models.Ingredient
		if err := database.DB.First(&ing, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Malzeme bulunamadı")
		}

		var prices []models.IngredientPrice
		if err := database.DB.
			Where("ingredient_id = ?", ing.ID).
			Order("observed_date desc, id desc").
			Find(&prices).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Fiyatlar listelenemedi")
		}

		res := make([]PriceResponse, 0, len(prices))
		for _, p := range prices {
			res = append(res, PriceResponse{
				ID:           p.ID,
				IngredientID: p.IngredientID,
				SupplierID:   p.SupplierID,
				PricePerUnit: p.PricePerUnit,
				ObservedDate: p.ObservedDate.Format("2006-01-02"),
			})
		}
		return c.JSON(res)
	}
}

// POST /api/ingredients/:id/prices
// Yeni fiyat gözlemi etkilenen reçetelere aynı transaction içinde yayılır:
// yarıda kesilen istek ne fiyat kaydı ne eksik snapshot bırakır.
func AddPriceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var ing models.Ingredient
		if err := database.DB.Preload("Prices").First(&ing, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Malzeme bulunamadı")
		}

		var body AddPriceRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		var supplier models.Supplier
		if err := database.DB.First(&supplier, "id = ?", body.SupplierID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Tedarikçi bulunamadı")
		}

		if !body.PricePerUnit.IsPositive() {
			return fiber.NewError(fiber.StatusBadRequest, "Fiyat pozitif olmalı")
		}

		observed := time.Now()
		if body.ObservedDate != "" {
			parsed, err := time.Parse("2006-01-02", body.ObservedDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "observed_date formatı YYYY-MM-DD olmalı")
			}
			observed = parsed
		}

		// Fiyat farkı önceki güncel gözleme göre hesaplanır (fire düzeltmesiz ham fiyat)
		priceDelta := body.PricePerUnit
		prev := costing.ResolveEffectivePrice(ing.Prices, nil, false, decimal.NewFromInt(100))
		if prev.Recent.Valid {
			priceDelta = body.PricePerUnit.Sub(prev.Recent.Decimal)
		}

		price := models.IngredientPrice{
			IngredientID: ing.ID,
			SupplierID:   supplier.ID,
			PricePerUnit: body.PricePerUnit,
			ObservedDate: observed,
		}

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&price).Error; err != nil {
				return err
			}
			return costing.PropagateFromIngredientPriceChange(tx, ing.ID, priceDelta)
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Fiyat kaydedilemedi")
		}

		return c.Status(fiber.StatusCreated).JSON(PriceResponse{
			ID:           price.ID,
			IngredientID: price.IngredientID,
			SupplierID:   price.SupplierID,
			PricePerUnit: price.PricePerUnit,
			ObservedDate: price.ObservedDate.Format("2006-01-02"),
		})
	}
}
