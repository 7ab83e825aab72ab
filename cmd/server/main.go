package main

import (
	"log"
	"strings"

	"recete-backend/internal/auth"
	"recete-backend/internal/catalog"
	"recete-backend/internal/config"
	"recete-backend/internal/database"
	"recete-backend/internal/recipes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Beklenmeyen sunucu hatası",
			})
		},
	})

	// CORS origins'i virgülle ayrılmış string'den array'e çevir
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Reçeteler
	protected.Post("/recipes", recipes.CreateRecipeHandler())
	protected.Get("/recipes", recipes.ListRecipesHandler())
	protected.Get("/recipes/:id", recipes.GetRecipeHandler())
	protected.Put("/recipes/:id", recipes.UpdateRecipeHandler())
	protected.Post("/recipes/:id/archive", recipes.ArchiveRecipeHandler())
	protected.Delete("/recipes/:id", recipes.DeleteRecipeHandler())

	// Malzeme satırları
	protected.Post("/recipes/:id/ingredient-lines", recipes.AddIngredientLineHandler())
	protected.Put("/recipes/:id/ingredient-lines/:lineId", recipes.UpdateIngredientLineHandler())
	protected.Delete("/recipes/:id/ingredient-lines/:lineId", recipes.DeleteIngredientLineHandler())

	// Alt reçete satırları
	protected.Post("/recipes/:id/sub-recipe-lines", recipes.AddSubRecipeLineHandler(cfg))
	protected.Put("/recipes/:id/sub-recipe-lines/:lineId", recipes.UpdateSubRecipeLineHandler())
	protected.Delete("/recipes/:id/sub-recipe-lines/:lineId", recipes.DeleteSubRecipeLineHandler())

	// Maliyet
	protected.Get("/recipes/:id/cost", recipes.GetCostHandler(cfg))
	protected.Get("/recipes/:id/cost-history", recipes.CostHistoryHandler())
	protected.Get("/recipes/:id/cost-history/export", recipes.ExportCostHistoryHandler())

	// Malzeme kataloğu
	protected.Get("/ingredients", catalog.ListIngredientsHandler())
	protected.Post("/ingredients", catalog.CreateIngredientHandler())
	protected.Put("/ingredients/:id", catalog.UpdateIngredientHandler())
	protected.Get("/ingredients/:id/prices", catalog.ListPricesHandler())
	protected.Post("/ingredients/:id/prices", catalog.AddPriceHandler())

	// Tedarikçiler
	protected.Get("/suppliers", catalog.ListSuppliersHandler())
	protected.Post("/suppliers", catalog.CreateSupplierHandler())

	// Birimler
	protected.Get("/units/:unit/compatible", catalog.CompatibleUnitsHandler())

	log.Println("Server çalışıyor port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
