package costing

import (
	"testing"
	"time"

	"recete-backend/internal/database"
	"recete-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// :memory: bağlantı başına ayrı veritabanı açar; tek bağlantıya sabitle
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func strPtr(s string) *string { return &s }

func createSupplier(t *testing.T, db *gorm.DB, name string) models.Supplier {
	t.Helper()
	s := models.Supplier{Name: name}
	require.NoError(t, db.Create(&s).Error)
	return s
}

func createIngredient(t *testing.T, db *gorm.DB, name, standardUnit string) models.Ingredient {
	t.Helper()
	ing := models.Ingredient{
		Name:                name,
		StandardUnit:        standardUnit,
		DefaultYieldPercent: dec("100"),
	}
	require.NoError(t, db.Create(&ing).Error)
	return ing
}

func addPrice(t *testing.T, db *gorm.DB, ingredientID, supplierID uint, price string, observed time.Time) models.IngredientPrice {
	t.Helper()
	p := models.IngredientPrice{
		IngredientID: ingredientID,
		SupplierID:   supplierID,
		PricePerUnit: dec(price),
		ObservedDate: observed,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func createBulkRecipe(t *testing.T, db *gorm.DB, name string, yieldQty, yieldUnit string) models.Recipe {
	t.Helper()
	qty := dec(yieldQty)
	r := models.Recipe{
		Name:                name,
		Kind:                models.KindComponent,
		OutputMode:          models.ModeBulk,
		YieldQuantity:       &qty,
		YieldUnit:           &yieldUnit,
		StructuralChangedAt: time.Now(),
	}
	require.NoError(t, db.Create(&r).Error)
	return r
}

func createDishRecipe(t *testing.T, db *gorm.DB, name string, portions int) models.Recipe {
	t.Helper()
	r := models.Recipe{
		Name:                name,
		Kind:                models.KindDish,
		OutputMode:          models.ModePortioned,
		PortionCount:        &portions,
		StructuralChangedAt: time.Now(),
	}
	require.NoError(t, db.Create(&r).Error)
	return r
}

func addIngredientLine(t *testing.T, db *gorm.DB, recipeID, ingredientID uint, qty string, unitOverride *string, yieldPercent string) models.IngredientLine {
	t.Helper()
	l := models.IngredientLine{
		RecipeID:     recipeID,
		IngredientID: ingredientID,
		Quantity:     dec(qty),
		UnitOverride: unitOverride,
		YieldPercent: dec(yieldPercent),
	}
	require.NoError(t, db.Create(&l).Error)
	return l
}

func addSubRecipeLine(t *testing.T, db *gorm.DB, parentID, childID uint, portionsNeeded string, unitOverride *string) models.SubRecipeLine {
	t.Helper()
	l := models.SubRecipeLine{
		RecipeID:       parentID,
		ChildRecipeID:  childID,
		PortionsNeeded: dec(portionsNeeded),
		UnitOverride:   unitOverride,
	}
	require.NoError(t, db.Create(&l).Error)
	return l
}

// tomatoSauce: Senaryo A kurulumu — 5 kg bulk sos, 5000 g domates, 0.002/g
func tomatoSauce(t *testing.T, db *gorm.DB) (models.Recipe, models.Ingredient) {
	t.Helper()
	supplier := createSupplier(t, db, "Merkez Hal")
	tomato := createIngredient(t, db, "Domates", "g")
	addPrice(t, db, tomato.ID, supplier.ID, "0.002", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))

	sauce := createBulkRecipe(t, db, "Domates Sos", "5", "kg")
	addIngredientLine(t, db, sauce.ID, tomato.ID, "5000", nil, "100")
	return sauce, tomato
}
