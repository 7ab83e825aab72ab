package recipes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"recete-backend/internal/auth"
	"recete-backend/internal/config"
	"recete-backend/internal/database"
	"recete-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	database.DB = db

	cfg := &config.Config{MaxSubRecipeDepth: 5}

	app := fiber.New()
	// Testte JWT yerine aktör bilgisini doğrudan yerleştiriyoruz
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(auth.CtxUserIDKey, uint(1))
		c.Locals(auth.CtxUserNameKey, "Test Şef")
		c.Locals(auth.CtxUserRoleKey, models.RoleChef)
		return c.Next()
	})
	app.Post("/api/recipes/:id/sub-recipe-lines", AddSubRecipeLineHandler(cfg))
	return app
}

func mustCreateBulk(t *testing.T, name string) models.Recipe {
	t.Helper()
	qty := decimal.NewFromInt(1)
	unit := "kg"
	r := models.Recipe{
		Name:                name,
		Kind:                models.KindComponent,
		OutputMode:          models.ModeBulk,
		YieldQuantity:       &qty,
		YieldUnit:           &unit,
		StructuralChangedAt: time.Now(),
	}
	require.NoError(t, database.DB.Create(&r).Error)
	return r
}

func postSubRecipeLine(t *testing.T, app *fiber.App, parentID uint, body CreateSubRecipeLineRequest) int {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", fmt.Sprintf("/api/recipes/%d/sub-recipe-lines", parentID), bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestAddSubRecipeLineRejectsCycle(t *testing.T) {
	app := setupApp(t)
	a := mustCreateBulk(t, "A")
	b := mustCreateBulk(t, "B")

	status := postSubRecipeLine(t, app, a.ID, CreateSubRecipeLineRequest{
		ChildRecipeID:  b.ID,
		PortionsNeeded: decimal.RequireFromString("0.5"),
	})
	require.Equal(t, fiber.StatusCreated, status)

	// B -> A kenarı döngü kapatır, reddedilir ve hiçbir satır yazılmaz
	status = postSubRecipeLine(t, app, b.ID, CreateSubRecipeLineRequest{
		ChildRecipeID:  a.ID,
		PortionsNeeded: decimal.RequireFromString("0.5"),
	})
	assert.Equal(t, fiber.StatusBadRequest, status)

	var count int64
	require.NoError(t, database.DB.Model(&models.SubRecipeLine{}).
		Where("recipe_id = ?", b.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAddSubRecipeLineRejectsSelfReference(t *testing.T) {
	app := setupApp(t)
	a := mustCreateBulk(t, "A")

	status := postSubRecipeLine(t, app, a.ID, CreateSubRecipeLineRequest{
		ChildRecipeID:  a.ID,
		PortionsNeeded: decimal.RequireFromString("1"),
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestAddSubRecipeLineWritesChangelogWithActor(t *testing.T) {
	app := setupApp(t)
	a := mustCreateBulk(t, "A")
	b := mustCreateBulk(t, "B")

	status := postSubRecipeLine(t, app, a.ID, CreateSubRecipeLineRequest{
		ChildRecipeID:  b.ID,
		PortionsNeeded: decimal.RequireFromString("0.5"),
	})
	require.Equal(t, fiber.StatusCreated, status)

	var entry models.ChangeLogEntry
	require.NoError(t, database.DB.Where("recipe_id = ?", a.ID).First(&entry).Error)
	assert.Equal(t, "Alt reçete eklendi: B", entry.Summary)
	require.NotNil(t, entry.ActorID)
	assert.Equal(t, uint(1), *entry.ActorID)
	assert.Equal(t, "Test Şef", entry.ActorName)
}

func TestAddSubRecipeLineRejectsIncompatibleOverride(t *testing.T) {
	app := setupApp(t)
	a := mustCreateBulk(t, "A")
	b := mustCreateBulk(t, "B") // çıktısı kg

	override := "ltr"
	status := postSubRecipeLine(t, app, a.ID, CreateSubRecipeLineRequest{
		ChildRecipeID:  b.ID,
		PortionsNeeded: decimal.RequireFromString("0.5"),
		UnitOverride:   &override,
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
}
