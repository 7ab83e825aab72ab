package costing

import (
	"testing"
	"time"

	"recete-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func snapshotsFor(t *testing.T, db *gorm.DB, recipeID uint) []models.CostSnapshot {
	t.Helper()
	var snaps []models.CostSnapshot
	require.NoError(t, db.Where("recipe_id = ?", recipeID).Order("id asc").Find(&snaps).Error)
	return snaps
}

func TestDayOf(t *testing.T) {
	in := time.Date(2025, 3, 14, 17, 45, 9, 123, time.UTC)
	got := DayOf(in)
	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), got)
}

func TestSnapshotNowUpsertsSameDay(t *testing.T) {
	db := newTestDB(t)
	sauce, _ := tomatoSauce(t, db)

	require.NoError(t, SnapshotNow(db, sauce.ID, "manual"))
	require.NoError(t, SnapshotNow(db, sauce.ID, "ingredient_line_change"))

	// Aynı gün ikinci çağrı yeni satır açmaz, mevcut satırı günceller
	snaps := snapshotsFor(t, db, sauce.ID)
	require.Len(t, snaps, 1)
	assert.Equal(t, "10.00", snaps[0].TotalCost.StringFixed(2))
	assert.Equal(t, "2.00", snaps[0].CostPerOutputUnit.StringFixed(2))
	assert.Equal(t, "ingredient_line_change", snaps[0].TriggerSource)
	assert.True(t, snaps[0].SnapshotDate.Equal(DayOf(time.Now())))
}

func TestSnapshotNowSkipsPricelessRecipe(t *testing.T) {
	// Maliyeti hesaplanamayan reçete için satır yazılmaz, hata da dönmez
	db := newTestDB(t)
	empty := createBulkRecipe(t, db, "Boş Reçete", "1", "kg")

	require.NoError(t, SnapshotNow(db, empty.ID, "manual"))
	assert.Empty(t, snapshotsFor(t, db, empty.ID))
}

func TestPropagateOneHopOnly(t *testing.T) {
	// top -> mid -> sauce zincirinde sauce değişince sauce ve mid
	// snapshot'lanır, top'a dokunulmaz
	db := newTestDB(t)
	sauce, _ := tomatoSauce(t, db)

	mid := createBulkRecipe(t, db, "Sos Bazı", "1", "kg")
	addSubRecipeLine(t, db, mid.ID, sauce.ID, "0.5", nil)

	top := createDishRecipe(t, db, "Makarna", 4)
	addSubRecipeLine(t, db, top.ID, mid.ID, "0.25", nil)

	before := time.Now()
	require.NoError(t, Propagate(db, sauce.ID, "ingredient_line_change"))

	require.Len(t, snapshotsFor(t, db, sauce.ID), 1)
	require.Len(t, snapshotsFor(t, db, mid.ID), 1)
	assert.Empty(t, snapshotsFor(t, db, top.ID))

	var fresh models.Recipe
	require.NoError(t, db.First(&fresh, sauce.ID).Error)
	assert.True(t, fresh.StructuralChangedAt.After(before) || fresh.StructuralChangedAt.Equal(before))
	fresh = models.Recipe{}
	require.NoError(t, db.First(&fresh, mid.ID).Error)
	assert.True(t, fresh.StructuralChangedAt.After(before) || fresh.StructuralChangedAt.Equal(before))
}

func TestPropagateFromIngredientPriceChange(t *testing.T) {
	// Malzemeyi doğrudan kullananlar ve onların bir üstü etkilenir,
	// daha yukarısı etkilenmez; her etkilenen reçeteye aktörsüz kayıt düşülür
	db := newTestDB(t)
	sauce, tomato := tomatoSauce(t, db)

	mid := createBulkRecipe(t, db, "Sos Bazı", "1", "kg")
	addSubRecipeLine(t, db, mid.ID, sauce.ID, "0.5", nil)

	top := createDishRecipe(t, db, "Makarna", 4)
	addSubRecipeLine(t, db, top.ID, mid.ID, "0.25", nil)

	err := db.Transaction(func(tx *gorm.DB) error {
		return PropagateFromIngredientPriceChange(tx, tomato.ID, dec("0.0005"))
	})
	require.NoError(t, err)

	require.Len(t, snapshotsFor(t, db, sauce.ID), 1)
	assert.Equal(t, "ingredient_price_change", snapshotsFor(t, db, sauce.ID)[0].TriggerSource)
	require.Len(t, snapshotsFor(t, db, mid.ID), 1)
	assert.Empty(t, snapshotsFor(t, db, top.ID))

	var entries []models.ChangeLogEntry
	require.NoError(t, db.Order("id asc").Find(&entries).Error)
	require.Len(t, entries, 2)
	assert.Equal(t, sauce.ID, entries[0].RecipeID)
	assert.Equal(t, mid.ID, entries[1].RecipeID)
	for _, e := range entries {
		assert.Nil(t, e.ActorID)
		assert.Equal(t, "Malzeme fiyatı değişti: Domates (+0.000500)", e.Summary)
	}
}

func TestPropagateFromIngredientPriceChangeNegativeDelta(t *testing.T) {
	db := newTestDB(t)
	_, tomato := tomatoSauce(t, db)

	require.NoError(t, PropagateFromIngredientPriceChange(db, tomato.ID, dec("-0.0005")))

	var entry models.ChangeLogEntry
	require.NoError(t, db.Order("id desc").First(&entry).Error)
	assert.Equal(t, "Malzeme fiyatı değişti: Domates (-0.000500)", entry.Summary)
}

func TestPropagateFromIngredientPriceChangeUnusedIngredient(t *testing.T) {
	// Hiçbir reçetede geçmeyen malzeme için sessizce hiçbir şey yapılmaz
	db := newTestDB(t)
	ing := createIngredient(t, db, "Safran", "g")

	require.NoError(t, PropagateFromIngredientPriceChange(db, ing.ID, dec("1.00")))

	var count int64
	require.NoError(t, db.Model(&models.ChangeLogEntry{}).Count(&count).Error)
	assert.Zero(t, count)
}
