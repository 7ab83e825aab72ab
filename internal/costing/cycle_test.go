package costing

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestWouldCreateCycleSelfReference(t *testing.T) {
	db := newTestDB(t)
	r := createBulkRecipe(t, db, "Sos", "1", "kg")

	cycles, err := WouldCreateCycle(db, r.ID, r.ID, DefaultMaxDepth)
	require.NoError(t, err)
	assert.True(t, cycles)
}

func TestWouldCreateCycleDirect(t *testing.T) {
	// A -> B varken B -> A eklenemez
	db := newTestDB(t)
	a := createBulkRecipe(t, db, "A", "1", "kg")
	b := createBulkRecipe(t, db, "B", "1", "kg")
	addSubRecipeLine(t, db, a.ID, b.ID, "0.5", nil)

	cycles, err := WouldCreateCycle(db, b.ID, a.ID, DefaultMaxDepth)
	require.NoError(t, err)
	assert.True(t, cycles)

	// A -> B zaten var diye tersi olmayan kenarlar engellenmez
	c := createBulkRecipe(t, db, "C", "1", "kg")
	cycles, err = WouldCreateCycle(db, b.ID, c.ID, DefaultMaxDepth)
	require.NoError(t, err)
	assert.False(t, cycles)
}

func TestWouldCreateCycleTransitive(t *testing.T) {
	// A -> B -> C varken C -> A döngü kapatır
	db := newTestDB(t)
	a := createBulkRecipe(t, db, "A", "1", "kg")
	b := createBulkRecipe(t, db, "B", "1", "kg")
	c := createBulkRecipe(t, db, "C", "1", "kg")
	addSubRecipeLine(t, db, a.ID, b.ID, "0.5", nil)
	addSubRecipeLine(t, db, b.ID, c.ID, "0.5", nil)

	cycles, err := WouldCreateCycle(db, c.ID, a.ID, DefaultMaxDepth)
	require.NoError(t, err)
	assert.True(t, cycles)

	// Elmas oluşturmak (A -> C) döngü değildir
	cycles, err = WouldCreateCycle(db, a.ID, c.ID, DefaultMaxDepth)
	require.NoError(t, err)
	assert.False(t, cycles)
}

func TestWouldCreateCycleDepthBound(t *testing.T) {
	// Atalar en fazla maxDepth adım yukarı taranır; sınırın ötesi görülmez
	db := newTestDB(t)
	chain := make([]uint, 6)
	for i := range chain {
		r := createBulkRecipe(t, db, fmt.Sprintf("R%d", i+1), "1", "kg")
		chain[i] = r.ID
	}
	// R1 -> R2 -> ... -> R6
	for i := 0; i < len(chain)-1; i++ {
		addSubRecipeLine(t, db, chain[i], chain[i+1], "0.5", nil)
	}

	// R1, R6'nın 5 adım yukarısında: varsayılan derinlikte yakalanır
	cycles, err := WouldCreateCycle(db, chain[5], chain[0], 5)
	require.NoError(t, err)
	assert.True(t, cycles)

	// Daha sığ taramada aynı döngü görülmez (sınırlı kontrolün bilinen sınırı)
	cycles, err = WouldCreateCycle(db, chain[5], chain[0], 4)
	require.NoError(t, err)
	assert.False(t, cycles)
}

func TestWouldCreateCycleInsideTransaction(t *testing.T) {
	// Kontrol, insert ile aynı transaction üzerinde çalışabilmeli
	db := newTestDB(t)
	a := createBulkRecipe(t, db, "A", "1", "kg")
	b := createBulkRecipe(t, db, "B", "1", "kg")
	addSubRecipeLine(t, db, a.ID, b.ID, "0.5", nil)

	err := db.Transaction(func(tx *gorm.DB) error {
		cycles, err := WouldCreateCycle(tx, b.ID, a.ID, DefaultMaxDepth)
		require.NoError(t, err)
		assert.True(t, cycles)
		return nil
	})
	require.NoError(t, err)
}
