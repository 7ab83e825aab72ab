package costing

import (
	"recete-backend/internal/models"

	"gorm.io/gorm"
)

// DefaultMaxDepth: alt reçete derinliği için yumuşak tasarım sınırı.
// Sadece kenar eklenirken uygulanır, maliyet hesabında tekrar doğrulanmaz.
const DefaultMaxDepth = 5

// WouldCreateCycle - "parent, child'ı içersin" kenarı eklenmeden ÖNCE çağrılır.
// parent'tan yukarı doğru yürür: parent'ı doğrudan veya dolaylı içeren tüm
// reçeteler (ataları) en fazla maxDepth adım içinde toplanır. child bu kümede
// (veya parent'ın kendisiyse) yeni kenar döngü kapatır.
//
// Kontrol ile insert aynı transaction üzerinde çalıştırılmalı ki eşzamanlı
// kenar eklemede araya yazım giremesin.
func WouldCreateCycle(tx *gorm.DB, parentID, childID uint, maxDepth int) (bool, error) {
	if parentID == childID {
		return true, nil
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	seen := map[uint]bool{parentID: true}
	frontier := []uint{parentID}

	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var parents []uint
		err := tx.Model(&models.SubRecipeLine{}).
			Where("child_recipe_id IN ?", frontier).
			Distinct().
			Pluck("recipe_id", &parents).Error
		if err != nil {
			return false, err
		}

		frontier = frontier[:0]
		for _, id := range parents {
			if id == childID {
				return true, nil
			}
			if !seen[id] {
				seen[id] = true
				frontier = append(frontier, id)
			}
		}
	}

	return false, nil
}
