package changelog

import (
	"fmt"

	"recete-backend/internal/models"

	"gorm.io/gorm"
)

type EntryOptions struct {
	RecipeID uint
	Summary  string

	// Sistem kaynaklı değişikliklerde (fiyat güncellemesi vs.) boş bırakılır
	ActorID   *uint
	ActorName string
}

// Write - Değişiklik günlüğüne yeni kayıt ekler. Kayıtlar sadece eklenir;
// güncelleme/silme yok. Snapshot ile aynı transaction'da çağrılmalı ki
// yarıda kesilen istek eksik kayıt bırakmasın.
func Write(tx *gorm.DB, opts EntryOptions) error {
	entry := models.ChangeLogEntry{
		RecipeID:  opts.RecipeID,
		Summary:   opts.Summary,
		ActorID:   opts.ActorID,
		ActorName: opts.ActorName,
	}

	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("değişiklik kaydı yazılamadı: %w", err)
	}
	return nil
}
