package models

import "time"

// ChangeLogEntry - Reçete değişiklik günlüğü. Sadece eklenir; tek tek
// güncellenmez ve silinmez (reçete silme kaskadı hariç).
type ChangeLogEntry struct {
	ID       uint `gorm:"primaryKey"`
	RecipeID uint `gorm:"index;not null"`

	Summary string `gorm:"size:255;not null"`

	// Değişikliği yapan kullanıcı. Sistem kaynaklı değişikliklerde
	// (ör: malzeme fiyatı güncellemesi) boş bırakılır.
	ActorID   *uint
	ActorName string `gorm:"size:100"`

	CreatedAt time.Time
}
