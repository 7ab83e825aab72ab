package database

import (
	"log"

	"recete-backend/internal/config"
	"recete-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Veritabanına bağlanılamadı: %v", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatalf("AutoMigrate hatası: %v", err)
	}

	log.Println("Veritabanı bağlantısı başarılı. Migration tamamlandı.")
}

// Migrate - Tüm modelleri migrate eder. Testler aynı şemayı sqlite üzerinde
// kurabilsin diye ayrı fonksiyon.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Supplier{},
		&models.Ingredient{},
		&models.IngredientPrice{},
		&models.Recipe{},
		&models.IngredientLine{},
		&models.SubRecipeLine{},
		&models.CostSnapshot{},
		&models.ChangeLogEntry{},
	)
}
