package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	HTTPPort    string
	DatabaseDSN string
	JWTSecret   string
	CORSOrigins string

	// GP öneri tablosunda en sonda bir kez uygulanan KDV çarpanı (ör: %20 için 1.20)
	VATMultiplier decimal.Decimal

	// Alt reçete derinliği için yumuşak sınır; sadece kenar eklenirken uygulanır
	MaxSubRecipeDepth int
}

func Load() *Config {
	// .env varsa yükle, yoksa sessizce devam et (production'da env zaten sistemden gelir)
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		DatabaseDSN: getEnv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=recete port=5432 sslmode=disable"),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		CORSOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
	}

	vatStr := getEnv("VAT_MULTIPLIER", "1.20")
	vat, err := decimal.NewFromString(vatStr)
	if err != nil || vat.LessThan(decimal.NewFromInt(1)) {
		log.Fatalf("[FATAL] VAT_MULTIPLIER geçersiz: %q (ör: %%20 KDV için 1.20)", vatStr)
	}
	cfg.VATMultiplier = vat

	depthStr := getEnv("MAX_SUBRECIPE_DEPTH", "5")
	depth, err := strconv.Atoi(depthStr)
	if err != nil || depth < 1 {
		log.Fatalf("[FATAL] MAX_SUBRECIPE_DEPTH geçersiz: %q", depthStr)
	}
	cfg.MaxSubRecipeDepth = depth

	// Production güvenlik kontrolleri
	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET environment değişkeni tanımlanmamış! Production için zorunludur.")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET en az 32 karakter olmalıdır! Güvenlik riski.")
	}
	if cfg.DatabaseDSN == "host=localhost user=postgres password=postgres dbname=recete port=5432 sslmode=disable" {
		log.Println("[WARN] DATABASE_DSN varsayılan değer kullanılıyor, production için mutlaka kendi Postgres bağlantı bilgisini tanımla.")
	}
	if cfg.CORSOrigins == "http://localhost:5173" {
		log.Println("[WARN] CORS_ALLOWED_ORIGINS varsayılan değer kullanılıyor, production için mutlaka kendi domain'ini tanımla.")
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
