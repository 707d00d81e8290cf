package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port               string
	DatabaseURL        string
	AppEnv             string
	BaseURL            string
	JWTSecret          string
	UploadsDir         string
	SeedAPIBase        string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	FrontendURL        string
	CORSOrigin         string
}

func Load() *Config {
	_ = godotenv.Load() // Ignore error if .env not found (e.g. prod)

	return &Config{
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        getEnv("DATABASE_URL", "file:db.sqlite"),
		AppEnv:             getEnv("APP_ENV", "local"),
		BaseURL:            getEnv("BASE_URL", "http://localhost:8080"),
		JWTSecret:          getEnv("JWT_SECRET", "secret"),
		UploadsDir:         getEnv("UPLOADS_DIR", "uploads"),
		SeedAPIBase:        getEnv("SEED_API_BASE", "https://mlbb-stats.ridwaanhall.com/api"),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/auth/google/callback"),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:8080"),
		CORSOrigin:         getEnv("CORS_ORIGIN", "*"),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
