package config

import "os"

// Config is the process configuration, read once at startup.
type Config struct {
	Addr        string
	StoreDriver string // "memory" | "postgres"
	PostgresDSN string
	CatalogPath string // "" selects the in-memory catalog
	JoinBaseURL string
	Env         string // "development" | "production"
}

func FromEnv() Config {
	return Config{
		Addr:        getenv("ADDR", ":8080"),
		StoreDriver: getenv("STORE_DRIVER", "memory"),
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
		CatalogPath: os.Getenv("CATALOG_PATH"),
		JoinBaseURL: getenv("JOIN_BASE_URL", "http://localhost:8080"),
		Env:         getenv("APP_ENV", "development"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
