package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Resolver ResolverConfig
	Fallback FallbackConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JwtSecret          string
}

type DatabaseConfig struct {
	Connection string
}

type ResolverConfig struct {
	VocabularyPath string
	CatalogPath    string
	CatalogSource  string // "file" or "db"
	SessionStore   string // "memory" or "redis"
	ErpId          string
	AuditTopic     string
}

type FallbackConfig struct {
	Enabled        bool
	Provider       string // "ollama" or "huggingface"
	Model          string
	BaseURL        string
	APIKey         string
	TimeoutSeconds int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "resolver.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JwtSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Resolver: ResolverConfig{
			VocabularyPath: getEnv("VOCABULARY_PATH", "configs/vocabulary.json"),
			CatalogPath:    getEnv("CATALOG_PATH", "configs/endpoints.json"),
			CatalogSource:  getEnv("CATALOG_SOURCE", "file"),
			SessionStore:   getEnv("SESSION_STORE", "memory"),
			ErpId:          getEnv("ERP_ID", "default"),
			AuditTopic:     getEnv("AUDIT_TOPIC_NAME", "RESOLVER_AUDIT"),
		},
		Fallback: FallbackConfig{
			Enabled:        getEnvAsBool("FALLBACK_ENABLED", false),
			Provider:       getEnv("FALLBACK_PROVIDER", "ollama"),
			Model:          getEnv("FALLBACK_MODEL", "llama3"),
			BaseURL:        getEnv("FALLBACK_BASE_URL", "http://localhost:11434"),
			APIKey:         getEnv("FALLBACK_API_KEY", ""),
			TimeoutSeconds: getEnvAsInt("FALLBACK_TIMEOUT_SECONDS", 20),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
