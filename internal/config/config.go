package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config конфигурация сервера
type Config struct {
	// Сервер
	Port      string `json:"port"`
	UploadDir string `json:"upload_dir"`

	// База данных
	DatabasePath    string        `json:"database_path"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`

	// AI конфигурация
	AssistAPIKey  string `json:"assist_api_key"`
	AssistModel   string `json:"assist_model"`
	AssistBaseURL string `json:"assist_base_url"`

	// Интерпретация
	AutomationPolicy  string  `json:"automation_policy"`
	MaxQuantity       int     `json:"max_quantity"`
	SmartCorrection   bool    `json:"smart_correction"`
	CustomerThreshold float64 `json:"customer_threshold"`
	DefaultHonorific  string  `json:"default_honorific"`

	// Кэши
	CatalogCacheTTL  time.Duration `json:"catalog_cache_ttl"`
	CustomerCacheTTL time.Duration `json:"customer_cache_ttl"`

	// Логирование
	LogLevel string `json:"log_level"`
}

// LoadConfig загружает конфигурацию из переменных окружения
func LoadConfig() (*Config, error) {
	config := &Config{
		// Сервер
		Port:      getEnv("PORT", "8080"),
		UploadDir: getEnv("UPLOAD_DIR", os.TempDir()),

		// База данных
		DatabasePath:    getEnv("DATABASE_PATH", "orders.db"),
		MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 3),
		ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),

		// AI
		AssistAPIKey:  os.Getenv("ASSIST_API_KEY"),
		AssistModel:   getEnv("ASSIST_MODEL", "gpt-4o-mini"),
		AssistBaseURL: getEnv("ASSIST_BASE_URL", ""),

		// Интерпретация
		AutomationPolicy:  getEnv("AUTOMATION_POLICY", "balanced"),
		MaxQuantity:       getEnvInt("MAX_QUANTITY", 100),
		SmartCorrection:   getEnv("SMART_CORRECTION", "true") == "true",
		CustomerThreshold: getEnvFloat("CUSTOMER_THRESHOLD", 0.7),
		DefaultHonorific:  getEnv("DEFAULT_HONORIFIC", "Khun"),

		// Кэши
		CatalogCacheTTL:  getEnvDuration("CATALOG_CACHE_TTL", 5*time.Minute),
		CustomerCacheTTL: getEnvDuration("CUSTOMER_CACHE_TTL", 5*time.Minute),

		// Логирование
		LogLevel: getEnv("LOG_LEVEL", "INFO"),
	}

	// Валидация
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port must not be empty")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database path must not be empty")
	}
	if c.MaxOpenConns < 1 {
		return fmt.Errorf("max open connections must be at least 1, got %d", c.MaxOpenConns)
	}
	if c.MaxIdleConns < 0 {
		return fmt.Errorf("max idle connections must not be negative, got %d", c.MaxIdleConns)
	}
	if c.MaxQuantity < 1 {
		return fmt.Errorf("max quantity must be at least 1, got %d", c.MaxQuantity)
	}
	if c.CustomerThreshold <= 0 || c.CustomerThreshold > 1 {
		return fmt.Errorf("customer threshold must be in (0, 1], got %v", c.CustomerThreshold)
	}
	switch c.AutomationPolicy {
	case "conservative", "balanced", "aggressive":
	default:
		return fmt.Errorf("unknown automation policy: %s", c.AutomationPolicy)
	}
	return nil
}

// getEnv получает переменную окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает переменную окружения как int или возвращает значение по умолчанию
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat получает переменную окружения как float64 или возвращает значение по умолчанию
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvDuration получает переменную окружения как Duration или возвращает значение по умолчанию
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
