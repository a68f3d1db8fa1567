package config

import (
	"sync"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cors     CorsConfig
	Import   ImportConfig
	Display  DisplayConfig
}

type ServerConfig struct {
	Address        string
	Environment    string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MigrateOnStart bool
}

type DatabaseConfig struct {
	ConnString      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type CorsConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// ImportConfig адреса источников для импорта данных. Передаются импортеру явно.
type ImportConfig struct {
	ProductURL string
	TenderURL  string
	OrderURL   string
	Timeout    time.Duration

	// PushgatewayURL куда import отправляет свои метрики; пусто - не отправлять
	PushgatewayURL string
}

type DisplayConfig struct {
	Currency string
}

var (
	configInstance *Config
	configOnce     sync.Once
)

// GetConfig конфигурация процесса, читается из окружения один раз
func GetConfig() *Config {
	configOnce.Do(func() {
		configInstance = Load()
	})
	return configInstance
}

// Load читает конфигурацию из переменных окружения
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Address:        getEnvAsString("SERVER_ADDRESS", "0.0.0.0:8080"),
			Environment:    getEnvAsString("APP_ENV", "development"),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			MigrateOnStart: getEnvAsBool("MIGRATE_ON_START", false),
		},
		Database: DatabaseConfig{
			ConnString:      getEnvAsString("POSTGRES_CONN", ""),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Cors: CorsConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOW_ORIGINS", []string{"http://localhost:3000"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOW_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOW_HEADERS", []string{"Origin", "Content-Type", "Accept"}),
		},
		Import: ImportConfig{
			ProductURL: getEnvAsString("SAMPLE_PRODUCT_URL", "https://kaiken.up.railway.app/webhook/product-sample"),
			TenderURL:  getEnvAsString("SAMPLE_TENDER_URL", "https://kaiken.up.railway.app/webhook/tender-sample"),
			OrderURL:   getEnvAsString("SAMPLE_ORDER_URL", "https://kaiken.up.railway.app/webhook/order-sample"),
			Timeout:    getEnvAsDuration("IMPORT_TIMEOUT", 30*time.Second),

			PushgatewayURL: getEnvAsString("IMPORT_PUSHGATEWAY_URL", ""),
		},
		Display: DisplayConfig{
			Currency: getEnvAsString("DISPLAY_CURRENCY", "EUR"),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// LogLevel уровень логирования: info в production, debug иначе
func (c *Config) LogLevel() string {
	if c.IsProduction() {
		return "info"
	}
	return "debug"
}
