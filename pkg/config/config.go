package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// MongoConfig holds document store configuration
type MongoConfig struct {
	URI      string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	Timeout  time.Duration
}

// GetURI returns the MongoDB connection string, preferring an explicit URI
func (c *MongoConfig) GetURI() string {
	if c.URI != "" {
		return c.URI
	}
	if c.User != "" && c.Password != "" {
		return fmt.Sprintf("mongodb://%s:%s@%s:%s", c.User, c.Password, c.Host, c.Port)
	}
	return fmt.Sprintf("mongodb://%s:%s", c.Host, c.Port)
}

// DBConfig holds the stock ledger database configuration
type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// GetDSN returns the PostgreSQL connection string
func (c *DBConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// StoreConfig selects the product/order store backend
type StoreConfig struct {
	Driver string // mongo or memory
}

// LedgerConfig toggles the stock movement ledger
type LedgerConfig struct {
	Enabled bool
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port             string
	Env              string
	CORSAllowOrigins []string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SigningKey      string
	ExpirationHours int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Prefix string
}

// StockConfig holds inventory behaviour knobs
type StockConfig struct {
	LowStockThreshold float64
}

// MailConfig holds SMTP settings for customer and admin emails
type MailConfig struct {
	Host       string
	Port       string
	User       string
	Password   string
	FromName   string
	AdminEmail string
	Timeout    time.Duration
}

// Enabled reports whether enough SMTP settings are present to send mail
func (c *MailConfig) Enabled() bool {
	return c.Host != "" && c.User != ""
}

// WhatsAppConfig holds the messaging webhook settings
type WhatsAppConfig struct {
	WebhookURL string
	Token      string
	AdminPhone string
}

// Config holds all configuration
type Config struct {
	ServiceName string
	Mongo       MongoConfig
	Store       StoreConfig
	Ledger      LedgerConfig
	DB          DBConfig
	Server      ServerConfig
	JWT         JWTConfig
	Log         LogConfig
	Metrics     MetricsConfig
	Stock       StockConfig
	Mail        MailConfig
	WhatsApp    WhatsAppConfig
}

// Load loads configuration from the environment, reading a .env file first when present
func Load(serviceName string) (*Config, error) {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	config := &Config{
		ServiceName: serviceName,
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", ""),
			Host:     getEnv("MONGO_HOST", "localhost"),
			Port:     getEnv("MONGO_PORT", "27017"),
			User:     getEnv("MONGO_USER", ""),
			Password: getEnv("MONGO_PASSWORD", ""),
			DBName:   getEnv("MONGO_DBNAME", "storefront"),
			Timeout:  getEnvAsDuration("MONGO_TIMEOUT", 15*time.Second),
		},
		Store: StoreConfig{
			Driver: getEnv("STORE_DRIVER", "mongo"),
		},
		Ledger: LedgerConfig{
			Enabled: getEnvAsBool("LEDGER_ENABLED", false),
		},
		DB: DBConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "password"),
			DBName:          getEnv("DB_NAME", serviceName),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 1*time.Hour),
			LogLevel:        getEnvAsLogLevel("DB_LOG_LEVEL", logger.Warn),
		},
		Server: ServerConfig{
			Port:             getEnv("SERVER_PORT", "5000"),
			Env:              getEnv("APP_ENV", "development"),
			CORSAllowOrigins: getEnvAsSlice("CORS_ALLOW_ORIGINS", []string{"*"}),
		},
		JWT: JWTConfig{
			SigningKey:      getEnv("JWT_SIGNING_KEY", "defaultsecretkey"),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Metrics: MetricsConfig{
			Prefix: getEnv("METRICS_PREFIX", metricsPrefix(serviceName)),
		},
		Stock: StockConfig{
			LowStockThreshold: getEnvAsFloat("LOW_STOCK_THRESHOLD", 5),
		},
		Mail: MailConfig{
			Host:       getEnv("EMAIL_HOST", "smtp.gmail.com"),
			Port:       getEnv("EMAIL_PORT", "587"),
			User:       getEnv("EMAIL_USER", ""),
			Password:   getEnv("EMAIL_PASSWORD", ""),
			FromName:   getEnv("EMAIL_FROM_NAME", "FreshFlow"),
			AdminEmail: getEnv("ADMIN_EMAIL", ""),
			Timeout:    getEnvAsDuration("EMAIL_TIMEOUT", 10*time.Second),
		},
		WhatsApp: WhatsAppConfig{
			WebhookURL: getEnv("WHATSAPP_WEBHOOK_URL", ""),
			Token:      getEnv("WHATSAPP_TOKEN", ""),
			AdminPhone: getEnv("ADMIN_PHONE", ""),
		},
	}

	if config.Store.Driver != "mongo" && config.Store.Driver != "memory" {
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q", config.Store.Driver)
	}

	return config, nil
}

// LogFields returns the configuration as zap fields, without secrets
func (c *Config) LogFields() []zap.Field {
	return []zap.Field{
		zap.String("service", c.ServiceName),
		zap.String("environment", c.Server.Env),
		zap.String("server_port", c.Server.Port),
		zap.String("store_driver", c.Store.Driver),
		zap.String("mongo_host", c.Mongo.Host),
		zap.String("mongo_db", c.Mongo.DBName),
		zap.Bool("ledger_enabled", c.Ledger.Enabled),
		zap.Float64("low_stock_threshold", c.Stock.LowStockThreshold),
		zap.Bool("mail_enabled", c.Mail.Enabled()),
		zap.Bool("whatsapp_enabled", c.WhatsApp.WebhookURL != ""),
	}
}

// prometheus metric names cannot contain dashes
func metricsPrefix(serviceName string) string {
	return strings.ReplaceAll(serviceName, "-", "_")
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvAsLogLevel(key string, defaultValue logger.LogLevel) logger.LogLevel {
	switch getEnv(key, "") {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return defaultValue
	}
}
