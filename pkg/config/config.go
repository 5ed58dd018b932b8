package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	ServiceName string
	Server      ServerConfig
	DB          DBConfig
	JWT         JWTConfig
	Log         LogConfig
	Metrics     MetricsConfig
	Stripe      StripeConfig
	Mail        MailConfig
	Store       StoreConfig
	Shipping    ShippingConfig
	Geo         GeoConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DBConfig holds database-related configuration
type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        string
}

// GetDSN returns the PostgreSQL connection string
func (c *DBConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// JWTConfig holds staff-token configuration
type JWTConfig struct {
	SigningKey     string
	ExpirationTime time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// MetricsConfig holds metrics-related configuration
type MetricsConfig struct {
	Prefix string
}

// StripeConfig holds payment-provider credentials
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

// MailConfig holds SMTP delivery configuration
type MailConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	AdminEmail string
}

// StoreConfig holds storefront identity used in emails and redirect URLs
type StoreConfig struct {
	Name        string
	FrontendURL string
	Currency    string
}

// DayRange is a displayed delivery estimate in business days
type DayRange struct {
	Min int64
	Max int64
}

// ShippingConfig holds the fixed shipping tier table
type ShippingConfig struct {
	CountryHeader       string
	DomesticCountry     string
	RegionalCountries   []string
	AllowedCountries    []string
	DomesticAmount      int64
	RegionalAmount      int64
	InternationalAmount int64
	DomesticDays        DayRange
	RegionalDays        DayRange
	InternationalDays   DayRange
}

// GeoConfig holds the IP-to-country lookup service configuration
type GeoConfig struct {
	ServiceURL string
	Timeout    time.Duration
}

// Load loads the application configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if it exists
	_ = godotenv.Load()

	return &Config{
		ServiceName: getEnv("SERVICE_NAME", "spirit-beads-service"),
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("APP_ENV", "development"),
		},
		DB: DBConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Name:            getEnv("DB_NAME", "spirit_beads"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 1*time.Hour),
			LogLevel:        getEnv("DB_LOG_LEVEL", "info"),
		},
		JWT: JWTConfig{
			SigningKey:     getEnv("JWT_SIGNING_KEY", "spiritbeadssecretkey"),
			ExpirationTime: getEnvAsDuration("JWT_EXPIRATION", 24*time.Hour),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Metrics: MetricsConfig{
			Prefix: getEnv("METRICS_PREFIX", "spirit_beads"),
		},
		Stripe: StripeConfig{
			SecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		},
		Mail: MailConfig{
			Host:       getEnv("MAIL_HOST", "localhost"),
			Port:       getEnvAsInt("MAIL_PORT", 587),
			Username:   getEnv("MAIL_USERNAME", ""),
			Password:   getEnv("MAIL_PASSWORD", ""),
			From:       getEnv("MAIL_FROM", "orders@spiritbeads.com"),
			AdminEmail: getEnv("MAIL_ADMIN_EMAIL", "orders@spiritbeads.com"),
		},
		Store: StoreConfig{
			Name:        getEnv("STORE_NAME", "Spirit Beads"),
			FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
			Currency:    getEnv("STORE_CURRENCY", "usd"),
		},
		Shipping: ShippingConfig{
			CountryHeader:       getEnv("SHIPPING_COUNTRY_HEADER", "CF-IPCountry"),
			DomesticCountry:     getEnv("SHIPPING_DOMESTIC_COUNTRY", "US"),
			RegionalCountries:   getEnvAsList("SHIPPING_REGIONAL_COUNTRIES", []string{"CA", "MX"}),
			AllowedCountries:    getEnvAsList("SHIPPING_ALLOWED_COUNTRIES", []string{"US"}),
			DomesticAmount:      getEnvAsInt64("SHIPPING_DOMESTIC_AMOUNT", 500),
			RegionalAmount:      getEnvAsInt64("SHIPPING_REGIONAL_AMOUNT", 1500),
			InternationalAmount: getEnvAsInt64("SHIPPING_INTERNATIONAL_AMOUNT", 2500),
			DomesticDays:        getEnvAsDayRange("SHIPPING_DOMESTIC_DAYS", DayRange{Min: 3, Max: 5}),
			RegionalDays:        getEnvAsDayRange("SHIPPING_REGIONAL_DAYS", DayRange{Min: 7, Max: 14}),
			InternationalDays:   getEnvAsDayRange("SHIPPING_INTERNATIONAL_DAYS", DayRange{Min: 10, Max: 21}),
		},
		Geo: GeoConfig{
			ServiceURL: getEnv("GEO_SERVICE_URL", "https://ipapi.co"),
			Timeout:    getEnvAsDuration("GEO_LOOKUP_TIMEOUT", 2*time.Second),
		},
	}, nil
}

// Helper functions to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsList parses a comma-separated value such as "CA,MX"
func getEnvAsList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// getEnvAsDayRange parses a delivery estimate such as "3-5"
func getEnvAsDayRange(key string, defaultValue DayRange) DayRange {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	parts := strings.SplitN(value, "-", 2)
	if len(parts) != 2 {
		return defaultValue
	}
	min, err1 := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	max, err2 := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err1 != nil || err2 != nil || min < 0 || max < min {
		return defaultValue
	}
	return DayRange{Min: min, Max: max}
}
