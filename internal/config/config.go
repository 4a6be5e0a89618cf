package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the application
type Config struct {
	AppMode        string `ignored:"true"`
	Port           string `envconfig:"PORT" default:"3000"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS"`

	Database   DatabaseConfig   `ignored:"true"`
	JWT        JWTConfig        `ignored:"true"`
	Cookie     CookieConfig     `ignored:"true"`
	OTP        OTPConfig        `ignored:"true"`
	Redis      RedisConfig      `ignored:"true"`
	Razorpay   RazorpayConfig   `ignored:"true"`
	Membership MembershipConfig `ignored:"true"`
	AMQP       AMQPConfig       `ignored:"true"`
	SMTP       SMTPConfig       `ignored:"true"`
	Seed       SeedConfig       `ignored:"true"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver     string `envconfig:"DB_DRIVER" default:"mysql"`
	Host       string `envconfig:"DB_HOST" default:"localhost"`
	Port       string `envconfig:"DB_PORT" default:"3306"`
	User       string `envconfig:"DB_USER" default:"root"`
	Password   string `envconfig:"DB_PASS"`
	DBName     string `envconfig:"DB_NAME" default:"village_sabha"`
	SQLitePath string `envconfig:"DB_SQLITE_PATH" default:"village_sabha.db"`
}

// JWTConfig holds session token configuration
type JWTConfig struct {
	Secret         string `envconfig:"JWT_SECRET" default:"default_secret"`
	Issuer         string `envconfig:"JWT_ISSUER" default:"village-sabha"`
	SessionMinutes int    `envconfig:"SESSION_TOKEN_MINUTES" default:"30"`
}

// SessionTTL returns the lifetime of a session token
func (j JWTConfig) SessionTTL() time.Duration {
	return time.Duration(j.SessionMinutes) * time.Minute
}

// CookieConfig holds cookie configuration
type CookieConfig struct {
	Secure   bool   `envconfig:"COOKIE_SECURE" default:"false"`
	SameSite string `envconfig:"COOKIE_SAMESITE" default:"lax"`
	Domain   string `envconfig:"COOKIE_DOMAIN"`
}

// OTPConfig holds one-time password configuration
type OTPConfig struct {
	TTL           time.Duration `envconfig:"OTP_TTL" default:"5m"`
	Backend       string        `envconfig:"OTP_BACKEND" default:"memory"`
	SweepSchedule string        `envconfig:"OTP_SWEEP_SCHEDULE" default:"@every 1m"`
}

// RedisConfig holds redis configuration
type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
	TLS      bool   `envconfig:"REDIS_TLS" default:"false"`
}

// RazorpayConfig holds payment gateway credentials. The special fund
// collects through its own account.
type RazorpayConfig struct {
	KeyID             string `envconfig:"RAZORPAY_KEY_ID"`
	KeySecret         string `envconfig:"RAZORPAY_KEY_SECRET"`
	SpecialKeyID      string `envconfig:"RAZORPAY_SPECIAL_KEY_ID"`
	SpecialKeySecret  string `envconfig:"RAZORPAY_SPECIAL_KEY_SECRET"`
	VerifyOrderAmount bool   `envconfig:"RAZORPAY_VERIFY_ORDER_AMOUNT" default:"false"`
}

// MembershipConfig holds membership fee and ID settings
type MembershipConfig struct {
	Fee            float64 `envconfig:"MEMBERSHIP_FEE" default:"500"`
	Currency       string  `envconfig:"MEMBERSHIP_CURRENCY" default:"INR"`
	SabhasadPrefix string  `envconfig:"SABHASAD_PREFIX" default:"SAB"`
}

// AMQPConfig holds the domain event broker. An empty URL disables publishing.
type AMQPConfig struct {
	URL      string `envconfig:"AMQP_URL"`
	Exchange string `envconfig:"AMQP_EXCHANGE" default:"village.events"`
}

// SMTPConfig holds OTP mail delivery. An empty host disables mail.
type SMTPConfig struct {
	Host     string `envconfig:"SMTP_HOST"`
	Port     int    `envconfig:"SMTP_PORT" default:"587"`
	User     string `envconfig:"SMTP_USER"`
	Password string `envconfig:"SMTP_PASS"`
	From     string `envconfig:"SMTP_FROM" default:"no-reply@villagesabha.local"`
}

// SeedConfig holds startup seed data. Villages are NAME:DISTRICT pairs.
type SeedConfig struct {
	AdminEmail    string   `envconfig:"SEED_ADMIN_EMAIL" default:"admin@villagesabha.local"`
	AdminPassword string   `envconfig:"SEED_ADMIN_PASSWORD"`
	AdminName     string   `envconfig:"SEED_ADMIN_NAME" default:"Sabha Admin"`
	Villages      []string `envconfig:"SEED_VILLAGES" default:"Devrasan:Mahesana,Kukarwada:Mahesana,Vihar:Mahesana,Gozariya:Mahesana,Kherva:Mahesana"`
}

// modeConfig holds the variables that differ between dev and prod.
// They are read with a DEV_ or PROD_ prefix.
type modeConfig struct {
	Database     DatabaseConfig `ignored:"true"`
	JWTSecret    string         `envconfig:"JWT_SECRET" default:"default_secret"`
	CookieSecure bool           `envconfig:"COOKIE_SECURE" default:"false"`
}

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ .env file not found, using environment variables")
	}

	config, err := loadFromEnv()
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Configuration loaded successfully [MODE: %s]", config.AppMode)
	return config, nil
}

// loadFromEnv builds the config from the process environment only
func loadFromEnv() (*Config, error) {
	// Trim spaces for Windows compatibility
	appMode := strings.TrimSpace(os.Getenv("APP_MODE"))
	if appMode == "" {
		appMode = "dev"
	}
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	config := &Config{AppMode: appMode}

	sections := []interface{}{
		config,
		&config.JWT,
		&config.Cookie,
		&config.OTP,
		&config.Redis,
		&config.Razorpay,
		&config.Membership,
		&config.AMQP,
		&config.SMTP,
		&config.Seed,
	}
	for _, section := range sections {
		if err := envconfig.Process("", section); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	var mode modeConfig
	if err := envconfig.Process(modePrefix(appMode), &mode.Database); err != nil {
		return nil, fmt.Errorf("failed to read database environment: %w", err)
	}
	if err := envconfig.Process(modePrefix(appMode), &mode); err != nil {
		return nil, fmt.Errorf("failed to read %s environment: %w", appMode, err)
	}
	config.Database = mode.Database
	config.JWT.Secret = mode.JWTSecret
	config.Cookie.Secure = mode.CookieSecure

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func modePrefix(mode string) string {
	if mode == "prod" {
		return "PROD"
	}
	return "DEV"
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("invalid DB_DRIVER: '%s' (must be mysql, postgres or sqlite)", c.Database.Driver)
	}
	switch c.OTP.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid OTP_BACKEND: '%s' (must be memory or redis)", c.OTP.Backend)
	}
	if c.JWT.SessionMinutes <= 0 {
		return fmt.Errorf("SESSION_TOKEN_MINUTES must be positive")
	}
	if c.Membership.Fee <= 0 {
		return fmt.Errorf("MEMBERSHIP_FEE must be positive")
	}
	if c.IsProd() && c.JWT.Secret == "default_secret" {
		return fmt.Errorf("PROD_JWT_SECRET must be set in prod mode")
	}
	return nil
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	if c.AllowedOrigins == "" {
		if c.IsDev() {
			return "*"
		}
		return "https://villagesabha.in"
	}
	return c.AllowedOrigins
}
