package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Security SecurityConfig
	SMTP     SMTPConfig
	Assets   AssetsConfig
	GeoIP    GeoIPConfig
	CORS     CORSConfig
}

type ServerConfig struct {
	Port            string `validate:"required"`
	Host            string
	Environment     string `validate:"required,oneof=development staging production test"`
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Driver      string `validate:"required,oneof=postgres memory"`
	Host        string `validate:"required_if=Driver postgres"`
	Port        string
	User        string
	Password    string
	DBName      string `validate:"required_if=Driver postgres"`
	SSLMode     string
	AutoMigrate bool
}

type JWTConfig struct {
	Secret     string        `validate:"required"`
	AccessTTL  time.Duration `validate:"gt=0"`
	RefreshTTL time.Duration `validate:"gt=0"`
}

type SecurityConfig struct {
	// SecretKey signs password reset tokens.
	SecretKey            string        `validate:"required"`
	PasswordResetTimeout time.Duration `validate:"gt=0"`
	OTPTTL               time.Duration `validate:"gt=0"`
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string `validate:"required_with=Host"`
}

// Enabled reports whether mail should go out over SMTP.
func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

type AssetsConfig struct {
	Dir string
}

type GeoIPConfig struct {
	Enabled bool
	URL     string `validate:"required_if=Enabled true"`
	Timeout time.Duration
}

type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8000")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("SHUTDOWN_TIMEOUT", "15s")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "accounts")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("JWT_ACCESS_TTL", "5m")
	v.SetDefault("JWT_REFRESH_TTL", "24h")

	v.SetDefault("PASSWORD_RESET_TIMEOUT", "72h")
	v.SetDefault("OTP_TTL", "5m")

	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("ASSETS_DIR", "static")

	v.SetDefault("GEOIP_ENABLED", false)
	v.SetDefault("GEOIP_URL", "https://ipapi.co")
	v.SetDefault("GEOIP_TIMEOUT", "3s")

	v.SetDefault("CORS_ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"})
	v.SetDefault("CORS_EXPOSED_HEADERS", []string{"X-Request-ID"})
	v.SetDefault("CORS_MAX_AGE", 43200)
}

// Load reads .env.local and .env (both optional) plus the process
// environment, applies defaults and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load(".env.local")

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		log.Printf("Warning: config file not found: %v. Falling back to environment variables only.", err)
	}

	return FromViper(v)
}

// FromViper builds and validates a Config from an already populated viper
// instance. Missing keys take their defaults.
func FromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	secret := v.GetString("JWT_SECRET")
	secretKey := v.GetString("SECRET_KEY")
	if secretKey == "" {
		secretKey = secret
	}

	config := &Config{
		Server: ServerConfig{
			Port:            v.GetString("SERVER_PORT"),
			Host:            v.GetString("SERVER_HOST"),
			Environment:     v.GetString("ENVIRONMENT"),
			ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Driver:      v.GetString("DB_DRIVER"),
			Host:        v.GetString("DB_HOST"),
			Port:        v.GetString("DB_PORT"),
			User:        v.GetString("DB_USER"),
			Password:    v.GetString("DB_PASSWORD"),
			DBName:      v.GetString("DB_NAME"),
			SSLMode:     v.GetString("DB_SSLMODE"),
			AutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
		},
		JWT: JWTConfig{
			Secret:     secret,
			AccessTTL:  v.GetDuration("JWT_ACCESS_TTL"),
			RefreshTTL: v.GetDuration("JWT_REFRESH_TTL"),
		},
		Security: SecurityConfig{
			SecretKey:            secretKey,
			PasswordResetTimeout: v.GetDuration("PASSWORD_RESET_TIMEOUT"),
			OTPTTL:               v.GetDuration("OTP_TTL"),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			User:     v.GetString("SMTP_USER"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("SMTP_FROM"),
		},
		Assets: AssetsConfig{
			Dir: v.GetString("ASSETS_DIR"),
		},
		GeoIP: GeoIPConfig{
			Enabled: v.GetBool("GEOIP_ENABLED"),
			URL:     v.GetString("GEOIP_URL"),
			Timeout: v.GetDuration("GEOIP_TIMEOUT"),
		},
		CORS: CORSConfig{
			AllowedOrigins:   v.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods:   v.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders:   v.GetStringSlice("CORS_ALLOWED_HEADERS"),
			ExposedHeaders:   v.GetStringSlice("CORS_EXPOSED_HEADERS"),
			AllowCredentials: v.GetBool("CORS_ALLOW_CREDENTIALS"),
			MaxAge:           v.GetInt("CORS_MAX_AGE"),
		},
	}

	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
