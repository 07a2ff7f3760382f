package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	v := viper.New()
	v.Set("JWT_SECRET", "jwt-secret")

	cfg, err := FromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Environment)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Equal(t, 5*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 24*time.Hour, cfg.JWT.RefreshTTL)
	assert.Equal(t, 72*time.Hour, cfg.Security.PasswordResetTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Security.OTPTTL)
	assert.Equal(t, "jwt-secret", cfg.Security.SecretKey)
	assert.False(t, cfg.SMTP.Enabled())
	assert.False(t, cfg.GeoIP.Enabled)
	assert.Contains(t, cfg.CORS.AllowedMethods, "PATCH")
	assert.False(t, cfg.IsProduction())
}

func TestFromViper_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("JWT_SECRET", "jwt-secret")
	v.Set("SECRET_KEY", "reset-secret")
	v.Set("DB_DRIVER", "memory")
	v.Set("ENVIRONMENT", "production")
	v.Set("PASSWORD_RESET_TIMEOUT", "1h")
	v.Set("SMTP_HOST", "smtp.example.com")
	v.Set("SMTP_FROM", "noreply@example.com")

	cfg, err := FromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "reset-secret", cfg.Security.SecretKey)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, time.Hour, cfg.Security.PasswordResetTimeout)
	assert.True(t, cfg.SMTP.Enabled())
	assert.True(t, cfg.IsProduction())
}

func TestFromViper_Invalid(t *testing.T) {
	tests := []struct {
		name string
		set  map[string]any
	}{
		{name: "missing jwt secret", set: map[string]any{}},
		{name: "unknown driver", set: map[string]any{"JWT_SECRET": "s", "DB_DRIVER": "sqlite"}},
		{name: "unknown environment", set: map[string]any{"JWT_SECRET": "s", "ENVIRONMENT": "qa"}},
		{name: "smtp without sender", set: map[string]any{"JWT_SECRET": "s", "SMTP_HOST": "smtp.example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			for k, val := range tt.set {
				v.Set(k, val)
			}
			_, err := FromViper(v)
			assert.Error(t, err)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "accounts", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=accounts sslmode=disable", c.DSN())
}
