package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		t.Setenv("DB_DSN", "postgres://localhost/books")
		t.Setenv("JWT_SECRET", "secret")

		cfg, err := Load()
		require.NoError(t, err)
		assert.False(t, cfg.IsProduction)
		assert.Equal(t, ":8080", cfg.HTTPAddr)
		assert.Equal(t, 15*time.Minute, cfg.JWTAccessTokenTTL)
		assert.Equal(t, 12, cfg.BcryptCost)
		assert.Equal(t, "./data", cfg.StoragePath)
		assert.Equal(t, 5, cfg.MaxUploadSizeMB)
		assert.Equal(t, 0, cfg.DBMaxConns)
		assert.True(t, cfg.DBAutoMigrate)
	})

	t.Run("Overrides", func(t *testing.T) {
		t.Setenv("DB_DSN", "postgres://localhost/books")
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("APP_ENV", "prod")
		t.Setenv("HTTP_ADDR", ":9000")
		t.Setenv("JWT_ACCESS_TOKEN_TTL", "1h")
		t.Setenv("DB_MAX_CONNS", "8")
		t.Setenv("DB_AUTO_MIGRATE", "false")

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.IsProduction)
		assert.Equal(t, ":9000", cfg.HTTPAddr)
		assert.Equal(t, time.Hour, cfg.JWTAccessTokenTTL)
		assert.Equal(t, 8, cfg.DBMaxConns)
		assert.False(t, cfg.DBAutoMigrate)
	})

	t.Run("Missing DSN", func(t *testing.T) {
		t.Setenv("DB_DSN", "")
		t.Setenv("JWT_SECRET", "secret")

		_, err := Load()
		assert.ErrorContains(t, err, "DB_DSN")
	})

	t.Run("Missing JWT secret", func(t *testing.T) {
		t.Setenv("DB_DSN", "postgres://localhost/books")
		t.Setenv("JWT_SECRET", "")

		_, err := Load()
		assert.ErrorContains(t, err, "JWT_SECRET")
	})

	t.Run("Invalid values", func(t *testing.T) {
		t.Setenv("DB_DSN", "postgres://localhost/books")
		t.Setenv("JWT_SECRET", "secret")

		for key, value := range map[string]string{
			"JWT_ACCESS_TOKEN_TTL": "soon",
			"BCRYPT_COST":          "high",
			"MAX_UPLOAD_SIZE_MB":   "5MB",
			"DB_AUTO_MIGRATE":      "maybe",
		} {
			t.Run(key, func(t *testing.T) {
				t.Setenv(key, value)
				_, err := Load()
				assert.ErrorContains(t, err, key)
			})
		}
	})
}
