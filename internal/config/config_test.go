package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3creto")
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "America/Mexico_City", cfg.Timezone)
	assert.Equal(t, 22, cfg.ReporteDiarioHora)
	assert.Equal(t, 30*time.Minute, cfg.SessionWindow())
	assert.Equal(t, "s3creto", cfg.JWTSecret)
	assert.Empty(t, cfg.Origins())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ADMIN_API_KEY", "llave")
	t.Setenv("CORS_ORIGINS", "https://pos.example.com, https://admin.example.com")
	t.Setenv("SESSION_WINDOW_MINUTES", "45")
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "llave", cfg.AdminAPIKey)
	assert.Equal(t, []string{"https://pos.example.com", "https://admin.example.com"}, cfg.Origins())
	assert.Equal(t, 45*time.Minute, cfg.SessionWindow())
}

func TestLoad_ProductionNeedsSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	assert.Error(t, err)
}

func TestLocation_UnknownZoneFallsBackToUTC(t *testing.T) {
	cfg := &Config{Timezone: "Marte/Olympus"}
	assert.Equal(t, time.UTC, cfg.Location())
}
