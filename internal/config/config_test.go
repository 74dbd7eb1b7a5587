package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Success loading from env", func(t *testing.T) {
		// t.Setenv sets the environment variable for the duration of the test
		// and automatically restores it afterwards.
		t.Setenv("APP_PORT", "9090")
		t.Setenv("APP_ENV", "test")
		t.Setenv("ORACLE_BASE_URL", "http://oracle.local")
		t.Setenv("ORACLE_API_KEY", "oracle_secret")
		t.Setenv("INTAKE_BASE_URL", "http://intake.local")
		t.Setenv("SERVICE_SECRET", "svc_secret")
		t.Setenv("SESSION_WINDOW", "20m")
		t.Setenv("MAX_CANDIDATES", "5")

		cfg := LoadConfig()

		assert.NotNil(t, cfg)
		assert.Equal(t, "9090", cfg.AppPort)
		assert.Equal(t, "test", cfg.AppEnv)
		assert.Equal(t, "http://oracle.local", cfg.OracleBaseURL)
		assert.Equal(t, "oracle_secret", cfg.OracleAPIKey)
		assert.Equal(t, "http://intake.local", cfg.IntakeBaseURL)
		assert.Equal(t, "svc_secret", cfg.ServiceSecret)
		assert.Equal(t, 20*time.Minute, cfg.SessionWindow)
		assert.Equal(t, 5, cfg.MaxCandidates)
	})

	t.Run("Defaults", func(t *testing.T) {
		t.Setenv("ORACLE_BASE_URL", "http://oracle.local")
		t.Setenv("APP_PORT", "")
		t.Setenv("SESSION_WINDOW", "")
		t.Setenv("MAX_CANDIDATES", "")

		cfg := LoadConfig()

		assert.Equal(t, "8080", cfg.AppPort)
		assert.Equal(t, 15*time.Minute, cfg.SessionWindow)
		assert.Equal(t, 3, cfg.MaxCandidates)
		assert.Equal(t, "config/weights.yaml", cfg.WeightTablePath)
	})

	t.Run("Invalid duration falls back", func(t *testing.T) {
		t.Setenv("ORACLE_BASE_URL", "http://oracle.local")
		t.Setenv("ORACLE_TIMEOUT", "not-a-duration")

		cfg := LoadConfig()
		assert.Equal(t, 5*time.Second, cfg.OracleTimeout)
	})
}
