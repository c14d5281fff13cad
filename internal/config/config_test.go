package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/water")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "Asia/Ho_Chi_Minh", cfg.Timezone)
	assert.Equal(t, "telemetry", cfg.MQTTTopic)
	assert.Equal(t, 60*time.Minute, cfg.LivenessWindow)
	assert.Equal(t, ":8080", cfg.ListenAddr())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.NotNil(t, loc)
}

func TestLoadReadsCoordinateTable(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/water")
	t.Setenv("MQTT_COORDINATES", "G30A=9.176,105.150")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "G30A=9.176,105.150", cfg.MQTTCoordinates)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/water")
	t.Setenv("LIVENESS_WINDOW", "ten minutes")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadScadaCredentialsRequiredTogether(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/water")
	t.Setenv("SCADA_URL", "http://portal.example")
	t.Setenv("SCADA_USERNAME", "ops")
	t.Setenv("SCADA_PASSWORD", "")

	_, err := Load()
	assert.Error(t, err)
}
