package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManagerDefaults(t *testing.T) {
	manager, err := NewManager()
	require.NoError(t, err)

	cfg := manager.GetConfig()
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.History.Backend)
	assert.Equal(t, 0.32, cfg.Engine.DecisionThreshold)
	assert.Equal(t, 1.3, cfg.Engine.KeySymptomBoost)
	assert.Equal(t, 0.6, cfg.Engine.KeySymptomDampen)
	assert.Equal(t, 3, cfg.Engine.MaxCandidates)
	assert.Equal(t, "info", cfg.Logging.Level)

	assert.NoError(t, manager.Validate())
}

func TestManagerEnvironmentOverride(t *testing.T) {
	t.Setenv("TRIAGE_SERVER_PORT", "9090")
	t.Setenv("TRIAGE_ENGINE_DECISION_THRESHOLD", "0.5")

	manager, err := NewManager()
	require.NoError(t, err)

	cfg := manager.GetConfig()
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 0.5, cfg.Engine.DecisionThreshold)
}

func TestValidateRejectsBadConfig(t *testing.T) {
	manager, err := NewManager()
	require.NoError(t, err)

	cfg := manager.GetConfig()

	cfg.Server.Port = -1
	assert.Error(t, manager.Validate())
	cfg.Server.Port = 8080

	cfg.History.Backend = "cassandra"
	assert.Error(t, manager.Validate())
	cfg.History.Backend = "postgres"
	cfg.History.PostgresURL = ""
	assert.Error(t, manager.Validate())
	cfg.History.Backend = "sqlite"
	cfg.History.SQLitePath = "./data/history.db"

	cfg.Engine.DecisionThreshold = 1.5
	assert.Error(t, manager.Validate())
	cfg.Engine.DecisionThreshold = 0.32

	cfg.Logging.Level = "verbose"
	assert.Error(t, manager.Validate())
}
