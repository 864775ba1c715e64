package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper to set env vars and clean up after
func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old := os.Getenv(key)
	os.Setenv(key, value)
	t.Cleanup(func() {
		if old == "" {
			os.Unsetenv(key)
		} else {
			os.Setenv(key, old)
		}
	})
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "HOST", "ENV", "DATABASE_PATH", "CORS_ORIGINS", "SESSION_ID", "ENABLE_DOCS", "INCLUDE_CLIENT_IP", "INCLUDE_REMAINING_COUNT"} {
		setEnv(t, key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultHost, cfg.Host)
	assert.Equal(t, DefaultEnv, cfg.Env)
	assert.Equal(t, DefaultDatabasePath, cfg.DatabasePath)
	assert.Equal(t, DefaultSessionID, cfg.SessionID)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.True(t, cfg.EnableDocs, "docs default on outside production")
	assert.False(t, cfg.IncludeClientIP)
	assert.True(t, cfg.IncludeRemainingCount)
}

func TestLoad_DocsOffInProduction(t *testing.T) {
	setEnv(t, "ENV", "production")
	setEnv(t, "ENABLE_DOCS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.EnableDocs)
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_DocsExplicitOverride(t *testing.T) {
	setEnv(t, "ENV", "production")
	setEnv(t, "ENABLE_DOCS", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.EnableDocs)
}

func TestLoad_CORSOriginsList(t *testing.T) {
	setEnv(t, "CORS_ORIGINS", "http://localhost:3000, https://dashboard.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"http://localhost:3000", "https://dashboard.example.com"}, cfg.CORSOrigins)
}

func TestLoad_InvalidPort(t *testing.T) {
	setEnv(t, "PORT", "not-a-port")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "PORT must be numeric")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{
			name:    "valid config",
			config:  Config{Port: "8000", SessionID: "session_1"},
			wantErr: "",
		},
		{
			name:    "bad port",
			config:  Config{Port: "abc", SessionID: "session_1"},
			wantErr: "PORT must be numeric",
		},
		{
			name:    "empty session id",
			config:  Config{Port: "8000", SessionID: ""},
			wantErr: "SESSION_ID must not be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
