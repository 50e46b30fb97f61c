package app

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-at-least-32-chars-long"

// clearEnv blanks every variable LoadConfig reads so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"APP_ENV", "ADDR", "STORAGE_DRIVER", "DATABASE_URL", "SECRET_KEY", "ALGORITHM",
		"ACCESS_TOKEN_EXPIRE_MINUTES", "BCRYPT_COST", "ALLOWED_ORIGINS", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("SECRET_KEY", testSecret)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, ":8000", cfg.Addr)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, "HS256", cfg.Auth.Algorithm)
	assert.True(t, cfg.IsDevelopment())

	tc := cfg.TokenConfig()
	assert.Equal(t, 30*time.Minute, tc.TTL)
	assert.Equal(t, testSecret, tc.Secret)
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":9000"
storage:
  driver: memory
auth:
  secret_key: from-file-secret-that-is-long-enough
  algorithm: HS512
  access_token_expire_minutes: 10
http:
  allowed_origins: ["https://blog.example"]
  request_timeout: 2s
`), 0o600))

	clearEnv(t)
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "45")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "HS512", cfg.Auth.Algorithm)
	assert.Equal(t, "from-file-secret-that-is-long-enough", cfg.Auth.SecretKey)
	assert.Equal(t, 45, cfg.Auth.AccessTokenExpireMinutes)
	assert.Equal(t, []string{"https://blog.example"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, 2*time.Second, cfg.HTTP.RequestTimeout)
}

func TestLoadConfig_MissingFileIsIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("SECRET_KEY", testSecret)

	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.NoError(t, err)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing secret", env: map[string]string{"SECRET_KEY": ""}},
		{name: "bad ttl", env: map[string]string{"SECRET_KEY": testSecret, "ACCESS_TOKEN_EXPIRE_MINUTES": "soon"}},
		{name: "zero ttl", env: map[string]string{"SECRET_KEY": testSecret, "ACCESS_TOKEN_EXPIRE_MINUTES": "0"}},
		{name: "unknown driver", env: map[string]string{"SECRET_KEY": testSecret, "STORAGE_DRIVER": "mongo"}},
		{name: "bad bcrypt cost", env: map[string]string{"SECRET_KEY": testSecret, "BCRYPT_COST": "high"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig("")
			assert.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(LogConfig{Level: "warn", Format: "json"}, &buf)

	log.Info("dropped")
	log.Warn("kept", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, `"msg":"kept"`)
	assert.Contains(t, out, `"k":"v"`)
}
