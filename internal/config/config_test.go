package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr)
	assert.Equal(t, "data/attendance.db", cfg.Database.Path)
	assert.Equal(t, "qq.com", cfg.Users.EmailDomain)
	assert.Equal(t, 12*time.Hour, cfg.TokenTTL())
	assert.False(t, cfg.ArchiveEnabled())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ATTENDANCE_SERVER_ADDR", "127.0.0.1:9000")
	t.Setenv("ATTENDANCE_AUTH_JWTSECRET", "s3cret")
	t.Setenv("ATTENDANCE_AUTH_TOKENTTLMINUTES", "30")
	t.Setenv("ATTENDANCE_APP_TIMEZONE", "UTC")
	t.Setenv("ATTENDANCE_STORAGE_BUCKET", "reports")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL())
	assert.True(t, cfg.ArchiveEnabled())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoad_BadTimezone(t *testing.T) {
	t.Setenv("ATTENDANCE_APP_TIMEZONE", "Mars/Olympus")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(`
# comment
export ATTENDANCE_TEST_A="from-file"
ATTENDANCE_TEST_B=from-file
not a pair
`), 0o600))

	t.Setenv("ATTENDANCE_TEST_B", "from-env")
	t.Setenv("ATTENDANCE_TEST_A", "")
	os.Unsetenv("ATTENDANCE_TEST_A")

	loadDotEnv(path)
	t.Cleanup(func() { os.Unsetenv("ATTENDANCE_TEST_A") })

	assert.Equal(t, "from-file", os.Getenv("ATTENDANCE_TEST_A"))
	assert.Equal(t, "from-env", os.Getenv("ATTENDANCE_TEST_B"))
}
