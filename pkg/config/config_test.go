package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points Load at a dotenv file that does not exist and clears the
// variables tests rely on, restoring them afterwards.
func isolate(t *testing.T, keys ...string) Options {
	t.Helper()
	for _, key := range append(keys, APIKeyEnv, "LAWGIT_LAW_ID", "LAWGIT_OUTPUT_DIR", "LAWGIT_LOG_FORMAT") {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	return Options{EnvFile: filepath.Join(t.TempDir(), "missing.env")}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(isolate(t))

	require.NoError(t, err)
	assert.Equal(t, Defaults(), *cfg)
	assert.Equal(t, "ZAKO4697", cfg.LawID)
	assert.Equal(t, "/tmp/slovenian_laws", cfg.OutputDir)
	assert.Equal(t, time.Second, cfg.RequestInterval)
}

func TestLoad_Precedence(t *testing.T) {
	options := isolate(t)

	configFile := filepath.Join(t.TempDir(), "lawgit.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("law-id: ZAKO1111\noutput-dir: /from/file\nrequest-interval: 250ms\n"), 0o644))
	options.ConfigFile = configFile

	t.Setenv("LAWGIT_OUTPUT_DIR", "/from/env")
	t.Setenv(APIKeyEnv, "secret")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("law-id", "ZAKO4697", "")
	flags.String("log-format", "console", "")
	require.NoError(t, flags.Parse([]string{"--log-format", "json"}))
	options.Flags = flags

	cfg, err := Load(options)

	require.NoError(t, err)
	assert.Equal(t, "ZAKO1111", cfg.LawID, "unset flag does not shadow the config file")
	assert.Equal(t, "/from/env", cfg.OutputDir)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "secret", cfg.PISRSAPIKey)
	assert.Equal(t, 250*time.Millisecond, cfg.RequestInterval)
}

func TestLoad_DotEnv(t *testing.T) {
	options := isolate(t)
	options.EnvFile = filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(options.EnvFile, []byte(APIKeyEnv+"=from-dotenv\n"), 0o644))

	cfg, err := Load(options)

	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.PISRSAPIKey)
}

func TestLoad_Invalid(t *testing.T) {
	options := isolate(t)
	t.Setenv("LAWGIT_LOG_FORMAT", "xml")

	_, err := Load(options)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "LogFormat")
}

func TestLoad_MissingConfigFile(t *testing.T) {
	options := isolate(t)
	options.ConfigFile = filepath.Join(t.TempDir(), "absent.yaml")

	_, err := Load(options)
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"console", "json"} {
		logger, err := NewLogger("debug", format)
		require.NoError(t, err, format)
		assert.NotNil(t, logger)
	}

	_, err := NewLogger("loud", "console")
	assert.Error(t, err)
}
