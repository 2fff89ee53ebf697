package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_FromFileWithDefaults(t *testing.T) {
	dir := t.TempDir()
	yaml := "TELEGRAM_BOT_TOKEN: file-token\nGENERATOR_URL: http://localhost:8080/generate\nPROBE_DELAY: 250ms\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "file-token", cfg.TelegramBotToken)
	assert.Equal(t, "http://localhost:8080/generate", cfg.GeneratorURL)
	assert.Equal(t, 250*time.Millisecond, cfg.ProbeDelay)
	assert.Equal(t, "./badger_data", cfg.BadgerDBPath)
	assert.Equal(t, 15, cfg.GeneratorMaxTokens)
	assert.InDelta(t, 0.8, cfg.GeneratorTemperature, 0.0001)
	assert.Equal(t, 20*time.Second, cfg.GeneratorTimeout)
	assert.Equal(t, logrus.InfoLevel, cfg.Level())
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("TELEGRAM_BOT_TOKEN: file-token\n"), 0o600))
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	t.Setenv("GENERATOR_URL", "http://gen")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.TelegramBotToken)
	assert.Equal(t, logrus.DebugLevel, cfg.Level())
}

func TestLoadConfig_MissingRequired(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("GENERATOR_URL", "")

	_, err := LoadConfig(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELEGRAM_BOT_TOKEN")
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{
		TelegramBotToken:     "t",
		GeneratorURL:         "http://gen",
		GeneratorMaxTokens:   15,
		GeneratorTemperature: 0.8,
		LogLevel:             "info",
	}
	require.NoError(t, valid.Validate())

	bad := valid
	bad.GeneratorURL = ""
	assert.Error(t, bad.Validate())

	bad = valid
	bad.LogLevel = "loud"
	assert.Error(t, bad.Validate())

	bad = valid
	bad.ProbeDelay = -time.Second
	assert.Error(t, bad.Validate())

	bad = valid
	bad.GeneratorTemperature = 0
	err := bad.Validate()
	require.Error(t, err, "a zero temperature would be replaced by the client default")
	assert.Contains(t, err.Error(), "GENERATOR_TEMPERATURE")

	bad = valid
	bad.GeneratorTemperature = 5.1
	assert.Error(t, bad.Validate())
}
