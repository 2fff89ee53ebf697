package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// Values are read by viper from a config file or environment variables.
type Config struct {
	TelegramBotToken string        `mapstructure:"TELEGRAM_BOT_TOKEN"`
	BadgerDBPath     string        `mapstructure:"BADGERDB_PATH"`
	BadgerGCInterval time.Duration `mapstructure:"BADGER_GC_INTERVAL"`

	GeneratorURL         string        `mapstructure:"GENERATOR_URL"`
	GeneratorAPIKey      string        `mapstructure:"GENERATOR_API_KEY"`
	GeneratorModel       string        `mapstructure:"GENERATOR_MODEL"`
	GeneratorMaxTokens   int           `mapstructure:"GENERATOR_MAX_TOKENS"`
	GeneratorTemperature float64       `mapstructure:"GENERATOR_TEMPERATURE"`
	GeneratorTimeout     time.Duration `mapstructure:"GENERATOR_TIMEOUT"`

	// ProbeDelay paces consecutive domain probes.
	ProbeDelay time.Duration `mapstructure:"PROBE_DELAY"`

	LogLevel string `mapstructure:"LOG_LEVEL"`

	// MetricsAddr enables the /metrics endpoint when set, e.g. ":9090".
	MetricsAddr string `mapstructure:"METRICS_ADDR"`
}

var keys = []string{
	"TELEGRAM_BOT_TOKEN", "BADGERDB_PATH", "BADGER_GC_INTERVAL",
	"GENERATOR_URL", "GENERATOR_API_KEY", "GENERATOR_MODEL",
	"GENERATOR_MAX_TOKENS", "GENERATOR_TEMPERATURE", "GENERATOR_TIMEOUT",
	"PROBE_DELAY", "LOG_LEVEL", "METRICS_ADDR",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("BADGERDB_PATH", "./badger_data")
	v.SetDefault("BADGER_GC_INTERVAL", 5*time.Minute)
	v.SetDefault("GENERATOR_MODEL", "command")
	v.SetDefault("GENERATOR_MAX_TOKENS", 15)
	v.SetDefault("GENERATOR_TEMPERATURE", 0.8)
	v.SetDefault("GENERATOR_TIMEOUT", 20*time.Second)
	v.SetDefault("PROBE_DELAY", 100*time.Millisecond)
	v.SetDefault("LOG_LEVEL", "info")
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)
	// AutomaticEnv only covers keys viper already knows about during Unmarshal.
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine when everything comes from the environment.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Validate checks required fields and value ranges.
func (c Config) Validate() error {
	if c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is not set")
	}
	if c.GeneratorURL == "" {
		return fmt.Errorf("GENERATOR_URL is not set")
	}
	if c.GeneratorMaxTokens <= 0 {
		return fmt.Errorf("GENERATOR_MAX_TOKENS must be positive, got %d", c.GeneratorMaxTokens)
	}
	// The client treats a zero temperature as unset, so it is not a usable value here.
	if c.GeneratorTemperature <= 0 || c.GeneratorTemperature > 5 {
		return fmt.Errorf("GENERATOR_TEMPERATURE must be in (0, 5], got %v", c.GeneratorTemperature)
	}
	if c.ProbeDelay < 0 {
		return fmt.Errorf("PROBE_DELAY must not be negative")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return nil
}

// Level returns the configured logrus level, defaulting to info.
func (c Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
