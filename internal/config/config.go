// Package config loads the service configuration from config.yml and the
// environment.
package config

import (
	"strings"

	"github.com/spf13/viper"
	"github.com/vrsandeep/xmlup/internal/classify"
)

// Collector modes.
const (
	ModeHTTP = "http"
	ModeMock = "mock"
)

// Config holds all configuration settings for the application.
// It maps directly to the structure of config.yml.
type Config struct {
	Port      int `mapstructure:"port"`
	Collector struct {
		URL            string `mapstructure:"url"`
		TimeoutSeconds int    `mapstructure:"timeout_seconds"`
		Mode           string `mapstructure:"mode"`
		// MockStepMillis paces the mock collector's progress reports.
		MockStepMillis int `mapstructure:"mock_step_ms"`
	} `mapstructure:"collector"`
	Inbox struct {
		Path string `mapstructure:"path"`
		// SweepInterval is in minutes; 0 disables the scheduled sweep.
		SweepInterval int  `mapstructure:"sweep_interval"`
		Watch         bool `mapstructure:"watch"`
	} `mapstructure:"inbox"`
	Classify struct {
		// Rules maps a document kind to an XPath expression.
		Rules map[string]string `mapstructure:"rules"`
	} `mapstructure:"classify"`
}

// Load reads configuration from a file named "config.yml" in the
// current directory and unmarshals it into a Config struct.
// Environment variables prefixed with XMLUP_ override file values, e.g.
// XMLUP_COLLECTOR_URL overrides collector.url.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("XMLUP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", 8080)
	v.SetDefault("collector.url", "http://localhost:8080/upload")
	v.SetDefault("collector.timeout_seconds", 60)
	v.SetDefault("collector.mode", ModeHTTP)
	v.SetDefault("collector.mock_step_ms", 250)
	v.SetDefault("inbox.path", "")
	v.SetDefault("inbox.sweep_interval", 0)
	v.SetDefault("inbox.watch", false)
	v.SetDefault("classify.rules", classify.DefaultRules)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	return &config, nil
}
