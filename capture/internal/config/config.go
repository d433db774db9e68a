package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Bridge  BridgeConfig  `mapstructure:"bridge"`
	Capture CaptureConfig `mapstructure:"capture"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type BridgeConfig struct {
	URL         string        `mapstructure:"url"`
	TabID       int           `mapstructure:"tab_id"`
	Host        string        `mapstructure:"host"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

type CaptureConfig struct {
	QueueNames     []string `mapstructure:"queue_names"`
	ConsoleLogging bool     `mapstructure:"console_logging"`
	DebugLogging   bool     `mapstructure:"debug_logging"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.port", 8092)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("bridge.url", "ws://localhost:8091/bridge")
	v.SetDefault("bridge.tab_id", 1)
	v.SetDefault("bridge.host", "localhost")
	v.SetDefault("bridge.dial_timeout", "10s")
	v.SetDefault("capture.queue_names", []string{"dataLayer"})
	v.SetDefault("capture.console_logging", false)
	v.SetDefault("capture.debug_logging", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/layerlens/capture")
	}

	// Environment variables override
	v.SetEnvPrefix("CAPTURE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// BridgeURL returns the collector bridge endpoint with tab and host bound.
func (c *Config) BridgeURL() string {
	return fmt.Sprintf("%s?tab=%d&host=%s", c.Bridge.URL, c.Bridge.TabID, c.Bridge.Host)
}
