package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	CurrentProfile string              `yaml:"current_profile"`
	Profiles       map[string]*Profile `yaml:"profiles"`
	path           string
}

// Profile points at one deployment's service endpoints.
type Profile struct {
	CollectorURL   string `yaml:"collector_url"`
	CoordinatorURL string `yaml:"coordinator_url"`
	CaptureURL     string `yaml:"capture_url"`
}

func Default() *Config {
	return &Config{
		CurrentProfile: "default",
		Profiles: map[string]*Profile{
			"default": DefaultProfile(),
		},
	}
}

func DefaultProfile() *Profile {
	return &Profile{
		CollectorURL:   "http://localhost:8091",
		CoordinatorURL: "http://localhost:8093",
		CaptureURL:     "http://localhost:8092",
	}
}

func Load(cfgFile string) (*Config, error) {
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		cfgFile = filepath.Join(home, ".llens", "config.yaml")
	}

	cfg := Default()
	cfg.path = cfgFile

	data, err := os.ReadFile(cfgFile)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Save() error {
	if c.path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		c.path = filepath.Join(home, ".llens", "config.yaml")
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(c.path, data, 0600)
}

// Profile resolves a profile by name, or the current one when name is
// empty. Unknown names fall back to built-in defaults with an error.
func (c *Config) Profile(name string) (*Profile, error) {
	if name == "" {
		name = c.CurrentProfile
	}
	if p, ok := c.Profiles[name]; ok && p != nil {
		return p, nil
	}
	return DefaultProfile(), fmt.Errorf("profile %q not found", name)
}
