package config

import (
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Project struct {
		Root   string   `yaml:"root"`
		Ignore []string `yaml:"ignore"`
	} `yaml:"project"`
	Discovery struct {
		IncludeSuites []string `yaml:"include_suites"`
		ExcludeSuites []string `yaml:"exclude_suites"`
	} `yaml:"discovery"`
	Snapshot struct {
		DBPath string `yaml:"db_path"`
	} `yaml:"snapshot"`
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	var cfg Config
	cfg.Project.Root = "."
	cfg.Snapshot.DBPath = "sift.db"
	return &cfg
}

// LoadConfig reads the YAML config at path, falling back to defaults when
// the file is missing, and applies environment overrides on top.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := Default()

	// 2. Load YAML config
	file, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	// 3. Override with Environment Variables if present
	if root := os.Getenv("SIFT_ROOT"); root != "" {
		cfg.Project.Root = root
	}
	if dbPath := os.Getenv("SIFT_DB"); dbPath != "" {
		cfg.Snapshot.DBPath = dbPath
	}

	if cfg.Project.Root == "" {
		cfg.Project.Root = "."
	}
	if cfg.Snapshot.DBPath == "" {
		cfg.Snapshot.DBPath = "sift.db"
	}

	return cfg, nil
}
