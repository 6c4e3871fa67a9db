package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".lorescan"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File is the YAML shape of a .lorescan configuration file. Pointer
// fields distinguish "unset" from explicit zero values so the file can
// turn options off as well as on.
type File struct {
	// Project is the default project name.
	Project string `yaml:"project"`

	// ConfidenceThreshold is the needs-review boundary.
	ConfidenceThreshold *int `yaml:"confidence_threshold"`

	// Gazetteer is the path to a gazetteer extension file, relative
	// paths resolved against the config file's directory.
	Gazetteer string `yaml:"gazetteer"`

	// Concurrency is the full-project detection parallelism.
	Concurrency *int `yaml:"concurrency"`

	// Enhance configures remote enhancement.
	Enhance EnhanceFile `yaml:"enhance"`
}

// EnhanceFile is the enhancement section of the config file.
type EnhanceFile struct {
	Enabled   *bool  `yaml:"enabled"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url"`

	// Timeout is a Go duration string such as "90s" or "2m".
	Timeout string `yaml:"timeout"`
}

// ParsedTimeout returns the parsed timeout, or zero when unset or
// malformed.
func (e EnhanceFile) ParsedTimeout() time.Duration {
	if e.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(e.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// LoadConfigFile loads a .lorescan YAML file. If the file does not
// exist, it returns ErrConfigNotFound; callers decide whether that
// matters based on whether the path was explicit.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	// Relative gazetteer paths are resolved against the config file so
	// the pair can be committed to a project repository together.
	if f.Gazetteer != "" && !filepath.IsAbs(f.Gazetteer) {
		f.Gazetteer = filepath.Join(filepath.Dir(path), f.Gazetteer)
	}
	return &f, nil
}

// FindConfigFile searches for the configuration file:
// 1. the explicit path, if one was given
// 2. .lorescan in the current directory
// 3. .lorescan in the user's home directory
//
// Returns the path if found, or empty string if not.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		candidate := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		candidate := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}
