package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the loaded file.
const (
	EnvLogLevel      = "TETRION_LOG_LEVEL"
	EnvRecordingsDir = "TETRION_RECORDINGS_DIR"
	EnvDB            = "TETRION_DB"
)

// EnvFile is the optional dotenv file read from the working directory.
const EnvFile = ".env"

// Load loads the tetrion configuration.
// Search order: customPath -> ~/.tetrion/configs/tetrion.yaml -> ./configs/tetrion.yaml -> embedded default
// Fields missing from the chosen file keep their defaults. Afterwards .env
// and TETRION_* variables are applied and the result is validated.
func Load(customPath string) (TetrionConfig, error) {
	cfg, err := loadFile(customPath)
	if err != nil {
		return cfg, err
	}

	if err := loadEnvFile(EnvFile); err != nil {
		return cfg, err
	}
	applyEnv(&cfg, os.Getenv)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(customPath string) (TetrionConfig, error) {
	cfg := DefaultTetrionConfig()

	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		return cfg, nil
	}

	// Try user config directory
	if userCfgPath := userConfigPath("tetrion.yaml"); userCfgPath != "" {
		if data, err := os.ReadFile(userCfgPath); err == nil {
			candidate := DefaultTetrionConfig()
			if err := yaml.Unmarshal(data, &candidate); err == nil {
				return candidate, nil
			}
		}
	}

	// Try local configs directory
	if data, err := os.ReadFile(filepath.Join("configs", "tetrion.yaml")); err == nil {
		candidate := DefaultTetrionConfig()
		if err := yaml.Unmarshal(data, &candidate); err == nil {
			return candidate, nil
		}
	}

	// Use embedded default YAML
	if err := yaml.Unmarshal(defaultTetrionYAML, &cfg); err != nil {
		return DefaultTetrionConfig(), nil // Fallback to hardcoded if embed fails
	}
	return cfg, nil
}

// loadEnvFile exports the variables of path without overriding ones that are
// already set. A missing file is not an error.
func loadEnvFile(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}

func applyEnv(cfg *TetrionConfig, getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		cfg.Log.Level = v
	}
	if v := strings.TrimSpace(getenv(EnvRecordingsDir)); v != "" {
		cfg.Recording.Directory = v
	}
	if v := strings.TrimSpace(getenv(EnvDB)); v != "" {
		cfg.Storage.DBPath = v
	}
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".tetrion", "configs", filename)
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
