package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

const (
	xdgAppName = "evertask"
	configFile = "config.json"

	DefaultCalendar = "Tasks"
	DefaultDriver   = "sqlite3"
)

type StoreConfig struct {
	// Driver is sqlite3, mysql or json.
	Driver string `json:"driver"`
	DSN    string `json:"dsn"`
}

type GitHubConfig struct {
	ClientID     string `json:"client_id,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`
}

type Config struct {
	Calendar string       `json:"calendar"`
	User     string       `json:"user,omitempty"`
	Store    StoreConfig  `json:"store"`
	GitHub   GitHubConfig `json:"github"`
}

func GetXdgHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

// GetConfigPath honours EVERTASK_CONFIG before the default location.
func GetConfigPath() (string, error) {
	if p := os.Getenv("EVERTASK_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := GetXdgHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load reads the config file, fills in defaults and applies environment
// overrides. Variables from a .env file in the working directory are
// loaded first; existing environment variables win over it.
func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	loadDotEnv(".env")
	return LoadFrom(path)
}

// loadDotEnv sets variables from the given files. A missing file is
// normal; a malformed one is logged and skipped.
func loadDotEnv(files ...string) {
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Printf("Ignoring %s: %v", file, err)
		}
	}
}

// LoadFrom is Load for an explicit file path without reading .env.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}
	f, err := os.Open(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		defer f.Close()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
	}
	cfg.applyEnv()
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() error {
	if c.Calendar == "" {
		c.Calendar = DefaultCalendar
	}
	if c.Store.Driver == "" {
		c.Store.Driver = DefaultDriver
	}
	if c.Store.DSN == "" {
		dir, err := GetXdgHome()
		if err != nil {
			return err
		}
		switch c.Store.Driver {
		case "json":
			c.Store.DSN = filepath.Join(dir, "tasks.json")
		case DefaultDriver:
			c.Store.DSN = filepath.Join(dir, "evertask.db")
		}
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("EVERTASK_DB_DRIVER"); v != "" {
		c.Store.Driver = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Store.DSN = v
	}
	if v := os.Getenv("GITHUB_CLIENT_ID"); v != "" {
		c.GitHub.ClientID = v
	}
	if v := os.Getenv("GITHUB_CLIENT_SECRET"); v != "" {
		c.GitHub.ClientSecret = v
	}
}

func Save(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg)
}

func SaveTo(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file for writing: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return encoder.Encode(cfg)
}

// Update rewrites the config file through fn. Only values stored in the
// file are seen by fn; defaults and environment overrides are not saved.
func Update(fn func(*Config)) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	cfg := &Config{}
	f, err := os.Open(path)
	switch {
	case err == nil:
		err = json.NewDecoder(f).Decode(cfg)
		f.Close()
		if err != nil {
			return fmt.Errorf("failed to decode config: %w", err)
		}
	case !os.IsNotExist(err):
		return err
	}
	fn(cfg)
	return SaveTo(path, cfg)
}
