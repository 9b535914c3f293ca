// Package config provides configuration loading.
//
// Values are resolved in this order, later sources winning:
// built-in defaults, the config file (TOML or YAML), and MESSENGER_MIRROR_*
// environment variables. Registered validators then normalize every value.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cristianoliveira/messenger-mirror/internal/colors"
	"github.com/pelletier/go-toml/v2"
	yaml "go.yaml.in/yaml/v3"
)

// EnvPrefix is the prefix of environment variables that override config keys.
const EnvPrefix = "MESSENGER_MIRROR_"

// File permission constants
const (
	// FileModeDir is the permission for directories (rwx------).
	// The state directory holds credentials-adjacent data, so it is owner only.
	FileModeDir os.FileMode = 0700
	// FileModeFile is the permission for data files (rw-------).
	FileModeFile os.FileMode = 0600

	// FileExtTOML is the file extension for TOML configuration files (primary format).
	FileExtTOML = ".toml"
	// FileExtYAML and FileExtYML are accepted for YAML configuration files.
	FileExtYAML = ".yaml"
	FileExtYML  = ".yml"
)

// Config holds resolved configuration values keyed by lower-case name.
type Config struct {
	values   map[string]string
	defaults map[string]string
	path     string
}

// Load resolves configuration from defaults, the config file and the environment.
func Load() *Config {
	c := &Config{
		values:   make(map[string]string),
		defaults: make(map[string]string),
	}

	c.setDefaults()
	// Environment first so MESSENGER_MIRROR_CONFIG_DIR can move the config file
	c.loadFromEnv()
	c.loadFromFile()
	// Re-apply environment variable overrides so env wins
	c.loadFromEnv()
	c.validate()
	c.computeDirs()
	return c
}

// setDefaults populates config with default values.
func (c *Config) setDefaults() {
	home, _ := os.UserHomeDir()
	xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfigHome == "" {
		xdgConfigHome = filepath.Join(home, ".config")
	}
	xdgStateHome := os.Getenv("XDG_STATE_HOME")
	if xdgStateHome == "" {
		xdgStateHome = filepath.Join(home, ".local", "state")
	}

	c.setDefault("config_dir", filepath.Join(xdgConfigHome, "messenger-mirror"))
	c.setDefault("state_dir", filepath.Join(xdgStateHome, "messenger-mirror"))
	c.setDefault("user_data_dir", "")

	c.setDefault("base_url", "https://www.messenger.com")
	c.setDefault("debug", "false")
	c.setDefault("headless", "false")

	c.setDefault("notification_frequency", "1h0m0s")
	c.setDefault("ping_frequency", "8h0m0s")
	c.setDefault("tick_delay", "1s")
	c.setDefault("idle_delay", "1m0s")
	c.setDefault("unknown_cooldown", "5m0s")
	c.setDefault("avatar_timeout", "10s")

	c.setDefault("delivery_backend", "sendgrid")
	c.setDefault("sendgrid_from_name", "Messenger")
	c.setDefault("ping_sender_name", "Messenger Mirror")

	c.setDefault("storage_backend", "sqlite")

	c.setDefault("debug_server_enabled", "true")
	c.setDefault("debug_server_addr", "127.0.0.1:4209")

	c.setDefault("logging_level", "info")
	c.setDefault("logging_format", "text")
	c.setDefault("logging_file_enabled", "false")
	c.setDefault("logging_max_files", "10")
}

func (c *Config) setDefault(key, value string) {
	c.values[key] = value
	c.defaults[key] = value
}

// configPath returns the file to read, or "" when there is none.
func (c *Config) configPath() string {
	if p := os.Getenv(EnvPrefix + "CONFIG_PATH"); p != "" {
		return p
	}
	dir := c.values["config_dir"]
	if dir == "" {
		return ""
	}
	for _, ext := range []string{FileExtTOML, FileExtYAML, FileExtYML} {
		candidate := filepath.Join(dir, "config"+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// loadFromFile reads configuration from a file.
func (c *Config) loadFromFile() {
	path := c.configPath()
	if path == "" {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		colors.Debug(fmt.Sprintf("unable to read config file %s: %v", path, err))
		return
	}

	var raw map[string]interface{}
	switch strings.ToLower(filepath.Ext(path)) {
	case FileExtTOML:
		err = toml.Unmarshal(data, &raw)
	case FileExtYAML, FileExtYML:
		err = yaml.Unmarshal(data, &raw)
	default:
		colors.Warning(fmt.Sprintf("unsupported config file extension: %s", path))
		return
	}
	if err != nil {
		colors.Warning(fmt.Sprintf("unable to parse config file %s: %v", path, err))
		return
	}

	for k, v := range raw {
		key := strings.ToLower(k)
		converted, ok := coerceConfigValue(v)
		if !ok {
			colors.Warning(fmt.Sprintf("unsupported config value type for %s: %T", key, v))
			continue
		}
		c.values[key] = converted
	}
	c.path = path
}

// coerceConfigValue converts a configuration value to its string representation.
// Supported types are string, int, int64, uint64, float64 and bool.
func coerceConfigValue(value interface{}) (string, bool) {
	switch typed := value.(type) {
	case string:
		return typed, true
	case int:
		return strconv.Itoa(typed), true
	case int64:
		return strconv.FormatInt(typed, 10), true
	case uint64:
		return strconv.FormatUint(typed, 10), true
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(typed), true
	default:
		return "", false
	}
}

// loadFromEnv applies environment variable overrides.
func (c *Config) loadFromEnv() {
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, EnvPrefix) {
			continue
		}
		parts := strings.SplitN(env, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(parts[0], EnvPrefix))
		if key == "config_path" {
			continue
		}
		c.values[key] = parts[1]
	}
}

// validate checks and normalizes configuration values using registered validators.
func (c *Config) validate() {
	for key, value := range c.values {
		validator := getValidator(key)
		if validator == nil {
			continue
		}
		defaultValue := c.defaults[key]
		normalized, err := validator(key, value, defaultValue)
		if err != nil {
			colors.Warning(fmt.Sprintf("validation error for %s: %v, using default: %s", key, err, defaultValue))
			c.values[key] = defaultValue
			continue
		}
		c.values[key] = normalized
	}
}

// computeDirs fills in directories derived from state_dir.
func (c *Config) computeDirs() {
	stateDir := c.values["state_dir"]
	if stateDir == "" {
		return
	}
	if c.values["user_data_dir"] == "" {
		c.values["user_data_dir"] = filepath.Join(stateDir, "browser")
	}
}

// Path returns the config file that was loaded, or "" if none was.
func (c *Config) Path() string {
	return c.path
}

// Get returns a configuration value or default.
func (c *Config) Get(key, defaultValue string) string {
	if val, ok := c.values[key]; ok {
		return val
	}
	return defaultValue
}

// GetInt returns a configuration value as integer, or default.
func (c *Config) GetInt(key string, defaultValue int) int {
	val, ok := c.values[key]
	if !ok {
		return defaultValue
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return n
}

// GetBool returns a configuration value as boolean, or default.
func (c *Config) GetBool(key string, defaultValue bool) bool {
	val, ok := c.values[key]
	if !ok {
		return defaultValue
	}
	switch normalizeBool(val) {
	case "true":
		return true
	case "false":
		return false
	default:
		return defaultValue
	}
}

// GetDuration returns a configuration value as a duration, or default.
func (c *Config) GetDuration(key string, defaultValue time.Duration) time.Duration {
	val, ok := c.values[key]
	if !ok || val == "" {
		return defaultValue
	}
	d, err := parseDuration(val)
	if err != nil {
		return defaultValue
	}
	return d
}

// parseDuration accepts Go durations and bare integers, read as seconds.
func parseDuration(val string) (time.Duration, error) {
	if n, err := strconv.Atoi(val); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(val)
}
