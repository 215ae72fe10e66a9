// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/routine-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete routine configuration.
type Config struct {
	Version string `toml:"version" json:"version" yaml:"version"`

	// Product catalog source
	Catalog CatalogConfig `toml:"catalog" json:"catalog" yaml:"catalog"`

	// Chat completion endpoint
	Chat ChatConfig `toml:"chat" json:"chat" yaml:"chat"`

	// Selection persistence
	Storage StorageConfig `toml:"storage" json:"storage" yaml:"storage"`

	// Logging
	Log LogConfig `toml:"log" json:"log" yaml:"log"`

	// Terminal UI
	UI UIConfig `toml:"ui" json:"ui" yaml:"ui"`
}

// CatalogConfig describes where the product list comes from.
type CatalogConfig struct {
	// Source is an http(s) URL or a file path relative to Root.
	Source      string `toml:"source" json:"source" yaml:"source"`
	Root        string `toml:"root" json:"root" yaml:"root"`
	TimeoutSecs int    `toml:"timeout_secs" json:"timeout_secs" yaml:"timeout_secs"`
	// Watch reloads the TUI grid when a local catalog file changes.
	Watch bool `toml:"watch" json:"watch" yaml:"watch"`
}

// ChatConfig contains the chat completion endpoint settings.
type ChatConfig struct {
	Endpoint          string `toml:"endpoint" json:"endpoint" yaml:"endpoint"`
	Model             string `toml:"model" json:"model" yaml:"model"`
	APIKey            string `toml:"api_key" json:"api_key" yaml:"api_key"`
	TimeoutSecs       int    `toml:"timeout_secs" json:"timeout_secs" yaml:"timeout_secs"`
	MaxRetries        int    `toml:"max_retries" json:"max_retries" yaml:"max_retries"`
	RequestsPerMinute int    `toml:"requests_per_minute" json:"requests_per_minute" yaml:"requests_per_minute"`
	SystemPrompt      string `toml:"system_prompt" json:"system_prompt" yaml:"system_prompt"`
}

// StorageConfig selects the key-value backend holding the selection.
type StorageConfig struct {
	// Backend is one of sqlite, file, redis, memory.
	Backend  string `toml:"backend" json:"backend" yaml:"backend"`
	Path     string `toml:"path" json:"path" yaml:"path"`
	RedisURL string `toml:"redis_url" json:"redis_url" yaml:"redis_url"`
	Key      string `toml:"key" json:"key" yaml:"key"`
}

// LogConfig contains zerolog settings.
type LogConfig struct {
	Level  string `toml:"level" json:"level" yaml:"level"`
	Format string `toml:"format" json:"format" yaml:"format"`
	Output string `toml:"output" json:"output" yaml:"output"`
	File   string `toml:"file" json:"file" yaml:"file"`
}

// UIConfig contains terminal UI preferences.
type UIConfig struct {
	Theme    string `toml:"theme" json:"theme" yaml:"theme"`
	Columns  int    `toml:"columns" json:"columns" yaml:"columns"`
	Markdown bool   `toml:"markdown" json:"markdown" yaml:"markdown"`
}

// Backend names accepted by storage.backend.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// DefaultSystemPrompt is the advisor instruction sent first in every routine conversation.
const DefaultSystemPrompt = "You are a L'Oréal skincare and beauty advisor. Build a personalized routine using only the provided products. Explain the order and purpose of each step. Be friendly and clear."

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Catalog: CatalogConfig{
			Source:      "products.json",
			Root:        "",
			TimeoutSecs: 15,
			Watch:       true,
		},

		Chat: ChatConfig{
			Endpoint:          "",
			Model:             "gpt-4o",
			TimeoutSecs:       60,
			MaxRetries:        2,
			RequestsPerMinute: 20,
			SystemPrompt:      DefaultSystemPrompt,
		},

		Storage: StorageConfig{
			Backend: BackendSQLite,
			Key:     "selectedProducts",
		},

		Log: LogConfig{
			Level:  "info",
			Format: "console",
			Output: "file",
		},

		UI: UIConfig{
			Theme:    "auto",
			Columns:  3,
			Markdown: true,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the routine configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".routine"), nil
}

func configPath(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) { return configPath("config.toml") }

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) { return configPath("config.json") }

// ConfigPathYAML returns the path to the YAML config file.
func ConfigPathYAML() (string, error) { return configPath("config.yaml") }

// DefaultDBPath returns the default sqlite database path.
func DefaultDBPath() (string, error) { return configPath("routine.db") }

// DefaultLogPath returns the default log file path.
func DefaultLogPath() (string, error) { return configPath("routine.log") }

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions checks and fixes permissions on config files.
// SECURITY: Config files should be 0600 (owner read/write only) to protect API keys.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// LoadDotEnv loads KEY=VALUE pairs from the given .env files (default ".env")
// into the process environment. Variables already set are left untouched and
// missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Load loads configuration from the config directory.
// Tries TOML, then JSON, then YAML, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	var loadErr error

	candidates := []func() (string, error){ConfigPathTOML, ConfigPathJSON, ConfigPathYAML}
	for _, pathFn := range candidates {
		path, err := pathFn()
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(path); statErr != nil {
			continue
		}
		cfg, err := LoadFromPath(path)
		if err == nil {
			return cfg, nil
		}
		var verrs ValidateErrors
		if errors.As(err, &verrs) {
			return nil, err
		}
		loadErr = err
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// Defaults plus the load error, for informational purposes
	return cfg, loadErr
}

// LoadTOML loads configuration from a TOML file.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON loads configuration from a JSON file.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadYAML loads configuration from a YAML file.
func LoadYAML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read YAML file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode YAML file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full validation.
// The format is chosen by extension; anything unrecognized is read as TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = LoadJSON(cfg, path)
	case ".yaml", ".yml":
		err = LoadYAML(cfg, path)
	default:
		err = LoadTOML(cfg, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var b strings.Builder
	b.WriteString("# routine configuration file\n")
	b.WriteString("# Secrets may also be supplied via ROUTINE_CHAT_API_KEY or a .env file\n\n")

	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	// SECURITY: Write with restrictive permissions (0600 = owner read/write only)
	if err := util.AtomicWriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if strings.TrimSpace(c.Catalog.Source) == "" {
		errs = append(errs, ValidationError{Field: "catalog.source", Message: "must not be empty"})
	} else if IsURL(c.Catalog.Source) {
		if _, err := url.ParseRequestURI(c.Catalog.Source); err != nil {
			errs = append(errs, ValidationError{Field: "catalog.source", Message: "invalid URL"})
		}
	}
	if c.Catalog.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{Field: "catalog.timeout_secs", Message: "must not be negative"})
	}

	// An empty endpoint is legal; requests then fail with a configuration error.
	if c.Chat.Endpoint != "" {
		u, err := url.Parse(c.Chat.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, ValidationError{Field: "chat.endpoint", Message: "must be an http(s) URL"})
		}
	}
	if c.Chat.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{Field: "chat.timeout_secs", Message: "must not be negative"})
	}
	if c.Chat.MaxRetries < 0 || c.Chat.MaxRetries > 10 {
		errs = append(errs, ValidationError{Field: "chat.max_retries", Message: "must be between 0 and 10"})
	}
	if c.Chat.RequestsPerMinute < 0 {
		errs = append(errs, ValidationError{Field: "chat.requests_per_minute", Message: "must not be negative"})
	}

	switch c.Storage.Backend {
	case BackendSQLite, BackendFile, BackendMemory:
	case BackendRedis:
		if c.Storage.RedisURL == "" {
			errs = append(errs, ValidationError{Field: "storage.redis_url", Message: "required when backend is redis"})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("unknown backend %q (want sqlite, file, redis or memory)", c.Storage.Backend),
		})
	}
	if strings.TrimSpace(c.Storage.Key) == "" {
		errs = append(errs, ValidationError{Field: "storage.key", Message: "must not be empty"})
	}

	switch strings.ToLower(c.Log.Level) {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
	default:
		errs = append(errs, ValidationError{Field: "log.level", Message: fmt.Sprintf("unknown level %q", c.Log.Level)})
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		errs = append(errs, ValidationError{Field: "log.format", Message: "must be console or json"})
	}
	switch strings.ToLower(c.Log.Output) {
	case "file", "stderr", "stdout":
	default:
		errs = append(errs, ValidationError{Field: "log.output", Message: "must be file, stderr or stdout"})
	}

	switch c.UI.Theme {
	case "auto", "dark", "light":
	default:
		errs = append(errs, ValidationError{Field: "ui.theme", Message: "must be auto, dark or light"})
	}
	if c.UI.Columns < 1 || c.UI.Columns > 6 {
		errs = append(errs, ValidationError{Field: "ui.columns", Message: "must be between 1 and 6"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills zero values that would otherwise make the config unusable.
func (c *Config) SetDefaults() {
	d := Default()

	if c.Version == "" {
		c.Version = d.Version
	}
	if c.Catalog.Source == "" {
		c.Catalog.Source = d.Catalog.Source
	}
	if c.Catalog.TimeoutSecs == 0 {
		c.Catalog.TimeoutSecs = d.Catalog.TimeoutSecs
	}
	if c.Chat.Model == "" {
		c.Chat.Model = d.Chat.Model
	}
	if c.Chat.TimeoutSecs == 0 {
		c.Chat.TimeoutSecs = d.Chat.TimeoutSecs
	}
	if c.Chat.SystemPrompt == "" {
		c.Chat.SystemPrompt = d.Chat.SystemPrompt
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = d.Storage.Backend
	}
	if c.Storage.Key == "" {
		c.Storage.Key = d.Storage.Key
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
	if c.Log.Output == "" {
		c.Log.Output = d.Log.Output
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
	if c.UI.Columns == 0 {
		c.UI.Columns = d.UI.Columns
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - ROUTINE_CHAT_ENDPOINT: overrides chat.endpoint
//   - ROUTINE_CHAT_MODEL: overrides chat.model
//   - ROUTINE_CHAT_API_KEY: overrides chat.api_key
//   - ROUTINE_CATALOG: overrides catalog.source
//   - ROUTINE_STORAGE_BACKEND: overrides storage.backend
//   - ROUTINE_REDIS_URL: overrides storage.redis_url
//   - ROUTINE_LOG_LEVEL: overrides log.level
//   - ROUTINE_CHAT_MAX_RETRIES: overrides chat.max_retries
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("ROUTINE_CHAT_ENDPOINT"); v != "" {
		c.Chat.Endpoint = v
	}
	if v := os.Getenv("ROUTINE_CHAT_MODEL"); v != "" {
		c.Chat.Model = v
	}
	if v := os.Getenv("ROUTINE_CHAT_API_KEY"); v != "" {
		c.Chat.APIKey = v
	}
	if v := os.Getenv("ROUTINE_CATALOG"); v != "" {
		c.Catalog.Source = v
	}
	if v := os.Getenv("ROUTINE_STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("ROUTINE_REDIS_URL"); v != "" {
		c.Storage.RedisURL = v
	}
	if v := os.Getenv("ROUTINE_LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("ROUTINE_CHAT_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Chat.MaxRetries = n
		}
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// IsURL reports whether a catalog source should be fetched over HTTP.
func IsURL(source string) bool {
	s := strings.ToLower(source)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Clone returns a deep copy of the config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns a string representation of the config for debugging.
// SECURITY: Redacts the chat API key so it never reaches logs or the terminal.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.Chat.APIKey != "" {
		safe.Chat.APIKey = "[REDACTED]"
	}
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(safe); err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return b.String()
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		if cfg == nil {
			cfg = Default()
		}
		globalConfigMu.Lock()
		globalConfig = cfg
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigOnce.Do(func() {})
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
