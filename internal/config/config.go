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
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/chartchat/internal/util"
	"github.com/jeranaias/chartchat/internal/vizapi"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete chartchat configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	Server  ServerConfig  `toml:"server" json:"server"`
	Dataset DatasetConfig `toml:"dataset" json:"dataset"`
	Chart   ChartConfig   `toml:"chart" json:"chart"`
	UI      UIConfig      `toml:"ui" json:"ui"`
	Log     LogConfig     `toml:"log" json:"log"`
}

// ServerConfig locates the inference server.
type ServerConfig struct {
	// URL is the server base URL
	URL string `toml:"url" json:"url"`
	// QueryPath is the inference endpoint
	QueryPath string `toml:"query_path" json:"query_path"`
	// UploadPath is the dataset ingestion endpoint
	UploadPath string `toml:"upload_path" json:"upload_path"`
	// TimeoutSecs bounds one query
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// UploadTimeoutSecs bounds one upload
	UploadTimeoutSecs int `toml:"upload_timeout_secs" json:"upload_timeout_secs"`
}

// DatasetConfig controls which files are accepted and how they are shown.
type DatasetConfig struct {
	// Extensions lists accepted file extensions, dot included
	Extensions []string `toml:"extensions" json:"extensions"`
	// PreviewRows is how many rows the preview table shows
	PreviewRows int `toml:"preview_rows" json:"preview_rows"`
	// MaxFileMB rejects larger files (0 = unlimited)
	MaxFileMB int `toml:"max_file_mb" json:"max_file_mb"`
}

// ChartConfig controls chart rendering.
type ChartConfig struct {
	// OutputDir receives rendered chart pages (empty = ~/.chartchat/charts)
	OutputDir string `toml:"output_dir" json:"output_dir"`
	// OpenBrowser opens each rendered chart in the default browser
	OpenBrowser bool `toml:"open_browser" json:"open_browser"`
	// CacheSize is how many rendered charts are remembered
	CacheSize int `toml:"cache_size" json:"cache_size"`
}

// UIConfig contains user interface settings.
type UIConfig struct {
	// Theme is "dark", "light" or "auto"
	Theme string `toml:"theme" json:"theme"`
	// Mode is the default surface: "tui" or "chat"
	Mode string `toml:"mode" json:"mode"`
	// HistoryFile stores REPL history (empty = ~/.chartchat/history)
	HistoryFile string `toml:"history_file" json:"history_file"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Path is the log file (empty = ~/.chartchat/chartchat.log, "off" disables)
	Path string `toml:"path" json:"path"`
	// Level is debug, info, warn or error
	Level string `toml:"level" json:"level"`
	// MaxSizeMB rotates the file once it grows past this size
	MaxSizeMB int `toml:"max_size_mb" json:"max_size_mb"`
	// MaxBackups is how many rotated files are kept
	MaxBackups int `toml:"max_backups" json:"max_backups"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: "1.0.0",
		Server: ServerConfig{
			URL:               "http://localhost:8000",
			QueryPath:         "/query",
			UploadPath:        "/upload_data",
			TimeoutSecs:       60,
			UploadTimeoutSecs: 120,
		},
		Dataset: DatasetConfig{
			Extensions:  []string{".csv"},
			PreviewRows: 10,
			MaxFileMB:   50,
		},
		Chart: ChartConfig{
			CacheSize: 64,
		},
		UI: UIConfig{
			Theme: "dark",
			Mode:  "tui",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 5,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the chartchat configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".chartchat"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// .env files and environment overrides are applied last.
//
// A config file that exists but cannot be decoded does not stop loading:
// defaults are returned together with the decode error.
func Load() (*Config, error) {
	LoadDotEnv()

	cfg := Default()
	var loadErr error

	loaded := false
	if tomlPath, err := ConfigPathTOML(); err == nil && fileExists(tomlPath) {
		if err := LoadTOML(cfg, tomlPath); err != nil {
			loadErr = fmt.Errorf("failed to load TOML config: %w", err)
			cfg = Default()
		} else {
			loaded = true
		}
	}

	if !loaded {
		if jsonPath, err := ConfigPathJSON(); err == nil && fileExists(jsonPath) {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				loadErr = fmt.Errorf("failed to load JSON config: %w", err)
				cfg = Default()
			}
		}
	}

	if err := finish(cfg); err != nil {
		return nil, err
	}
	return cfg, loadErr
}

// LoadTOML loads configuration from a TOML file.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON loads configuration from a JSON file.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	if err := finish(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads .env from the working directory and the config directory.
// Variables already present in the environment are never overwritten.
func LoadDotEnv() {
	paths := []string{".env"}
	if dir, err := ConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, ".env"))
	}
	for _, p := range paths {
		if fileExists(p) {
			_ = godotenv.Load(p)
		}
	}
}

func finish(cfg *Config) error {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
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

// SaveTOML saves the configuration to a TOML file.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var b strings.Builder
	b.WriteString("# chartchat configuration file\n")
	b.WriteString("# Generated by chartchat - edit with care\n\n")
	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file.
func SaveJSON(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0644); err != nil {
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
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	// Server
	if u, err := url.Parse(c.Server.URL); err != nil {
		add("server.url", "invalid URL: %v", err)
	} else if u.Scheme != "http" && u.Scheme != "https" {
		add("server.url", "scheme must be http or https, got '%s'", u.Scheme)
	} else if u.Host == "" {
		add("server.url", "missing host")
	}
	if !strings.HasPrefix(c.Server.QueryPath, "/") {
		add("server.query_path", "must start with '/'")
	}
	if !strings.HasPrefix(c.Server.UploadPath, "/") {
		add("server.upload_path", "must start with '/'")
	}
	if c.Server.TimeoutSecs <= 0 || c.Server.TimeoutSecs > 3600 {
		add("server.timeout_secs", "must be between 1 and 3600, got %d", c.Server.TimeoutSecs)
	}
	if c.Server.UploadTimeoutSecs <= 0 || c.Server.UploadTimeoutSecs > 3600 {
		add("server.upload_timeout_secs", "must be between 1 and 3600, got %d", c.Server.UploadTimeoutSecs)
	}

	// Dataset
	if len(c.Dataset.Extensions) == 0 {
		add("dataset.extensions", "at least one extension is required")
	}
	for _, ext := range c.Dataset.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			add("dataset.extensions", "invalid extension '%s', must look like '.csv'", ext)
		}
	}
	if c.Dataset.PreviewRows < 1 || c.Dataset.PreviewRows > 1000 {
		add("dataset.preview_rows", "must be between 1 and 1000, got %d", c.Dataset.PreviewRows)
	}
	if c.Dataset.MaxFileMB < 0 {
		add("dataset.max_file_mb", "cannot be negative")
	}

	// Chart
	if c.Chart.CacheSize < 0 {
		add("chart.cache_size", "cannot be negative")
	}

	// UI
	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		add("ui.theme", "invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme)
	}
	validModes := map[string]bool{"tui": true, "chat": true}
	if !validModes[strings.ToLower(c.UI.Mode)] {
		add("ui.mode", "invalid mode '%s', must be one of: tui, chat", c.UI.Mode)
	}

	// Log
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		add("log.level", "invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills zero values with defaults.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}

	if c.Server.URL == "" {
		c.Server.URL = defaults.Server.URL
	}
	c.Server.URL = strings.TrimRight(c.Server.URL, "/")
	if c.Server.QueryPath == "" {
		c.Server.QueryPath = defaults.Server.QueryPath
	}
	if c.Server.UploadPath == "" {
		c.Server.UploadPath = defaults.Server.UploadPath
	}
	if c.Server.TimeoutSecs == 0 {
		c.Server.TimeoutSecs = defaults.Server.TimeoutSecs
	}
	if c.Server.UploadTimeoutSecs == 0 {
		c.Server.UploadTimeoutSecs = defaults.Server.UploadTimeoutSecs
	}

	if len(c.Dataset.Extensions) == 0 {
		c.Dataset.Extensions = defaults.Dataset.Extensions
	}
	if c.Dataset.PreviewRows == 0 {
		c.Dataset.PreviewRows = defaults.Dataset.PreviewRows
	}

	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.UI.Mode == "" {
		c.UI.Mode = defaults.UI.Mode
	}

	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = defaults.Log.MaxSizeMB
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = defaults.Log.MaxBackups
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - CHARTCHAT_SERVER_URL: overrides server.url
//   - CHARTCHAT_TIMEOUT: overrides server.timeout_secs
//   - CHARTCHAT_LOG_LEVEL: overrides log.level
//   - CHARTCHAT_CHART_DIR: overrides chart.output_dir
//   - CHARTCHAT_MODE: overrides ui.mode
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("CHARTCHAT_SERVER_URL"); v != "" {
		c.Server.URL = v
	}
	if v := os.Getenv("CHARTCHAT_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			c.Server.TimeoutSecs = secs
		}
	}
	if v := os.Getenv("CHARTCHAT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("CHARTCHAT_CHART_DIR"); v != "" {
		c.Chart.OutputDir = v
	}
	if v := os.Getenv("CHARTCHAT_MODE"); v != "" {
		c.UI.Mode = v
	}
}

// =============================================================================
// DERIVED SETTINGS
// =============================================================================

// ClientConfig builds the inference client configuration.
func (c *Config) ClientConfig() *vizapi.ClientConfig {
	return &vizapi.ClientConfig{
		BaseURL:       c.Server.URL,
		QueryPath:     c.Server.QueryPath,
		UploadPath:    c.Server.UploadPath,
		Timeout:       time.Duration(c.Server.TimeoutSecs) * time.Second,
		UploadTimeout: time.Duration(c.Server.UploadTimeoutSecs) * time.Second,
		UserAgent:     "chartchat/" + c.Version,
	}
}

// MaxFileBytes returns the dataset size limit in bytes (0 = unlimited).
func (c *Config) MaxFileBytes() int64 {
	return int64(c.Dataset.MaxFileMB) * 1024 * 1024
}

// ChartDir returns the chart output directory.
func (c *Config) ChartDir() string {
	if c.Chart.OutputDir != "" {
		return c.Chart.OutputDir
	}
	return inConfigDir("charts")
}

// LogPath returns the log file path, or "" when logging is off.
func (c *Config) LogPath() string {
	switch c.Log.Path {
	case "off", "none":
		return ""
	case "":
		return inConfigDir("chartchat.log")
	default:
		return c.Log.Path
	}
}

// HistoryPath returns the REPL history file.
func (c *Config) HistoryPath() string {
	if c.UI.HistoryFile != "" {
		return c.UI.HistoryFile
	}
	return inConfigDir("history")
}

func inConfigDir(name string) string {
	dir, err := ConfigDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "chartchat", name)
	}
	return filepath.Join(dir, name)
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "server.url").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "server.timeout_secs").
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Bool:
			lower := strings.ToLower(strVal)
			field.SetBool(lower == "1" || lower == "true" || lower == "yes")
			return nil
		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				var items []string
				for _, item := range strings.Split(strVal, ",") {
					if item = strings.TrimSpace(item); item != "" {
						items = append(items, item)
					}
				}
				field.Set(reflect.ValueOf(items))
				return nil
			}
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	var keys []string
	collectKeys(reflect.TypeOf(Config{}), "", &keys)
	return keys
}

func collectKeys(t reflect.Type, prefix string, keys *[]string) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := strings.Split(f.Tag.Get("toml"), ",")[0]
		if name == "" {
			continue
		}
		if prefix != "" {
			name = prefix + "." + name
		}
		if f.Type.Kind() == reflect.Struct {
			collectKeys(f.Type, name, keys)
			continue
		}
		*keys = append(*keys, name)
	}
}

// Clone returns a deep copy of the config.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Dataset.Extensions = append([]string(nil), c.Dataset.Extensions...)
	return &clone
}

// String returns the config as indented JSON.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
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
		if cfg == nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
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

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if cfg == nil {
		return err
	}
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
	return err
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
