// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/jeranaias/sofia-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete sofia configuration.
type Config struct {
	API     APIConfig     `toml:"api" json:"api"`
	Chat    ChatConfig    `toml:"chat" json:"chat"`
	Payment PaymentConfig `toml:"payment" json:"payment"`
	UI      UIConfig      `toml:"ui" json:"ui"`
	Storage StorageConfig `toml:"storage" json:"storage"`
}

// APIConfig configures the authenticated gateway.
type APIConfig struct {
	// BaseURL is the Sofia backend root, without the /api suffix.
	BaseURL string `toml:"base_url" json:"base_url"`
	// Token is the bearer credential. Usually left empty here and kept in
	// the token file written by `sofia login`.
	Token string `toml:"token,omitempty" json:"token,omitempty"`
	// TokenFile overrides the default ~/.sofia/token location.
	TokenFile string `toml:"token_file" json:"token_file"`
	// Timeout bounds a single HTTP request. Message sends wait on the model,
	// so this is generous.
	Timeout Duration `toml:"timeout" json:"timeout"`
	// MaxRetries applies to idempotent reads only.
	MaxRetries int `toml:"max_retries" json:"max_retries"`
	// RequestsPerSecond throttles outbound calls (0 disables the limiter).
	RequestsPerSecond float64 `toml:"requests_per_second" json:"requests_per_second"`
}

// ChatConfig configures the session controller and the registry.
type ChatConfig struct {
	DefaultModel    string `toml:"default_model" json:"default_model"`
	PlaceholderName string `toml:"placeholder_name" json:"placeholder_name"`
	TitleMaxRunes   int    `toml:"title_max_runes" json:"title_max_runes"`
	RecentLimit     int    `toml:"recent_limit" json:"recent_limit"`
	// HistoryFile is the liner history for `sofia chat`.
	HistoryFile string `toml:"history_file" json:"history_file"`
}

// PaymentConfig configures the recharge flow.
type PaymentConfig struct {
	PollInterval Duration `toml:"poll_interval" json:"poll_interval"`
	// Timeout expires an unsettled invoice. Zero polls until cancelled.
	Timeout     Duration `toml:"timeout" json:"timeout"`
	BTCPriceUSD float64  `toml:"btc_price_usd" json:"btc_price_usd"`
}

// UIConfig configures the terminal front end.
type UIConfig struct {
	// GlamourStyle is "auto", "dark", "light", "notty" or a style file path.
	GlamourStyle     string `toml:"glamour_style" json:"glamour_style"`
	ShowCostEstimate bool   `toml:"show_cost_estimate" json:"show_cost_estimate"`
	SidebarWidth     int    `toml:"sidebar_width" json:"sidebar_width"`
	LogFile          string `toml:"log_file" json:"log_file"`
}

// StorageConfig configures the local sqlite cache.
type StorageConfig struct {
	CachePath string `toml:"cache_path" json:"cache_path"`
	ExportDir string `toml:"export_dir" json:"export_dir"`
}

// =============================================================================
// DURATION
// =============================================================================

// Duration is a time.Duration that reads and writes as "3s" in both TOML
// and JSON.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" {
		d.Duration = 0
		return nil
	}
	// Bare numbers are seconds.
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		d.Duration = time.Duration(secs * float64(time.Second))
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:           "https://sofia.chat",
			Timeout:           Duration{120 * time.Second},
			MaxRetries:        2,
			RequestsPerSecond: 10,
		},
		Chat: ChatConfig{
			DefaultModel:    "gpt-5",
			PlaceholderName: "Nova Conversa",
			TitleMaxRunes:   50,
			RecentLimit:     10,
		},
		Payment: PaymentConfig{
			PollInterval: Duration{3 * time.Second},
			Timeout:      Duration{15 * time.Minute},
			BTCPriceUSD:  94000,
		},
		UI: UIConfig{
			GlamourStyle:     "auto",
			ShowCostEstimate: true,
			SidebarWidth:     30,
		},
	}
}

// fillDefaults fills zero values left by a partial config file.
func fillDefaults(cfg *Config) {
	d := Default()

	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = d.API.BaseURL
	}
	if cfg.API.Timeout.Duration == 0 {
		cfg.API.Timeout = d.API.Timeout
	}
	if cfg.Chat.DefaultModel == "" {
		cfg.Chat.DefaultModel = d.Chat.DefaultModel
	}
	if cfg.Chat.PlaceholderName == "" {
		cfg.Chat.PlaceholderName = d.Chat.PlaceholderName
	}
	if cfg.Chat.TitleMaxRunes == 0 {
		cfg.Chat.TitleMaxRunes = d.Chat.TitleMaxRunes
	}
	if cfg.Chat.RecentLimit == 0 {
		cfg.Chat.RecentLimit = d.Chat.RecentLimit
	}
	if cfg.Payment.PollInterval.Duration == 0 {
		cfg.Payment.PollInterval = d.Payment.PollInterval
	}
	if cfg.Payment.BTCPriceUSD == 0 {
		cfg.Payment.BTCPriceUSD = d.Payment.BTCPriceUSD
	}
	if cfg.UI.GlamourStyle == "" {
		cfg.UI.GlamourStyle = d.UI.GlamourStyle
	}
	if cfg.UI.SidebarWidth == 0 {
		cfg.UI.SidebarWidth = d.UI.SidebarWidth
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the sofia configuration directory (~/.sofia).
// SOFIA_HOME overrides it, which the tests rely on.
func ConfigDir() (string, error) {
	if dir := os.Getenv("SOFIA_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".sofia"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	return inConfigDir("config.toml")
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	return inConfigDir("config.json")
}

func inConfigDir(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// TokenPath resolves where the bearer token is stored.
func (c *Config) TokenPath() (string, error) {
	if c.API.TokenFile != "" {
		return c.API.TokenFile, nil
	}
	return inConfigDir("token")
}

// CachePath resolves the sqlite cache location.
func (c *Config) CachePath() (string, error) {
	if c.Storage.CachePath != "" {
		return c.Storage.CachePath, nil
	}
	return inConfigDir("cache.db")
}

// HistoryPath resolves the REPL history location.
func (c *Config) HistoryPath() (string, error) {
	if c.Chat.HistoryFile != "" {
		return c.Chat.HistoryFile, nil
	}
	return inConfigDir("history")
}

// LogPath resolves the log file the TUI writes to.
func (c *Config) LogPath() (string, error) {
	if c.UI.LogFile != "" {
		return c.UI.LogFile, nil
	}
	return inConfigDir("sofia.log")
}

// ExportDir resolves where transcripts are exported.
func (c *Config) ExportDir() (string, error) {
	if c.Storage.ExportDir != "" {
		return c.Storage.ExportDir, nil
	}
	return inConfigDir("exports")
}

// ensureSecurePermissions tightens a config file to 0600.
// SECURITY: the file may carry the bearer token.
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

// Load reads ~/.sofia/config.toml, falling back to config.json and then to
// the defaults. Environment overrides are applied last. A broken file is
// reported alongside a usable default config.
func Load() (*Config, error) {
	var loadErr error

	for _, candidate := range []func() (string, error){ConfigPathTOML, ConfigPathJSON} {
		path, err := candidate()
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(path); statErr != nil {
			continue
		}
		cfg, err := LoadFromPath(path)
		if err != nil {
			loadErr = err
			break
		}
		return cfg, nil
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, loadErr
}

// LoadFromPath loads, overrides and validates the config at path. The
// format follows the extension; anything but .json is TOML. Keys missing
// from the file keep their defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	var err error
	if strings.HasSuffix(path, ".json") {
		err = LoadJSON(cfg, path)
	} else {
		err = LoadTOML(cfg, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file into cfg and fills defaults.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	fillDefaults(cfg)
	return nil
}

// LoadJSON decodes a JSON file into cfg and fills defaults.
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
	fillDefaults(cfg)
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes cfg to the default TOML path.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg as TOML with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# sofia configuration file\n")
	buf.WriteString("# Generated by sofia - edit with care\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
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

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if u, err := url.Parse(c.API.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{"api.base_url", "must be an absolute http(s) URL"})
	}
	if c.API.Timeout.Duration < 0 {
		errs = append(errs, ValidationError{"api.timeout", "must not be negative"})
	}
	if c.API.MaxRetries < 0 || c.API.MaxRetries > 10 {
		errs = append(errs, ValidationError{"api.max_retries", "must be between 0 and 10"})
	}
	if c.API.RequestsPerSecond < 0 {
		errs = append(errs, ValidationError{"api.requests_per_second", "must not be negative"})
	}
	if strings.TrimSpace(c.Chat.DefaultModel) == "" {
		errs = append(errs, ValidationError{"chat.default_model", "must not be empty"})
	}
	if c.Chat.TitleMaxRunes < 1 {
		errs = append(errs, ValidationError{"chat.title_max_runes", "must be positive"})
	}
	if c.Chat.RecentLimit < 1 {
		errs = append(errs, ValidationError{"chat.recent_limit", "must be positive"})
	}
	if c.Payment.PollInterval.Duration < 100*time.Millisecond {
		errs = append(errs, ValidationError{"payment.poll_interval", "must be at least 100ms"})
	}
	if c.Payment.Timeout.Duration < 0 {
		errs = append(errs, ValidationError{"payment.timeout", "must not be negative"})
	}
	if c.Payment.BTCPriceUSD <= 0 {
		errs = append(errs, ValidationError{"payment.btc_price_usd", "must be positive"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - SOFIA_API_URL: overrides api.base_url
//   - SOFIA_TOKEN: overrides api.token
//   - SOFIA_MODEL: overrides chat.default_model
//   - SOFIA_POLL_INTERVAL: overrides payment.poll_interval ("3s")
//   - SOFIA_PAYMENT_TIMEOUT: overrides payment.timeout ("15m", "0" disables)
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("SOFIA_API_URL"); v != "" {
		c.API.BaseURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("SOFIA_TOKEN"); v != "" {
		c.API.Token = v
	}
	if v := os.Getenv("SOFIA_MODEL"); v != "" {
		c.Chat.DefaultModel = v
	}
	if v := os.Getenv("SOFIA_POLL_INTERVAL"); v != "" {
		var d Duration
		if err := d.UnmarshalText([]byte(v)); err == nil {
			c.Payment.PollInterval = d
		}
	}
	if v := os.Getenv("SOFIA_PAYMENT_TIMEOUT"); v != "" {
		var d Duration
		if err := d.UnmarshalText([]byte(v)); err == nil {
			c.Payment.Timeout = d
		}
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// Clone returns a deep copy of the config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns the config as JSON for `sofia config show`.
// SECURITY: the bearer token is redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.API.Token != "" {
		safe.API.Token = "[REDACTED]"
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
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

// Global returns the process-wide configuration, loading it on first use.
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

// SetGlobal replaces the global configuration.
func SetGlobal(cfg *Config) {
	globalConfigOnce.Do(func() {})
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting clears the global config so the next Global() loads
// again.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
