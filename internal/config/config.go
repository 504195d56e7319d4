// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for muse.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.muse/config.toml
//   - ~/.muse/config.json
//   - Built-in defaults
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/muse/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete muse configuration.
type Config struct {
	// Version of the configuration schema.
	Version string `toml:"version" json:"version"`

	// Gateway holds client-side settings for reaching the muse gateway.
	Gateway GatewayConfig `toml:"gateway" json:"gateway"`

	// Server holds settings for running the gateway itself.
	Server ServerConfig `toml:"server" json:"server"`

	// Gemini holds upstream model provider settings.
	Gemini GeminiConfig `toml:"gemini" json:"gemini"`

	// LastFM holds now-playing lookup settings.
	LastFM LastFMConfig `toml:"lastfm" json:"lastfm"`

	// UI holds terminal presentation settings.
	UI UIConfig `toml:"ui" json:"ui"`
}

// GatewayConfig contains settings the chat client uses to reach the gateway.
type GatewayConfig struct {
	// BaseURL is the gateway endpoint, e.g. "http://localhost:8787".
	BaseURL string `toml:"base_url" json:"base_url"`
	// TimeoutSecs is the per-request timeout in seconds (0 = default).
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
}

// ServerConfig contains settings for the `muse serve` gateway process.
type ServerConfig struct {
	// Port is the TCP port the gateway listens on.
	Port int `toml:"port" json:"port"`
	// AllowedOrigin is the value served in Access-Control-Allow-Origin.
	// "*" allows any origin.
	AllowedOrigin string `toml:"allowed_origin" json:"allowed_origin"`
	// RateLimit is the sustained requests-per-second budget per client.
	RateLimit float64 `toml:"rate_limit" json:"rate_limit"`
	// RateBurst is the burst allowance on top of RateLimit.
	RateBurst int `toml:"rate_burst" json:"rate_burst"`
	// MaxBodyBytes caps the size of accepted request bodies.
	MaxBodyBytes int64 `toml:"max_body_bytes" json:"max_body_bytes"`
}

// GeminiConfig contains Google Gemini provider configuration.
type GeminiConfig struct {
	// APIKey is the Gemini API key. Prefer the GEMINI_API_KEY environment
	// variable over storing the key on disk.
	APIKey string `toml:"api_key" json:"api_key"`
	// Model is the Gemini model identifier.
	Model string `toml:"model" json:"model"`
}

// LastFMConfig contains Last.fm now-playing configuration.
type LastFMConfig struct {
	// APIKey is the Last.fm API key.
	APIKey string `toml:"api_key" json:"api_key"`
	// Username is the Last.fm account whose scrobbles are surfaced.
	Username string `toml:"username" json:"username"`
}

// UIConfig contains terminal presentation configuration.
type UIConfig struct {
	// WordWrap is the render width for markdown output (0 = detect).
	WordWrap int `toml:"word_wrap" json:"word_wrap"`
	// SyntaxTheme is the chroma style used for code block highlighting.
	SyntaxTheme string `toml:"syntax_theme" json:"syntax_theme"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a Config populated with built-in defaults.
func Default() *Config {
	return &Config{
		Version: "1",
		Gateway: GatewayConfig{
			BaseURL:     "http://localhost:8787",
			TimeoutSecs: 60,
		},
		Server: ServerConfig{
			Port:          8787,
			AllowedOrigin: "*",
			RateLimit:     5,
			RateBurst:     10,
			MaxBodyBytes:  1 << 20,
		},
		Gemini: GeminiConfig{
			Model: "gemini-1.5-flash-latest",
		},
		UI: UIConfig{
			SyntaxTheme: "monokai",
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the muse configuration directory (~/.muse).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".muse"), nil
}

// DataDir returns the directory where conversation state lives.
// Overridable with MUSE_DATA_DIR for testing and portable installs.
func DataDir() (string, error) {
	if dir := os.Getenv("MUSE_DATA_DIR"); dir != "" {
		return dir, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "data"), nil
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

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()

	tomlPath, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				return nil, fmt.Errorf("failed to load TOML config: %w", err)
			}
			return finish(cfg)
		}
	}

	jsonPath, err := ConfigPathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				return nil, fmt.Errorf("failed to load JSON config: %w", err)
			}
			return finish(cfg)
		}
	}

	return finish(cfg)
}

// finish applies env overrides and validation after any file load.
func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file.
// SECURITY: Checks and fixes file permissions on load.
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
// SECURITY: Checks and fixes file permissions on load.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from an explicit path, inferring the
// format from the file extension.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := LoadTOML(cfg, path); err != nil {
			return nil, err
		}
	case ".json":
		if err := LoadJSON(cfg, path); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", path)
	}
	return finish(cfg)
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML path.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
// SECURITY: Creates config files with 0600 permissions (owner read/write only).
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	fmt.Fprintln(file, "# muse configuration file")
	fmt.Fprintln(file, "# Generated by muse - edit with care")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file.
// RELIABILITY: Atomic write with fsync prevents data loss on crash.
func SaveJSON(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
// Environment variables always win over file values.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("MUSE_GATEWAY_URL"); v != "" {
		c.Gateway.BaseURL = v
	}
	if v := os.Getenv("MUSE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Gemini.APIKey = v
	}
	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		c.Gemini.Model = v
	}
	if v := os.Getenv("LASTFM_API_KEY"); v != "" {
		c.LastFM.APIKey = v
	}
	if v := os.Getenv("LASTFM_USERNAME"); v != "" {
		c.LastFM.Username = v
	}
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
	return fmt.Sprintf("config field %q: %s", e.Field, e.Message)
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return ValidationError{Field: "server.port", Message: fmt.Sprintf("port %d out of range 1-65535", c.Server.Port)}
	}
	if c.Server.RateLimit <= 0 {
		return ValidationError{Field: "server.rate_limit", Message: "must be positive"}
	}
	if c.Server.RateBurst < 1 {
		return ValidationError{Field: "server.rate_burst", Message: "must be at least 1"}
	}
	if c.Server.MaxBodyBytes < 1024 {
		return ValidationError{Field: "server.max_body_bytes", Message: "must be at least 1024"}
	}
	if c.Gateway.BaseURL != "" {
		u, err := url.Parse(c.Gateway.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return ValidationError{Field: "gateway.base_url", Message: fmt.Sprintf("invalid URL %q", c.Gateway.BaseURL)}
		}
	}
	if c.Gateway.TimeoutSecs < 0 {
		return ValidationError{Field: "gateway.timeout_secs", Message: "must not be negative"}
	}
	if c.UI.WordWrap < 0 {
		return ValidationError{Field: "ui.word_wrap", Message: "must not be negative"}
	}
	return nil
}
