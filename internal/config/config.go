/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal.

type BackendConfig struct {
	BaseURL     string `yaml:"base_url"`
	TimeoutMs   int    `yaml:"timeout_ms"`
	TLSInsecure bool   `yaml:"tls_insecure"`
	// Token is not stored on disk; it lives in the OS keychain.
}

type GeneralConfig struct {
	TelemetryOptIn bool `yaml:"telemetry_opt_in"`
}

// EditorConfig tunes the autosave pipeline and history.
type EditorConfig struct {
	AutosaveDebounceMs int `yaml:"autosave_debounce_ms"`
	HydrationGraceMs   int `yaml:"hydration_grace_ms"`
	AutosaveRetries    int `yaml:"autosave_retries"`
	HistoryDepth       int `yaml:"history_depth"`
}

// AIConfig selects the suggestion generator. Provider is "local", "openai"
// or "remote" (the backend generates).
// The OpenAI API key lives in the OS keychain.
type AIConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Backend       BackendConfig `yaml:"backend"`
	Editor        EditorConfig  `yaml:"editor"`
	AI            AIConfig      `yaml:"ai"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{TelemetryOptIn: false},
		Backend:       BackendConfig{BaseURL: "http://localhost:8080", TimeoutMs: 15000, TLSInsecure: false},
		Editor:        EditorConfig{AutosaveDebounceMs: 1500, HydrationGraceMs: 500, AutosaveRetries: 0, HistoryDepth: 100},
		AI:            AIConfig{Provider: "local", Model: "gpt-4o-mini"},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvBackendURL       = "PDK_BACKEND_URL"
	EnvBackendTimeoutMs = "PDK_BACKEND_TIMEOUT_MS"
	EnvBackendTLSInsec  = "PDK_TLS_INSECURE"
	EnvTelemetryOptIn   = "PDK_TELEMETRY_OPT_IN"
	EnvAutosaveDebounce = "PDK_AUTOSAVE_DEBOUNCE_MS"
	EnvAutosaveRetries  = "PDK_AUTOSAVE_RETRIES"
	EnvAIProvider       = "PDK_AI_PROVIDER"
	EnvAIModel          = "PDK_AI_MODEL"
	EnvAIBaseURL        = "PDK_AI_BASE_URL"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "PDK_LOG_LEVEL"
	EnvLogFormat = "PDK_LOG_FORMAT"
	EnvLogSource = "PDK_LOG_SOURCE"
	EnvLogFile   = "PDK_LOG_FILE"
)

// Service/keys for OS keyring.
const (
	keyringService = "PitchDeck"
	keyringToken   = "backend_token"
	keyringAIKey   = "openai_api_key"
)

// tokenStore abstracts keyring, so we can stub in tests.
var tokenStore TokenStore = osKeyring{}

type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// SetTokenStore swaps the secret store and returns the previous one.
func SetTokenStore(s TokenStore) TokenStore {
	old := tokenStore
	tokenStore = s
	return old
}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	if v := strings.TrimSpace(os.Getenv("PDK_CONFIG")); v != "" {
		return v, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "PitchDeck")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "PitchDeck")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "pitchdeck")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads user config file (if present), applies defaults, and merges environment overrides.
// It also loads the backend token from keyring (not kept inside the struct; returned separately).
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, "", fmt.Errorf("parse %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	}
	applyEnvOverrides(&cfg)
	tok, _ := tokenStore.Get(keyringService, keyringToken)
	return cfg, tok, nil
}

// Save writes the user config YAML and persists the token into OS keyring (if non-empty).
func Save(cfg AppConfig, token string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if token != "" {
		if err := tokenStore.Set(keyringService, keyringToken, token); err != nil {
			return err
		}
	}
	return nil
}

// SetToken stores the backend bearer token in the keychain.
func SetToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return tokenStore.Delete(keyringService, keyringToken)
	}
	return tokenStore.Set(keyringService, keyringToken, token)
}

// AIKey returns the OpenAI API key, preferring OPENAI_API_KEY over the keychain.
func AIKey() string {
	if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" {
		return v
	}
	v, _ := tokenStore.Get(keyringService, keyringAIKey)
	return v
}

// SetAIKey stores the OpenAI API key in the keychain.
func SetAIKey(key string) error {
	return tokenStore.Set(keyringService, keyringAIKey, key)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn
	if src.Backend.BaseURL != "" {
		dst.Backend.BaseURL = src.Backend.BaseURL
	}
	if src.Backend.TimeoutMs != 0 {
		dst.Backend.TimeoutMs = src.Backend.TimeoutMs
	}
	dst.Backend.TLSInsecure = src.Backend.TLSInsecure
	// editor
	if src.Editor.AutosaveDebounceMs > 0 {
		dst.Editor.AutosaveDebounceMs = src.Editor.AutosaveDebounceMs
	}
	if src.Editor.HydrationGraceMs > 0 {
		dst.Editor.HydrationGraceMs = src.Editor.HydrationGraceMs
	}
	if src.Editor.AutosaveRetries > 0 {
		dst.Editor.AutosaveRetries = src.Editor.AutosaveRetries
	}
	if src.Editor.HistoryDepth > 0 {
		dst.Editor.HistoryDepth = src.Editor.HistoryDepth
	}
	// ai
	if v := strings.ToLower(strings.TrimSpace(src.AI.Provider)); v != "" {
		dst.AI.Provider = v
	}
	if v := strings.TrimSpace(src.AI.Model); v != "" {
		dst.AI.Model = v
	}
	if v := strings.TrimSpace(src.AI.BaseURL); v != "" {
		dst.AI.BaseURL = v
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func parseBool(v string) bool {
	lv := strings.ToLower(strings.TrimSpace(v))
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvBackendURL)); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackendTimeoutMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Backend.TimeoutMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackendTLSInsec)); v != "" {
		cfg.Backend.TLSInsecure = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryOptIn)); v != "" {
		cfg.General.TelemetryOptIn = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvAutosaveDebounce)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Editor.AutosaveDebounceMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvAutosaveRetries)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Editor.AutosaveRetries = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvAIProvider)); v != "" {
		cfg.AI.Provider = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvAIModel)); v != "" {
		cfg.AI.Model = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAIBaseURL)); v != "" {
		cfg.AI.BaseURL = v
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	names := map[string]string{
		"backend.base_url":            EnvBackendURL,
		"backend.timeout_ms":          EnvBackendTimeoutMs,
		"backend.tls_insecure":        EnvBackendTLSInsec,
		"general.telemetry_opt_in":    EnvTelemetryOptIn,
		"editor.autosave_debounce_ms": EnvAutosaveDebounce,
		"editor.autosave_retries":     EnvAutosaveRetries,
		"ai.provider":                 EnvAIProvider,
		"ai.model":                    EnvAIModel,
		"ai.base_url":                 EnvAIBaseURL,
		"logging.level":               EnvLogLevel,
		"logging.format":              EnvLogFormat,
		"logging.source":              EnvLogSource,
		"logging.file":                EnvLogFile,
	}
	if env, ok := names[key]; ok && os.Getenv(env) != "" {
		return env, true
	}
	return "", false
}

// Timeout returns the backend request timeout, falling back to the default.
func (b BackendConfig) Timeout() time.Duration {
	if b.TimeoutMs <= 0 {
		return time.Duration(Defaults().Backend.TimeoutMs) * time.Millisecond
	}
	return time.Duration(b.TimeoutMs) * time.Millisecond
}

// Debounce returns the autosave quiet period.
func (e EditorConfig) Debounce() time.Duration {
	if e.AutosaveDebounceMs <= 0 {
		return time.Duration(Defaults().Editor.AutosaveDebounceMs) * time.Millisecond
	}
	return time.Duration(e.AutosaveDebounceMs) * time.Millisecond
}

// HydrationGrace returns how long after hydrate mutations are not treated as user changes.
func (e EditorConfig) HydrationGrace() time.Duration {
	if e.HydrationGraceMs <= 0 {
		return time.Duration(Defaults().Editor.HydrationGraceMs) * time.Millisecond
	}
	return time.Duration(e.HydrationGraceMs) * time.Millisecond
}
