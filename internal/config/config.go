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
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.

type GeneralConfig struct {
	Theme         string `yaml:"theme"` // "dark" | "light"
	FileExtension string `yaml:"file_extension"`
}

type CanvasConfig struct {
	ZoomStep      float64 `yaml:"zoom_step"`
	ChildDistance float64 `yaml:"child_distance"`
}

type ExportConfig struct {
	Padding   float64 `yaml:"padding"`
	Scale     float64 `yaml:"scale"`
	Footprint string  `yaml:"footprint"` // "live" | "fixed"
	Format    string  `yaml:"format"`    // "pdf" | "png" | "svg"
}

type ImportConfig struct {
	Validation string `yaml:"validation"` // "repair" | "reject" | "tolerate"
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
	Canvas        CanvasConfig  `yaml:"canvas"`
	Export        ExportConfig  `yaml:"export"`
	Import        ImportConfig  `yaml:"import"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{Theme: "dark", FileExtension: ".neb"},
		Canvas:        CanvasConfig{ZoomStep: 0.1, ChildDistance: 180},
		Export:        ExportConfig{Padding: 100, Scale: 2, Footprint: "live", Format: "pdf"},
		Import:        ImportConfig{Validation: "repair"},
		Logging:       LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvConfigPath       = "NEB_CONFIG"
	EnvTheme            = "NEB_THEME"
	EnvExportFootprint  = "NEB_EXPORT_FOOTPRINT"
	EnvExportScale      = "NEB_EXPORT_SCALE"
	EnvImportValidation = "NEB_IMPORT_VALIDATION"
	EnvLogLevel         = "NEB_LOG_LEVEL"
	EnvLogFormat        = "NEB_LOG_FORMAT"
	EnvLogSource        = "NEB_LOG_SOURCE"
	EnvLogFile          = "NEB_LOG_FILE"
)

// ConfigPath returns the per-user config file path. NEB_CONFIG takes precedence.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "Nebula")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "Nebula")
	default:
		home := os.Getenv("HOME")
		if home == "" {
			return "", errors.New("cannot resolve config directory")
		}
		base = filepath.Join(home, ".config", "nebula")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
// A malformed file is reported but the defaults plus env overrides are still returned.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		applyEnvOverrides(&cfg)
		return cfg, err
	}
	var ferr error
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			ferr = err
		} else {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, ferr
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
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
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if v := lower(src.General.Theme); v != "" {
		dst.General.Theme = v
	}
	if v := strings.TrimSpace(src.General.FileExtension); v != "" {
		if !strings.HasPrefix(v, ".") {
			v = "." + v
		}
		dst.General.FileExtension = strings.ToLower(v)
	}
	if src.Canvas.ZoomStep > 0 {
		dst.Canvas.ZoomStep = src.Canvas.ZoomStep
	}
	if src.Canvas.ChildDistance > 0 {
		dst.Canvas.ChildDistance = src.Canvas.ChildDistance
	}
	if src.Export.Padding > 0 {
		dst.Export.Padding = src.Export.Padding
	}
	if src.Export.Scale > 0 {
		dst.Export.Scale = src.Export.Scale
	}
	if v := lower(src.Export.Footprint); v != "" {
		dst.Export.Footprint = v
	}
	if v := lower(src.Export.Format); v != "" {
		dst.Export.Format = v
	}
	if v := lower(src.Import.Validation); v != "" {
		dst.Import.Validation = v
	}
	if v := lower(src.Logging.Level); v != "" {
		dst.Logging.Level = v
	}
	if v := lower(src.Logging.Format); v != "" {
		dst.Logging.Format = v
	}
	dst.Logging.Source = src.Logging.Source
	if v := strings.TrimSpace(src.Logging.File); v != "" {
		dst.Logging.File = v
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := lower(os.Getenv(EnvTheme)); v != "" {
		cfg.General.Theme = v
	}
	if v := lower(os.Getenv(EnvExportFootprint)); v != "" {
		cfg.Export.Footprint = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvExportScale)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Export.Scale = f
		}
	}
	if v := lower(os.Getenv(EnvImportValidation)); v != "" {
		cfg.Import.Validation = v
	}
	if v := lower(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = v
	}
	if v := lower(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = v
	}
	if v := lower(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = v == "1" || v == "true" || v == "on" || v == "yes"
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	env := map[string]string{
		"general.theme":     EnvTheme,
		"export.footprint":  EnvExportFootprint,
		"export.scale":      EnvExportScale,
		"import.validation": EnvImportValidation,
		"logging.level":     EnvLogLevel,
		"logging.format":    EnvLogFormat,
		"logging.source":    EnvLogSource,
		"logging.file":      EnvLogFile,
	}[key]
	if env == "" || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}

func lower(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
