// Package config loads engine-wide tunables from YAML (SPEC_FULL §10.3)
// and wires up structured logging (§10.1) — the ambient stack the
// distilled specification leaves unspecified.
package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// EngineConfig is the engine-wide configuration spec.md leaves external:
// cache sizing, disabled/incognito toggles, zero-query and
// content-word-learning toggles, the result cap, and the storage backend
// selection (SPEC_FULL §10.3, §11.1). The 62-day entry expiry window is a
// fixed constant of package history and is not configurable here.
type EngineConfig struct {
	CacheSize                        int    `yaml:"cache_size"`
	Disabled                         bool   `yaml:"disabled"`
	Incognito                        bool   `yaml:"incognito"`
	ContentWordLearningEnabled       bool   `yaml:"content_word_learning_enabled"`
	DisableZeroQuerySuffixPrediction bool   `yaml:"disable_zero_query_suffix_prediction"`
	MaxResults                       int    `yaml:"max_results"`
	StorageBackend                   string `yaml:"storage_backend"` // "file", "sqlite", "mysql", "postgres", "mssql"
	StorageDSN                       string `yaml:"storage_dsn"`
}

// ParseEngineConfigString parses yamlString, the test-friendly byte-string
// entry point, mirroring database.ParseGeneratorConfigString.
func ParseEngineConfigString(yamlString string) (EngineConfig, error) {
	if yamlString == "" {
		return EngineConfig{}, nil
	}
	return parseEngineConfigFromBytes([]byte(yamlString))
}

// ParseEngineConfig reads and parses configFile, mirroring
// database.ParseGeneratorConfig's file entry point.
func ParseEngineConfig(configFile string) (EngineConfig, error) {
	if configFile == "" {
		return EngineConfig{}, nil
	}
	buf, err := os.ReadFile(configFile)
	if err != nil {
		return EngineConfig{}, fmt.Errorf("config: read %s: %w", configFile, err)
	}
	return parseEngineConfigFromBytes(buf)
}

func parseEngineConfigFromBytes(buf []byte) (EngineConfig, error) {
	var cfg EngineConfig
	dec := yaml.NewDecoder(bytes.NewReader(buf))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return EngineConfig{}, fmt.Errorf("config: decode: %w", err)
	}
	return cfg, nil
}

// InitLogging installs a slog.TextHandler on os.Stderr as the default
// logger, with its level controlled by the KANACORE_LOG_LEVEL environment
// variable (debug/info/warn/error, defaulting to info) — SPEC_FULL §10.1.
func InitLogging() {
	level := parseLogLevel(os.Getenv("KANACORE_LOG_LEVEL"))
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
