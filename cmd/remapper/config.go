package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// fileConfig is the optional remapper.jsonc layer (SPEC_FULL.md §2/§6's
// [EXPANSION]): a config file can declare target/mappings/cache-dir instead
// of, or alongside, CLI flags. Grounded on the teacher's cmd/agent-sandbox
// Config/LoadConfig split (config.go), collapsed to Remapper's much smaller
// field set.
type fileConfig struct {
	Target    string   `json:"target,omitempty"`
	Mappings  []string `json:"mappings,omitempty"`
	CacheDir  string   `json:"cache_dir,omitempty"`
	ConfigDir string   `json:"config_dir,omitempty"`
	DebugLog  string   `json:"debug_log,omitempty"`
}

// defaultConfigFileName is the file resolveConfigPath looks for inside a
// resolved CONFIG directory when --config wasn't given explicitly.
const defaultConfigFileName = "remapper.jsonc"

// resolveConfigPath decides which config file (if any) to load: an explicit
// --config path always wins; otherwise <configDir>/remapper.jsonc is used if
// present. Returns "" with a nil error when neither applies (config file is
// optional).
func resolveConfigPath(explicit, configDir string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("remapper: config file %q: %w", explicit, err)
		}

		return explicit, nil
	}

	candidate := filepath.Join(configDir, defaultConfigFileName)

	if _, err := os.Stat(candidate); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}

		return "", fmt.Errorf("remapper: checking config file %q: %w", candidate, err)
	}

	return candidate, nil
}

// loadFileConfig reads and parses a JSON-with-comments config file via
// hujson (the teacher's exact dependency for this concern), matching
// cmd/agent-sandbox/config.go's parseConfigFile: standardize first, then
// decode with unknown fields rejected so a typo'd key fails loudly instead
// of being silently ignored.
func loadFileConfig(path string) (fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("remapper: reading config %q: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fileConfig{}, fmt.Errorf("remapper: parsing config %q: %w", path, err)
	}

	var cfg fileConfig

	decoder := json.NewDecoder(bytes.NewReader(standardized))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&cfg); err != nil {
		return fileConfig{}, fmt.Errorf("remapper: parsing config %q: %w", path, err)
	}

	return cfg, nil
}
