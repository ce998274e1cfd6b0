// Package config loads the playback core's server configuration,
// following the pack's convention of a thin JSON file covering everything
// that isn't already a flag (grounded on the config-file-plus-flags split
// in ericcug-dash2hlsd/internal/config).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Config is the fully resolved configuration cmd/server builds its app
// from. Fields are exported/JSON-tagged PascalCase, matching the rest of
// this module's persistence conventions rather than a camelCase wire DTO.
type Config struct {
	ListenAddr string `json:"ListenAddr"`
	// BaseURL prefixes every manifest/segment/subtitle URL the orchestrator
	// mints. Leave empty when the core is reverse-proxied at its host's
	// root; set it to an absolute origin (or path prefix) otherwise, since
	// the router itself mounts those routes at its own root regardless.
	BaseURL          string        `json:"BaseURL"`
	LogLevel         string        `json:"LogLevel"`
	DBPath           string        `json:"DBPath"`
	MediaRoot        string        `json:"MediaRoot"`
	TranscodeRoot    string        `json:"TranscodeRoot"`
	MaxTranscodeJobs int           `json:"MaxTranscodeJobs"`
	SweepInterval    time.Duration `json:"SweepInterval"`
	AllowHWAccel     bool          `json:"AllowHWAccel"`
}

// Default returns the configuration a bare invocation runs with: a local
// sqlite file, a transcode scratch directory next to it, and hardware
// acceleration left off until the operator opts in.
func Default() Config {
	return Config{
		ListenAddr:       ":8080",
		BaseURL:          "",
		LogLevel:         "info",
		DBPath:           "playcore.db",
		MediaRoot:        "./media",
		TranscodeRoot:    "./transcode",
		MaxTranscodeJobs: 32,
		SweepInterval:    5 * time.Minute,
		AllowHWAccel:     false,
	}
}

// Load reads path as a JSON overlay on top of Default. A missing file is
// not an error: the defaults stand on their own for a first run.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
