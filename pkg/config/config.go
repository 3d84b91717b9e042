// Maude - governed chat client for the governor daemon
// License: MIT

package config

import (
	"fmt"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// Settings is the client configuration, populated from the environment and
// optionally overridden by CLI flags. All endpoint resolution happens here;
// the transport receives a final socket path and does no lookup of its own.
type Settings struct {
	// GovernorDir is the governor state directory the daemon serves
	// (either the .governor directory itself or the project root
	// containing it).
	GovernorDir string `env:"GOVERNOR_DIR"`

	// SocketPath, when set, bypasses socket path derivation entirely.
	SocketPath string `env:"GOVERNOR_SOCKET"`

	ContextID    string `env:"GOVERNOR_CONTEXT_ID" envDefault:"default"`
	GovernorMode string `env:"GOVERNOR_MODE" envDefault:"code"`
	Label        string `env:"MAUDE_LABEL"`
	TemplatesDir string `env:"MAUDE_TEMPLATES_DIR"`
	LogFile      string `env:"MAUDE_LOG_FILE"`
}

// Load reads Settings from the environment.
func Load() (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("config: parse environment: %w", err)
	}
	return s, nil
}

// ProjectName derives a human-readable project name from GovernorDir:
// "/home/u/git/agent_gov/.governor" and "/home/u/git/agent_gov" both yield
// "agent_gov".
func (s Settings) ProjectName() string {
	if s.GovernorDir == "" {
		return ""
	}
	dir := filepath.Clean(s.GovernorDir)
	if filepath.Base(dir) == governorDirName {
		dir = filepath.Dir(dir)
	}
	return filepath.Base(dir)
}
