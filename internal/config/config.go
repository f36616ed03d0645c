// Package config loads the .refscope.kdl project configuration and the
// persisted UI state. The KDL file configures the engine command and
// the coordinator's timing constants; the UI state carries the single
// persisted preference (group results by file).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	rferrors "github.com/standardbeagle/refscope/internal/errors"
)

// ConfigFileName is the project configuration file looked up in the root.
const ConfigFileName = ".refscope.kdl"

type Config struct {
	Version int
	Project Project
	Engine  Engine
	Search  Search
	Include []string
	Exclude []string
}

type Project struct {
	Root string
	Name string
}

// Engine configures the external analysis engine subprocess.
type Engine struct {
	Command []string // argv; the engine speaks the framed protocol on stdio
}

// Search configures the coordinator's timing behavior. The delay keeps
// the progress UI from flashing on fast searches; the poll interval
// throttles UI refresh; the peek window is the classification heuristic.
type Search struct {
	ProgressDelayMs int // delay before the progress UI may appear
	ProgressPollMs  int // UI refresh throttle interval
	PeekWindowMs    int // viewport-shrink window that classifies Peek vs Find
}

// DefaultConfig returns the built-in defaults, with the root resolved
// to the current working directory.
func DefaultConfig() *Config {
	root, _ := os.Getwd()
	if root == "" {
		root = "."
	}
	return &Config{
		Version: 1,
		Project: Project{Root: root},
		Search: Search{
			ProgressDelayMs: 2000,
			ProgressPollMs:  1000,
			PeekWindowMs:    1000,
		},
		Include: []string{},
		Exclude: []string{},
	}
}

// Load reads configuration from path. A missing file returns defaults.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg, err := parseKDL(string(content))
	if err != nil {
		return nil, err
	}

	// Resolve a relative root against the config file's directory so
	// the same file works regardless of the invocation directory.
	if cfg.Project.Root == "" {
		cfg.Project.Root = filepath.Dir(path)
	} else if !filepath.IsAbs(cfg.Project.Root) {
		cfg.Project.Root = filepath.Clean(filepath.Join(filepath.Dir(path), cfg.Project.Root))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *Config) Validate() error {
	if c.Search.ProgressDelayMs < 0 {
		return rferrors.NewConfigError("progress_delay_ms",
			fmt.Sprintf("%d", c.Search.ProgressDelayMs), fmt.Errorf("must be non-negative"))
	}
	if c.Search.ProgressPollMs <= 0 {
		return rferrors.NewConfigError("progress_poll_ms",
			fmt.Sprintf("%d", c.Search.ProgressPollMs), fmt.Errorf("must be positive"))
	}
	if c.Search.PeekWindowMs <= 0 {
		return rferrors.NewConfigError("peek_window_ms",
			fmt.Sprintf("%d", c.Search.PeekWindowMs), fmt.Errorf("must be positive"))
	}
	return nil
}
