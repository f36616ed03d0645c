package config

import (
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// StateFileName holds the persisted UI state next to the project config.
const StateFileName = ".refscope-state.toml"

// UIState is the persisted UI preference set. The subsystem owns exactly
// one preference; anything else the editor remembers lives elsewhere.
type UIState struct {
	GroupResultsByFile bool `toml:"group_results_by_file"`
}

// DefaultUIState returns the out-of-the-box state.
func DefaultUIState() UIState {
	return UIState{GroupResultsByFile: false}
}

// StatePath returns the state file location for a project root.
func StatePath(root string) string {
	return filepath.Join(root, StateFileName)
}

// LoadState reads the persisted state. A missing file returns defaults.
func LoadState(path string) (UIState, error) {
	state := DefaultUIState()

	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return state, nil
	}
	if err != nil {
		return state, fmt.Errorf("failed to read state %s: %w", path, err)
	}

	if err := toml.Unmarshal(content, &state); err != nil {
		return DefaultUIState(), fmt.Errorf("failed to parse state %s: %w", path, err)
	}
	return state, nil
}

// SaveState writes the state atomically (write temp, rename over).
func SaveState(path string, state UIState) error {
	content, err := toml.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, content, 0644); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace state: %w", err)
	}
	return nil
}
