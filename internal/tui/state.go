package tui

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"phistack/internal/fsutil"
	"phistack/internal/logging"
)

// UIStateFileName is the name of the chat UI state file
const UIStateFileName = "chat_ui_state.json"

// UIStateManager persists the last chat variant and error
type UIStateManager struct {
	stateDir string
	logger   *logging.Logger
}

// NewUIStateManager creates a new UI state manager
func NewUIStateManager(stateDir string, logger *logging.Logger) *UIStateManager {
	if logger == nil {
		logger = logging.Discard()
	}
	return &UIStateManager{stateDir: stateDir, logger: logger}
}

func (m *UIStateManager) path() string {
	return filepath.Join(m.stateDir, UIStateFileName)
}

// Load returns the saved state, or an empty state when none exists.
func (m *UIStateManager) Load() (*UIState, error) {
	data, err := os.ReadFile(m.path())
	if err != nil {
		if os.IsNotExist(err) {
			return &UIState{}, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var state UIState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	return &state, nil
}

// Save writes state atomically.
func (m *UIStateManager) Save(state *UIState) error {
	if err := fsutil.EnsureDir(m.stateDir); err != nil {
		return err
	}

	state.Updated = time.Now().UTC()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := fsutil.AtomicWriteFile(m.path(), data, fsutil.DefaultFilePermissions, m.logger); err != nil {
		return err
	}

	m.logger.Debug("tui.state.saved", "UI state saved", map[string]interface{}{
		"variant":   state.Variant,
		"exchanges": state.Exchanges,
	})
	return nil
}
