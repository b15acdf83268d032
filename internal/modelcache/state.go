package modelcache

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"

	"phistack/internal/fsutil"
	"phistack/internal/logging"
)

const (
	stateFilePrefix = "cache_state-"
	stateFileSuffix = ".json"
)

// StateFileName names the state file of the cache rooted at root. Each root
// gets its own file so roots sharing a state directory never see each
// other's records.
func StateFileName(root string) string {
	sum := blake2b.Sum256([]byte(filepath.Clean(root)))
	return stateFilePrefix + hex.EncodeToString(sum[:8]) + stateFileSuffix
}

// StateManager persists artifact bookkeeping as JSON in a state directory.
type StateManager struct {
	mu       sync.Mutex
	stateDir string
	root     string
	logger   *logging.Logger
}

// NewStateManager creates a state manager for the cache rooted at root
func NewStateManager(stateDir, root string, logger *logging.Logger) *StateManager {
	return &StateManager{
		stateDir: stateDir,
		root:     root,
		logger:   logger,
	}
}

// Path returns the state file location
func (m *StateManager) Path() string {
	return filepath.Join(m.stateDir, StateFileName(m.root))
}

// Load loads the state from disk; a missing file yields an empty state
func (m *StateManager) Load() (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load()
}

func (m *StateManager) load() (*State, error) {
	data, err := os.ReadFile(m.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return &State{Root: m.root, Items: []ArtifactInfo{}, Updated: time.Now().UTC()}, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	if state.Root != "" && state.Root != m.root {
		m.logger.Warn("cache.state.foreign_root", "State file belongs to another cache root; ignoring it", map[string]interface{}{
			"path":       m.Path(),
			"state_root": state.Root,
			"root":       m.root,
		})
		return &State{Root: m.root, Items: []ArtifactInfo{}, Updated: time.Now().UTC()}, nil
	}
	if state.Items == nil {
		state.Items = []ArtifactInfo{}
	}

	return &state, nil
}

func (m *StateManager) save(state *State) error {
	if err := fsutil.EnsureDir(m.stateDir); err != nil {
		return err
	}

	state.Updated = time.Now().UTC()
	state.Root = m.root

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := fsutil.AtomicWriteFile(m.Path(), data, fsutil.DefaultFilePermissions, m.logger); err != nil {
		return err
	}

	m.logger.Debug("cache.state.saved", "Cache state saved", map[string]interface{}{
		"count": len(state.Items),
	})
	return nil
}

// update applies fn to the loaded state and saves it under the lock.
func (m *StateManager) update(fn func(*State) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, err := m.load()
	if err != nil {
		return err
	}
	if err := fn(state); err != nil {
		return err
	}
	return m.save(state)
}

// Put adds or replaces the entry for info.VariantID
func (m *StateManager) Put(info ArtifactInfo) error {
	return m.update(func(s *State) error {
		for i := range s.Items {
			if s.Items[i].VariantID == info.VariantID {
				s.Items[i] = info
				return nil
			}
		}
		s.Items = append(s.Items, info)
		return nil
	})
}

// Get returns the entry for variantID
func (m *StateManager) Get(variantID string) (ArtifactInfo, bool, error) {
	state, err := m.Load()
	if err != nil {
		return ArtifactInfo{}, false, err
	}
	for _, item := range state.Items {
		if item.VariantID == variantID {
			return item, true, nil
		}
	}
	return ArtifactInfo{}, false, nil
}

// Remove drops the entry for variantID
func (m *StateManager) Remove(variantID string) error {
	return m.update(func(s *State) error {
		filtered := make([]ArtifactInfo, 0, len(s.Items))
		for _, item := range s.Items {
			if item.VariantID != variantID {
				filtered = append(filtered, item)
			}
		}
		s.Items = filtered
		return nil
	})
}

// Touch updates last_used for variantID; unknown entries are ignored
func (m *StateManager) Touch(variantID string, now time.Time) error {
	return m.update(func(s *State) error {
		for i := range s.Items {
			if s.Items[i].VariantID == variantID {
				s.Items[i].LastUsed = now.UTC()
			}
		}
		return nil
	})
}

// Reconcile drops entries whose artifact file no longer exists.
func (m *StateManager) Reconcile() error {
	return m.update(func(s *State) error {
		kept := make([]ArtifactInfo, 0, len(s.Items))
		for _, item := range s.Items {
			if fsutil.PathExists(item.Path) {
				kept = append(kept, item)
			}
		}
		s.Items = kept
		return nil
	})
}

// OldestFirst returns entries sorted by last_used ascending
func (m *StateManager) OldestFirst() ([]ArtifactInfo, error) {
	state, err := m.Load()
	if err != nil {
		return nil, err
	}

	items := make([]ArtifactInfo, len(state.Items))
	copy(items, state.Items)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].LastUsed.Before(items[j].LastUsed)
	})
	return items, nil
}

// Clear empties the state
func (m *StateManager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.save(&State{Items: []ArtifactInfo{}})
}
