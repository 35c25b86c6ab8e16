package deploy

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// stateFileMode keeps state files private; they contain resource ARNs.
const stateFileMode = 0o600

// FileStateStore persists DeployState as a JSON file next to the deploy
// config. Writes go through a temp file and rename so a crash never
// leaves a half-written state.
type FileStateStore struct {
	Path string
}

// Load reads the state file. A missing file is no state, not an error.
func (s *FileStateStore) Load() (*DeployState, error) {
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &DeployState{}, nil
		}
		return nil, fmt.Errorf("read state file %s: %w", s.Path, err)
	}
	state, err := ParseState(raw)
	if err != nil {
		return nil, fmt.Errorf("state file %s: %w", s.Path, err)
	}
	return state, nil
}

// Save writes the state file atomically.
func (s *FileStateStore) Save(state *DeployState) error {
	raw, err := state.Marshal()
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	dir := filepath.Dir(s.Path)
	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close state file: %w", err)
	}
	if err := os.Chmod(tmpName, stateFileMode); err != nil {
		return fmt.Errorf("chmod state file: %w", err)
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		return fmt.Errorf("replace state file %s: %w", s.Path, err)
	}
	return nil
}

// Remove deletes the state file. A missing file is fine.
func (s *FileStateStore) Remove() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove state file %s: %w", s.Path, err)
	}
	return nil
}
