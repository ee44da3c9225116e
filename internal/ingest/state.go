package ingest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

const stateFileName = "state.json"

// State tracks which documents have been ingested and their content
// hashes, so unchanged documents are skipped on the next run.
type State struct {
	Hashes      map[string]string `json:"hashes"`
	LastUpdated time.Time         `json:"last_updated"`
}

// LoadState reads ingestion state from dir. A missing file yields an empty
// state, not an error.
func LoadState(dir string) (*State, error) {
	data, err := os.ReadFile(filepath.Join(dir, stateFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return &State{Hashes: make(map[string]string)}, nil
		}
		return nil, err
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	if state.Hashes == nil {
		state.Hashes = make(map[string]string)
	}
	return &state, nil
}

// Save writes the state under dir, creating the directory if needed.
func (s *State) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	s.LastUpdated = time.Now().UTC()
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, stateFileName), data, 0o644)
}

// IsChanged reports whether the document's content hash differs from the
// stored hash.
func (s *State) IsChanged(relPath, contentHash string) bool {
	stored, ok := s.Hashes[relPath]
	if !ok {
		return true
	}
	return stored != contentHash
}
