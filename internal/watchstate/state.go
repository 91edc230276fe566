package watchstate

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"

	"SmartRental/internal/model"
)

// Entry is the last known outcome for one watched property.
type Entry struct {
	Verdict     model.Verdict `json:"verdict"`
	IRR         *float64      `json:"irr,omitempty"`
	FailureKind string        `json:"failure_kind,omitempty"`
	CheckedAt   time.Time     `json:"checked_at"`
}

// State is persisted between watch runs.
type State struct {
	Properties map[string]Entry `json:"properties"`
	Runs       int              `json:"runs"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// LoadState reads the state file. Returns a zero state if the file doesn't exist.
func LoadState(filePath string) (*State, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{Properties: map[string]Entry{}}, nil
		}
		return nil, eris.Wrap(err, "read watch state")
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, eris.Wrap(err, "decode watch state")
	}
	if state.Properties == nil {
		state.Properties = map[string]Entry{}
	}
	return &state, nil
}

// SaveState writes the state atomically.
func SaveState(filePath string, state *State) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return eris.Wrap(err, "encode watch state")
	}
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrap(err, "create state directory")
		}
	}
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return eris.Wrap(err, "write watch state")
	}
	if err := os.Rename(tmp, filePath); err != nil {
		return eris.Wrap(err, "replace watch state")
	}
	return nil
}
