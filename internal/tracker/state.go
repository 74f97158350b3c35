package tracker

import (
	"encoding/json"
	"os"
	"path/filepath"

	"TrendSentinel/internal/model"
)

// LoadStates reads tracker states keyed by symbol from a JSON file.
// Returns an empty map if the file doesn't exist.
func LoadStates(filePath string) (map[string]*model.TrackerState, error) {
	states := map[string]*model.TrackerState{}
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return states, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return states, nil
	}
	if err := json.Unmarshal(data, &states); err != nil {
		return nil, err
	}
	return states, nil
}

// SaveStates writes tracker states to a JSON file, creating its directory.
func SaveStates(filePath string, states map[string]*model.TrackerState) error {
	data, err := json.MarshalIndent(states, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(filePath, data, 0644)
}
