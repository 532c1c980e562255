package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// trackedSymbolsFile is the on-disk shape of the tracked-symbol universe
// config, mirroring original_source's configs/nasdaq100_symbols.json.
type trackedSymbolsFile struct {
	Symbols []string `json:"symbols"`
}

// LoadTrackedSymbols reads the tracked symbol universe from a JSON file.
// An empty path or a missing file falls back to defaultTrackedSymbols.
func LoadTrackedSymbols(path string) ([]string, error) {
	if path == "" {
		return defaultTrackedSymbols, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultTrackedSymbols, nil
		}
		return nil, fmt.Errorf("failed to read tracked symbols file %s: %w", path, err)
	}

	var parsed trackedSymbolsFile
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse tracked symbols file %s: %w", path, err)
	}
	if len(parsed.Symbols) == 0 {
		return nil, fmt.Errorf("tracked symbols file %s contains no symbols", path)
	}
	return parsed.Symbols, nil
}
