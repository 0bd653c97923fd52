package repositories

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// ClientSeed is one client row in a seed file.
type ClientSeed struct {
	ClientID    int64   `json:"client_id"`
	UserID      string  `json:"user_id"`
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	OpeningTime string  `json:"opening_time"`
	ClosingTime string  `json:"closing_time"`
}

// LoadClientSeeds parses and validates a JSON seed file.
func LoadClientSeeds(jsonPath string) ([]ClientSeed, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("seed clients: read %q: %w", jsonPath, err)
	}

	var data []ClientSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return nil, fmt.Errorf("seed clients: parse json: %w", err)
	}

	rows := make([]ClientSeed, 0, len(data))
	for i, item := range data {
		if item.ClientID <= 0 {
			return nil, fmt.Errorf("seed clients: invalid client_id at index %d: %d", i+1, item.ClientID)
		}
		if strings.TrimSpace(item.UserID) == "" {
			return nil, fmt.Errorf("seed clients: item at index %d: user_id cannot be empty", i+1)
		}
		if strings.TrimSpace(item.Name) == "" {
			return nil, fmt.Errorf("seed clients: item at index %d: name cannot be empty", i+1)
		}
		rows = append(rows, item)
	}

	return rows, nil
}
