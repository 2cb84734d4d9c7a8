package game

import (
	"encoding/json"
	"fmt"
	"os"
)

// Save writes the full game state to a JSON file.
func (g *Game) Save(path string) error {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal game: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write save file: %v", err)
	}
	return nil
}

// Load reads a game previously written by Save.
func Load(path string) (*Game, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read save file: %v", err)
	}
	var g Game
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game: %v", err)
	}
	for _, p := range g.Players {
		if p != nil && p.Sheet == nil {
			p.Sheet = NewSheet()
		} else if p != nil && p.Sheet.Scores == nil {
			p.Sheet.Scores = make(map[Category]int)
		}
	}
	return &g, nil
}
