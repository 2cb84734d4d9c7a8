package protocol

import (
	"jamb-online/internal/game"
)

// Snapshot is the full visible game state. Only the host produces snapshots;
// everyone applies them, the host included.
type Snapshot struct {
	Dice          [game.NumDice]int            `json:"dice"`
	Held          [game.NumDice]bool           `json:"held"`
	RollCount     int                          `json:"roll_count"`
	CurrentIndex  int                          `json:"current_index"`
	CurrentPlayer string                       `json:"current_player"`
	Sheets        map[string]map[game.Category]int `json:"sheets"`
	Totals        map[string]int               `json:"totals"`
	GameOver      bool                         `json:"game_over"`
	Winner        string                       `json:"winner,omitempty"`
}

// SnapshotOf captures the authoritative model's visible state.
func SnapshotOf(g *game.Game) Snapshot {
	snap := Snapshot{
		Dice:          g.Dice,
		Held:          g.Held,
		RollCount:     g.RollCount,
		CurrentIndex:  g.Current,
		CurrentPlayer: g.CurrentPlayer().Name,
		Sheets:        make(map[string]map[game.Category]int, game.NumPlayers),
		Totals:        make(map[string]int, game.NumPlayers),
		GameOver:      g.Over(),
	}
	for _, p := range g.Players {
		scores := make(map[game.Category]int, len(p.Sheet.Scores))
		for c, v := range p.Sheet.Scores {
			scores[c] = v
		}
		snap.Sheets[p.Name] = scores
		snap.Totals[p.Name] = p.Sheet.Total()
	}
	if winner, ok := g.Winner(); ok {
		snap.Winner = winner
	}
	return snap
}

// MoveRequest is a client's intent to fill a category. The embedded score is
// advisory; the host recomputes from its own dice before applying.
type MoveRequest struct {
	Player     string            `json:"player"`
	Category   game.Category     `json:"category"`
	Score      int               `json:"score"`
	Dice       [game.NumDice]int `json:"dice"`
	RollNumber int               `json:"roll_number"`
}

type DiceHold struct {
	Die  int  `json:"die"`
	Held bool `json:"held"`
}

type GameOverInfo struct {
	Winner string `json:"winner,omitempty"`
	Score  int    `json:"score"`
}
