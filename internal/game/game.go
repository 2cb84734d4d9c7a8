package game

import (
	"fmt"
	"math/rand"
)

const (
	NumDice    = 5
	NumPlayers = 2
	MaxRolls   = 3
)

// Sheet is one player's score sheet. A category is filled once it has an
// entry, even when the entry is zero.
type Sheet struct {
	Scores map[Category]int `json:"scores"`
}

func NewSheet() *Sheet {
	return &Sheet{Scores: make(map[Category]int)}
}

func (s *Sheet) Filled(c Category) bool {
	_, ok := s.Scores[c]
	return ok
}

func (s *Sheet) Set(c Category, score int) error {
	if !c.Valid() {
		return fmt.Errorf("unknown category: %s", c)
	}
	if s.Filled(c) {
		return fmt.Errorf("category already filled: %s", c)
	}
	s.Scores[c] = score
	return nil
}

func (s *Sheet) Total() int {
	total := 0
	for _, v := range s.Scores {
		total += v
	}
	return total
}

func (s *Sheet) Complete() bool {
	return len(s.Scores) == len(Categories())
}

type Player struct {
	Name  string `json:"name"`
	Sheet *Sheet `json:"sheet"`
}

// Game is the local two-player turn model. It has no network awareness; the
// host's protocol engine is its only mutator during a network game, clients
// hold a mirror rebuilt from snapshots.
type Game struct {
	Players   [NumPlayers]*Player `json:"players"`
	Dice      [NumDice]int        `json:"dice"`
	Held      [NumDice]bool       `json:"held"`
	RollCount int                 `json:"roll_count"`
	Current   int                 `json:"current"`
}

// New starts a game with the players in the given turn order. The first
// player's turn begins immediately, including the automatic first roll.
func New(names [NumPlayers]string) *Game {
	g := NewMirror(names)
	g.startTurn()
	return g
}

// NewMirror builds an empty model for a client that only applies snapshots.
// No dice are rolled.
func NewMirror(names [NumPlayers]string) *Game {
	g := &Game{}
	for i, name := range names {
		g.Players[i] = &Player{Name: name, Sheet: NewSheet()}
	}
	return g
}

func (g *Game) CurrentPlayer() *Player {
	return g.Players[g.Current]
}

// Roll rerolls all dice that are not held. Returns false once the per-turn
// roll limit is reached.
func (g *Game) Roll() bool {
	if g.RollCount >= MaxRolls {
		return false
	}
	for i := range g.Dice {
		if !g.Held[i] {
			g.Dice[i] = rand.Intn(6) + 1
		}
	}
	g.RollCount++
	return true
}

// ToggleHold flips the held flag of one die. Returns false for an index out
// of range.
func (g *Game) ToggleHold(die int) bool {
	if die < 0 || die >= NumDice {
		return false
	}
	g.Held[die] = !g.Held[die]
	return true
}

func (g *Game) SetHold(die int, held bool) bool {
	if die < 0 || die >= NumDice {
		return false
	}
	g.Held[die] = held
	return true
}

func (g *Game) PreviewScore(c Category) int {
	return Score(c, g.Dice)
}

// ApplyScore fills the category for the current player with the score of the
// current dice, then either ends the game or starts the next player's turn.
func (g *Game) ApplyScore(c Category) (int, error) {
	score := g.PreviewScore(c)
	if err := g.CurrentPlayer().Sheet.Set(c, score); err != nil {
		return 0, err
	}
	if g.Over() {
		return score, nil
	}
	g.Current = (g.Current + 1) % NumPlayers
	g.startTurn()
	return score, nil
}

func (g *Game) startTurn() {
	g.RollCount = 0
	for i := range g.Held {
		g.Held[i] = false
	}
	g.Roll()
}

func (g *Game) Over() bool {
	for _, p := range g.Players {
		if !p.Sheet.Complete() {
			return false
		}
	}
	return true
}

// Winner returns the higher-total player once the game is over. The second
// return is false while the game is running or on an exact tie.
func (g *Game) Winner() (string, bool) {
	if !g.Over() {
		return "", false
	}
	a, b := g.Players[0], g.Players[1]
	switch {
	case a.Sheet.Total() > b.Sheet.Total():
		return a.Name, true
	case b.Sheet.Total() > a.Sheet.Total():
		return b.Name, true
	}
	return "", false
}
