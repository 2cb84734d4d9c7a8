package movelog

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindRoll       Kind = "ROLL"
	KindScore      Kind = "SCORE"
	KindHoldToggle Kind = "HOLD_TOGGLE"
)

// Record is one durable audit entry for an accepted move.
type Record struct {
	ID        string    `json:"id"`
	Player    string    `json:"player"`
	Kind      Kind      `json:"kind"`
	Detail    string    `json:"detail"`
	Timestamp time.Time `json:"ts"`
}

func NewRecord(player string, kind Kind, detail string) Record {
	return Record{
		ID:        uuid.New().String(),
		Player:    player,
		Kind:      kind,
		Detail:    detail,
		Timestamp: time.Now(),
	}
}

func (r Record) String() string {
	return fmt.Sprintf("[%s] %s: %s", r.Timestamp.Format("15:04:05"), r.Player, r.Detail)
}
