package directory

import (
	"time"
)

type Status string

const (
	StatusWaiting    Status = "WAITING"
	StatusFull       Status = "FULL"
	StatusInProgress Status = "IN_PROGRESS"
	StatusFinished   Status = "FINISHED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusWaiting, StatusFull, StatusInProgress, StatusFinished:
		return true
	}
	return false
}

// GameInfo is one lobby entry. The host registers it when a game opens and
// updates the mutable fields as players join and the game runs.
type GameInfo struct {
	ID             string    `json:"id"`
	HostName       string    `json:"host_name"`
	Address        string    `json:"address"`
	CurrentPlayers int       `json:"current_players"`
	MaxPlayers     int       `json:"max_players"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Joinable reports whether a new player can still take a seat.
func (g GameInfo) Joinable() bool {
	return g.Status == StatusWaiting && g.CurrentPlayers < g.MaxPlayers
}

type ChatKind string

const (
	ChatRegular   ChatKind = "REGULAR"
	ChatSystem    ChatKind = "SYSTEM"
	ChatGameEvent ChatKind = "GAME_EVENT"
)

// SenderSystem is the sender name on SYSTEM and GAME_EVENT entries.
const SenderSystem = "SYSTEM"

type ChatEntry struct {
	Sender    string    `json:"sender"`
	Message   string    `json:"message"`
	Kind      ChatKind  `json:"kind"`
	Timestamp time.Time `json:"ts"`
}

// Stats is the directory's liveness report: entry counts by status plus the
// total buffered chat volume.
type Stats struct {
	Games        int            `json:"games"`
	ByStatus     map[Status]int `json:"by_status"`
	ChatMessages int            `json:"chat_messages"`
}
