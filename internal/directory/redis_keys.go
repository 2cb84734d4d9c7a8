package directory

import "time"

const (
	KeyGame    = "lobby:game:%s"
	KeyGameIDs = "lobby:games"
	KeyChat    = "lobby:chat:%s"

	TTLGame = 2 * time.Hour
	TTLChat = 2 * time.Hour
)
