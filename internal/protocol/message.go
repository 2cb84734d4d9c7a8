package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

type Kind string

const (
	KindPlayerJoined      Kind = "PLAYER_JOINED"
	KindGameStart         Kind = "GAME_START"
	KindStateUpdate       Kind = "GAME_STATE_UPDATE"
	KindRollRequest       Kind = "ROLL_REQUEST"
	KindDiceHoldToggle    Kind = "DICE_HOLD_TOGGLE"
	KindScoreApplyRequest Kind = "SCORE_APPLY_REQUEST"
	KindScoreApplied      Kind = "SCORE_APPLIED"
	KindTurnChange        Kind = "TURN_CHANGE"
	KindGameOver          Kind = "GAME_OVER"
	KindChatMessage       Kind = "CHAT_MESSAGE"
	KindDisconnect        Kind = "DISCONNECT"
	KindError             Kind = "ERROR"
)

// SenderSystem is the sender name used for host-originated control messages.
const SenderSystem = "SYSTEM"

// Envelope is the wire unit exchanged between host and client. The payload
// shape is determined by Kind; the typed accessors below refuse to decode a
// payload under the wrong kind.
type Envelope struct {
	Kind      Kind            `json:"kind"`
	Sender    string          `json:"sender"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"ts"`
}

func newEnvelope(kind Kind, sender string, payload any) Envelope {
	e := Envelope{Kind: kind, Sender: sender, Timestamp: time.Now()}
	if payload != nil {
		// Payloads are our own types; marshaling cannot fail for them.
		data, err := json.Marshal(payload)
		if err == nil {
			e.Payload = data
		}
	}
	return e
}

func PlayerJoined(playerName string) Envelope {
	return newEnvelope(KindPlayerJoined, playerName, nil)
}

// GameStart carries the final player order, which fixes turn order for all
// parties.
func GameStart(playerOrder []string) Envelope {
	return newEnvelope(KindGameStart, SenderSystem, playerOrder)
}

func StateUpdate(snap Snapshot) Envelope {
	return newEnvelope(KindStateUpdate, SenderSystem, snap)
}

func RollRequest(playerName string) Envelope {
	return newEnvelope(KindRollRequest, playerName, nil)
}

func DiceHoldToggle(playerName string, die int, held bool) Envelope {
	return newEnvelope(KindDiceHoldToggle, playerName, DiceHold{Die: die, Held: held})
}

func ScoreApplyRequest(playerName string, move MoveRequest) Envelope {
	return newEnvelope(KindScoreApplyRequest, playerName, move)
}

func ScoreApplied(playerName string, move MoveRequest) Envelope {
	return newEnvelope(KindScoreApplied, playerName, move)
}

func TurnChange(nextPlayerName string) Envelope {
	return newEnvelope(KindTurnChange, SenderSystem, nextPlayerName)
}

func GameOver(info GameOverInfo) Envelope {
	return newEnvelope(KindGameOver, SenderSystem, info)
}

func ChatMessage(sender, text string) Envelope {
	return newEnvelope(KindChatMessage, sender, text)
}

func Disconnect(playerName string) Envelope {
	return newEnvelope(KindDisconnect, playerName, nil)
}

func Error(text string) Envelope {
	return newEnvelope(KindError, SenderSystem, text)
}

func (e Envelope) decode(want Kind, v any) error {
	if e.Kind != want {
		return fmt.Errorf("payload requested as %s but envelope kind is %s", want, e.Kind)
	}
	if len(e.Payload) == 0 {
		return fmt.Errorf("%s envelope has no payload", e.Kind)
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("malformed %s payload: %v", e.Kind, err)
	}
	return nil
}

func (e Envelope) PlayerOrder() ([]string, error) {
	var order []string
	if err := e.decode(KindGameStart, &order); err != nil {
		return nil, err
	}
	if len(order) != 2 {
		return nil, fmt.Errorf("game start carries %d players, expected 2", len(order))
	}
	return order, nil
}

func (e Envelope) Snapshot() (Snapshot, error) {
	var snap Snapshot
	err := e.decode(KindStateUpdate, &snap)
	return snap, err
}

func (e Envelope) DiceHold() (DiceHold, error) {
	var hold DiceHold
	err := e.decode(KindDiceHoldToggle, &hold)
	return hold, err
}

func (e Envelope) MoveRequest() (MoveRequest, error) {
	var move MoveRequest
	var err error
	switch e.Kind {
	case KindScoreApplyRequest, KindScoreApplied:
		err = e.decode(e.Kind, &move)
	default:
		err = fmt.Errorf("envelope kind %s carries no move", e.Kind)
	}
	return move, err
}

func (e Envelope) GameOverInfo() (GameOverInfo, error) {
	var info GameOverInfo
	err := e.decode(KindGameOver, &info)
	return info, err
}

func (e Envelope) NextPlayer() (string, error) {
	var name string
	err := e.decode(KindTurnChange, &name)
	return name, err
}

func (e Envelope) ChatText() (string, error) {
	var text string
	err := e.decode(KindChatMessage, &text)
	return text, err
}

func (e Envelope) ErrorText() (string, error) {
	var text string
	err := e.decode(KindError, &text)
	return text, err
}
