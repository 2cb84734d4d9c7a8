package protocol_test

import (
	"encoding/json"
	"testing"

	"jamb-online/internal/game"
	"jamb-online/internal/protocol"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	move := protocol.MoveRequest{
		Player:     "Alice",
		Category:   game.CategoryFullHouse,
		Score:      12,
		Dice:       [5]int{2, 2, 2, 3, 3},
		RollNumber: 2,
	}
	env := protocol.ScoreApplyRequest("Alice", move)

	data, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded protocol.Envelope
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.Kind != protocol.KindScoreApplyRequest {
		t.Errorf("kind mismatch: %s", decoded.Kind)
	}
	if decoded.Sender != "Alice" {
		t.Errorf("sender mismatch: %s", decoded.Sender)
	}

	got, err := decoded.MoveRequest()
	if err != nil {
		t.Fatalf("move extraction failed: %v", err)
	}
	if got != move {
		t.Errorf("move mismatch: %+v", got)
	}
}

func TestEnvelopeRejectsWrongKind(t *testing.T) {
	env := protocol.ChatMessage("Bob", "hello")

	if _, err := env.Snapshot(); err == nil {
		t.Error("snapshot extraction from a chat envelope should fail")
	}
	if _, err := env.MoveRequest(); err == nil {
		t.Error("move extraction from a chat envelope should fail")
	}
	if text, err := env.ChatText(); err != nil || text != "hello" {
		t.Errorf("chat text: %q, %v", text, err)
	}
}

func TestEnvelopeRejectsMalformedPayload(t *testing.T) {
	env := protocol.Envelope{
		Kind:    protocol.KindStateUpdate,
		Sender:  protocol.SenderSystem,
		Payload: json.RawMessage(`"not a snapshot"`),
	}
	if _, err := env.Snapshot(); err == nil {
		t.Error("malformed snapshot payload should be rejected")
	}

	empty := protocol.Envelope{Kind: protocol.KindGameStart}
	if _, err := empty.PlayerOrder(); err == nil {
		t.Error("missing payload should be rejected")
	}
}

func TestGameStartOrder(t *testing.T) {
	env := protocol.GameStart([]string{"Alice", "Bob"})
	order, err := env.PlayerOrder()
	if err != nil {
		t.Fatalf("player order extraction failed: %v", err)
	}
	if order[0] != "Alice" || order[1] != "Bob" {
		t.Errorf("order mismatch: %v", order)
	}

	bad := protocol.GameStart([]string{"Alice"})
	if _, err := bad.PlayerOrder(); err == nil {
		t.Error("single-player order should be rejected")
	}
}

func TestSnapshotOf(t *testing.T) {
	g := game.New([2]string{"Alice", "Bob"})
	g.Dice = [5]int{1, 1, 1, 1, 1}
	if _, err := g.ApplyScore(game.CategoryYahtzee); err != nil {
		t.Fatalf("apply score failed: %v", err)
	}

	snap := protocol.SnapshotOf(g)
	if snap.CurrentPlayer != "Bob" {
		t.Errorf("expected Bob current, got %s", snap.CurrentPlayer)
	}
	if snap.Sheets["Alice"][game.CategoryYahtzee] != 50 {
		t.Errorf("yahtzee score missing from sheet: %v", snap.Sheets["Alice"])
	}
	if snap.Totals["Alice"] != 50 {
		t.Errorf("total mismatch: %d", snap.Totals["Alice"])
	}
	if snap.GameOver {
		t.Error("game should not be over")
	}

	// Mutating the snapshot's sheet must not touch the model.
	snap.Sheets["Alice"][game.CategoryChance] = 99
	if g.Players[0].Sheet.Filled(game.CategoryChance) {
		t.Error("snapshot aliases the model's sheet")
	}
}
