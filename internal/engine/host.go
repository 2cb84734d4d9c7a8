package engine

import (
	"fmt"

	"jamb-online/internal/game"
	"jamb-online/internal/movelog"
	"jamb-online/internal/protocol"
	"jamb-online/internal/transport"
)

// handleHostEnvelope applies one request against the authoritative model.
// Requests from the wrong player or out of phase are dropped with a log
// entry; the sender's view self-corrects on the next snapshot.
func (e *Engine) handleHostEnvelope(env protocol.Envelope, from *transport.Conn) {
	switch env.Kind {
	case protocol.KindPlayerJoined:
		e.hostPlayerJoined(env, from)
	case protocol.KindRollRequest:
		e.hostRoll(env)
	case protocol.KindDiceHoldToggle:
		e.hostHoldToggle(env)
	case protocol.KindScoreApplyRequest:
		e.hostApplyScore(env)
	case protocol.KindChatMessage:
		e.conns.Broadcast(env)
		if text, err := env.ChatText(); err == nil {
			e.chat(env.Sender, text)
		}
	case protocol.KindDisconnect:
		if from != nil {
			e.handleConnDown(from)
		}
	default:
		e.log.Warn().Str("kind", string(env.Kind)).Str("sender", env.Sender).Msg("unexpected message, dropping")
	}
}

func (e *Engine) hostPlayerJoined(env protocol.Envelope, from *transport.Conn) {
	if from == nil || env.Sender == "" {
		return
	}
	if e.started {
		e.log.Warn().Str("sender", env.Sender).Msg("join after game start, closing peer")
		e.conns.Remove(from)
		_ = from.Close()
		return
	}
	for _, name := range e.players {
		if name == env.Sender {
			e.log.Warn().Str("sender", env.Sender).Msg("duplicate join, dropping")
			return
		}
	}
	e.connNames[from] = env.Sender
	e.players = append(e.players, env.Sender)
	e.log.Info().Str("player", env.Sender).Int("players", len(e.players)).Msg("player joined")
	if e.cb.OnPlayerJoined != nil {
		e.cb.OnPlayerJoined(env.Sender, len(e.players))
	}
	if len(e.players) < game.NumPlayers {
		return
	}

	// Table is full. Turn order is join order, host first.
	var order [game.NumPlayers]string
	copy(order[:], e.players)
	e.g = game.New(order)
	e.started = true
	e.conns.Broadcast(protocol.GameStart(e.players))
	e.log.Info().Strs("order", e.players).Msg("game started")
	if e.cb.OnGameStarted != nil {
		e.cb.OnGameStarted(append([]string(nil), e.players...))
	}
	e.broadcastState()
}

func (e *Engine) hostTurnOf(sender string) bool {
	if !e.started || e.finished {
		return false
	}
	if e.g.CurrentPlayer().Name != sender {
		e.log.Warn().Str("sender", sender).Str("current", e.g.CurrentPlayer().Name).Msg("request out of turn, dropping")
		return false
	}
	return true
}

func (e *Engine) hostRoll(env protocol.Envelope) {
	if !e.hostTurnOf(env.Sender) {
		return
	}
	if !e.g.Roll() {
		e.log.Warn().Str("sender", env.Sender).Msg("roll past limit, dropping")
		return
	}
	e.record(env.Sender, movelog.KindRoll, fmt.Sprintf("rolled %v (roll %d)", e.g.Dice, e.g.RollCount))
	e.broadcastState()
}

func (e *Engine) hostHoldToggle(env protocol.Envelope) {
	if !e.hostTurnOf(env.Sender) {
		return
	}
	hold, err := env.DiceHold()
	if err != nil {
		e.log.Warn().Err(err).Str("sender", env.Sender).Msg("bad hold payload, dropping")
		return
	}
	if !e.g.SetHold(hold.Die, hold.Held) {
		return
	}
	e.record(env.Sender, movelog.KindHoldToggle, fmt.Sprintf("die %d held=%t", hold.Die+1, hold.Held))
	e.broadcastState()
}

func (e *Engine) hostApplyScore(env protocol.Envelope) {
	if !e.hostTurnOf(env.Sender) {
		return
	}
	move, err := env.MoveRequest()
	if err != nil {
		e.log.Warn().Err(err).Str("sender", env.Sender).Msg("bad move payload, dropping")
		return
	}
	dice := e.g.Dice
	rolls := e.g.RollCount
	score, err := e.g.ApplyScore(move.Category)
	if err != nil {
		e.log.Warn().Err(err).Str("sender", env.Sender).Str("category", string(move.Category)).Msg("move rejected")
		return
	}
	applied := protocol.MoveRequest{
		Player:     env.Sender,
		Category:   move.Category,
		Score:      score,
		Dice:       dice,
		RollNumber: rolls,
	}
	e.record(env.Sender, movelog.KindScore, fmt.Sprintf("%s = %d with %v", move.Category, score, dice))
	e.conns.Broadcast(protocol.ScoreApplied(env.Sender, applied))
	e.broadcastState()

	if e.g.Over() {
		e.hostGameOver()
		return
	}
	next := e.g.CurrentPlayer().Name
	e.conns.Broadcast(protocol.TurnChange(next))
	e.status(fmt.Sprintf("%s is on the move", next))
}

func (e *Engine) hostGameOver() {
	e.finished = true
	info := protocol.GameOverInfo{}
	if winner, ok := e.g.Winner(); ok {
		info.Winner = winner
		for _, p := range e.g.Players {
			if p.Name == winner {
				info.Score = p.Sheet.Total()
			}
		}
	}
	e.conns.Broadcast(protocol.GameOver(info))
	e.log.Info().Str("winner", info.Winner).Int("score", info.Score).Msg("game over")
	if e.cb.OnGameOver != nil {
		e.cb.OnGameOver(info.Winner)
	}
}

// broadcastState sends the authoritative snapshot to every peer and runs the
// same snapshot through the local view path, so host and clients render from
// identical data.
func (e *Engine) broadcastState() {
	snap := protocol.SnapshotOf(e.g)
	e.conns.Broadcast(protocol.StateUpdate(snap))
	e.applySnapshot(snap)
}

func (e *Engine) record(player string, kind movelog.Kind, detail string) {
	if e.rec == nil {
		return
	}
	e.rec.LogMove(movelog.NewRecord(player, kind, detail))
}
