package engine

import (
	"fmt"
	"time"

	"jamb-online/internal/game"
	"jamb-online/internal/protocol"
	"jamb-online/internal/transport"
)

func (e *Engine) handleClientEnvelope(env protocol.Envelope) {
	switch env.Kind {
	case protocol.KindPlayerJoined:
		if e.cb.OnPlayerJoined != nil {
			e.cb.OnPlayerJoined(env.Sender, 0)
		}

	case protocol.KindGameStart:
		order, err := env.PlayerOrder()
		if err != nil {
			e.log.Warn().Err(err).Msg("bad game start payload")
			return
		}
		var names [game.NumPlayers]string
		copy(names[:], order)
		e.players = order
		e.g = game.NewMirror(names)
		e.started = true
		e.log.Info().Strs("order", order).Msg("game started")
		if e.cb.OnGameStarted != nil {
			e.cb.OnGameStarted(order)
		}

	case protocol.KindStateUpdate:
		snap, err := env.Snapshot()
		if err != nil {
			e.log.Warn().Err(err).Msg("bad snapshot payload")
			return
		}
		e.applySnapshot(snap)

	case protocol.KindScoreApplied:
		move, err := env.MoveRequest()
		if err != nil {
			return
		}
		e.status(fmt.Sprintf("%s scored %d in %s", move.Player, move.Score, move.Category))

	case protocol.KindTurnChange:
		if next, err := env.NextPlayer(); err == nil {
			e.status(fmt.Sprintf("%s is on the move", next))
		}

	case protocol.KindGameOver:
		info, err := env.GameOverInfo()
		if err != nil {
			return
		}
		e.finished = true
		if e.cb.OnGameOver != nil {
			e.cb.OnGameOver(info.Winner)
		}

	case protocol.KindChatMessage:
		if text, err := env.ChatText(); err == nil {
			e.chat(env.Sender, text)
		}

	case protocol.KindDisconnect:
		e.finished = true
		e.status(fmt.Sprintf("%s disconnected, game over", env.Sender))

	case protocol.KindError:
		if text, err := env.ErrorText(); err == nil {
			e.status(text)
		}

	default:
		e.log.Warn().Str("kind", string(env.Kind)).Msg("unexpected message, dropping")
	}
}

// applySnapshot is the shared view path. The host's model already holds the
// snapshot's values, so only the mirror is mutated; both roles recompute whose
// turn it is and notify the application from here.
func (e *Engine) applySnapshot(snap protocol.Snapshot) {
	if e.role == RoleClient && e.g != nil {
		e.g.Dice = snap.Dice
		e.g.Held = snap.Held
		e.g.RollCount = snap.RollCount
		e.g.Current = snap.CurrentIndex
		for _, p := range e.g.Players {
			for c, v := range snap.Sheets[p.Name] {
				if !p.Sheet.Filled(c) {
					p.Sheet.Scores[c] = v
				}
			}
		}
	}
	e.myTurn = snap.CurrentPlayer == e.localName && !snap.GameOver
	if snap.GameOver {
		e.finished = true
	}
	if e.cb.OnStateChanged != nil {
		e.cb.OnStateChanged(snap)
	}
}

// handleConnDown ends the game when a peer's connection breaks. A finished
// game absorbs late failures silently.
func (e *Engine) handleConnDown(conn *transport.Conn) {
	if e.role == RoleHost {
		if !e.conns.Remove(conn) {
			return
		}
		name := e.connNames[conn]
		delete(e.connNames, conn)
		if name == "" || e.finished {
			return
		}
		e.finished = true
		e.conns.Broadcast(protocol.Disconnect(name))
		e.log.Info().Str("player", name).Msg("player disconnected, ending game")
		e.status(fmt.Sprintf("%s disconnected, game over", name))
		return
	}
	if e.finished {
		return
	}
	e.finished = true
	e.log.Info().Msg("lost connection to host")
	e.status("Lost connection to the host")
}

func (e *Engine) status(s string) {
	if e.cb.OnStatus != nil {
		e.cb.OnStatus(s)
	}
}

func (e *Engine) chat(sender, text string) {
	if e.cb.OnChatReceived != nil {
		e.cb.OnChatReceived(sender, text)
	}
}

// Close shuts the engine down: the listener or dial connection is closed, the
// read loops unblock, and the dispatch goroutine drains. Close waits a bounded
// time for the loops to finish and is safe to call more than once.
func (e *Engine) Close() error {
	e.once.Do(func() {
		close(e.done)
		if e.ln != nil {
			_ = e.ln.Close()
		}
		if e.conns != nil {
			e.conns.CloseAll()
		}
		if e.conn != nil {
			// Best effort; the host also detects the closed socket.
			_ = e.conn.Send(protocol.Disconnect(e.localName))
			_ = e.conn.Close()
		}

		loops := make(chan struct{})
		go func() {
			e.wg.Wait()
			close(loops)
		}()
		for _, ch := range []chan struct{}{loops, e.closed} {
			select {
			case <-ch:
			case <-time.After(closeTimeout):
				e.log.Warn().Msg("close timed out waiting for loops")
				return
			}
		}
	})
	return nil
}
