package engine

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"jamb-online/internal/game"
	"jamb-online/internal/movelog"
	"jamb-online/internal/protocol"
	"jamb-online/internal/transport"
)

type Role string

const (
	RoleHost   Role = "host"
	RoleClient Role = "client"
)

const closeTimeout = 2 * time.Second

// Recorder receives one record per accepted move. *movelog.Logger satisfies
// it; a nil recorder disables the audit trail.
type Recorder interface {
	LogMove(movelog.Record)
}

// Callbacks are the engine's notifications to the surrounding application.
// They are invoked synchronously from the engine's dispatch goroutine; the
// embedding application redispatches onto its own UI context if it has one.
type Callbacks struct {
	OnStateChanged func(protocol.Snapshot)
	OnChatReceived func(sender, text string)
	OnPlayerJoined func(name string, count int)
	OnGameStarted  func(players []string)
	OnGameOver     func(winner string)
	OnStatus       func(status string)
}

type intentKind int

const (
	intentRoll intentKind = iota
	intentHold
	intentScore
	intentChat
)

type intent struct {
	kind intentKind
	die  int
	cat  game.Category
	text string
}

// item is one unit of work for the dispatch loop: a received envelope, a
// local player intent, or a connection failure. Everything that can mutate
// engine state arrives through this single queue, so the model needs no
// locking of its own.
type item struct {
	env    protocol.Envelope
	from   *transport.Conn
	intent *intent
	down   *transport.Conn
}

// Engine synchronizes one game between a host and a client. The host role is
// authoritative: it owns the only mutable game model and broadcasts a full
// snapshot after every accepted action. The client role mirrors snapshots and
// turns player intents into requests.
type Engine struct {
	role      Role
	localName string
	log       zerolog.Logger
	cb        Callbacks
	rec       Recorder

	inbox  chan item
	done   chan struct{}
	closed chan struct{}
	once   sync.Once
	wg     sync.WaitGroup

	// Host side.
	ln        *transport.Listener
	conns     *transport.ConnSet
	connNames map[*transport.Conn]string

	// Client side.
	conn *transport.Conn

	// Dispatch-owned state. Only the dispatch goroutine touches these.
	players  []string
	started  bool
	finished bool
	myTurn   bool
	g        *game.Game
}

func newEngine(role Role, localName string, log zerolog.Logger) *Engine {
	return &Engine{
		role:      role,
		localName: localName,
		log:       log.With().Str("component", "engine").Str("role", string(role)).Str("player", localName).Logger(),
		inbox:     make(chan item, 256),
		done:      make(chan struct{}),
		closed:    make(chan struct{}),
		connNames: make(map[*transport.Conn]string),
	}
}

// NewHost creates the authoritative engine for a hosted game.
func NewHost(localName string, log zerolog.Logger) *Engine {
	e := newEngine(RoleHost, localName, log)
	e.conns = transport.NewConnSet(e.log)
	e.players = []string{localName}
	return e
}

// NewClient creates a mirroring engine that joins a hosted game.
func NewClient(localName string, log zerolog.Logger) *Engine {
	return newEngine(RoleClient, localName, log)
}

// SetCallbacks must be called before Start or Connect.
func (e *Engine) SetCallbacks(cb Callbacks) { e.cb = cb }

// SetRecorder must be called before Start. Host only.
func (e *Engine) SetRecorder(r Recorder) { e.rec = r }

func (e *Engine) Role() Role        { return e.role }
func (e *Engine) LocalName() string { return e.localName }

// Start binds the game port and begins accepting. Host only. A bind failure
// is returned synchronously and is fatal to the hosting attempt.
func (e *Engine) Start(addr string) error {
	if e.role != RoleHost {
		return fmt.Errorf("start is a host operation")
	}
	ln, err := transport.Listen(addr)
	if err != nil {
		return err
	}
	e.ln = ln
	e.log.Info().Str("addr", ln.Addr()).Msg("game server listening")
	e.status("Waiting for an opponent...")

	e.wg.Add(1)
	go e.acceptLoop()
	go e.dispatch()
	return nil
}

// Addr reports the bound address once Start has succeeded.
func (e *Engine) Addr() string {
	if e.ln == nil {
		return ""
	}
	return e.ln.Addr()
}

// Connect dials the host and announces this player. Client only.
func (e *Engine) Connect(addr string) error {
	if e.role != RoleClient {
		return fmt.Errorf("connect is a client operation")
	}
	conn, err := transport.Dial(addr)
	if err != nil {
		return fmt.Errorf("could not join: %v", err)
	}
	e.conn = conn
	if err := conn.Send(protocol.PlayerJoined(e.localName)); err != nil {
		_ = conn.Close()
		return fmt.Errorf("could not join: %v", err)
	}
	e.players = []string{e.localName}
	e.status("Connected")

	e.wg.Add(1)
	go e.readLoop(conn)
	go e.dispatch()
	return nil
}

func (e *Engine) acceptLoop() {
	defer e.wg.Done()
	for {
		conn, err := e.ln.Accept()
		if err != nil {
			select {
			case <-e.done:
			default:
				e.log.Error().Err(err).Msg("accept failed")
			}
			return
		}
		if e.conns.Len() >= transport.MaxConns {
			e.log.Warn().Str("peer", conn.RemoteAddr()).Msg("connection cap reached, closing extra peer")
			_ = conn.Close()
			continue
		}
		e.conns.Add(conn)
		e.log.Info().Str("peer", conn.RemoteAddr()).Msg("peer connected")
		e.wg.Add(1)
		go e.readLoop(conn)
	}
}

// readLoop decodes frames from one connection and forwards them to the
// dispatch queue. It exits when the peer closes or the engine shuts down.
func (e *Engine) readLoop(conn *transport.Conn) {
	defer e.wg.Done()
	for {
		env, err := conn.Receive()
		if err != nil {
			if err != io.EOF {
				select {
				case <-e.done:
				default:
					e.log.Warn().Err(err).Msg("read failed")
				}
			}
			e.enqueue(item{down: conn})
			return
		}
		e.enqueue(item{env: env, from: conn})
	}
}

func (e *Engine) enqueue(it item) {
	select {
	case e.inbox <- it:
	case <-e.done:
	}
}

// dispatch is the single goroutine that handles every envelope, intent and
// connection event in arrival order.
func (e *Engine) dispatch() {
	defer close(e.closed)
	for {
		select {
		case <-e.done:
			return
		case it := <-e.inbox:
			switch {
			case it.intent != nil:
				e.handleIntent(*it.intent)
			case it.down != nil:
				e.handleConnDown(it.down)
			default:
				e.handleEnvelope(it.env, it.from)
			}
		}
	}
}

// Roll submits the local player's intent to roll the dice.
func (e *Engine) Roll() {
	e.enqueue(item{intent: &intent{kind: intentRoll}})
}

// ToggleHold submits the local player's intent to flip one die's held flag.
func (e *Engine) ToggleHold(die int) {
	e.enqueue(item{intent: &intent{kind: intentHold, die: die}})
}

// ApplyScore submits the local player's intent to fill a category.
func (e *Engine) ApplyScore(cat game.Category) {
	e.enqueue(item{intent: &intent{kind: intentScore, cat: cat}})
}

// SendChat relays a chat line over the game connection.
func (e *Engine) SendChat(text string) {
	e.enqueue(item{intent: &intent{kind: intentChat, text: text}})
}

func (e *Engine) handleIntent(in intent) {
	if in.kind == intentChat {
		e.handleChatIntent(in.text)
		return
	}
	if !e.started || e.finished {
		e.status("The game is not running")
		return
	}
	if !e.myTurn {
		e.status("Not your turn!")
		return
	}

	switch in.kind {
	case intentRoll:
		if e.g.RollCount >= game.MaxRolls {
			e.status("You used all your rolls!")
			return
		}
		if e.role == RoleHost {
			e.handleEnvelope(protocol.RollRequest(e.localName), nil)
			return
		}
		e.send(protocol.RollRequest(e.localName))

	case intentHold:
		if in.die < 0 || in.die >= game.NumDice {
			return
		}
		held := !e.g.Held[in.die]
		if e.role == RoleHost {
			e.handleEnvelope(protocol.DiceHoldToggle(e.localName, in.die, held), nil)
			return
		}
		e.send(protocol.DiceHoldToggle(e.localName, in.die, held))

	case intentScore:
		if e.g.CurrentPlayer().Sheet.Filled(in.cat) {
			e.status("Category already filled!")
			return
		}
		move := protocol.MoveRequest{
			Player:     e.localName,
			Category:   in.cat,
			Score:      e.g.PreviewScore(in.cat),
			Dice:       e.g.Dice,
			RollNumber: e.g.RollCount,
		}
		if e.role == RoleHost {
			e.handleEnvelope(protocol.ScoreApplyRequest(e.localName, move), nil)
			return
		}
		e.send(protocol.ScoreApplyRequest(e.localName, move))
	}
}

func (e *Engine) handleChatIntent(text string) {
	env := protocol.ChatMessage(e.localName, text)
	if e.role == RoleHost {
		e.conns.Broadcast(env)
		e.chat(e.localName, text)
		return
	}
	e.send(env)
}

// send forwards a client envelope to the host, treating a failure as the
// host going away.
func (e *Engine) send(env protocol.Envelope) {
	if e.conn == nil {
		return
	}
	if err := e.conn.Send(env); err != nil {
		e.log.Warn().Err(err).Msg("send to host failed")
		e.handleConnDown(e.conn)
	}
}

func (e *Engine) handleEnvelope(env protocol.Envelope, from *transport.Conn) {
	if e.role == RoleHost {
		e.handleHostEnvelope(env, from)
		return
	}
	e.handleClientEnvelope(env)
}
