package directory

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Listener is one subscribed chat connection, keyed by game id and player
// name. A second registration under the same pair replaces the first.
type Listener struct {
	GameID string
	Player string
	Conn   *websocket.Conn
}

type chatPush struct {
	gameID string
	entry  ChatEntry
}

// Hub fans chat entries out to subscribed websocket connections. All map
// access happens on the hub goroutine; registration, removal and pushes go
// through channels. A listener whose push fails is treated as gone and
// removed.
type Hub struct {
	log        zerolog.Logger
	listeners  map[string]map[string]*websocket.Conn
	register   chan *Listener
	unregister chan *Listener
	broadcast  chan chatPush
	done       chan struct{}

	// onGone runs after a listener is removed, on its own goroutine.
	goneMu sync.Mutex
	onGone func(gameID, player string)
}

func NewHub(log zerolog.Logger) *Hub {
	h := &Hub{
		log:        log.With().Str("component", "chat_hub").Logger(),
		listeners:  make(map[string]map[string]*websocket.Conn),
		register:   make(chan *Listener),
		unregister: make(chan *Listener),
		broadcast:  make(chan chatPush, 100),
		done:       make(chan struct{}),
	}

	go h.run()

	return h
}

// SetOnGone must be called before the first registration.
func (h *Hub) SetOnGone(fn func(gameID, player string)) {
	h.goneMu.Lock()
	h.onGone = fn
	h.goneMu.Unlock()
}

func (h *Hub) goneFn() func(gameID, player string) {
	h.goneMu.Lock()
	defer h.goneMu.Unlock()
	return h.onGone
}

func (h *Hub) Register(l *Listener) {
	select {
	case h.register <- l:
	case <-h.done:
	}
}

func (h *Hub) Unregister(l *Listener) {
	select {
	case h.unregister <- l:
	case <-h.done:
	}
}

// Push queues one entry for delivery to every listener of the game.
func (h *Hub) Push(gameID string, entry ChatEntry) {
	select {
	case h.broadcast <- chatPush{gameID: gameID, entry: entry}:
	case <-h.done:
	default:
		h.log.Warn().Str("game_id", gameID).Msg("chat push queue full, dropping entry")
	}
}

func (h *Hub) Close() {
	close(h.done)
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			for _, conns := range h.listeners {
				for _, conn := range conns {
					conn.Close()
				}
			}
			return

		case l := <-h.register:
			conns, ok := h.listeners[l.GameID]
			if !ok {
				conns = make(map[string]*websocket.Conn)
				h.listeners[l.GameID] = conns
			}
			if old, ok := conns[l.Player]; ok {
				old.Close()
			}
			conns[l.Player] = l.Conn
			h.log.Info().Str("game_id", l.GameID).Str("player", l.Player).Msg("chat listener registered")

		case l := <-h.unregister:
			h.remove(l.GameID, l.Player)

		case push := <-h.broadcast:
			h.deliver(push)
		}
	}
}

func (h *Hub) deliver(push chatPush) {
	for player, conn := range h.listeners[push.gameID] {
		if err := conn.WriteJSON(push.entry); err != nil {
			h.log.Warn().Err(err).Str("game_id", push.gameID).Str("player", player).Msg("chat push failed, removing listener")
			h.remove(push.gameID, player)
		}
	}
}

func (h *Hub) remove(gameID, player string) {
	conns, ok := h.listeners[gameID]
	if !ok {
		return
	}
	conn, ok := conns[player]
	if !ok {
		return
	}
	conn.Close()
	delete(conns, player)
	if len(conns) == 0 {
		delete(h.listeners, gameID)
	}
	h.log.Info().Str("game_id", gameID).Str("player", player).Msg("chat listener unregistered")
	if fn := h.goneFn(); fn != nil {
		go fn(gameID, player)
	}
}
