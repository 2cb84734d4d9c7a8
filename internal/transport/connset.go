package transport

import (
	"sync"

	"github.com/rs/zerolog"

	"jamb-online/internal/protocol"
)

// ConnSet is a thread-safe set of live connections keyed by remote address.
type ConnSet struct {
	log zerolog.Logger

	mu    sync.RWMutex
	conns map[string]*Conn
}

func NewConnSet(log zerolog.Logger) *ConnSet {
	return &ConnSet{log: log, conns: make(map[string]*Conn)}
}

func (s *ConnSet) Add(c *Conn) {
	s.mu.Lock()
	if old, ok := s.conns[c.RemoteAddr()]; ok {
		_ = old.Close()
	}
	s.conns[c.RemoteAddr()] = c
	s.mu.Unlock()
}

func (s *ConnSet) Remove(c *Conn) bool {
	s.mu.Lock()
	_, ok := s.conns[c.RemoteAddr()]
	delete(s.conns, c.RemoteAddr())
	s.mu.Unlock()
	return ok
}

func (s *ConnSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conns)
}

// Broadcast sends to every live connection. A connection whose send fails is
// closed and removed; that peer is treated as disconnected.
func (s *ConnSet) Broadcast(env protocol.Envelope) {
	s.mu.RLock()
	conns := make([]*Conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.RUnlock()

	for _, c := range conns {
		if err := c.Send(env); err != nil {
			s.log.Warn().Str("peer", c.RemoteAddr()).Err(err).Msg("dropping dead connection")
			_ = c.Close()
			s.Remove(c)
		}
	}
}

// CloseAll closes every connection and empties the set.
func (s *ConnSet) CloseAll() {
	s.mu.Lock()
	for _, c := range s.conns {
		_ = c.Close()
	}
	s.conns = make(map[string]*Conn)
	s.mu.Unlock()
}
