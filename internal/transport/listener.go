package transport

import (
	"fmt"
	"net"
)

// MaxConns is the connection cap per hosted game. The cap is enforced by the
// host's accept loop, which closes extra connections without any message
// exchange.
const MaxConns = 2

// Listener accepts incoming game connections.
type Listener struct {
	ln net.Listener
}

// Listen binds the given address. A bind failure is fatal to the hosting
// attempt and reported synchronously.
func Listen(addr string) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("could not bind %s: %v", addr, err)
	}
	return &Listener{ln: ln}, nil
}

// Accept blocks until a peer connects.
func (l *Listener) Accept() (*Conn, error) {
	c, err := l.ln.Accept()
	if err != nil {
		return nil, err
	}
	return newConn(c), nil
}

func (l *Listener) Addr() string {
	return l.ln.Addr().String()
}

func (l *Listener) Close() error {
	return l.ln.Close()
}
