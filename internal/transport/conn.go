package transport

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"sync"

	"jamb-online/internal/protocol"
)

// Wire framing: [u32 big-endian length][json envelope].
const maxFrameSize = 64 * 1024

// Conn is one side of a host/client connection. Send is safe for concurrent
// callers; Receive must only be called from the connection's read loop.
type Conn struct {
	c net.Conn
	r *bufio.Reader

	wmu sync.Mutex
}

func newConn(c net.Conn) *Conn {
	if tc, ok := c.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}
	return &Conn{c: c, r: bufio.NewReader(c)}
}

// Dial opens an outbound connection to a host. A failure here is surfaced to
// the caller as "could not join".
func Dial(addr string) (*Conn, error) {
	c, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("could not connect to %s: %v", addr, err)
	}
	return newConn(c), nil
}

func encode(env protocol.Envelope) ([]byte, error) {
	b, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}
	if len(b) > maxFrameSize {
		return nil, fmt.Errorf("envelope too large: %d bytes", len(b))
	}
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.BigEndian, uint32(len(b))); err != nil {
		return nil, err
	}
	buf.Write(b)
	return buf.Bytes(), nil
}

// Send serializes and writes one envelope. Writes are serialized with an
// internal lock so concurrent sends never interleave their bytes.
func (c *Conn) Send(env protocol.Envelope) error {
	frame, err := encode(env)
	if err != nil {
		return fmt.Errorf("encode failed: %v", err)
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if _, err := c.c.Write(frame); err != nil {
		return fmt.Errorf("write failed: %v", err)
	}
	return nil
}

// Receive blocks until one whole envelope arrives. It returns io.EOF when the
// peer closes the connection.
func (c *Conn) Receive() (protocol.Envelope, error) {
	var env protocol.Envelope
	var n uint32
	if err := binary.Read(c.r, binary.BigEndian, &n); err != nil {
		return env, err
	}
	if n > maxFrameSize {
		return env, fmt.Errorf("frame too large: %d", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(c.r, buf); err != nil {
		return env, err
	}
	if err := json.Unmarshal(buf, &env); err != nil {
		return env, fmt.Errorf("malformed frame: %v", err)
	}
	return env, nil
}

func (c *Conn) Close() error {
	return c.c.Close()
}

func (c *Conn) RemoteAddr() string {
	return c.c.RemoteAddr().String()
}
