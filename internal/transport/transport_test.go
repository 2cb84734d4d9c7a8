package transport_test

import (
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"jamb-online/internal/protocol"
	"jamb-online/internal/transport"
)

func pair(t *testing.T) (*transport.Conn, *transport.Conn) {
	t.Helper()

	ln, err := transport.Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	accepted := make(chan *transport.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		accepted <- c
	}()

	client, err := transport.Dial(ln.Addr())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	select {
	case server := <-accepted:
		t.Cleanup(func() { server.Close() })
		return server, client
	case <-time.After(2 * time.Second):
		t.Fatal("accept timed out")
		return nil, nil
	}
}

func TestSendReceive(t *testing.T) {
	server, client := pair(t)

	sent := protocol.ChatMessage("Alice", "hi there")
	if err := client.Send(sent); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	got, err := server.Receive()
	if err != nil {
		t.Fatalf("receive failed: %v", err)
	}
	if got.Kind != protocol.KindChatMessage || got.Sender != "Alice" {
		t.Errorf("unexpected envelope: %+v", got)
	}
	text, err := got.ChatText()
	if err != nil || text != "hi there" {
		t.Errorf("chat text: %q, %v", text, err)
	}
}

func TestReceiveOrderPreserved(t *testing.T) {
	server, client := pair(t)

	for i := 0; i < 20; i++ {
		env := protocol.ChatMessage("Bob", string(rune('a'+i)))
		if err := client.Send(env); err != nil {
			t.Fatalf("send %d failed: %v", i, err)
		}
	}
	for i := 0; i < 20; i++ {
		got, err := server.Receive()
		if err != nil {
			t.Fatalf("receive %d failed: %v", i, err)
		}
		text, _ := got.ChatText()
		if text != string(rune('a'+i)) {
			t.Errorf("message %d out of order: %q", i, text)
		}
	}
}

func TestReceiveEOFOnPeerClose(t *testing.T) {
	server, client := pair(t)

	client.Close()
	if _, err := server.Receive(); err != io.EOF {
		t.Errorf("expected EOF, got %v", err)
	}
}

func TestDialRefused(t *testing.T) {
	if _, err := transport.Dial("127.0.0.1:1"); err == nil {
		t.Error("dial to a closed port should fail")
	}
}

func TestBroadcastDropsDeadConn(t *testing.T) {
	server, client := pair(t)

	set := transport.NewConnSet(zerolog.Nop())
	set.Add(server)
	if set.Len() != 1 {
		t.Fatalf("expected 1 conn, got %d", set.Len())
	}

	set.Broadcast(protocol.PlayerJoined("Alice"))
	if got, err := client.Receive(); err != nil || got.Kind != protocol.KindPlayerJoined {
		t.Fatalf("broadcast not delivered: %+v, %v", got, err)
	}

	// Kill the peer; the failing send should evict the connection.
	client.Close()
	server.Close()
	set.Broadcast(protocol.PlayerJoined("Bob"))
	if set.Len() != 0 {
		t.Errorf("dead connection not removed, len = %d", set.Len())
	}
}
