package directory_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"jamb-online/internal/directory"
)

func startServer(t *testing.T) *directory.Client {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := directory.NewHub(zerolog.Nop())
	svc := directory.NewService(directory.NewMemoryStore(), hub, 0, 0, zerolog.Nop())
	handler := directory.NewHandler(svc, hub, zerolog.Nop())

	router := gin.New()
	handler.Register(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	t.Cleanup(hub.Close)

	return directory.NewClient(server.URL, zerolog.Nop())
}

func TestHTTPGameLifecycle(t *testing.T) {
	client := startServer(t)

	if !client.Ping() {
		t.Fatal("ping failed")
	}

	info, err := client.RegisterGame(directory.GameInfo{
		HostName:       "ana",
		Address:        "10.0.0.5:4000",
		CurrentPlayers: 1,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if info.ID == "" || info.Status != directory.StatusWaiting {
		t.Fatalf("unexpected registered info: %+v", info)
	}

	games, err := client.ListJoinable()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(games) != 1 || games[0].ID != info.ID {
		t.Fatalf("unexpected listing: %v", games)
	}

	joined, err := client.Join(info.ID, "Bob")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if !joined {
		t.Fatal("expected join to succeed")
	}

	if err := client.UpdateStatus(info.ID, 2, directory.StatusFull); err != nil {
		t.Fatalf("update status: %v", err)
	}
	games, _ = client.ListJoinable()
	if len(games) != 0 {
		t.Fatalf("full game still joinable: %v", games)
	}

	fetched, err := client.GetGame(info.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if fetched.Status != directory.StatusFull || fetched.CurrentPlayers != 2 {
		t.Fatalf("unexpected game state: %+v", fetched)
	}

	if err := client.UpdateStatus(info.ID, 2, directory.StatusFinished); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if _, err := client.GetGame(info.ID); err == nil {
		t.Fatal("finished game should be gone")
	}
}

func TestHTTPChatAndSubscription(t *testing.T) {
	client := startServer(t)

	received := make(chan directory.ChatEntry, 16)
	sub, err := client.Subscribe("G1", "bob", func(e directory.ChatEntry) { received <- e })
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	// Registration itself produces a SYSTEM entry.
	waitEntry(t, received, func(e directory.ChatEntry) bool {
		return e.Kind == directory.ChatSystem && e.Sender == directory.SenderSystem
	})

	if _, err := client.SendChat("G1", "ana", "hello"); err != nil {
		t.Fatalf("send chat: %v", err)
	}
	entry := waitEntry(t, received, func(e directory.ChatEntry) bool {
		return e.Kind == directory.ChatRegular
	})
	if entry.Sender != "ana" || entry.Message != "hello" {
		t.Fatalf("unexpected pushed entry: %+v", entry)
	}

	history, err := client.ChatHistory("G1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected system + regular entry, got %d", len(history))
	}

	fresh, err := client.ChatSince("G1", history[0].Timestamp)
	if err != nil {
		t.Fatalf("chat since: %v", err)
	}
	if len(fresh) != 1 || fresh[0].Message != "hello" {
		t.Fatalf("unexpected since result: %v", fresh)
	}

	if err := client.ClearChat("G1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	history, _ = client.ChatHistory("G1")
	if len(history) != 0 {
		t.Fatalf("expected cleared history, got %d entries", len(history))
	}
}

func TestHTTPSubscriberLeaveEmitsSystemEntry(t *testing.T) {
	client := startServer(t)

	sub, err := client.Subscribe("G1", "bob", func(directory.ChatEntry) {})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	sub.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		history, err := client.ChatHistory("G1")
		if err != nil {
			t.Fatalf("history: %v", err)
		}
		for _, e := range history {
			if e.Kind == directory.ChatSystem && e.Message == "bob left the chat" {
				return
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("no leave entry recorded")
}

func waitEntry(t *testing.T, ch chan directory.ChatEntry, ok func(directory.ChatEntry) bool) directory.ChatEntry {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case e := <-ch:
			if ok(e) {
				return e
			}
		case <-deadline:
			t.Fatal("timed out waiting for chat entry")
		}
	}
}
