package directory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Client talks to a directory server. Every call is independent; a failed
// call is reported to the caller, who decides whether to retry.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     log.With().Str("component", "directory_client").Logger(),
	}
}

func (c *Client) do(method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("directory unreachable: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("directory: %s", apiErr.Error)
		}
		return fmt.Errorf("directory: unexpected status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) RegisterGame(info GameInfo) (GameInfo, error) {
	var registered GameInfo
	if err := c.do(http.MethodPost, "/games", info, &registered); err != nil {
		return GameInfo{}, err
	}
	return registered, nil
}

func (c *Client) ListJoinable() ([]GameInfo, error) {
	var resp struct {
		Games []GameInfo `json:"games"`
	}
	if err := c.do(http.MethodGet, "/games", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Games, nil
}

func (c *Client) GetGame(id string) (GameInfo, error) {
	var info GameInfo
	if err := c.do(http.MethodGet, "/games/"+url.PathEscape(id), nil, &info); err != nil {
		return GameInfo{}, err
	}
	return info, nil
}

func (c *Client) Join(id, playerName string) (bool, error) {
	req := map[string]string{"player_name": playerName}
	var resp struct {
		Joined bool `json:"joined"`
	}
	if err := c.do(http.MethodPost, "/games/"+url.PathEscape(id)+"/join", req, &resp); err != nil {
		return false, err
	}
	return resp.Joined, nil
}

func (c *Client) UpdateStatus(id string, currentPlayers int, status Status) error {
	req := map[string]any{
		"current_players": currentPlayers,
		"status":          status,
	}
	return c.do(http.MethodPut, "/games/"+url.PathEscape(id)+"/status", req, nil)
}

func (c *Client) RemoveGame(id string) error {
	return c.do(http.MethodDelete, "/games/"+url.PathEscape(id), nil, nil)
}

func (c *Client) Ping() bool {
	return c.do(http.MethodGet, "/ping", nil, nil) == nil
}

func (c *Client) Stats() (Stats, error) {
	var stats Stats
	if err := c.do(http.MethodGet, "/stats", nil, &stats); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

func (c *Client) SendChat(gameID, sender, message string) (ChatEntry, error) {
	req := map[string]string{"sender": sender, "message": message}
	var entry ChatEntry
	if err := c.do(http.MethodPost, "/games/"+url.PathEscape(gameID)+"/chat", req, &entry); err != nil {
		return ChatEntry{}, err
	}
	return entry, nil
}

func (c *Client) ChatHistory(gameID string) ([]ChatEntry, error) {
	return c.chat(gameID, "")
}

func (c *Client) ChatSince(gameID string, since time.Time) ([]ChatEntry, error) {
	return c.chat(gameID, "?since="+url.QueryEscape(since.Format(time.RFC3339Nano)))
}

func (c *Client) chat(gameID, query string) ([]ChatEntry, error) {
	var resp struct {
		Messages []ChatEntry `json:"messages"`
	}
	if err := c.do(http.MethodGet, "/games/"+url.PathEscape(gameID)+"/chat"+query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

func (c *Client) ClearChat(gameID string) error {
	return c.do(http.MethodDelete, "/games/"+url.PathEscape(gameID)+"/chat", nil, nil)
}

// Subscription is a live chat feed for one game.
type Subscription struct {
	conn *websocket.Conn
	done chan struct{}
}

// Subscribe opens the chat websocket and calls onEntry for every pushed
// entry until Close or a connection failure.
func (c *Client) Subscribe(gameID, player string, onEntry func(ChatEntry)) (*Subscription, error) {
	wsURL, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}
	switch wsURL.Scheme {
	case "https":
		wsURL.Scheme = "wss"
	default:
		wsURL.Scheme = "ws"
	}
	wsURL.Path += "/games/" + url.PathEscape(gameID) + "/chat/ws"
	wsURL.RawQuery = "player=" + url.QueryEscape(player)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to chat: %v", err)
	}

	sub := &Subscription{conn: conn, done: make(chan struct{})}
	go func() {
		defer close(sub.done)
		for {
			var entry ChatEntry
			if err := conn.ReadJSON(&entry); err != nil {
				return
			}
			onEntry(entry)
		}
	}()

	return sub, nil
}

// Close ends the subscription and waits for the read loop to exit.
func (s *Subscription) Close() error {
	err := s.conn.Close()
	<-s.done
	return err
}
