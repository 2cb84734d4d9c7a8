package directory

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	DefaultChatHistoryMax = 100
	DefaultGameMaxAge     = time.Hour
)

// Service is the lobby: hosts publish open games, clients enumerate and join
// them, and every game has a bounded chat channel with push delivery through
// the hub. Storage is pluggable so a single process can run on the in-memory
// store and a deployment on Redis.
type Service struct {
	store   Store
	hub     *Hub
	log     zerolog.Logger
	chatMax int
	maxAge  time.Duration
}

func NewService(store Store, hub *Hub, chatMax int, maxAge time.Duration, log zerolog.Logger) *Service {
	if chatMax <= 0 {
		chatMax = DefaultChatHistoryMax
	}
	if maxAge <= 0 {
		maxAge = DefaultGameMaxAge
	}
	s := &Service{
		store:   store,
		hub:     hub,
		log:     log.With().Str("component", "directory").Logger(),
		chatMax: chatMax,
		maxAge:  maxAge,
	}
	if hub != nil {
		hub.SetOnGone(s.listenerGone)
	}
	return s
}

// RegisterGame inserts or overwrites the entry under its id. A missing id
// gets a fresh one; the returned info carries all filled-in fields.
func (s *Service) RegisterGame(info GameInfo) (GameInfo, error) {
	if info.ID == "" {
		info.ID = uuid.New().String()
	}
	if info.MaxPlayers <= 0 {
		info.MaxPlayers = 2
	}
	if info.Status == "" {
		info.Status = StatusWaiting
	}
	if info.CreatedAt.IsZero() {
		info.CreatedAt = time.Now()
	}
	info.UpdatedAt = time.Now()

	if err := s.store.PutGame(info); err != nil {
		return GameInfo{}, fmt.Errorf("failed to register game: %v", err)
	}

	s.log.Info().Str("game_id", info.ID).Str("host", info.HostName).Str("addr", info.Address).Msg("game registered")
	return info, nil
}

// ListJoinable returns every entry still open for a seat, newest first.
func (s *Service) ListJoinable() ([]GameInfo, error) {
	games, err := s.store.Games()
	if err != nil {
		return nil, err
	}

	joinable := make([]GameInfo, 0, len(games))
	for _, info := range games {
		if info.Joinable() {
			joinable = append(joinable, info)
		}
	}
	sort.Slice(joinable, func(i, j int) bool {
		return joinable[i].CreatedAt.After(joinable[j].CreatedAt)
	})

	return joinable, nil
}

func (s *Service) GetGame(id string) (GameInfo, bool, error) {
	return s.store.GetGame(id)
}

// Join reports whether the player may take a seat. It does not mutate the
// entry; the host updates player count and status once the direct connection
// is up.
func (s *Service) Join(id, playerName string) (bool, error) {
	info, ok, err := s.store.GetGame(id)
	if err != nil {
		return false, err
	}
	if !ok || !info.Joinable() {
		return false, nil
	}
	s.log.Info().Str("game_id", id).Str("player", playerName).Msg("join accepted")
	return true, nil
}

// UpdateStatus replaces the entry's mutable fields. A FINISHED status removes
// the entry immediately.
func (s *Service) UpdateStatus(id string, currentPlayers int, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("unknown status: %s", status)
	}

	info, ok, err := s.store.GetGame(id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("game not found: %s", id)
	}

	if status == StatusFinished {
		s.log.Info().Str("game_id", id).Msg("game finished, removing entry")
		return s.store.DeleteGame(id)
	}

	info.CurrentPlayers = currentPlayers
	info.Status = status
	info.UpdatedAt = time.Now()
	return s.store.PutGame(info)
}

func (s *Service) RemoveGame(id string) error {
	return s.store.DeleteGame(id)
}

func (s *Service) Ping() bool {
	_, err := s.store.Games()
	return err == nil
}

func (s *Service) Stats() (Stats, error) {
	games, err := s.store.Games()
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{Games: len(games), ByStatus: make(map[Status]int)}
	for _, info := range games {
		stats.ByStatus[info.Status]++
	}

	ids, err := s.store.ChatGameIDs()
	if err != nil {
		return Stats{}, err
	}
	for _, id := range ids {
		entries, err := s.store.Chat(id)
		if err != nil {
			continue
		}
		stats.ChatMessages += len(entries)
	}

	return stats, nil
}

// SendChat appends the entry to the game's bounded history and pushes it to
// every registered listener.
func (s *Service) SendChat(gameID, sender, message string, kind ChatKind) (ChatEntry, error) {
	entry := ChatEntry{
		Sender:    sender,
		Message:   message,
		Kind:      kind,
		Timestamp: time.Now(),
	}

	if err := s.store.AppendChat(gameID, entry, s.chatMax); err != nil {
		return ChatEntry{}, fmt.Errorf("failed to append chat: %v", err)
	}
	if s.hub != nil {
		s.hub.Push(gameID, entry)
	}

	return entry, nil
}

func (s *Service) ChatHistory(gameID string) ([]ChatEntry, error) {
	return s.store.Chat(gameID)
}

// ChatSince returns the entries strictly newer than the given time.
func (s *Service) ChatSince(gameID string, since time.Time) ([]ChatEntry, error) {
	entries, err := s.store.Chat(gameID)
	if err != nil {
		return nil, err
	}

	fresh := make([]ChatEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Timestamp.After(since) {
			fresh = append(fresh, entry)
		}
	}
	return fresh, nil
}

func (s *Service) ClearChat(gameID string) error {
	return s.store.ClearChat(gameID)
}

// ListenerJoined records a new chat subscription with a SYSTEM entry.
func (s *Service) ListenerJoined(gameID, player string) {
	if _, err := s.SendChat(gameID, SenderSystem, fmt.Sprintf("%s joined the chat", player), ChatSystem); err != nil {
		s.log.Warn().Err(err).Str("game_id", gameID).Msg("failed to record chat join")
	}
}

// listenerGone runs when the hub drops a listener, whether by explicit
// unregister or a failed push.
func (s *Service) listenerGone(gameID, player string) {
	if _, err := s.SendChat(gameID, SenderSystem, fmt.Sprintf("%s left the chat", player), ChatSystem); err != nil {
		s.log.Warn().Err(err).Str("game_id", gameID).Msg("failed to record chat leave")
	}
}

// Sweep evicts games older than the configured age and chats whose last
// entry is at least as old, guarding against hosts that vanished without
// cleanup. It returns how many entries were removed.
func (s *Service) Sweep() int {
	removed := 0
	cutoff := time.Now().Add(-s.maxAge)

	games, err := s.store.Games()
	if err != nil {
		s.log.Error().Err(err).Msg("sweep failed to list games")
		return 0
	}
	for _, info := range games {
		if info.CreatedAt.After(cutoff) {
			continue
		}
		if err := s.store.DeleteGame(info.ID); err != nil {
			s.log.Warn().Err(err).Str("game_id", info.ID).Msg("sweep failed to remove game")
			continue
		}
		removed++
		s.log.Info().Str("game_id", info.ID).Time("created_at", info.CreatedAt).Msg("swept stale game")
	}

	ids, err := s.store.ChatGameIDs()
	if err != nil {
		s.log.Error().Err(err).Msg("sweep failed to list chats")
		return removed
	}
	for _, id := range ids {
		entries, err := s.store.Chat(id)
		if err != nil {
			continue
		}
		if len(entries) > 0 && entries[len(entries)-1].Timestamp.After(cutoff) {
			continue
		}
		if err := s.store.ClearChat(id); err != nil {
			continue
		}
		removed++
		s.log.Info().Str("game_id", id).Msg("swept stale chat")
	}

	return removed
}
