package directory

import (
	"sync"
)

// Store is the directory's persistence surface. MemoryStore backs a single
// process; RedisStore backs a deployment where the directory restarts or
// scales out. Chat histories are bounded at append time, oldest entries
// evicted first.
type Store interface {
	PutGame(info GameInfo) error
	GetGame(id string) (GameInfo, bool, error)
	DeleteGame(id string) error
	Games() ([]GameInfo, error)

	AppendChat(gameID string, entry ChatEntry, max int) error
	Chat(gameID string) ([]ChatEntry, error)
	ClearChat(gameID string) error
	ChatGameIDs() ([]string, error)

	Close() error
}

type MemoryStore struct {
	mu    sync.RWMutex
	games map[string]GameInfo
	chats map[string][]ChatEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games: make(map[string]GameInfo),
		chats: make(map[string][]ChatEntry),
	}
}

func (s *MemoryStore) PutGame(info GameInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[info.ID] = info
	return nil
}

func (s *MemoryStore) GetGame(id string) (GameInfo, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.games[id]
	return info, ok, nil
}

func (s *MemoryStore) DeleteGame(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, id)
	return nil
}

func (s *MemoryStore) Games() ([]GameInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	games := make([]GameInfo, 0, len(s.games))
	for _, info := range s.games {
		games = append(games, info)
	}
	return games, nil
}

func (s *MemoryStore) AppendChat(gameID string, entry ChatEntry, max int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := append(s.chats[gameID], entry)
	if max > 0 && len(entries) > max {
		entries = entries[len(entries)-max:]
	}
	s.chats[gameID] = entries
	return nil
}

func (s *MemoryStore) Chat(gameID string) ([]ChatEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ChatEntry(nil), s.chats[gameID]...), nil
}

func (s *MemoryStore) ClearChat(gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chats, gameID)
	return nil
}

func (s *MemoryStore) ChatGameIDs() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.chats))
	for id := range s.chats {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *MemoryStore) Close() error { return nil }
