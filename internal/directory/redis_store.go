package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps lobby entries and chat histories in Redis. Entries are
// JSON values under per-game keys, with a set of live game ids for listing
// and a list per chat trimmed to the cap at append time. TTLs bound leakage
// from hosts that vanish without cleanup.
type RedisStore struct {
	client *redis.Client
	ctx    context.Context
}

func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %v", err)
	}

	return &RedisStore{client: client, ctx: ctx}, nil
}

func (s *RedisStore) PutGame(info GameInfo) error {
	key := fmt.Sprintf(KeyGame, info.ID)

	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal game info: %v", err)
	}

	if err := s.client.Set(s.ctx, key, data, TTLGame).Err(); err != nil {
		return fmt.Errorf("failed to save game info: %v", err)
	}
	if err := s.client.SAdd(s.ctx, KeyGameIDs, info.ID).Err(); err != nil {
		return fmt.Errorf("failed to index game id: %v", err)
	}

	return nil
}

func (s *RedisStore) GetGame(id string) (GameInfo, bool, error) {
	key := fmt.Sprintf(KeyGame, id)

	data, err := s.client.Get(s.ctx, key).Result()
	if err == redis.Nil {
		return GameInfo{}, false, nil
	}
	if err != nil {
		return GameInfo{}, false, fmt.Errorf("failed to get game info: %v", err)
	}

	var info GameInfo
	if err := json.Unmarshal([]byte(data), &info); err != nil {
		return GameInfo{}, false, fmt.Errorf("failed to unmarshal game info: %v", err)
	}

	return info, true, nil
}

func (s *RedisStore) DeleteGame(id string) error {
	key := fmt.Sprintf(KeyGame, id)
	if err := s.client.Del(s.ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete game info: %v", err)
	}
	return s.client.SRem(s.ctx, KeyGameIDs, id).Err()
}

func (s *RedisStore) Games() ([]GameInfo, error) {
	ids, err := s.client.SMembers(s.ctx, KeyGameIDs).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list game ids: %v", err)
	}
	if len(ids) == 0 {
		return []GameInfo{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(s.ctx, fmt.Sprintf(KeyGame, id))
	}

	if _, err := pipe.Exec(s.ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("pipeline execution failed: %v", err)
	}

	var games []GameInfo
	for i, cmd := range cmds {
		data, err := cmd.Result()
		if err == redis.Nil {
			// The entry expired out from under its id; drop the index too.
			s.client.SRem(s.ctx, KeyGameIDs, ids[i])
			continue
		}
		if err != nil {
			continue
		}

		var info GameInfo
		if err := json.Unmarshal([]byte(data), &info); err != nil {
			continue
		}
		games = append(games, info)
	}

	return games, nil
}

func (s *RedisStore) AppendChat(gameID string, entry ChatEntry, max int) error {
	key := fmt.Sprintf(KeyChat, gameID)

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal chat entry: %v", err)
	}

	if err := s.client.LPush(s.ctx, key, data).Err(); err != nil {
		return fmt.Errorf("failed to append chat entry: %v", err)
	}
	if max > 0 {
		s.client.LTrim(s.ctx, key, 0, int64(max)-1)
	}
	s.client.Expire(s.ctx, key, TTLChat)

	return nil
}

func (s *RedisStore) Chat(gameID string) ([]ChatEntry, error) {
	key := fmt.Sprintf(KeyChat, gameID)

	raw, err := s.client.LRange(s.ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read chat: %v", err)
	}

	// LPush stores newest first; history reads oldest first.
	entries := make([]ChatEntry, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var entry ChatEntry
		if err := json.Unmarshal([]byte(raw[i]), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func (s *RedisStore) ClearChat(gameID string) error {
	key := fmt.Sprintf(KeyChat, gameID)
	return s.client.Del(s.ctx, key).Err()
}

func (s *RedisStore) ChatGameIDs() ([]string, error) {
	var ids []string
	iter := s.client.Scan(s.ctx, 0, fmt.Sprintf(KeyChat, "*"), 0).Iterator()
	for iter.Next(s.ctx) {
		key := iter.Val()
		ids = append(ids, strings.TrimPrefix(key, fmt.Sprintf(KeyChat, "")))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan chats: %v", err)
	}
	return ids, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
