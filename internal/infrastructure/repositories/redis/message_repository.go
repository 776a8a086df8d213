package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"reelsync/internal/core/domain"
	"reelsync/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

const deleteChunkSize = 500

// MessageRepository keeps one JSON document per message plus a per-room
// sorted set over the lexically time-ordered message ids. Keyset pagination
// is a reverse lexical range against the cursor id, so pages stay correct
// under concurrent inserts.
type MessageRepository struct {
	client *redis.Client
	prefix string
}

func NewMessageRepository(client *redis.Client) ports.MessageRepository {
	return &MessageRepository{
		client: client,
		prefix: "reelsync:msg:",
	}
}

func (r *MessageRepository) msgKey(id domain.MessageID) string {
	return r.prefix + string(id)
}

func (r *MessageRepository) roomIndexKey(roomID domain.RoomID) string {
	return r.prefix + "room:" + string(roomID)
}

func (r *MessageRepository) Insert(ctx context.Context, m *domain.Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.msgKey(m.ID), data, 0)
	pipe.ZAdd(ctx, r.roomIndexKey(m.RoomID), redis.Z{Score: 0, Member: string(m.ID)})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert message in Redis: %w", err)
	}
	return nil
}

func (r *MessageRepository) ListBefore(ctx context.Context, roomID domain.RoomID, fromID domain.MessageID, limit int) ([]domain.Message, error) {
	max := "+"
	if fromID != "" {
		// Exclusive bound: a page from cursor X never returns an item >= X.
		max = "(" + string(fromID)
	}

	ids, err := r.client.ZRevRangeByLex(ctx, r.roomIndexKey(roomID), &redis.ZRangeBy{
		Min:   "-",
		Max:   max,
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to page message index: %w", err)
	}
	if len(ids) == 0 {
		return []domain.Message{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.msgKey(domain.MessageID(id))
	}
	docs, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch message documents: %w", err)
	}

	msgs := make([]domain.Message, 0, len(docs))
	for _, doc := range docs {
		raw, ok := doc.(string)
		if !ok {
			// Index entry survived its document; skip it.
			continue
		}
		var m domain.Message
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// DeleteByRoom bulk-deletes a room's history in chunks; there is no
// cascading delete in the store.
func (r *MessageRepository) DeleteByRoom(ctx context.Context, roomID domain.RoomID) error {
	indexKey := r.roomIndexKey(roomID)

	ids, err := r.client.ZRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to read message index: %w", err)
	}

	for start := 0; start < len(ids); start += deleteChunkSize {
		end := start + deleteChunkSize
		if end > len(ids) {
			end = len(ids)
		}
		keys := make([]string, 0, end-start)
		for _, id := range ids[start:end] {
			keys = append(keys, r.msgKey(domain.MessageID(id)))
		}
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("failed to delete message documents: %w", err)
		}
	}

	if err := r.client.Del(ctx, indexKey).Err(); err != nil {
		return fmt.Errorf("failed to delete message index: %w", err)
	}
	return nil
}
