package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"reelsync/internal/core/domain"
	"reelsync/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

// upsertScript performs the revision-checked save atomically. The revision
// lives in its own key so the script never has to parse the document.
// Returns the new revision, or -1 when the caller's token is stale.
var upsertScript = redis.NewScript(`
local rev = tonumber(redis.call('GET', KEYS[2]) or '0')
if rev ~= tonumber(ARGV[1]) then
	return -1
end
redis.call('SET', KEYS[1], ARGV[2])
redis.call('INCR', KEYS[2])
return rev + 1
`)

type RoomRepository struct {
	client *redis.Client
	prefix string
}

func NewRoomRepository(client *redis.Client) ports.RoomRepository {
	return &RoomRepository{
		client: client,
		prefix: "reelsync:room:",
	}
}

func (r *RoomRepository) roomKey(id domain.RoomID) string {
	return r.prefix + string(id)
}

func (r *RoomRepository) revKey(id domain.RoomID) string {
	return r.prefix + string(id) + ":rev"
}

func (r *RoomRepository) Get(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	data, err := r.client.Get(ctx, r.roomKey(id)).Result()
	if err == redis.Nil {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room from Redis: %w", err)
	}

	var room domain.Room
	if err := json.Unmarshal([]byte(data), &room); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room: %w", err)
	}
	return &room, nil
}

// Upsert saves the document only if the stored revision still equals
// room.Revision, then advances room.Revision to the committed value.
func (r *RoomRepository) Upsert(ctx context.Context, room *domain.Room) error {
	next := room.Revision + 1
	doc := *room
	doc.Revision = next

	data, err := json.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("failed to marshal room: %w", err)
	}

	res, err := upsertScript.Run(ctx, r.client,
		[]string{r.roomKey(room.ID), r.revKey(room.ID)},
		room.Revision, data,
	).Int64()
	if err != nil {
		return fmt.Errorf("failed to upsert room in Redis: %w", err)
	}
	if res < 0 {
		return domain.ErrRevisionConflict
	}

	room.Revision = res
	return nil
}

func (r *RoomRepository) Delete(ctx context.Context, id domain.RoomID) error {
	if err := r.client.Del(ctx, r.roomKey(id), r.revKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete room from Redis: %w", err)
	}
	return nil
}
