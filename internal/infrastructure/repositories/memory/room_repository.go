package memory

import (
	"context"
	"encoding/json"
	"sync"

	"reelsync/internal/core/domain"
	"reelsync/internal/core/ports"
)

// RoomRepository keeps serialized room documents under a lock, giving the
// same revision-check semantics as the Redis store. Serialization also
// guarantees callers never alias the stored state.
type RoomRepository struct {
	mu   sync.RWMutex
	docs map[domain.RoomID][]byte
	revs map[domain.RoomID]int64
}

func NewRoomRepository() ports.RoomRepository {
	return &RoomRepository{
		docs: make(map[domain.RoomID][]byte),
		revs: make(map[domain.RoomID]int64),
	}
}

func (r *RoomRepository) Get(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.docs[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}

	var room domain.Room
	if err := json.Unmarshal(doc, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *RoomRepository) Upsert(ctx context.Context, room *domain.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.revs[room.ID] != room.Revision {
		return domain.ErrRevisionConflict
	}

	next := room.Revision + 1
	doc := *room
	doc.Revision = next
	data, err := json.Marshal(&doc)
	if err != nil {
		return err
	}

	r.docs[room.ID] = data
	r.revs[room.ID] = next
	room.Revision = next
	return nil
}

func (r *RoomRepository) Delete(ctx context.Context, id domain.RoomID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.docs, id)
	delete(r.revs, id)
	return nil
}
