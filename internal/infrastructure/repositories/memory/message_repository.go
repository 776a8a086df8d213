package memory

import (
	"context"
	"sort"
	"sync"

	"reelsync/internal/core/domain"
	"reelsync/internal/core/ports"
)

// MessageRepository keeps per-room histories ordered by message id, which
// is lexically ordered by send time.
type MessageRepository struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID][]domain.Message
}

func NewMessageRepository() ports.MessageRepository {
	return &MessageRepository{
		rooms: make(map[domain.RoomID][]domain.Message),
	}
}

func (r *MessageRepository) Insert(ctx context.Context, m *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	history := r.rooms[m.RoomID]
	idx := sort.Search(len(history), func(i int) bool { return history[i].ID >= m.ID })
	history = append(history, domain.Message{})
	copy(history[idx+1:], history[idx:])
	history[idx] = *m
	r.rooms[m.RoomID] = history
	return nil
}

func (r *MessageRepository) ListBefore(ctx context.Context, roomID domain.RoomID, fromID domain.MessageID, limit int) ([]domain.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	history := r.rooms[roomID]
	end := len(history)
	if fromID != "" {
		// Exclusive cursor: only entries strictly older than fromID.
		end = sort.Search(len(history), func(i int) bool { return history[i].ID >= fromID })
	}

	start := end - limit
	if start < 0 {
		start = 0
	}

	page := make([]domain.Message, 0, end-start)
	for i := end - 1; i >= start; i-- {
		page = append(page, history[i])
	}
	return page, nil
}

func (r *MessageRepository) DeleteByRoom(ctx context.Context, roomID domain.RoomID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.rooms, roomID)
	return nil
}
