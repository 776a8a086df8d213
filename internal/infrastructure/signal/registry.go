package signal

import (
	"sync"

	"reelsync/internal/core/domain"

	"go.uber.org/zap"
)

// Conn is the registry's view of a local connection: a non-blocking enqueue
// onto the connection's outbound queue.
type Conn interface {
	ID() domain.ConnID
	Send(event domain.Event) error
}

// Registry maps room ids to local connections. Rooms are locked
// independently so fan-outs in unrelated rooms never contend; broadcast
// cost is O(local members of that room).
type Registry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*roomEntry

	logger *zap.SugaredLogger
}

type roomEntry struct {
	mu    sync.RWMutex
	conns map[domain.ConnID]Conn
}

func NewRegistry(logger *zap.SugaredLogger) *Registry {
	return &Registry{
		rooms:  make(map[domain.RoomID]*roomEntry),
		logger: logger,
	}
}

func (r *Registry) Subscribe(roomID domain.RoomID, c Conn) {
	r.mu.Lock()
	entry, ok := r.rooms[roomID]
	if !ok {
		entry = &roomEntry{conns: make(map[domain.ConnID]Conn)}
		r.rooms[roomID] = entry
	}
	r.mu.Unlock()

	entry.mu.Lock()
	entry.conns[c.ID()] = c
	entry.mu.Unlock()
}

func (r *Registry) Unsubscribe(roomID domain.RoomID, connID domain.ConnID) {
	r.mu.RLock()
	entry, ok := r.rooms[roomID]
	r.mu.RUnlock()
	if !ok {
		return
	}

	entry.mu.Lock()
	delete(entry.conns, connID)
	empty := len(entry.conns) == 0
	entry.mu.Unlock()

	if empty {
		r.mu.Lock()
		entry.mu.RLock()
		if len(entry.conns) == 0 {
			delete(r.rooms, roomID)
		}
		entry.mu.RUnlock()
		r.mu.Unlock()
	}
}

// Fanout delivers the event to every local connection subscribed to its
// room except the excluded one. A failing connection is dropped from the
// registry and never aborts the rest of the fan-out.
func (r *Registry) Fanout(event domain.Event, exclude domain.ConnID) {
	r.mu.RLock()
	entry, ok := r.rooms[event.RoomID]
	r.mu.RUnlock()
	if !ok {
		return
	}

	var failed []domain.ConnID

	entry.mu.RLock()
	for id, c := range entry.conns {
		if id == exclude {
			continue
		}
		if err := c.Send(event); err != nil {
			r.logger.Warnw("dropping connection after failed write",
				"conn_id", id,
				"room_id", event.RoomID,
				"error", err,
			)
			failed = append(failed, id)
		}
	}
	entry.mu.RUnlock()

	for _, id := range failed {
		r.Unsubscribe(event.RoomID, id)
	}
}

// RoomCount reports how many rooms have local subscribers.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// LocalConns reports the number of local connections in one room.
func (r *Registry) LocalConns(roomID domain.RoomID) int {
	r.mu.RLock()
	entry, ok := r.rooms[roomID]
	r.mu.RUnlock()
	if !ok {
		return 0
	}
	entry.mu.RLock()
	defer entry.mu.RUnlock()
	return len(entry.conns)
}
