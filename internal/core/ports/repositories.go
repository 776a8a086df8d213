package ports

import (
	"context"

	"reelsync/internal/core/domain"
)

// RoomRepository is the document-store contract for the room aggregate.
type RoomRepository interface {
	Get(ctx context.Context, id domain.RoomID) (*domain.Room, error)
	// Upsert persists the room only if the stored revision still equals
	// room.Revision, then advances room.Revision. A stale token fails with
	// domain.ErrRevisionConflict.
	Upsert(ctx context.Context, room *domain.Room) error
	Delete(ctx context.Context, id domain.RoomID) error
}

// MessageRepository is append-only with keyset pagination.
type MessageRepository interface {
	Insert(ctx context.Context, m *domain.Message) error
	// ListBefore returns up to limit messages strictly older than fromID,
	// newest first. An empty fromID starts at the newest message.
	ListBefore(ctx context.Context, roomID domain.RoomID, fromID domain.MessageID, limit int) ([]domain.Message, error)
	// DeleteByRoom bulk-deletes a room's history; there is no cascading
	// delete in the store.
	DeleteByRoom(ctx context.Context, roomID domain.RoomID) error
}
