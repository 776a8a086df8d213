package services

import (
	"context"
	"sort"
	"time"

	"reelsync/internal/core/domain"
	"reelsync/internal/core/ports"
)

const defaultMessageWindow = 50

// resyncService reads the same authoritative store the command handlers
// use, so a snapshot and subsequent live deltas can diverge only in timing,
// never in content. A delta observed twice around the snapshot boundary is
// harmless: every field is an absolute last-write-wins value.
type resyncService struct {
	rooms    ports.RoomRepository
	messages ports.MessageRepository
}

func NewResyncService(rooms ports.RoomRepository, messages ports.MessageRepository) ports.ResyncService {
	return &resyncService{rooms: rooms, messages: messages}
}

func (s *resyncService) Snapshot(ctx context.Context, roomID domain.RoomID, fromMessageID domain.MessageID, limit int) (*domain.RoomSnapshot, error) {
	if limit <= 0 {
		limit = defaultMessageWindow
	}

	room, err := s.rooms.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}

	msgs, err := s.messages.ListBefore(ctx, roomID, fromMessageID, limit)
	if err != nil {
		return nil, err
	}

	viewers := make([]domain.Viewer, 0, len(room.Viewers))
	for _, v := range room.Viewers {
		viewers = append(viewers, *v)
	}
	sort.Slice(viewers, func(i, j int) bool { return viewers[i].ID < viewers[j].ID })

	return &domain.RoomSnapshot{
		RoomID:   room.ID,
		FilmID:   room.FilmID,
		IsSerial: room.IsSerial,
		OwnerID:  room.OwnerID,
		Viewers:  viewers,
		Messages: msgs,
		TakenAt:  time.Now().UTC(),
	}, nil
}
