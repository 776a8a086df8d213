package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reelsync/internal/core/domain"
	"reelsync/internal/core/ports"
	"reelsync/pkg/retry"
	"reelsync/pkg/utils"

	"go.uber.org/zap"
)

// Cooldown-gated actions.
const (
	ActionBeep   = "beep"
	ActionScream = "scream"
)

// occRetryLimit bounds the reload-and-reapply loop on stale revisions. The
// loop caps lost-update risk without a room-wide mutex; exhaustion surfaces
// domain.ErrConflict and the caller retries the whole command.
const occRetryLimit = 3

type roomService struct {
	rooms     ports.RoomRepository
	messages  ports.MessageRepository
	publisher ports.EventPublisher
	cooldowns *CooldownGate
	logger    *zap.SugaredLogger
}

func NewRoomService(
	rooms ports.RoomRepository,
	messages ports.MessageRepository,
	publisher ports.EventPublisher,
	cooldowns *CooldownGate,
	logger *zap.SugaredLogger,
) ports.RoomService {
	return &roomService{
		rooms:     rooms,
		messages:  messages,
		publisher: publisher,
		cooldowns: cooldowns,
		logger:    logger,
	}
}

func occRetryConfig() retry.Config {
	return retry.Config{
		MaxAttempts:     occRetryLimit,
		InitialDelay:    10 * time.Millisecond,
		MaxDelay:        200 * time.Millisecond,
		Multiplier:      2.0,
		Jitter:          true,
		RetryableErrors: []error{domain.ErrRevisionConflict},
	}
}

// mutate runs the load -> mutate -> persist cycle, reloading on stale
// revisions up to occRetryLimit times.
func (s *roomService) mutate(ctx context.Context, roomID domain.RoomID, fn func(*domain.Room) ([]domain.Event, error)) ([]domain.Event, error) {
	events, err := retry.DoWithResult(ctx, occRetryConfig(), func() ([]domain.Event, error) {
		room, err := s.rooms.Get(ctx, roomID)
		if err != nil {
			return nil, err
		}
		pending, err := fn(room)
		if err != nil {
			return nil, err
		}
		if err := s.rooms.Upsert(ctx, room); err != nil {
			return nil, err
		}
		return pending, nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrRevisionConflict) {
			s.logger.Warnw("optimistic retries exhausted", "room_id", roomID)
			return nil, domain.ErrConflict
		}
		return nil, err
	}
	return events, nil
}

// publish drains pending events after a successful commit. State is already
// correct, so delivery is best-effort and detached from the request context.
func (s *roomService) publish(events []domain.Event, exclude domain.ConnID) {
	ctx := context.Background()
	for _, event := range events {
		if err := s.publisher.Publish(ctx, event, exclude); err != nil {
			s.logger.Warnw("event publish failed",
				"type", event.Type,
				"room_id", event.RoomID,
				"error", err,
			)
		}
	}
}

func (s *roomService) Connect(ctx context.Context, p ports.ConnectParams) error {
	events, err := retry.DoWithResult(ctx, occRetryConfig(), func() ([]domain.Event, error) {
		room, err := s.rooms.Get(ctx, p.RoomID)
		if errors.Is(err, domain.ErrRoomNotFound) {
			// Rooms are created implicitly on first connect.
			room = domain.NewRoom(p.RoomID, p.FilmID, p.IsSerial, p.Profile.ID)
		} else if err != nil {
			return nil, err
		}
		pending := room.Connect(p.Profile)
		if err := s.rooms.Upsert(ctx, room); err != nil {
			return nil, err
		}
		return pending, nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrRevisionConflict) {
			return domain.ErrConflict
		}
		return err
	}

	s.logger.Infow("viewer connected", "room_id", p.RoomID, "viewer_id", p.Profile.ID)
	s.publish(events, p.Origin)
	return nil
}

func (s *roomService) Disconnect(ctx context.Context, roomID domain.RoomID, viewerID domain.ViewerID, origin domain.ConnID) error {
	events, err := s.mutate(ctx, roomID, func(room *domain.Room) ([]domain.Event, error) {
		return room.Disconnect(viewerID), nil
	})
	if err != nil {
		// A vanished room makes disconnect a no-op, matching the silent
		// handling of absent viewers.
		if errors.Is(err, domain.ErrRoomNotFound) {
			return nil
		}
		return err
	}

	s.logger.Infow("viewer disconnected", "room_id", roomID, "viewer_id", viewerID)
	s.publish(events, origin)
	return nil
}

func (s *roomService) Leave(ctx context.Context, roomID domain.RoomID, viewerID domain.ViewerID, origin domain.ConnID) error {
	events, err := s.mutate(ctx, roomID, func(room *domain.Room) ([]domain.Event, error) {
		return room.Leave(viewerID), nil
	})
	if err != nil {
		return err
	}
	s.publish(events, origin)
	return nil
}

func (s *roomService) Kick(ctx context.Context, roomID domain.RoomID, initiator, target domain.ViewerID, origin domain.ConnID) error {
	events, err := s.mutate(ctx, roomID, func(room *domain.Room) ([]domain.Event, error) {
		return room.Kick(initiator, target)
	})
	if err != nil {
		return err
	}

	s.logger.Infow("viewer kicked", "room_id", roomID, "initiator", initiator, "target", target)
	s.publish(events, origin)
	return nil
}

func (s *roomService) Beep(ctx context.Context, roomID domain.RoomID, initiator, target domain.ViewerID, origin domain.ConnID) error {
	return s.notify(ctx, ActionBeep, roomID, initiator, target, origin)
}

func (s *roomService) Scream(ctx context.Context, roomID domain.RoomID, initiator, target domain.ViewerID, origin domain.ConnID) error {
	return s.notify(ctx, ActionScream, roomID, initiator, target, origin)
}

// notify handles the pure-notification actions. The cooldown gate rejects
// before the aggregate is touched; nothing is persisted on success either,
// so the save is skipped entirely.
func (s *roomService) notify(ctx context.Context, action string, roomID domain.RoomID, initiator, target domain.ViewerID, origin domain.ConnID) error {
	if err := s.cooldowns.Acquire(initiator, action); err != nil {
		return err
	}

	room, err := s.rooms.Get(ctx, roomID)
	if err != nil {
		return err
	}

	var events []domain.Event
	switch action {
	case ActionBeep:
		events, err = room.Beep(initiator, target)
	case ActionScream:
		events, err = room.Scream(initiator, target)
	default:
		return fmt.Errorf("unknown notification action %q", action)
	}
	if err != nil {
		return err
	}

	s.publish(events, origin)
	return nil
}

func (s *roomService) UpdatePlayer(ctx context.Context, roomID domain.RoomID, viewerID domain.ViewerID, upd domain.PlayerUpdate, origin domain.ConnID) ([]string, error) {
	var changed []string
	events, err := s.mutate(ctx, roomID, func(room *domain.Room) ([]domain.Event, error) {
		var pending []domain.Event
		var err error
		changed, pending, err = room.ApplyPlayerUpdate(viewerID, upd)
		return pending, err
	})
	if err != nil {
		return nil, err
	}

	s.publish(events, origin)
	return changed, nil
}

func (s *roomService) UpdateSettings(ctx context.Context, roomID domain.RoomID, viewerID domain.ViewerID, settings domain.Settings, origin domain.ConnID) error {
	events, err := s.mutate(ctx, roomID, func(room *domain.Room) ([]domain.Event, error) {
		return room.UpdateSettings(viewerID, settings)
	})
	if err != nil {
		return err
	}
	s.publish(events, origin)
	return nil
}

func (s *roomService) SendMessage(ctx context.Context, roomID domain.RoomID, viewerID domain.ViewerID, text string, origin domain.ConnID) (*domain.Message, error) {
	if err := domain.ValidateMessageText(text); err != nil {
		return nil, err
	}

	room, err := s.rooms.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if _, err := room.Viewer(viewerID); err != nil {
		return nil, err
	}

	msg := &domain.Message{
		ID:     domain.MessageID(utils.GenerateMessageID()),
		RoomID: roomID,
		UserID: viewerID,
		Text:   text,
		SentAt: time.Now().UTC(),
	}
	if err := s.messages.Insert(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}

	s.publish([]domain.Event{domain.ComposeMessage(roomID, msg)}, origin)
	return msg, nil
}

func (s *roomService) Typing(ctx context.Context, roomID domain.RoomID, viewerID domain.ViewerID, typing bool, origin domain.ConnID) error {
	room, err := s.rooms.Get(ctx, roomID)
	if err != nil {
		return err
	}
	if _, err := room.Viewer(viewerID); err != nil {
		return err
	}

	s.publish([]domain.Event{domain.ComposeTyping(roomID, viewerID, typing)}, origin)
	return nil
}

func (s *roomService) DeleteRoom(ctx context.Context, roomID domain.RoomID, initiator domain.ViewerID) error {
	room, err := s.rooms.Get(ctx, roomID)
	if err != nil {
		return err
	}
	if initiator != room.OwnerID {
		return domain.ErrPermissionDenied
	}

	if err := s.rooms.Delete(ctx, roomID); err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}
	// The store has no cascading delete; history goes explicitly.
	if err := s.messages.DeleteByRoom(ctx, roomID); err != nil {
		return fmt.Errorf("failed to delete room messages: %w", err)
	}

	s.logger.Infow("room deleted", "room_id", roomID, "initiator", initiator)
	return nil
}
