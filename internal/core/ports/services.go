package ports

import (
	"context"

	"reelsync/internal/core/domain"
)

// ConnectParams carries everything the edge layer knows when a socket opens.
// FilmID and IsSerial only matter when the room does not exist yet.
type ConnectParams struct {
	RoomID   domain.RoomID
	FilmID   string
	IsSerial bool
	Profile  domain.ViewerProfile
	Origin   domain.ConnID
}

// RoomService hosts one command handler per intent. Handlers load the room,
// invoke exactly one aggregate operation, persist under optimistic
// concurrency, and publish the drained events post-commit. Errors are
// returned to the caller only, never broadcast.
type RoomService interface {
	Connect(ctx context.Context, p ConnectParams) error
	Disconnect(ctx context.Context, roomID domain.RoomID, viewerID domain.ViewerID, origin domain.ConnID) error
	Leave(ctx context.Context, roomID domain.RoomID, viewerID domain.ViewerID, origin domain.ConnID) error
	Kick(ctx context.Context, roomID domain.RoomID, initiator, target domain.ViewerID, origin domain.ConnID) error
	Beep(ctx context.Context, roomID domain.RoomID, initiator, target domain.ViewerID, origin domain.ConnID) error
	Scream(ctx context.Context, roomID domain.RoomID, initiator, target domain.ViewerID, origin domain.ConnID) error
	UpdatePlayer(ctx context.Context, roomID domain.RoomID, viewerID domain.ViewerID, upd domain.PlayerUpdate, origin domain.ConnID) ([]string, error)
	UpdateSettings(ctx context.Context, roomID domain.RoomID, viewerID domain.ViewerID, s domain.Settings, origin domain.ConnID) error
	SendMessage(ctx context.Context, roomID domain.RoomID, viewerID domain.ViewerID, text string, origin domain.ConnID) (*domain.Message, error)
	Typing(ctx context.Context, roomID domain.RoomID, viewerID domain.ViewerID, typing bool, origin domain.ConnID) error
	DeleteRoom(ctx context.Context, roomID domain.RoomID, initiator domain.ViewerID) error
}

// ResyncService builds a self-consistent snapshot for (re)connecting
// viewers from the same store the command handlers use.
type ResyncService interface {
	Snapshot(ctx context.Context, roomID domain.RoomID, fromMessageID domain.MessageID, limit int) (*domain.RoomSnapshot, error)
}

// EventPublisher is the two-tier distribution entry point: immediate local
// fan-out excluding the originating connection, then cross-instance bus
// forwarding. Publication is best-effort once the aggregate is committed.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event, exclude domain.ConnID) error
}

// LocalFanout delivers an event to every local connection subscribed to the
// event's room, minus the excluded one.
type LocalFanout interface {
	Fanout(event domain.Event, exclude domain.ConnID)
}

// Claims is the identity-provider slice reelsync consumes.
type Claims struct {
	ViewerID domain.ViewerID
	UserName string
	PhotoKey *string
}

// AuthService validates bearer tokens issued by the external identity
// provider.
type AuthService interface {
	ValidateToken(token string) (*Claims, error)
}
