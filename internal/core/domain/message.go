package domain

import (
	"strings"
	"time"
)

type MessageID string

const MaxMessageLen = 1000

// Message is an append-only chat entry, a separate aggregate from Room.
// IDs are lexically sortable by send time (see utils.GenerateMessageID), so
// keyset pagination orders by id alone.
type Message struct {
	ID     MessageID `json:"id"`
	RoomID RoomID    `json:"room_id"`
	UserID ViewerID  `json:"user_id"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

// ValidateMessageText enforces the 1..1000 char contract.
func ValidateMessageText(text string) error {
	if strings.TrimSpace(text) == "" {
		return validationError("message text must not be empty")
	}
	if len([]rune(text)) > MaxMessageLen {
		return validationError("message text exceeds %d characters", MaxMessageLen)
	}
	return nil
}

// RoomSnapshot is a point-in-time read of the full room state plus a recent
// message window, built from the same store the command handlers use.
type RoomSnapshot struct {
	RoomID   RoomID    `json:"room_id"`
	FilmID   string    `json:"film_id"`
	IsSerial bool      `json:"is_serial"`
	OwnerID  ViewerID  `json:"owner_id"`
	Viewers  []Viewer  `json:"viewers"`
	Messages []Message `json:"messages"`
	TakenAt  time.Time `json:"taken_at"`
}
