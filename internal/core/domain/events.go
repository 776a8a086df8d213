package domain

import "time"

type EventType string

// The closed set of event variants. One mutation yields exactly one event;
// composite concerns are never merged into a single event.
const (
	EventJoin              EventType = "join"
	EventLeave             EventType = "leave"
	EventKick              EventType = "kick"
	EventBeep              EventType = "beep"
	EventScream            EventType = "scream"
	EventError             EventType = "error"
	EventMessage           EventType = "message"
	EventTyping            EventType = "typing"
	EventPauseUpdate       EventType = "pause_update"
	EventTimelineUpdate    EventType = "timeline_update"
	EventPlayerFieldUpdate EventType = "player_field_update"
	EventViewerFieldUpdate EventType = "viewer_field_update"
	EventRoomSnapshot      EventType = "room_snapshot"
)

// Event is the single wire shape for every variant. Field-update variants
// carry the new absolute value for every changed field in Fields plus the
// explicit UpdatedFields list, so receivers never infer "unchanged" from a
// zero value.
type Event struct {
	Type          EventType              `json:"type"`
	RoomID        RoomID                 `json:"room_id"`
	ViewerID      ViewerID               `json:"viewer_id,omitempty"`
	TargetID      ViewerID               `json:"target_id,omitempty"`
	UpdatedFields []string               `json:"updated_fields,omitempty"`
	Fields        map[string]interface{} `json:"fields,omitempty"`
	Viewer        *Viewer                `json:"viewer,omitempty"`
	Message       *Message               `json:"message,omitempty"`
	Typing        *bool                  `json:"typing,omitempty"`
	Snapshot      *RoomSnapshot          `json:"snapshot,omitempty"`
	Error         *ErrorInfo             `json:"error,omitempty"`
	SentAt        time.Time              `json:"sent_at"`
}

// ErrorInfo is the private error notification delivered only to the caller.
type ErrorInfo struct {
	Code             string `json:"code"`
	Message          string `json:"message"`
	RemainingSeconds int    `json:"remaining_seconds,omitempty"`
}

func composeJoin(roomID RoomID, v *Viewer) Event {
	clone := *v
	return Event{
		Type:     EventJoin,
		RoomID:   roomID,
		ViewerID: v.ID,
		Viewer:   &clone,
		SentAt:   time.Now().UTC(),
	}
}

func composeLeave(roomID RoomID, id ViewerID) Event {
	return Event{
		Type:     EventLeave,
		RoomID:   roomID,
		ViewerID: id,
		SentAt:   time.Now().UTC(),
	}
}

func composeKick(roomID RoomID, initiator, target ViewerID) Event {
	return Event{
		Type:     EventKick,
		RoomID:   roomID,
		ViewerID: initiator,
		TargetID: target,
		SentAt:   time.Now().UTC(),
	}
}

func composeTargeted(t EventType, roomID RoomID, initiator, target ViewerID) Event {
	return Event{
		Type:     t,
		RoomID:   roomID,
		ViewerID: initiator,
		TargetID: target,
		SentAt:   time.Now().UTC(),
	}
}

// composePlayerUpdate picks the variant from the changed-field list: a lone
// pause or timeline change gets its dedicated variant, anything else the
// generic player update.
func composePlayerUpdate(roomID RoomID, v *Viewer, changed []string) Event {
	t := EventPlayerFieldUpdate
	if len(changed) == 1 {
		switch changed[0] {
		case FieldPause:
			t = EventPauseUpdate
		case FieldTimeLine:
			t = EventTimelineUpdate
		}
	}
	return Event{
		Type:          t,
		RoomID:        roomID,
		ViewerID:      v.ID,
		UpdatedFields: changed,
		Fields:        absoluteFields(v, changed),
		SentAt:        time.Now().UTC(),
	}
}

func composeViewerFields(roomID RoomID, v *Viewer, changed []string) Event {
	return Event{
		Type:          EventViewerFieldUpdate,
		RoomID:        roomID,
		ViewerID:      v.ID,
		UpdatedFields: changed,
		Fields:        absoluteFields(v, changed),
		SentAt:        time.Now().UTC(),
	}
}

// ComposeMessage wraps an appended chat message.
func ComposeMessage(roomID RoomID, m *Message) Event {
	return Event{
		Type:     EventMessage,
		RoomID:   roomID,
		ViewerID: m.UserID,
		Message:  m,
		SentAt:   time.Now().UTC(),
	}
}

// ComposeTyping carries a transient typing indicator; nothing is persisted.
func ComposeTyping(roomID RoomID, id ViewerID, typing bool) Event {
	return Event{
		Type:     EventTyping,
		RoomID:   roomID,
		ViewerID: id,
		Typing:   &typing,
		SentAt:   time.Now().UTC(),
	}
}

// ComposeError builds the caller-private error notification.
func ComposeError(roomID RoomID, id ViewerID, code, message string, remaining int) Event {
	return Event{
		Type:     EventError,
		RoomID:   roomID,
		ViewerID: id,
		Error:    &ErrorInfo{Code: code, Message: message, RemainingSeconds: remaining},
		SentAt:   time.Now().UTC(),
	}
}

// ComposeSnapshot wraps a resync snapshot for delivery on a socket.
func ComposeSnapshot(s *RoomSnapshot) Event {
	return Event{
		Type:     EventRoomSnapshot,
		RoomID:   s.RoomID,
		Snapshot: s,
		SentAt:   time.Now().UTC(),
	}
}

func absoluteFields(v *Viewer, changed []string) map[string]interface{} {
	fields := make(map[string]interface{}, len(changed))
	for _, name := range changed {
		switch name {
		case FieldOnline:
			fields[name] = v.Online
		case FieldPause:
			fields[name] = v.OnPause
		case FieldFullScreen:
			fields[name] = v.FullScreen
		case FieldTimeLine:
			fields[name] = v.TimeLine
		case FieldSpeed:
			fields[name] = v.Speed
		case FieldSeason:
			fields[name] = v.Season
		case FieldEpisode:
			fields[name] = v.Episode
		case FieldMuted:
			fields[name] = v.Muted
		case FieldUserName:
			fields[name] = v.UserName
		case FieldPhotoKey:
			fields[name] = v.PhotoKey
		case FieldSettings:
			fields[name] = v.Settings
		}
	}
	return fields
}
