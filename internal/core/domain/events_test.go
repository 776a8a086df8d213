package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeMessage(t *testing.T) {
	msg := &Message{ID: "m1", RoomID: "room-1", UserID: "v1", Text: "hi"}

	event := ComposeMessage("room-1", msg)

	assert.Equal(t, EventMessage, event.Type)
	assert.Equal(t, ViewerID("v1"), event.ViewerID)
	assert.Same(t, msg, event.Message)
	assert.False(t, event.SentAt.IsZero())
}

func TestComposeTyping(t *testing.T) {
	event := ComposeTyping("room-1", "v1", false)

	assert.Equal(t, EventTyping, event.Type)
	require.NotNil(t, event.Typing)
	assert.False(t, *event.Typing, "an explicit false must survive, not be dropped as a zero value")
}

func TestComposeError(t *testing.T) {
	event := ComposeError("room-1", "v1", "COOLDOWN", "action on cooldown", 7)

	assert.Equal(t, EventError, event.Type)
	assert.Equal(t, ViewerID("v1"), event.ViewerID)
	require.NotNil(t, event.Error)
	assert.Equal(t, "COOLDOWN", event.Error.Code)
	assert.Equal(t, 7, event.Error.RemainingSeconds)
}

func TestComposeSnapshot(t *testing.T) {
	snap := &RoomSnapshot{RoomID: "room-1", TakenAt: time.Now()}

	event := ComposeSnapshot(snap)

	assert.Equal(t, EventRoomSnapshot, event.Type)
	assert.Equal(t, RoomID("room-1"), event.RoomID)
	assert.Same(t, snap, event.Snapshot)
}

func TestAbsoluteFields_CarriesCurrentValues(t *testing.T) {
	v := &Viewer{ID: "v1", OnPause: true, Speed: 2.0, TimeLine: 30 * time.Second}

	fields := absoluteFields(v, []string{FieldPause, FieldSpeed, FieldTimeLine})

	assert.Equal(t, map[string]interface{}{
		FieldPause:    true,
		FieldSpeed:    2.0,
		FieldTimeLine: 30 * time.Second,
	}, fields)
}

func TestJoinEventSnapshotsViewer(t *testing.T) {
	room := NewRoom("room-1", "film-42", false, "owner")
	events := room.Connect(ViewerProfile{ID: "owner", UserName: "alice"})
	require.Len(t, events, 1)

	// Later mutations must not retroactively alter the emitted event.
	room.Viewers["owner"].UserName = "renamed"

	assert.Equal(t, "alice", events[0].Viewer.UserName)
}
