package signal

import (
	"errors"
	"sync"
	"testing"

	"reelsync/internal/core/domain"
	"reelsync/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	id   domain.ConnID
	fail bool

	mu       sync.Mutex
	received []domain.Event
}

func (c *fakeConn) ID() domain.ConnID { return c.id }

func (c *fakeConn) Send(event domain.Event) error {
	if c.fail {
		return errors.New("send queue full")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.received = append(c.received, event)
	return nil
}

func (c *fakeConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.received)
}

func testEvent(roomID domain.RoomID) domain.Event {
	return domain.Event{Type: domain.EventBeep, RoomID: roomID}
}

func TestFanout_ExcludesOriginConnection(t *testing.T) {
	r := NewRegistry(logger.Nop())
	origin := &fakeConn{id: "conn-1"}
	other := &fakeConn{id: "conn-2"}
	r.Subscribe("room-1", origin)
	r.Subscribe("room-1", other)

	r.Fanout(testEvent("room-1"), "conn-1")

	assert.Zero(t, origin.count(), "the originating connection never hears its own event")
	assert.Equal(t, 1, other.count())
}

func TestFanout_EmptyExcludeReachesEveryone(t *testing.T) {
	r := NewRegistry(logger.Nop())
	a := &fakeConn{id: "conn-1"}
	b := &fakeConn{id: "conn-2"}
	r.Subscribe("room-1", a)
	r.Subscribe("room-1", b)

	r.Fanout(testEvent("room-1"), "")

	assert.Equal(t, 1, a.count())
	assert.Equal(t, 1, b.count())
}

func TestFanout_IsScopedToRoom(t *testing.T) {
	r := NewRegistry(logger.Nop())
	inRoom := &fakeConn{id: "conn-1"}
	elsewhere := &fakeConn{id: "conn-2"}
	r.Subscribe("room-1", inRoom)
	r.Subscribe("room-2", elsewhere)

	r.Fanout(testEvent("room-1"), "")

	assert.Equal(t, 1, inRoom.count())
	assert.Zero(t, elsewhere.count())
}

func TestFanout_FailingConnIsEvictedOthersDeliver(t *testing.T) {
	r := NewRegistry(logger.Nop())
	broken := &fakeConn{id: "conn-1", fail: true}
	healthy := &fakeConn{id: "conn-2"}
	r.Subscribe("room-1", broken)
	r.Subscribe("room-1", healthy)

	r.Fanout(testEvent("room-1"), "")

	assert.Equal(t, 1, healthy.count(), "one bad socket never aborts the fan-out")
	assert.Equal(t, 1, r.LocalConns("room-1"), "the failing connection is dropped")

	r.Fanout(testEvent("room-1"), "")
	assert.Equal(t, 2, healthy.count())
}

func TestFanout_UnknownRoomIsNoOp(t *testing.T) {
	r := NewRegistry(logger.Nop())

	r.Fanout(testEvent("ghost"), "")

	assert.Zero(t, r.RoomCount())
}

func TestUnsubscribe_LastConnRemovesRoom(t *testing.T) {
	r := NewRegistry(logger.Nop())
	a := &fakeConn{id: "conn-1"}
	b := &fakeConn{id: "conn-2"}
	r.Subscribe("room-1", a)
	r.Subscribe("room-1", b)
	require.Equal(t, 1, r.RoomCount())

	r.Unsubscribe("room-1", "conn-1")
	assert.Equal(t, 1, r.RoomCount())
	assert.Equal(t, 1, r.LocalConns("room-1"))

	r.Unsubscribe("room-1", "conn-2")
	assert.Zero(t, r.RoomCount())
}

func TestSubscribe_SameConnIDReplaces(t *testing.T) {
	r := NewRegistry(logger.Nop())
	stale := &fakeConn{id: "conn-1"}
	fresh := &fakeConn{id: "conn-1"}
	r.Subscribe("room-1", stale)
	r.Subscribe("room-1", fresh)

	r.Fanout(testEvent("room-1"), "")

	assert.Equal(t, 1, r.LocalConns("room-1"))
	assert.Zero(t, stale.count())
	assert.Equal(t, 1, fresh.count())
}
