package orch

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/Murmur/internal/core"
	"github.com/dkeye/Murmur/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin_Duplicate(t *testing.T) {
	o, _ := newTestOrch(t)
	connect(t, o, "a", "alice")

	_, err := o.Login("a", "alice")
	assert.ErrorIs(t, err, domain.ErrAlreadyRegistered)
}

func TestRequiresSession(t *testing.T) {
	o, _ := newTestOrch(t, "K7X9P2")
	o.Connect("anon", &fakeConn{})

	_, err := o.CreateRoom("anon")
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
	_, err = o.JoinRoom("anon", "K7X9P2")
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
	err = o.LeaveRoom("anon", "r")
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
	_, err = o.SendMessage("anon", domain.Message{RoomID: "r", Payload: json.RawMessage(`"x"`)})
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
	assert.Equal(t, 0, o.rooms.Len())
}

func TestCreateJoinAndRelay(t *testing.T) {
	o, _ := newTestOrch(t, "K7X9P2")
	aliceConn, _ := connect(t, o, "a", "alice")
	bobConn, bob := connect(t, o, "b", "bob")

	room, err := o.CreateRoom("a")
	require.NoError(t, err)
	assert.Equal(t, domain.JoinCode("K7X9P2"), room.Code)
	assert.Equal(t, 1, room.ParticipantCount)

	joined, err := o.JoinRoom("b", "K7X9P2")
	require.NoError(t, err)
	assert.Equal(t, room.ID, joined.ID)
	assert.Equal(t, 2, joined.ParticipantCount)

	notices := aliceConn.events(t, core.EventUserJoined)
	require.Len(t, notices, 1)
	assert.Equal(t, "bob", notices[0].Username)
	assert.Equal(t, room.ID, notices[0].RoomID)
	assert.Empty(t, bobConn.events(t, core.EventUserJoined), "joiner is excluded")

	sent, err := o.SendMessage("b", domain.Message{
		RoomID:     room.ID,
		Payload:    json.RawMessage(`{"ct":"c2VjcmV0","iv":"aXY="}`),
		TTL:        30,
		SenderID:   "spoofed",
		SenderName: "mallory",
	})
	require.NoError(t, err)
	assert.Equal(t, bob.ID, sent.SenderID)

	got := aliceConn.events(t, core.EventNewMessage)
	require.Len(t, got, 1)
	assert.Equal(t, bob.ID, got[0].Message.SenderID)
	assert.Equal(t, "bob", got[0].Message.SenderName)
	assert.JSONEq(t, `{"ct":"c2VjcmV0","iv":"aXY="}`, string(got[0].Message.Payload))
	assert.Equal(t, 30, got[0].Message.TTL)
	assert.Equal(t, domain.KindText, got[0].Message.Kind)
	assert.Len(t, bobConn.events(t, core.EventNewMessage), 1, "sender gets its own echo")
}

func TestJoinUnknownCode(t *testing.T) {
	o, _ := newTestOrch(t, "K7X9P2")
	connect(t, o, "b", "bob")

	_, err := o.JoinRoom("b", "AAAAAA")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestRejoinIsNoop(t *testing.T) {
	o, _ := newTestOrch(t, "K7X9P2")
	aliceConn, _ := connect(t, o, "a", "alice")
	connect(t, o, "b", "bob")
	_, err := o.CreateRoom("a")
	require.NoError(t, err)

	_, err = o.JoinRoom("b", "K7X9P2")
	require.NoError(t, err)
	room, err := o.JoinRoom("b", "k7x9p2")
	require.NoError(t, err)

	assert.Equal(t, 2, room.ParticipantCount)
	assert.Len(t, aliceConn.events(t, core.EventUserJoined), 1)

	own, err := o.JoinRoom("a", "K7X9P2")
	require.NoError(t, err)
	assert.Equal(t, 2, own.ParticipantCount)
}

func TestCreatorDisconnectDestroysRoom(t *testing.T) {
	o, _ := newTestOrch(t, "K7X9P2", "ZZZZZZ")
	connect(t, o, "a", "alice")
	bobConn, _ := connect(t, o, "b", "bob")
	connect(t, o, "c", "carol")

	room, err := o.CreateRoom("a")
	require.NoError(t, err)
	_, err = o.JoinRoom("b", string(room.Code))
	require.NoError(t, err)

	o.OnDisconnect("a")

	destroyed := bobConn.events(t, core.EventRoomDestroyed)
	require.Len(t, destroyed, 1)
	assert.Equal(t, domain.ReasonCreatorDisconnected, destroyed[0].Reason)
	assert.Equal(t, room.ID, destroyed[0].RoomID)
	assert.Empty(t, bobConn.events(t, core.EventUserLeft), "creator departure destroys, never just leaves")

	_, err = o.JoinRoom("c", "K7X9P2")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	assert.Empty(t, o.members.RoomsOf("b"))
	_, ok := o.registry.Lookup("a")
	assert.False(t, ok)
}

func TestDisconnectResolvesCreatedAndJoinedRooms(t *testing.T) {
	o, _ := newTestOrch(t, "AAAAAA", "BBBBBB")
	connect(t, o, "a", "alice")
	bobConn, _ := connect(t, o, "b", "bob")

	own, err := o.CreateRoom("a")
	require.NoError(t, err)
	other, err := o.CreateRoom("b")
	require.NoError(t, err)
	_, err = o.JoinRoom("a", "BBBBBB")
	require.NoError(t, err)
	_, err = o.JoinRoom("b", "AAAAAA")
	require.NoError(t, err)

	o.OnDisconnect("a")

	assert.False(t, o.rooms.Exists(own.ID))
	require.True(t, o.rooms.Exists(other.ID))
	r, _ := o.rooms.Get(other.ID)
	assert.Equal(t, 1, r.ParticipantCount)

	left := bobConn.events(t, core.EventUserLeft)
	require.Len(t, left, 1)
	assert.Equal(t, other.ID, left[0].RoomID)
	assert.Equal(t, "alice", left[0].Username)
	require.Len(t, bobConn.events(t, core.EventRoomDestroyed), 1)
	assert.Equal(t, 1, o.Stats().Sessions)
}

func TestDisconnectWithoutLogin(t *testing.T) {
	o, _ := newTestOrch(t)
	o.Connect("x", &fakeConn{})
	o.OnDisconnect("x")
	o.OnDisconnect("x")
	assert.Equal(t, Stats{}, o.Stats())
}

func TestLeaveRoom_Member(t *testing.T) {
	o, _ := newTestOrch(t, "K7X9P2")
	aliceConn, _ := connect(t, o, "a", "alice")
	bobConn, bob := connect(t, o, "b", "bob")
	room, err := o.CreateRoom("a")
	require.NoError(t, err)
	_, err = o.JoinRoom("b", "K7X9P2")
	require.NoError(t, err)

	require.NoError(t, o.LeaveRoom("b", room.ID))

	left := aliceConn.events(t, core.EventUserLeft)
	require.Len(t, left, 1)
	assert.Equal(t, bob.ID, left[0].UserID)
	assert.Len(t, bobConn.events(t, core.EventUserLeft), 1)

	r, _ := o.rooms.Get(room.ID)
	assert.Equal(t, 1, r.ParticipantCount)
	assert.ErrorIs(t, o.LeaveRoom("b", room.ID), domain.ErrNotAMember)
	assert.ErrorIs(t, o.LeaveRoom("b", "missing"), domain.ErrRoomNotFound)
}

func TestLeaveRoom_CreatorDestroys(t *testing.T) {
	o, _ := newTestOrch(t, "K7X9P2")
	connect(t, o, "a", "alice")
	bobConn, _ := connect(t, o, "b", "bob")
	room, err := o.CreateRoom("a")
	require.NoError(t, err)
	_, err = o.JoinRoom("b", "K7X9P2")
	require.NoError(t, err)

	require.NoError(t, o.LeaveRoom("a", room.ID))

	assert.False(t, o.rooms.Exists(room.ID))
	destroyed := bobConn.events(t, core.EventRoomDestroyed)
	require.Len(t, destroyed, 1)
	assert.Equal(t, domain.ReasonCreatorLeft, destroyed[0].Reason)
	assert.Empty(t, o.members.RoomsOf("b"))
}

func TestSendMessage_Rejections(t *testing.T) {
	o, _ := newTestOrch(t, "K7X9P2")
	connect(t, o, "a", "alice")
	carolConn, _ := connect(t, o, "c", "carol")
	room, err := o.CreateRoom("a")
	require.NoError(t, err)

	_, err = o.SendMessage("c", domain.Message{RoomID: room.ID, Payload: json.RawMessage(`"x"`)})
	assert.ErrorIs(t, err, domain.ErrNotAMember)

	_, err = o.SendMessage("a", domain.Message{RoomID: "missing", Payload: json.RawMessage(`"x"`)})
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)

	_, err = o.SendMessage("a", domain.Message{RoomID: room.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidMessage)

	_, err = o.SendMessage("a", domain.Message{RoomID: room.ID, Payload: json.RawMessage(`"x"`), TTL: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidMessage)

	_, err = o.SendMessage("a", domain.Message{RoomID: room.ID, Payload: json.RawMessage(`"x"`), Kind: domain.KindSystem})
	assert.ErrorIs(t, err, domain.ErrInvalidMessage, "clients cannot send system notices")

	assert.Empty(t, carolConn.events(t, core.EventNewMessage))
}

func TestSendMessage_SessionCheckedFirst(t *testing.T) {
	o, _ := newTestOrch(t, "K7X9P2")
	o.Connect("anon", &fakeConn{})

	tests := []struct {
		name  string
		draft domain.Message
	}{
		{name: "empty payload", draft: domain.Message{RoomID: "r"}},
		{name: "negative ttl", draft: domain.Message{RoomID: "r", Payload: json.RawMessage(`"x"`), TTL: -1}},
		{name: "system kind", draft: domain.Message{RoomID: "r", Payload: json.RawMessage(`"x"`), Kind: domain.KindSystem}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := o.SendMessage("anon", tt.draft)
			assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
		})
	}
}

func TestDestroyIsIdempotent(t *testing.T) {
	o, _ := newTestOrch(t, "K7X9P2")
	connect(t, o, "a", "alice")
	bobConn, _ := connect(t, o, "b", "bob")
	room, err := o.CreateRoom("a")
	require.NoError(t, err)
	_, err = o.JoinRoom("b", "K7X9P2")
	require.NoError(t, err)

	assert.True(t, o.Destroy(room.ID, domain.ReasonExpired))
	assert.False(t, o.Destroy(room.ID, domain.ReasonCreatorDisconnected))

	assert.Len(t, bobConn.events(t, core.EventRoomDestroyed), 1)
}

func TestActivityExtendsIdleClock(t *testing.T) {
	o, clock := newTestOrch(t, "K7X9P2")
	connect(t, o, "a", "alice")
	room, err := o.CreateRoom("a")
	require.NoError(t, err)

	clock.Advance(idleTimeout - time.Minute)
	_, err = o.SendMessage("a", domain.Message{RoomID: room.ID, Payload: json.RawMessage(`"x"`)})
	require.NoError(t, err)

	clock.Advance(idleTimeout - time.Minute)
	assert.Equal(t, 0, o.Sweep(clock.Now()))
	assert.True(t, o.rooms.Exists(room.ID))
}

func TestConcurrentTransitionsKeepCountsConsistent(t *testing.T) {
	o, clock := newTestOrch(t)
	connect(t, o, "owner", "owner")
	room, err := o.CreateRoom("owner")
	require.NoError(t, err)

	const n = 32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		sid := core.SessionID(fmt.Sprintf("s%d", i))
		connect(t, o, sid, string(sid))
		wg.Add(1)
		go func(sid core.SessionID, leave bool) {
			defer wg.Done()
			_, _ = o.JoinRoom(sid, string(room.Code))
			_, _ = o.SendMessage(sid, domain.Message{RoomID: room.ID, Payload: json.RawMessage(`"x"`)})
			if leave {
				_ = o.LeaveRoom(sid, room.ID)
			} else {
				o.OnDisconnect(sid)
			}
		}(sid, i%2 == 0)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 10; i++ {
			o.Sweep(clock.Now())
		}
	}()
	wg.Wait()

	r, ok := o.rooms.Get(room.ID)
	require.True(t, ok)
	assert.Equal(t, len(o.members.MembersOf(room.ID)), r.ParticipantCount)
	assert.Equal(t, 1, r.ParticipantCount)
}

func TestSlowMemberIsKickedAndCounted(t *testing.T) {
	o, _ := newTestOrch(t, "K7X9P2")
	aliceConn, _ := connect(t, o, "a", "alice")
	bobConn, _ := connect(t, o, "b", "bob")
	room, err := o.CreateRoom("a")
	require.NoError(t, err)
	_, err = o.JoinRoom("b", "K7X9P2")
	require.NoError(t, err)

	bobConn.setFull()
	_, err = o.SendMessage("a", domain.Message{RoomID: room.ID, Payload: json.RawMessage(`"hi"`)})
	require.NoError(t, err)

	assert.Len(t, aliceConn.events(t, core.EventNewMessage), 1)
	assert.True(t, bobConn.isClosed())
	assert.False(t, aliceConn.isClosed())
	assert.Equal(t, int64(1), o.Stats().DroppedFrames)
}

func TestReadAccessorsReturnSnapshots(t *testing.T) {
	o, _ := newTestOrch(t, "K7X9P2")
	connect(t, o, "a", "alice")
	connect(t, o, "b", "bob")
	room, err := o.CreateRoom("a")
	require.NoError(t, err)
	_, err = o.JoinRoom("b", "K7X9P2")
	require.NoError(t, err)

	members := o.MembersOf(room.ID)
	require.Len(t, members, 2)
	members[0] = "intruder"
	assert.ElementsMatch(t, []core.SessionID{"a", "b"}, o.MembersOf(room.ID))

	got, ok := o.Room(room.ID)
	require.True(t, ok)
	got.ParticipantCount = 99
	again, _ := o.Room(room.ID)
	assert.Equal(t, 2, again.ParticipantCount)

	require.True(t, o.Destroy(room.ID, domain.ReasonCreatorLeft))
	assert.Empty(t, o.MembersOf(room.ID))
	_, rooms, err := o.WhoAmI("b")
	require.NoError(t, err)
	assert.Empty(t, rooms)
}
