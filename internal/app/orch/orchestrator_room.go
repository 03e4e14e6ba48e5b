package orch

import (
	"fmt"
	"time"

	"github.com/dkeye/Murmur/internal/core"
	"github.com/dkeye/Murmur/internal/domain"
	"github.com/rs/zerolog/log"
)

func (o *Orchestrator) CreateRoom(sid core.SessionID) (domain.Room, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	u, err := o.sessionLocked(sid)
	if err != nil {
		return domain.Room{}, err
	}
	now := o.clock()
	room, err := o.rooms.Create(sid, u.ID, now)
	if err != nil {
		return domain.Room{}, err
	}
	if _, err := o.members.Join(room.ID, sid); err != nil {
		o.rooms.Destroy(room.ID, now)
		return domain.Room{}, err
	}
	room, _ = o.rooms.Get(room.ID)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room_id", string(room.ID)).Msg("room opened")
	return room, nil
}

// JoinRoom resolves a join code. Joining a room the session is already in
// refreshes activity but changes nothing else.
func (o *Orchestrator) JoinRoom(sid core.SessionID, code string) (domain.Room, error) {
	var out outbox
	defer o.flush(&out)
	o.mu.Lock()
	defer o.mu.Unlock()

	u, err := o.sessionLocked(sid)
	if err != nil {
		return domain.Room{}, err
	}
	room, ok := o.rooms.FindByCode(code)
	if !ok {
		return domain.Room{}, fmt.Errorf("code %q: %w", code, domain.ErrRoomNotFound)
	}
	added, err := o.members.Join(room.ID, sid)
	if err != nil {
		return domain.Room{}, err
	}
	o.rooms.Touch(room.ID, o.clock())
	if added {
		o.broadcastLocked(&out, room.ID, core.UserJoinedEvent(room.ID, u), sid)
		log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room_id", string(room.ID)).Msg("joined room")
	}
	room, _ = o.rooms.Get(room.ID)
	return room, nil
}

// LeaveRoom is an explicit leave. The creator cannot leave without ending
// the room.
func (o *Orchestrator) LeaveRoom(sid core.SessionID, roomID domain.RoomID) error {
	var out outbox
	defer o.flush(&out)
	o.mu.Lock()
	defer o.mu.Unlock()

	u, err := o.sessionLocked(sid)
	if err != nil {
		return err
	}
	creator, ok := o.rooms.CreatorOf(roomID)
	if !ok {
		return fmt.Errorf("leave %s: %w", roomID, domain.ErrRoomNotFound)
	}
	if !o.members.IsMember(roomID, sid) {
		return fmt.Errorf("leave %s: %w", roomID, domain.ErrNotAMember)
	}
	now := o.clock()
	if creator == sid {
		o.destroyLocked(&out, roomID, domain.ReasonCreatorLeft, now)
		return nil
	}

	// The leaver is still in the snapshot so it sees its own departure.
	recipients := o.recipientsLocked(roomID, "")
	o.members.Leave(roomID, sid)
	o.rooms.Touch(roomID, now)
	out.add(recipients, core.UserLeftEvent(roomID, u))
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room_id", string(roomID)).Msg("left room")
	return nil
}

// Destroy ends a room. It reports false when the room was already gone,
// in which case nobody is notified.
func (o *Orchestrator) Destroy(roomID domain.RoomID, reason string) bool {
	var out outbox
	defer o.flush(&out)
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.destroyLocked(&out, roomID, reason, o.clock())
}

func (o *Orchestrator) destroyLocked(b *outbox, roomID domain.RoomID, reason string, now time.Time) bool {
	recipients := o.recipientsLocked(roomID, "")
	if _, ok := o.rooms.Destroy(roomID, now); !ok {
		return false
	}
	o.members.Clear(roomID)
	b.add(recipients, core.RoomDestroyedEvent(roomID, reason))
	log.Info().Str("module", "orch").Str("room_id", string(roomID)).Str("reason", reason).Int("notified", len(recipients)).Msg("room closed")
	return true
}
