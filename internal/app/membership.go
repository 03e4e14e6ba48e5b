package app

import (
	"fmt"
	"sync"

	"github.com/dkeye/Murmur/internal/core"
	"github.com/dkeye/Murmur/internal/domain"
	"github.com/rs/zerolog/log"
)

// Membership tracks who is in which room. The room's participant count in
// the Directory is written from here so it always equals the set size.
type Membership struct {
	mu      sync.RWMutex
	dir     *Directory
	members map[domain.RoomID]map[core.SessionID]struct{}
	rooms   map[core.SessionID]map[domain.RoomID]struct{}
}

func NewMembership(dir *Directory) *Membership {
	return &Membership{
		dir:     dir,
		members: make(map[domain.RoomID]map[core.SessionID]struct{}),
		rooms:   make(map[core.SessionID]map[domain.RoomID]struct{}),
	}
}

// Join adds sid to the room. added is false when sid was already a member.
func (m *Membership) Join(roomID domain.RoomID, sid core.SessionID) (added bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.dir.Exists(roomID) {
		return false, fmt.Errorf("join %s: %w", roomID, domain.ErrRoomNotFound)
	}
	set := m.members[roomID]
	if _, ok := set[sid]; ok {
		return false, nil
	}
	if !m.dir.setParticipantCount(roomID, len(set)+1) {
		return false, fmt.Errorf("join %s: %w", roomID, domain.ErrRoomNotFound)
	}
	if set == nil {
		set = make(map[core.SessionID]struct{})
		m.members[roomID] = set
	}
	set[sid] = struct{}{}
	if m.rooms[sid] == nil {
		m.rooms[sid] = make(map[domain.RoomID]struct{})
	}
	m.rooms[sid][roomID] = struct{}{}
	log.Info().Str("module", "app.membership").Str("sid", string(sid)).Str("room_id", string(roomID)).Msg("member added")
	return true, nil
}

// Leave is a no-op for non-members.
func (m *Membership) Leave(roomID domain.RoomID, sid core.SessionID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := m.members[roomID]
	if _, ok := set[sid]; !ok {
		return false
	}
	delete(set, sid)
	m.dir.setParticipantCount(roomID, len(set))
	m.forgetLocked(sid, roomID)
	log.Info().Str("module", "app.membership").Str("sid", string(sid)).Str("room_id", string(roomID)).Msg("member removed")
	return true
}

func (m *Membership) forgetLocked(sid core.SessionID, roomID domain.RoomID) {
	if rs, ok := m.rooms[sid]; ok {
		delete(rs, roomID)
		if len(rs) == 0 {
			delete(m.rooms, sid)
		}
	}
}

func (m *Membership) IsMember(roomID domain.RoomID, sid core.SessionID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.members[roomID][sid]
	return ok
}

func (m *Membership) MembersOf(roomID domain.RoomID) []core.SessionID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.SessionID, 0, len(m.members[roomID]))
	for sid := range m.members[roomID] {
		out = append(out, sid)
	}
	return out
}

func (m *Membership) RoomsOf(sid core.SessionID) []domain.RoomID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.RoomID, 0, len(m.rooms[sid]))
	for id := range m.rooms[sid] {
		out = append(out, id)
	}
	return out
}

// Clear drops every member of a destroyed room.
func (m *Membership) Clear(roomID domain.RoomID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for sid := range m.members[roomID] {
		m.forgetLocked(sid, roomID)
	}
	delete(m.members, roomID)
}

// Len counts (room, session) pairs.
func (m *Membership) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, set := range m.members {
		n += len(set)
	}
	return n
}
