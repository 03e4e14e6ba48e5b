package orch

import (
	"fmt"

	"github.com/dkeye/Murmur/internal/core"
	"github.com/dkeye/Murmur/internal/domain"
	"github.com/rs/zerolog/log"
)

func (o *Orchestrator) Login(sid core.SessionID, username string) (domain.User, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.registry.Register(sid, username)
}

func (o *Orchestrator) sessionLocked(sid core.SessionID) (domain.User, error) {
	u, ok := o.registry.Lookup(sid)
	if !ok {
		return domain.User{}, fmt.Errorf("session %s: %w", sid, domain.ErrNotAuthenticated)
	}
	return u, nil
}

// WhoAmI reports the session's user and the rooms it is currently in.
func (o *Orchestrator) WhoAmI(sid core.SessionID) (domain.User, []domain.RoomID, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	u, err := o.sessionLocked(sid)
	if err != nil {
		return domain.User{}, nil, err
	}
	return u, o.members.RoomsOf(sid), nil
}

// OnDisconnect resolves everything the connection was part of: rooms it
// created are destroyed, rooms it merely joined are left.
func (o *Orchestrator) OnDisconnect(sid core.SessionID) {
	var out outbox
	defer o.flush(&out)
	o.mu.Lock()
	defer o.mu.Unlock()

	now := o.clock()
	for _, id := range o.rooms.CreatedBy(sid) {
		o.destroyLocked(&out, id, domain.ReasonCreatorDisconnected, now)
	}

	if u, ok := o.registry.Lookup(sid); ok {
		for _, id := range o.members.RoomsOf(sid) {
			o.members.Leave(id, sid)
			o.rooms.Touch(id, now)
			o.broadcastLocked(&out, id, core.UserLeftEvent(id, u), sid)
		}
		o.registry.Remove(sid)
	}
	o.relay.Detach(sid)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Msg("disconnected")
}
