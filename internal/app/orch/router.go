package orch

import (
	"github.com/dkeye/Murmur/internal/core"
	"github.com/dkeye/Murmur/internal/domain"
	"github.com/rs/zerolog/log"
)

type delivery struct {
	to    []core.SessionID
	event any
}

// outbox collects notifications while the state lock is held.
type outbox struct {
	items []delivery
}

func (b *outbox) add(to []core.SessionID, event any) {
	if len(to) == 0 {
		return
	}
	b.items = append(b.items, delivery{to: to, event: event})
}

func (o *Orchestrator) flush(b *outbox) {
	for _, d := range b.items {
		res := o.relay.Deliver(d.to, d.event)
		if n := len(res.Dropped); n > 0 {
			o.dropped.Add(int64(n))
			log.Warn().Str("module", "orch").Int("dropped", n).Int("sent_to", res.SendTo).Msg("notification not delivered to every member")
		}
	}
}

// recipientsLocked snapshots the room's members that still hold a session.
func (o *Orchestrator) recipientsLocked(roomID domain.RoomID, exclude core.SessionID) []core.SessionID {
	members := o.members.MembersOf(roomID)
	out := members[:0]
	for _, sid := range members {
		if sid == exclude {
			continue
		}
		if _, ok := o.registry.Lookup(sid); !ok {
			continue
		}
		out = append(out, sid)
	}
	return out
}

func (o *Orchestrator) broadcastLocked(b *outbox, roomID domain.RoomID, event any, exclude core.SessionID) {
	b.add(o.recipientsLocked(roomID, exclude), event)
}
