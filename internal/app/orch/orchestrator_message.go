package orch

import (
	"fmt"

	"github.com/dkeye/Murmur/internal/core"
	"github.com/dkeye/Murmur/internal/domain"
	"github.com/google/uuid"
)

// SendMessage relays draft to every member of draft.RoomID, the sender
// included. Identity and timestamps are set here, never taken from the
// client.
func (o *Orchestrator) SendMessage(sid core.SessionID, draft domain.Message) (domain.Message, error) {
	var out outbox
	defer o.flush(&out)
	o.mu.Lock()
	defer o.mu.Unlock()

	u, err := o.sessionLocked(sid)
	if err != nil {
		return domain.Message{}, err
	}
	kind, err := domain.ParseKind(string(draft.Kind))
	if err != nil {
		return domain.Message{}, err
	}
	if len(draft.Payload) == 0 || draft.TTL < 0 {
		return domain.Message{}, domain.ErrInvalidMessage
	}
	draft.Kind = kind
	if !o.rooms.Exists(draft.RoomID) {
		return domain.Message{}, fmt.Errorf("send to %s: %w", draft.RoomID, domain.ErrRoomNotFound)
	}
	if !o.members.IsMember(draft.RoomID, sid) {
		return domain.Message{}, fmt.Errorf("send to %s: %w", draft.RoomID, domain.ErrNotAMember)
	}
	now := o.clock()
	o.rooms.Touch(draft.RoomID, now)

	msg := draft
	msg.ID = domain.MessageID(uuid.NewString())
	msg.SenderID = u.ID
	msg.SenderName = u.Username
	msg.SentAt = now
	o.broadcastLocked(&out, msg.RoomID, core.NewMessageEvent(msg), "")
	return msg, nil
}
