package signal

import (
	"encoding/json"

	"github.com/dkeye/Murmur/internal/core"
	"github.com/dkeye/Murmur/internal/domain"
)

// handleSendMessage is fire-and-forget: success shows up as the sender's
// own new_message echo, failure as an error event.
func (ctl *SignalWSController) handleSendMessage(sid core.SessionID, data []byte) {
	type sendPayload struct {
		Type    string          `json:"type"`
		RoomID  domain.RoomID   `json:"roomId"`
		Payload json.RawMessage `json:"payload"`
		TTL     int             `json:"ttl"`
		Kind    string          `json:"kind"`
	}
	var p sendPayload
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(sid, "send_message", errBadPayload)
		return
	}
	if string(p.Payload) == "null" {
		p.Payload = nil
	}

	_, err := ctl.Orch.SendMessage(sid, domain.Message{
		RoomID:  p.RoomID,
		Payload: p.Payload,
		TTL:     p.TTL,
		Kind:    domain.MessageKind(p.Kind),
	})
	if err != nil {
		ctl.sendError(sid, "send_message", err)
	}
}
