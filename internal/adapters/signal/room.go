package signal

import (
	"encoding/json"

	"github.com/dkeye/Murmur/internal/core"
	"github.com/dkeye/Murmur/internal/domain"
	"github.com/rs/zerolog/log"
)

type roomAck struct {
	Type    string       `json:"type"`
	Success bool         `json:"success"`
	Room    *domain.Room `json:"room,omitempty"`
	Error   *wireError   `json:"error,omitempty"`
}

func (ctl *SignalWSController) handleCreateRoom(sid core.SessionID) {
	room, err := ctl.Orch.CreateRoom(sid)
	if err != nil {
		log.Info().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("create room rejected")
		ctl.sendJSON(sid, roomAck{Type: "create_room", Error: toWireError(err)})
		return
	}
	ctl.sendJSON(sid, roomAck{Type: "create_room", Success: true, Room: &room})
}

func (ctl *SignalWSController) handleJoin(sid core.SessionID, data []byte) {
	type joinPayload struct {
		Type string `json:"type"`
		Code string `json:"code"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendJSON(sid, roomAck{Type: "join_room", Error: toWireError(errBadPayload)})
		return
	}
	if ctl.Limiter != nil && !ctl.Limiter.Allow(sid) {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("join rate limited")
		ctl.sendJSON(sid, roomAck{Type: "join_room", Error: toWireError(errRateLimited)})
		return
	}

	room, err := ctl.Orch.JoinRoom(sid, p.Code)
	if err != nil {
		log.Info().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("join rejected")
		ctl.sendJSON(sid, roomAck{Type: "join_room", Error: toWireError(err)})
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room_id", string(room.ID)).Msg("join")
	ctl.sendJSON(sid, roomAck{Type: "join_room", Success: true, Room: &room})
}

// handleLeave has no acknowledgement; the leaver learns the outcome from
// user_left or room_destroyed like everyone else.
func (ctl *SignalWSController) handleLeave(sid core.SessionID, data []byte) {
	type leavePayload struct {
		Type   string        `json:"type"`
		RoomID domain.RoomID `json:"roomId"`
	}
	var p leavePayload
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(sid, "leave_room", errBadPayload)
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room_id", string(p.RoomID)).Msg("leave")
	if err := ctl.Orch.LeaveRoom(sid, p.RoomID); err != nil {
		ctl.sendError(sid, "leave_room", err)
	}
}
