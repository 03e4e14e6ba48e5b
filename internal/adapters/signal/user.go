package signal

import (
	"encoding/json"

	"github.com/dkeye/Murmur/internal/core"
	"github.com/dkeye/Murmur/internal/domain"
	"github.com/rs/zerolog/log"
)

type loginAck struct {
	Type    string       `json:"type"`
	Success bool         `json:"success"`
	User    *domain.User `json:"user,omitempty"`
	Error   *wireError   `json:"error,omitempty"`
}

func (ctl *SignalWSController) handleLogin(sid core.SessionID, data []byte) {
	type loginPayload struct {
		Type        string `json:"type"`
		DisplayName string `json:"displayName"`
	}
	var p loginPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad login payload")
		ctl.sendJSON(sid, loginAck{Type: "login", Error: toWireError(errBadPayload)})
		return
	}

	user, err := ctl.Orch.Login(sid, p.DisplayName)
	if err != nil {
		log.Info().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("login rejected")
		ctl.sendJSON(sid, loginAck{Type: "login", Error: toWireError(err)})
		return
	}
	ctl.sendJSON(sid, loginAck{Type: "login", Success: true, User: &user})
}

func (ctl *SignalWSController) handleWhoAmI(sid core.SessionID) {
	user, rooms, err := ctl.Orch.WhoAmI(sid)
	if err != nil {
		ctl.sendError(sid, "whoami", err)
		return
	}
	resp := struct {
		Type  string          `json:"type"`
		User  domain.User     `json:"user"`
		Rooms []domain.RoomID `json:"rooms"`
	}{
		Type:  "whoami",
		User:  user,
		Rooms: rooms,
	}
	ctl.sendJSON(sid, resp)
}
