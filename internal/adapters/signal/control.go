package signal

import "github.com/dkeye/Murmur/internal/core"

func (ctl *SignalWSController) handlePing(sid core.SessionID) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	ctl.sendJSON(sid, resp)
}
