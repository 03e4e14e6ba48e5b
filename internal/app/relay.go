package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dkeye/Murmur/internal/core"
	"github.com/rs/zerolog/log"
)

var ErrNotConnected = errors.New("not connected")

// PublishResult reports how one fan-out went: how many connections took the
// frame and which ones were full.
type PublishResult struct {
	SendTo  int
	Dropped []core.SessionID
}

// Relay holds the per-connection send primitive of every live connection
// and fans encoded events out to them. It never blocks on the network.
type Relay struct {
	mu     sync.RWMutex
	conns  map[core.SessionID]core.SignalConnection
	policy Policy
}

func NewRelay(policy Policy) *Relay {
	return &Relay{
		conns:  make(map[core.SessionID]core.SignalConnection),
		policy: policy,
	}
}

func (r *Relay) Attach(sid core.SessionID, conn core.SignalConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[sid] = conn
	log.Debug().Str("module", "app.relay").Str("sid", string(sid)).Msg("attached connection")
}

func (r *Relay) Detach(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, sid)
	log.Debug().Str("module", "app.relay").Str("sid", string(sid)).Msg("detached connection")
}

func (r *Relay) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// SendTo delivers v to exactly one connection.
func (r *Relay) SendTo(sid core.SessionID, v any) error {
	frame, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	r.mu.RLock()
	conn, ok := r.conns[sid]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("send to %s: %w", sid, ErrNotConnected)
	}
	if err := conn.TrySend(frame); err != nil {
		r.onDropped(sid, conn, err)
		return err
	}
	return nil
}

// Deliver encodes v once and enqueues it for every recipient. Recipients
// without a live connection are skipped silently.
func (r *Relay) Deliver(to []core.SessionID, v any) PublishResult {
	res := PublishResult{}
	if len(to) == 0 {
		return res
	}
	frame, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.relay").Msg("encode event")
		return res
	}

	type target struct {
		sid  core.SessionID
		conn core.SignalConnection
	}
	targets := make([]target, 0, len(to))
	r.mu.RLock()
	for _, sid := range to {
		if conn, ok := r.conns[sid]; ok {
			targets = append(targets, target{sid, conn})
		}
	}
	r.mu.RUnlock()

	for _, t := range targets {
		if err := t.conn.TrySend(frame); err != nil {
			res.Dropped = append(res.Dropped, t.sid)
			r.onDropped(t.sid, t.conn, err)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "app.relay").Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

func (r *Relay) onDropped(sid core.SessionID, conn core.SignalConnection, cause error) {
	if r.policy == nil {
		return
	}
	switch r.policy.OnBackPressure(sid) {
	case KickMember:
		log.Warn().Err(cause).Str("module", "app.relay").Str("sid", string(sid)).Msg("kicking slow connection")
		conn.Close()
	case DropFrame:
	}
}
