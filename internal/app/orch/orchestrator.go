// Package orch is the room lifecycle controller. Every transition runs
// under one lock over the registry, directory and membership; resulting
// notifications are fanned out after the lock is released.
package orch

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/dkeye/Murmur/internal/app"
	"github.com/dkeye/Murmur/internal/core"
	"github.com/dkeye/Murmur/internal/domain"
)

// Orchestrator owns the registry, directory, membership and relay. They are
// reachable only through its transitions so every change runs under mu.
type Orchestrator struct {
	registry *app.Registry
	rooms    *app.Directory
	members  *app.Membership
	relay    *app.Relay

	idleTimeout   time.Duration
	sweepInterval time.Duration
	// now is the clock; nil means time.Now.
	now func() time.Time

	mu sync.Mutex
	// dropped counts frames lost to full send buffers.
	dropped atomic.Int64
}

func NewOrchestrator(
	registry *app.Registry,
	rooms *app.Directory,
	members *app.Membership,
	relay *app.Relay,
	idleTimeout, sweepInterval time.Duration,
	now func() time.Time,
) *Orchestrator {
	return &Orchestrator{
		registry:      registry,
		rooms:         rooms,
		members:       members,
		relay:         relay,
		idleTimeout:   idleTimeout,
		sweepInterval: sweepInterval,
		now:           now,
	}
}

type Stats struct {
	Rooms       int `json:"rooms"`
	Sessions    int `json:"sessions"`
	Memberships int `json:"memberships"`
	Connections int `json:"connections"`
	// DroppedFrames is cumulative since start.
	DroppedFrames int64 `json:"droppedFrames"`
}

func (o *Orchestrator) clock() time.Time {
	if o.now != nil {
		return o.now()
	}
	return time.Now()
}

// Connect makes a fresh connection addressable before any of its events
// are handled.
func (o *Orchestrator) Connect(sid core.SessionID, conn core.SignalConnection) {
	o.relay.Attach(sid, conn)
}

// SendTo acknowledges directly to one connection.
func (o *Orchestrator) SendTo(sid core.SessionID, v any) error {
	return o.relay.SendTo(sid, v)
}

// Room returns a snapshot of the room record.
func (o *Orchestrator) Room(id domain.RoomID) (domain.Room, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.rooms.Get(id)
}

// MembersOf returns a snapshot of the sessions in the room.
func (o *Orchestrator) MembersOf(id domain.RoomID) []core.SessionID {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.members.MembersOf(id)
}

func (o *Orchestrator) Stats() Stats {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Stats{
		Rooms:       o.rooms.Len(),
		Sessions:    o.registry.Len(),
		Memberships: o.members.Len(),
		Connections: o.relay.Len(),

		DroppedFrames: o.dropped.Load(),
	}
}
