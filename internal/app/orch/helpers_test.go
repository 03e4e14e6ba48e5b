package orch

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/Murmur/internal/app"
	"github.com/dkeye/Murmur/internal/core"
	"github.com/dkeye/Murmur/internal/domain"
	"github.com/stretchr/testify/require"
)

const idleTimeout = 10 * time.Minute

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var errFull = errors.New("send buffer full")

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	full   bool
	closed bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full {
		return errFull
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) setFull() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.full = true
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type wireEvent struct {
	Type     string         `json:"type"`
	RoomID   domain.RoomID  `json:"roomId"`
	UserID   domain.UserID  `json:"userId"`
	Username string         `json:"username"`
	Reason   string         `json:"reason"`
	Message  domain.Message `json:"message"`
}

func (c *fakeConn) events(t *testing.T, typ string) []wireEvent {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []wireEvent
	for _, f := range c.frames {
		var ev wireEvent
		require.NoError(t, json.Unmarshal(f, &ev))
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

func scripted(codes ...string) app.CodeGenerator {
	var mu sync.Mutex
	i := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		c := codes[i%len(codes)]
		i++
		return c
	}
}

func newTestOrch(t *testing.T, codes ...string) (*Orchestrator, *fakeClock) {
	t.Helper()
	gen := app.CodeGenerator(nil)
	if len(codes) > 0 {
		gen = scripted(codes...)
	} else {
		var err error
		gen, err = app.NewCodeGenerator(6)
		require.NoError(t, err)
	}
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	rooms := app.NewDirectory(gen, app.DirectoryConfig{CodeAttempts: 8, CodeRetention: time.Hour})
	o := NewOrchestrator(
		app.NewRegistry(),
		rooms,
		app.NewMembership(rooms),
		app.NewRelay(app.SimplePolicy{}),
		idleTimeout,
		time.Minute,
		clock.Now,
	)
	return o, clock
}

// connect attaches a fake connection and logs it in.
func connect(t *testing.T, o *Orchestrator, sid core.SessionID, name string) (*fakeConn, domain.User) {
	t.Helper()
	c := &fakeConn{}
	o.Connect(sid, c)
	u, err := o.Login(sid, name)
	require.NoError(t, err)
	return c, u
}
