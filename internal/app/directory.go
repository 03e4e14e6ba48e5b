package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/dkeye/Murmur/internal/core"
	"github.com/dkeye/Murmur/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type roomEntry struct {
	room    domain.Room
	creator core.SessionID
}

// Directory owns room records and the code -> id index. Both maps are
// only ever changed together under mu.
type Directory struct {
	mu      sync.RWMutex
	rooms   map[domain.RoomID]*roomEntry
	byCode  map[domain.JoinCode]domain.RoomID
	retired map[domain.JoinCode]time.Time

	gen       CodeGenerator
	attempts  int
	retention time.Duration
}

type DirectoryConfig struct {
	// CodeAttempts bounds the collision retry loop in Create.
	CodeAttempts int
	// CodeRetention keeps codes of destroyed rooms out of circulation.
	CodeRetention time.Duration
}

func NewDirectory(gen CodeGenerator, cfg DirectoryConfig) *Directory {
	if cfg.CodeAttempts <= 0 {
		cfg.CodeAttempts = 1
	}
	return &Directory{
		rooms:     make(map[domain.RoomID]*roomEntry),
		byCode:    make(map[domain.JoinCode]domain.RoomID),
		retired:   make(map[domain.JoinCode]time.Time),
		gen:       gen,
		attempts:  cfg.CodeAttempts,
		retention: cfg.CodeRetention,
	}
}

// Create registers a room owned by creator with a code that is neither in
// use nor retired. The new room counts its creator as the only participant.
func (d *Directory) Create(creator core.SessionID, creatorID domain.UserID, now time.Time) (domain.Room, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	code, err := d.freshCodeLocked(now)
	if err != nil {
		return domain.Room{}, err
	}
	e := &roomEntry{
		room: domain.Room{
			ID:               domain.RoomID(uuid.NewString()),
			Code:             code,
			CreatorID:        creatorID,
			ParticipantCount: 1,
			CreatedAt:        now,
			LastActivity:     now,
		},
		creator: creator,
	}
	d.rooms[e.room.ID] = e
	d.byCode[code] = e.room.ID
	log.Info().Str("module", "app.directory").Str("room_id", string(e.room.ID)).Str("code", string(code)).Msg("room created")
	return e.room, nil
}

func (d *Directory) freshCodeLocked(now time.Time) (domain.JoinCode, error) {
	for i := 0; i < d.attempts; i++ {
		code := domain.NormalizeCode(d.gen())
		if _, taken := d.byCode[code]; taken {
			continue
		}
		if until, ok := d.retired[code]; ok && now.Before(until) {
			continue
		}
		delete(d.retired, code)
		return code, nil
	}
	log.Error().Str("module", "app.directory").Int("attempts", d.attempts).Msg("no free join code")
	return "", fmt.Errorf("after %d attempts: %w", d.attempts, domain.ErrCodeSpaceExhausted)
}

func (d *Directory) Get(id domain.RoomID) (domain.Room, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if e, ok := d.rooms[id]; ok {
		return e.room, true
	}
	return domain.Room{}, false
}

func (d *Directory) Exists(id domain.RoomID) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.rooms[id]
	return ok
}

// FindByCode resolves a user-entered code, normalizing case and spaces.
func (d *Directory) FindByCode(raw string) (domain.Room, bool) {
	code := domain.NormalizeCode(raw)
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.byCode[code]
	if !ok {
		return domain.Room{}, false
	}
	e, ok := d.rooms[id]
	if !ok {
		return domain.Room{}, false
	}
	return e.room, true
}

// CreatorOf returns the session that created the room.
func (d *Directory) CreatorOf(id domain.RoomID) (core.SessionID, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if e, ok := d.rooms[id]; ok {
		return e.creator, true
	}
	return "", false
}

// CreatedBy lists rooms whose creator is sid.
func (d *Directory) CreatedBy(sid core.SessionID) []domain.RoomID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []domain.RoomID
	for id, e := range d.rooms {
		if e.creator == sid {
			out = append(out, id)
		}
	}
	return out
}

func (d *Directory) Touch(id domain.RoomID, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.rooms[id]
	if !ok {
		return false
	}
	e.room.LastActivity = now
	return true
}

func (d *Directory) setParticipantCount(id domain.RoomID, n int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.rooms[id]
	if !ok {
		return false
	}
	e.room.ParticipantCount = n
	return true
}

// Destroy removes the room and its code in one step. Only the first call
// for a given id reports ok.
func (d *Directory) Destroy(id domain.RoomID, now time.Time) (domain.Room, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.rooms[id]
	if !ok {
		return domain.Room{}, false
	}
	delete(d.rooms, id)
	delete(d.byCode, e.room.Code)
	if d.retention > 0 {
		d.retired[e.room.Code] = now.Add(d.retention)
	}
	log.Info().Str("module", "app.directory").Str("room_id", string(id)).Str("code", string(e.room.Code)).Msg("room destroyed")
	return e.room, true
}

// Expired lists rooms idle for longer than timeout.
func (d *Directory) Expired(now time.Time, timeout time.Duration) []domain.RoomID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []domain.RoomID
	for id, e := range d.rooms {
		if e.room.IdleFor(now, timeout) {
			out = append(out, id)
		}
	}
	return out
}

// PruneRetired releases retired codes whose retention has passed.
func (d *Directory) PruneRetired(now time.Time) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for code, until := range d.retired {
		if !now.Before(until) {
			delete(d.retired, code)
			n++
		}
	}
	return n
}

func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.rooms)
}
