package app

import (
	"fmt"
	"sync"

	"github.com/dkeye/Murmur/internal/core"
	"github.com/dkeye/Murmur/internal/domain"
	"github.com/rs/zerolog/log"
)

// Registry is the session registry: live connection -> logged-in user.
type Registry struct {
	mu    sync.RWMutex
	users map[core.SessionID]*domain.User
}

func NewRegistry() *Registry {
	return &Registry{
		users: make(map[core.SessionID]*domain.User),
	}
}

// Register logs a connection in. A second call for the same connection
// fails with domain.ErrAlreadyRegistered until Remove is called.
func (r *Registry) Register(sid core.SessionID, username string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[sid]; ok {
		return domain.User{}, fmt.Errorf("register %s: %w", sid, domain.ErrAlreadyRegistered)
	}
	u, err := domain.NewUser(username)
	if err != nil {
		return domain.User{}, err
	}
	r.users[sid] = u
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("user", string(u.ID)).Msg("registered session")
	return *u, nil
}

func (r *Registry) Lookup(sid core.SessionID) (domain.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if u, ok := r.users[sid]; ok {
		return *u, true
	}
	return domain.User{}, false
}

func (r *Registry) Remove(sid core.SessionID) (domain.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[sid]
	if !ok {
		return domain.User{}, false
	}
	delete(r.users, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("removed session")
	return *u, true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
