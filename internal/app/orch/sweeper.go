package orch

import (
	"context"
	"time"

	"github.com/dkeye/Murmur/internal/domain"
	"github.com/rs/zerolog/log"
)

// Sweep destroys every room idle for longer than the idle timeout as of now and
// returns how many it destroyed.
func (o *Orchestrator) Sweep(now time.Time) int {
	var out outbox
	defer o.flush(&out)
	o.mu.Lock()
	defer o.mu.Unlock()

	n := 0
	for _, id := range o.rooms.Expired(now, o.idleTimeout) {
		if o.destroyLocked(&out, id, domain.ReasonExpired, now) {
			n++
		}
	}
	if released := o.rooms.PruneRetired(now); released > 0 {
		log.Debug().Str("module", "orch.sweeper").Int("released", released).Msg("released retired codes")
	}
	return n
}

// RunSweeper ticks every sweep interval until ctx is done.
func (o *Orchestrator) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(o.sweepInterval)
	defer ticker.Stop()
	log.Info().Str("module", "orch.sweeper").Dur("interval", o.sweepInterval).Dur("idle_timeout", o.idleTimeout).Msg("sweeper started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "orch.sweeper").Msg("sweeper stopped")
			return
		case <-ticker.C:
			if n := o.Sweep(o.clock()); n > 0 {
				log.Info().Str("module", "orch.sweeper").Int("destroyed", n).Msg("idle rooms reclaimed")
			}
		}
	}
}
