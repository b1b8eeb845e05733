package cycle

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// RetentionHorizon is how long screens are kept, generated or not.
const RetentionHorizon = 24 * time.Hour

// RunRetention sweeps old screens on the given interval until ctx is
// cancelled. Ungenerated leftovers from failed cycles go with them.
func (r *Runner) RunRetention(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.sweep()
		case <-ctx.Done():
			return
		}
	}
}

func (r *Runner) sweep() {
	cutoff := r.now().Add(-RetentionHorizon)
	deleted, err := r.store.DeleteScreensOlderThan(cutoff)
	if err != nil {
		log.Error().Err(err).Msg("[cycle] screen retention sweep failed")
		return
	}
	if deleted > 0 {
		log.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("deleted expired screens")
	}
}
