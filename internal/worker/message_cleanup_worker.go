package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// CleanupInterval is how often expired family messages are purged.
const CleanupInterval = time.Hour

// MessagePurger deletes messages created before a cutoff.
type MessagePurger interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// MessageCleanupWorker enforces the family message retention period.
type MessageCleanupWorker struct {
	store     MessagePurger
	retention time.Duration
	interval  time.Duration
	log       zerolog.Logger
	now       func() time.Time
}

// NewMessageCleanupWorker creates a new MessageCleanupWorker.
func NewMessageCleanupWorker(store MessagePurger, retention time.Duration, log zerolog.Logger) *MessageCleanupWorker {
	return &MessageCleanupWorker{
		store:     store,
		retention: retention,
		interval:  CleanupInterval,
		log:       log.With().Str("component", "message_cleanup_worker").Logger(),
		now:       time.Now,
	}
}

// Start purges once immediately, then on every tick until ctx is cancelled.
func (w *MessageCleanupWorker) Start(ctx context.Context) {
	w.log.Info().Dur("retention", w.retention).Msg("MessageCleanupWorker started")

	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("MessageCleanupWorker stopped")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

// runOnce deletes everything older than the retention period.
func (w *MessageCleanupWorker) runOnce(ctx context.Context) int64 {
	cutoff := w.now().Add(-w.retention)
	n, err := w.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Error().Err(err).Msg("Message cleanup failed")
		}
		return 0
	}
	if n > 0 {
		w.log.Info().Int64("deleted", n).Time("cutoff", cutoff).Msg("Expired family messages purged")
	}
	return n
}
