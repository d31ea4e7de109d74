package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type fakePurger struct {
	cutoffs []time.Time
	deleted int64
	err     error
}

func (f *fakePurger) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.deleted, f.err
}

func TestMessageCleanupWorker_RunOnceUsesRetention(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	store := &fakePurger{deleted: 4}
	w := NewMessageCleanupWorker(store, 24*time.Hour, zerolog.Nop())
	w.now = func() time.Time { return now }

	assert.EqualValues(t, 4, w.runOnce(context.Background()))
	assert.Equal(t, []time.Time{now.Add(-24 * time.Hour)}, store.cutoffs)

	store.err = errors.New("db down")
	assert.Zero(t, w.runOnce(context.Background()))
}

func TestMessageCleanupWorker_StartStopsOnCancel(t *testing.T) {
	store := &fakePurger{}
	w := NewMessageCleanupWorker(store, time.Hour, zerolog.Nop())
	w.interval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
	assert.GreaterOrEqual(t, len(store.cutoffs), 2)
}
