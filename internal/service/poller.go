package service

import (
	"context"
	"time"

	"github.com/stemsi/schoolhub-backend/internal/model"
)

// Changed reports whether a new message snapshot differs from the previous
// one: a different length or a different last message id.
func Changed(prev, next []model.FamilyMessage) bool {
	if len(prev) != len(next) {
		return true
	}
	if len(next) == 0 {
		return false
	}
	return prev[len(prev)-1].ID != next[len(next)-1].ID
}

// FetchFunc loads the current message snapshot.
type FetchFunc func(ctx context.Context) ([]model.FamilyMessage, error)

// Poller re-fetches a conversation on a fixed interval, or immediately when
// triggered, and emits the snapshot only when it changed.
type Poller struct {
	interval time.Duration
	fetch    FetchFunc
	trigger  <-chan struct{}
}

// NewPoller creates a Poller. trigger may be nil.
func NewPoller(interval time.Duration, fetch FetchFunc, trigger <-chan struct{}) *Poller {
	return &Poller{interval: interval, fetch: fetch, trigger: trigger}
}

// Run polls until ctx is done or emit/fetch fails. The first snapshot is
// always emitted.
func (p *Poller) Run(ctx context.Context, emit func([]model.FamilyMessage) error) error {
	var prev []model.FamilyMessage
	first := true

	poll := func() error {
		next, err := p.fetch(ctx)
		if err != nil {
			return err
		}
		if !first && !Changed(prev, next) {
			return nil
		}
		first = false
		prev = next
		return emit(next)
	}

	if err := poll(); err != nil {
		return err
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	trigger := p.trigger
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case _, ok := <-trigger:
			if !ok {
				trigger = nil
				continue
			}
		}
		if err := poll(); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}
