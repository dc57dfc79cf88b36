// Copyright (c) 2026 Seatmaster Team
// Seatmaster - restaurant table reservation tool
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"
	"fmt"
	"time"

	"github.com/toeirei/seatmaster/internal/logging"
)

// DefaultCleanupInterval is how often the reaper runs.
const DefaultCleanupInterval = 10 * time.Minute

// ReaperConfig tunes a Reaper. Zero values select defaults.
type ReaperConfig struct {
	Interval time.Duration
	// ExpiredOnly keeps unexpired reservations instead of clearing all.
	ExpiredOnly bool
	Clock       Clock
	// OnCleared runs after a pass that removed at least one reservation.
	OnCleared func(ctx context.Context)
}

// Reaper periodically clears reservations and frees their tables.
type Reaper struct {
	store       Store
	interval    time.Duration
	expiredOnly bool
	clock       Clock
	onCleared   func(ctx context.Context)
}

func NewReaper(store Store, cfg ReaperConfig) *Reaper {
	r := &Reaper{
		store:       store,
		interval:    cfg.Interval,
		expiredOnly: cfg.ExpiredOnly,
		clock:       clockOrSystem(cfg.Clock),
		onCleared:   cfg.OnCleared,
	}
	if r.interval <= 0 {
		r.interval = DefaultCleanupInterval
	}
	return r
}

// Interval returns the configured period.
func (r *Reaper) Interval() time.Duration { return r.interval }

// RunOnce performs a single cleanup pass and returns how many reservations
// were removed.
func (r *Reaper) RunOnce(ctx context.Context) (int, error) {
	var (
		n   int
		err error
	)
	if r.expiredOnly {
		n, err = r.store.ClearExpiredReservations(ctx, r.clock.Now())
	} else {
		n, err = r.store.ClearReservations(ctx)
	}
	if err != nil {
		return 0, fmt.Errorf("cleanup failed: %w", err)
	}
	if n == 0 {
		logging.L.Debug("cleanup found nothing to remove")
		return 0, nil
	}
	if err := r.store.LogAction(ctx, ActionCleanup, fmt.Sprintf("removed=%d expired_only=%t", n, r.expiredOnly)); err != nil {
		logging.Warnf("cleanup: failed to write audit entry: %v", err)
	}
	logging.L.Info("cleanup removed reservations", "count", n, "expired_only", r.expiredOnly)
	if r.onCleared != nil {
		r.onCleared(ctx)
	}
	return n, nil
}

// Run calls RunOnce every interval until ctx is cancelled. Failed passes are
// logged and do not stop the loop.
func (r *Reaper) Run(ctx context.Context) error {
	logging.L.Info("cleanup job started", "interval", r.interval, "expired_only", r.expiredOnly)
	err := RunEvery(ctx, r.interval, func(ctx context.Context) {
		if _, err := r.RunOnce(ctx); err != nil {
			logging.L.Error("cleanup pass failed", "err", err)
		}
	})
	logging.L.Info("cleanup job stopped")
	return err
}
