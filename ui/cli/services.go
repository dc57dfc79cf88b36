// Copyright (c) 2026 Seatmaster Team
// Seatmaster - restaurant table reservation tool
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"context"

	"github.com/toeirei/seatmaster/internal/config"
	"github.com/toeirei/seatmaster/internal/core"
	"github.com/toeirei/seatmaster/internal/db"
	"github.com/toeirei/seatmaster/internal/logging"
	"github.com/toeirei/seatmaster/internal/remote"
)

// services bundles everything a command needs. It is built once per
// invocation by setupDefaultServices.
type services struct {
	store    db.Store
	remote   *remote.Client
	repo     *core.Repository
	reserver *core.ReservationService
	reaper   *core.Reaper
}

var svc *services

func newServices(cfg config.Config, st db.Store) *services {
	client := remote.New(cfg.Remote.BaseURL,
		remote.WithTimeout(cfg.Remote.Timeout),
		remote.WithPaths(cfg.Remote.CustomersPath, cfg.Remote.TablesPath),
		remote.WithRetry(cfg.Remote.MaxAttempts, cfg.Remote.Backoff),
	)
	repo := core.NewRepository(st, client, core.SystemClock())
	reload := func(ctx context.Context) {
		if _, err := repo.ReloadLocal(ctx); err != nil {
			logging.Warnf("reload after change failed: %v", err)
		}
	}
	return &services{
		store:  st,
		remote: client,
		repo:   repo,
		reserver: core.NewReservationService(st, core.ReservationConfig{
			TTL:      cfg.Reservation.TTL,
			OnChange: reload,
		}),
		reaper: core.NewReaper(st, core.ReaperConfig{
			Interval:    cfg.Cleanup.Interval,
			ExpiredOnly: cfg.Cleanup.ExpiredOnly,
			OnCleared:   reload,
		}),
	}
}

// refreshOrLocal pulls the remote data unless offline is set. A failed fetch
// is logged and the cached data is returned instead.
func (s *services) refreshOrLocal(ctx context.Context, offline bool) (core.ViewState, error) {
	if offline {
		return s.repo.ReloadLocal(ctx)
	}
	state, err := s.repo.Refresh(ctx)
	if err != nil {
		logging.L.Warn("remote unavailable, using cached data", "err", err)
		return s.repo.ReloadLocal(ctx)
	}
	return state, nil
}
