// Copyright (c) 2026 Seatmaster Team
// Seatmaster - restaurant table reservation tool
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/toeirei/seatmaster/internal/db"
	"github.com/toeirei/seatmaster/internal/logging"
	"github.com/toeirei/seatmaster/internal/model"
	"golang.org/x/sync/singleflight"
)

// ErrNoRemote is returned by Refresh when the repository has no remote source.
var ErrNoRemote = errors.New("no remote source configured")

// refreshTimeout bounds one shared refresh, since it outlives the caller
// that started it.
const refreshTimeout = 2 * time.Minute

// Repository reconciles the remote source with the local store and publishes
// the result as a stream of ViewState values.
type Repository struct {
	store  Store
	remote RemoteSource
	clock  Clock
	group  singleflight.Group

	mu      sync.Mutex
	current ViewState
	subs    map[int]chan ViewState
	nextSub int
}

// NewRepository returns a repository over store and remote. remote may be nil
// for offline use, in which case only ReloadLocal is meaningful. A nil clock
// selects the system clock.
func NewRepository(store Store, remote RemoteSource, clock Clock) *Repository {
	return &Repository{
		store:   store,
		remote:  remote,
		clock:   clockOrSystem(clock),
		current: ViewState{Status: StatusLoading, Source: SourceLocal},
		subs:    make(map[int]chan ViewState),
	}
}

// Current returns the most recently published state.
func (r *Repository) Current() ViewState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Subscribe returns a channel that first yields the current state and then
// every later one. A slow reader only sees the newest state. The channel is
// closed once ctx is done.
func (r *Repository) Subscribe(ctx context.Context) <-chan ViewState {
	ch := make(chan ViewState, 1)

	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = ch
	ch <- r.current
	r.mu.Unlock()

	go func() {
		<-ctx.Done()
		r.mu.Lock()
		delete(r.subs, id)
		close(ch)
		r.mu.Unlock()
	}()
	return ch
}

func (r *Repository) publish(s ViewState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = s
	for _, ch := range r.subs {
		// Only publish sends on ch and it holds mu, so after draining the
		// stale value the send cannot block.
		select {
		case ch <- s:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- s
		}
	}
}

type localSnapshot struct {
	customers    []model.Customer
	tables       []model.Table
	reservations []model.Reservation
}

func (r *Repository) loadLocal(ctx context.Context) (localSnapshot, error) {
	var snap localSnapshot
	var err error
	if snap.customers, err = r.store.ListCustomers(ctx); err != nil {
		return snap, fmt.Errorf("failed to load customers: %w", err)
	}
	if snap.tables, err = r.store.ListTables(ctx); err != nil {
		return snap, fmt.Errorf("failed to load tables: %w", err)
	}
	if snap.reservations, err = r.store.ListReservations(ctx); err != nil {
		return snap, fmt.Errorf("failed to load reservations: %w", err)
	}
	return snap, nil
}

func (r *Repository) state(status Status, source Source, snap localSnapshot, err error) ViewState {
	return ViewState{
		Status:       status,
		Source:       source,
		Customers:    snap.customers,
		Tables:       snap.tables,
		Reservations: snap.reservations,
		Err:          err,
		UpdatedAt:    r.clock.Now(),
	}
}

// ReloadLocal publishes a Ready state built from the store alone.
func (r *Repository) ReloadLocal(ctx context.Context) (ViewState, error) {
	snap, err := r.loadLocal(ctx)
	if err != nil {
		s := r.state(StatusError, SourceLocal, localSnapshot{}, err)
		r.publish(s)
		return s, err
	}
	s := r.state(StatusReady, SourceLocal, snap, nil)
	r.publish(s)
	return s, nil
}

// Refresh fetches the remote snapshot, merges it into the store and publishes
// the result. While the fetch runs a Loading state with the local data is
// published. On a remote failure an Error state carrying the local data is
// published and the error returned. Concurrent calls share one fetch.
func (r *Repository) Refresh(ctx context.Context) (ViewState, error) {
	ch := r.group.DoChan("refresh", func() (any, error) {
		// Callers join this fetch, so one of them going away must not fail
		// the others.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return r.refresh(ctx)
	})
	select {
	case res := <-ch:
		if res.Shared {
			logging.L.Debug("refresh joined an in-flight fetch")
		}
		return res.Val.(ViewState), res.Err
	case <-ctx.Done():
		return r.Current(), ctx.Err()
	}
}

func (r *Repository) refresh(ctx context.Context) (ViewState, error) {
	local, err := r.loadLocal(ctx)
	if err != nil {
		s := r.state(StatusError, SourceLocal, localSnapshot{}, err)
		r.publish(s)
		return s, err
	}
	r.publish(r.state(StatusLoading, SourceLocal, local, nil))

	if r.remote == nil {
		s := r.state(StatusError, SourceLocal, local, ErrNoRemote)
		r.publish(s)
		return s, ErrNoRemote
	}

	snap, err := r.remote.Snapshot(ctx)
	if err != nil {
		logging.L.Warn("remote refresh failed, keeping local data", "err", err)
		s := r.state(StatusError, SourceLocal, local, err)
		r.publish(s)
		return s, fmt.Errorf("remote refresh: %w", err)
	}

	if err := r.persist(ctx, local, snap.Customers, snap.Tables); err != nil {
		s := r.state(StatusError, SourceLocal, local, err)
		r.publish(s)
		return s, err
	}

	merged, err := r.loadLocal(ctx)
	if err != nil {
		s := r.state(StatusError, SourceLocal, local, err)
		r.publish(s)
		return s, err
	}
	s := r.state(StatusReady, SourceRemote, merged, nil)
	r.publish(s)
	logging.L.Info("refreshed from remote", "customers", len(merged.customers), "tables", len(merged.tables), "reservations", len(merged.reservations))
	return s, nil
}

// persist writes the merged remote data in one transaction. Tables held by
// an unexpired local reservation stay unavailable whatever the remote says.
// Reservations are read after the upsert so one committed meanwhile is still
// honoured.
func (r *Repository) persist(ctx context.Context, local localSnapshot, customers []model.Customer, tables []model.Table) error {
	return r.store.InTx(ctx, func(ctx context.Context, tx db.Tx) error {
		if err := tx.ReplaceCustomers(ctx, MergeCustomers(local.customers, customers, true)); err != nil {
			return fmt.Errorf("failed to store customers: %w", err)
		}
		merged := MergeTables(local.tables, tables)
		if err := tx.SaveTables(ctx, merged); err != nil {
			return fmt.Errorf("failed to store tables: %w", err)
		}
		reservations, err := tx.ListReservations(ctx)
		if err != nil {
			return fmt.Errorf("failed to load reservations: %w", err)
		}
		for i, t := range OverlayReservations(merged, reservations, r.clock.Now()) {
			if merged[i].Available && !t.Available {
				if err := tx.SetTableAvailable(ctx, t.Number, false); err != nil {
					return fmt.Errorf("failed to hold table %d: %w", t.Number, err)
				}
			}
		}
		return nil
	})
}
