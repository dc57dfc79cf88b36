// Copyright (c) 2026 Seatmaster Team
// Seatmaster - restaurant table reservation tool
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/toeirei/seatmaster/internal/model"
	"github.com/toeirei/seatmaster/internal/remote"
)

func TestRefresh_MergesAndPublishes(t *testing.T) {
	store := newFakeStore()
	store.seed([]model.Customer{{ID: 9, FirstName: "Stale"}}, []model.Table{{Number: 0, Available: true}, {Number: 5, Available: true}})
	rem := &fakeRemote{snap: remote.Snapshot{
		Customers: []model.Customer{{ID: 1, FirstName: "Marilyn", LastName: "Monroe"}},
		Tables:    []model.Table{{Number: 0, Available: false}, {Number: 1, Available: true}},
	}}
	repo := NewRepository(store, rem, newFakeClock())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := repo.Subscribe(ctx)
	if first := <-sub; first.Status != StatusLoading {
		t.Fatalf("expected initial loading state, got %v", first.Status)
	}

	s, err := repo.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if s.Status != StatusReady || s.Source != SourceRemote {
		t.Fatalf("unexpected state: %v/%v", s.Status, s.Source)
	}
	if len(s.Customers) != 1 || s.Customers[0].ID != 1 {
		t.Fatalf("expected remote customers to overwrite local, got %#v", s.Customers)
	}
	if len(s.Tables) != 3 {
		t.Fatalf("expected table set to never shrink, got %#v", s.Tables)
	}
	if s.Tables[0].Available || !s.Tables[1].Available || !s.Tables[2].Available {
		t.Fatalf("unexpected availability: %#v", s.Tables)
	}

	// The subscriber sees the latest state.
	if latest := <-sub; latest.Status != StatusReady {
		t.Fatalf("expected subscriber to see ready, got %v", latest.Status)
	}
	if got := repo.Current(); got.Status != StatusReady {
		t.Fatalf("Current: %v", got.Status)
	}
}

func TestRefresh_RemoteFailureKeepsLocal(t *testing.T) {
	store := newFakeStore()
	store.seed([]model.Customer{{ID: 1, FirstName: "Local"}}, []model.Table{{Number: 0, Available: true}})
	boom := errors.New("network down")
	repo := NewRepository(store, &fakeRemote{err: boom}, newFakeClock())

	s, err := repo.Refresh(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected remote error, got %v", err)
	}
	if s.Status != StatusError || !errors.Is(s.Err, boom) {
		t.Fatalf("expected error state, got %#v", s)
	}
	if len(s.Customers) != 1 || len(s.Tables) != 1 {
		t.Fatalf("expected local data in error state, got %#v", s)
	}
	customers, _ := store.ListCustomers(context.Background())
	if len(customers) != 1 || customers[0].FirstName != "Local" {
		t.Fatalf("local customers changed on failure: %#v", customers)
	}
}

func TestRefresh_ReservationHoldsTable(t *testing.T) {
	clock := newFakeClock()
	store := newFakeStore()
	store.seed([]model.Customer{{ID: 1}}, []model.Table{{Number: 0, Available: false}})
	store.data.reservations["r"] = model.Reservation{ID: "r", CustomerID: 1, TableNumber: 0, ExpiresAt: clock.Now().Add(time.Minute)}
	rem := &fakeRemote{snap: remote.Snapshot{Customers: []model.Customer{{ID: 1}}, Tables: []model.Table{{Number: 0, Available: true}}}}
	repo := NewRepository(store, rem, clock)

	s, err := repo.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if s.Tables[0].Available {
		t.Fatalf("remote must not release a table held by an active reservation")
	}
}

func TestRefresh_PersistFailure(t *testing.T) {
	store := newFakeStore()
	store.saveErr = errors.New("disk full")
	rem := &fakeRemote{snap: remote.Snapshot{Customers: []model.Customer{{ID: 1}}}}
	repo := NewRepository(store, rem, nil)
	s, err := repo.Refresh(context.Background())
	if err == nil || s.Status != StatusError {
		t.Fatalf("expected error state, got %v %v", s.Status, err)
	}
}

func TestRefresh_NoRemote(t *testing.T) {
	repo := NewRepository(newFakeStore(), nil, nil)
	if _, err := repo.Refresh(context.Background()); !errors.Is(err, ErrNoRemote) {
		t.Fatalf("expected ErrNoRemote, got %v", err)
	}
}

func TestRefresh_ConcurrentCallsShareFetch(t *testing.T) {
	rem := &fakeRemote{block: make(chan struct{})}
	repo := NewRepository(newFakeStore(), rem, nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = repo.Refresh(context.Background())
		}()
	}
	// Wait until the first fetch is in flight, then let it finish.
	deadline := time.Now().Add(2 * time.Second)
	for rem.callCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(rem.block)
	wg.Wait()
	if n := rem.callCount(); n > 2 {
		t.Fatalf("expected concurrent refreshes to collapse, got %d fetches", n)
	}
}

func TestRefresh_ReservationCommittedDuringPersistHoldsTable(t *testing.T) {
	clock := newFakeClock()
	store := newFakeStore()
	store.seed([]model.Customer{{ID: 1}}, []model.Table{{Number: 0, Available: true}})
	// A confirmation becomes visible between the table upsert and the end
	// of the refresh transaction.
	store.afterTxSaveTables = func(d *fakeData) {
		d.reservations["late"] = model.Reservation{ID: "late", CustomerID: 1, TableNumber: 0, ExpiresAt: clock.Now().Add(time.Minute)}
	}
	rem := &fakeRemote{snap: remote.Snapshot{Customers: []model.Customer{{ID: 1}}, Tables: []model.Table{{Number: 0, Available: true}}}}
	repo := NewRepository(store, rem, clock)

	s, err := repo.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(s.Reservations) != 1 || s.Tables[0].Available {
		t.Fatalf("expected table 0 held by the late reservation, got %#v", s.Tables)
	}
	tables, _ := store.ListTables(context.Background())
	if tables[0].Available {
		t.Fatalf("table 0 persisted as available")
	}
}

func TestRefresh_CancelledCallerDoesNotAbortSharedFetch(t *testing.T) {
	rem := &fakeRemote{
		block: make(chan struct{}),
		snap:  remote.Snapshot{Customers: []model.Customer{{ID: 1}}, Tables: []model.Table{{Number: 0, Available: true}}},
	}
	repo := NewRepository(newFakeStore(), rem, newFakeClock())

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := repo.Refresh(ctx)
		first <- err
	}()
	deadline := time.Now().Add(2 * time.Second)
	for rem.callCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	second := make(chan error, 1)
	go func() {
		_, err := repo.Refresh(context.Background())
		second <- err
	}()

	cancel()
	if err := <-first; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected the cancelled caller to return context.Canceled, got %v", err)
	}
	close(rem.block)
	if err := <-second; err != nil {
		t.Fatalf("joined caller failed: %v", err)
	}
	if err := rem.fetchCtxErr(); err != nil {
		t.Fatalf("shared fetch saw a cancelled context: %v", err)
	}
	if got := repo.Current(); got.Status != StatusReady {
		t.Fatalf("expected ready state, got %v", got.Status)
	}
}

func TestReloadLocal(t *testing.T) {
	store := newFakeStore()
	store.seed([]model.Customer{{ID: 3}}, []model.Table{{Number: 0, Available: true}})
	repo := NewRepository(store, nil, nil)
	s, err := repo.ReloadLocal(context.Background())
	if err != nil {
		t.Fatalf("ReloadLocal: %v", err)
	}
	if s.Status != StatusReady || s.Source != SourceLocal || len(s.Customers) != 1 {
		t.Fatalf("unexpected state: %#v", s)
	}

	store.listErr = errors.New("locked")
	s, err = repo.ReloadLocal(context.Background())
	if err == nil || s.Status != StatusError {
		t.Fatalf("expected error state, got %v %v", s.Status, err)
	}
}

func TestSubscribe_LatestWinsAndClosesOnCancel(t *testing.T) {
	repo := NewRepository(newFakeStore(), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	sub := repo.Subscribe(ctx)

	for i := 0; i < 5; i++ {
		repo.publish(ViewState{Status: StatusReady, Customers: make([]model.Customer, i)})
	}
	got := <-sub
	if len(got.Customers) != 4 {
		t.Fatalf("expected only the latest state, got %d customers", len(got.Customers))
	}

	cancel()
	select {
	case _, ok := <-sub:
		if ok {
			// A value may still be buffered; the next read must observe close.
			if _, ok := <-sub; ok {
				t.Fatalf("expected channel to close")
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("subscription did not close")
	}
}

func TestViewStateHelpers(t *testing.T) {
	s := ViewState{
		Customers:    []model.Customer{{ID: 1, FirstName: "A"}},
		Tables:       []model.Table{{Number: 0, Available: true}, {Number: 1}},
		Reservations: []model.Reservation{{ID: "x", CustomerID: 1, TableNumber: 1}},
	}
	if got := s.AvailableTables(); len(got) != 1 || got[0].Number != 0 {
		t.Fatalf("AvailableTables: %#v", got)
	}
	if r, ok := s.ReservationFor(1); !ok || r.ID != "x" {
		t.Fatalf("ReservationFor: %v %v", r, ok)
	}
	if _, ok := s.Customer(2); ok {
		t.Fatalf("expected unknown customer")
	}
	if StatusError.String() != "error" || SourceRemote.String() != "remote" {
		t.Fatalf("unexpected String values")
	}
}
